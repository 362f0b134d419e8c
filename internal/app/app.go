// Package app initializes and wires the main components of the service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prguard/prguard/internal/config"
	"github.com/prguard/prguard/internal/db"
	"github.com/prguard/prguard/internal/github"
	"github.com/prguard/prguard/internal/llm"
	"github.com/prguard/prguard/internal/notify"
	"github.com/prguard/prguard/internal/queue"
	"github.com/prguard/prguard/internal/resilience"
	"github.com/prguard/prguard/internal/review"
	"github.com/prguard/prguard/internal/server"
	"github.com/prguard/prguard/internal/server/handler"
	"github.com/prguard/prguard/internal/storage"
)

// Breaker settings for the two outbound dependencies.
const (
	githubFailureThreshold = 5
	githubResetTimeout     = 60 * time.Second
	llmFailureThreshold    = 3
	llmResetTimeout        = 30 * time.Second
)

// App holds the initialized application components.
type App struct {
	cfg     *config.Config
	server  *server.Server
	logger  *slog.Logger
	cleanup func()
}

// NewApp builds the full service: database, stores, queue, platform and
// model clients, orchestrator, worker, and HTTP server.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	database, closeDB, err := db.New(&cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	jobStore := storage.NewJobStore(database.DB)
	reviewStore := storage.NewReviewStore(database.DB)
	repoStore := storage.NewRepoStore(database.DB)

	q := queue.New(jobStore, logger)

	githubBreaker := resilience.NewCircuitBreaker("github", githubFailureThreshold, githubResetTimeout)
	llmBreaker := resilience.NewCircuitBreaker("llm", llmFailureThreshold, llmResetTimeout)
	limiter := resilience.NewRateLimiter(cfg.Worker.RateMaxHits, cfg.Worker.RateWindow)
	stopGC := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.Worker.RateWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.GC()
			case <-stopGC:
				return
			}
		}
	}()

	ghClient, err := newGitHubClient(ctx, cfg, githubBreaker, logger)
	if err != nil {
		closeDB()
		return nil, err
	}

	provider := llm.NewAnthropicProvider(cfg.Anthropic, llmBreaker, logger)

	prompts, err := llm.NewPromptManager()
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("failed to initialize prompt manager: %w", err)
	}

	notifier := notify.NewLogNotifier(logger)
	orchestrator := review.NewOrchestrator(ghClient, provider, prompts, reviewStore, repoStore, logger)
	worker := review.NewWorker(q, orchestrator, notifier, logger, cfg.Worker.BatchSize, cfg.Worker.TimeBudget)

	router := server.NewRouter(server.Handlers{
		Webhook: handler.NewWebhookHandler(cfg.GitHub.WebhookSecret, limiter, q, ghClient, repoStore, notifier, logger),
		Review:  handler.NewReviewHandler(orchestrator, logger),
		Worker:  handler.NewWorkerHandler(worker, logger),
	}, logger)

	return &App{
		cfg:     cfg,
		server:  server.NewServer(cfg.ServerPort, router, logger),
		logger:  logger,
		cleanup: func() {
			close(stopGC)
			closeDB()
		},
	}, nil
}

// newGitHubClient authenticates as the configured App installation, or with
// a personal access token when no App is configured.
func newGitHubClient(ctx context.Context, cfg *config.Config, breaker *resilience.CircuitBreaker, logger *slog.Logger) (github.Client, error) {
	if cfg.GitHub.AppID != 0 && cfg.GitHub.InstallationID != 0 {
		client, err := github.CreateInstallationClient(ctx, cfg, cfg.GitHub.InstallationID, breaker, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create installation client: %w", err)
		}
		return client, nil
	}

	client, err := github.CreateTokenClient(ctx, cfg.GitHub.Token, breaker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create token client: %w", err)
	}
	return client, nil
}

// Run starts the HTTP server and blocks until it stops.
func (a *App) Run() error {
	return a.server.Start()
}

// Stop shuts the server down and releases resources.
func (a *App) Stop() error {
	defer a.cleanup()
	return a.server.Stop()
}
