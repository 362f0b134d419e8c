package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prguard/prguard/internal/config"
	"github.com/prguard/prguard/internal/db"
	"github.com/prguard/prguard/internal/github"
	"github.com/prguard/prguard/internal/llm"
	"github.com/prguard/prguard/internal/logger"
	"github.com/prguard/prguard/internal/notify"
	"github.com/prguard/prguard/internal/queue"
	"github.com/prguard/prguard/internal/resilience"
	"github.com/prguard/prguard/internal/review"
	"github.com/prguard/prguard/internal/storage"
)

// cliEnv holds the services a CLI command needs. Unlike the server, CLI
// commands always talk to GitHub with a personal access token.
type cliEnv struct {
	cfg          *config.Config
	logger       *slog.Logger
	jobs         storage.JobStore
	queue        *queue.Queue
	orchestrator *review.Orchestrator
	worker       *review.Worker
}

// buildEnv constructs the CLI service graph. The returned cleanup closes
// the database pool.
func buildEnv(ctx context.Context) (*cliEnv, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w\n\nTip: Check that your .env file exists and is valid", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, nil)

	if cfg.GitHub.Token == "" {
		return nil, nil, fmt.Errorf("GITHUB_TOKEN is not set\n\nTip: Pass --github-token or set the GITHUB_TOKEN environment variable")
	}

	database, closeDB, err := db.New(&cfg.DB, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	jobStore := storage.NewJobStore(database.DB)
	reviewStore := storage.NewReviewStore(database.DB)
	repoStore := storage.NewRepoStore(database.DB)
	q := queue.New(jobStore, log)

	githubBreaker := resilience.NewCircuitBreaker("github", 5, 60*time.Second)
	llmBreaker := resilience.NewCircuitBreaker("llm", 3, 30*time.Second)

	ghClient, err := github.CreateTokenClient(ctx, cfg.GitHub.Token, githubBreaker, log)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	provider := llm.NewAnthropicProvider(cfg.Anthropic, llmBreaker, log)
	prompts, err := llm.NewPromptManager()
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	orchestrator := review.NewOrchestrator(ghClient, provider, prompts, reviewStore, repoStore, log)
	worker := review.NewWorker(q, orchestrator, notify.NewLogNotifier(log), log, cfg.Worker.BatchSize, cfg.Worker.TimeBudget)

	return &cliEnv{
		cfg:          cfg,
		logger:       log,
		jobs:         jobStore,
		queue:        q,
		orchestrator: orchestrator,
		worker:       worker,
	}, closeDB, nil
}
