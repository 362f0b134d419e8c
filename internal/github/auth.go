package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/prguard/prguard/internal/config"
	"github.com/prguard/prguard/internal/resilience"
)

// requestTimeout bounds every outbound GitHub API call.
const requestTimeout = 30 * time.Second

// CreateInstallationClient authenticates as a specific GitHub App
// installation and returns a pipeline client for it.
func CreateInstallationClient(ctx context.Context, cfg *config.Config, installationID int64, breaker *resilience.CircuitBreaker, logger *slog.Logger) (Client, error) {
	logger.Info("creating installation client", "installation_id", installationID)

	privateKey, err := os.ReadFile(cfg.GitHub.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", cfg.GitHub.PrivateKeyPath, err)
	}

	appTransport, err := ghinstallation.NewAppsTransport(http.DefaultTransport, cfg.GitHub.AppID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create app transport: %w", err)
	}
	appClient := github.NewClient(&http.Client{Transport: appTransport})

	token, _, err := appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token for installation %d: %w", installationID, err)
	}
	if token.GetToken() == "" {
		return nil, fmt.Errorf("received an empty installation token")
	}
	logger.Info("installation token created", "installation_id", installationID, "expires_at", token.GetExpiresAt())

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.GetToken()})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = requestTimeout

	return NewClient(github.NewClient(tc), breaker, logger), nil
}

// CreateTokenClient builds a pipeline client from a personal access token.
// Used by the CLI and by deployments that run without a GitHub App.
func CreateTokenClient(ctx context.Context, token string, breaker *resilience.CircuitBreaker, logger *slog.Logger) (Client, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is empty")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = requestTimeout

	return NewClient(github.NewClient(tc), breaker, logger), nil
}
