//go:build wireinject
// +build wireinject

package wire

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/prguard/prguard/internal/app"
	"github.com/prguard/prguard/internal/config"
	"github.com/prguard/prguard/internal/logger"
)

// InitializeApp builds the application from configuration.
func InitializeApp(ctx context.Context) (*app.App, error) {
	wire.Build(
		config.LoadConfig,
		provideLogger,
		app.NewApp,
	)
	return &app.App{}, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg.LogLevel, cfg.LogFormat, nil)
}
