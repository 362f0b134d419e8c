// Package config loads application configuration from environment
// variables and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// GitHubConfig holds GitHub App and webhook settings. Token is an optional
// personal access token used when the service runs without an App
// installation.
type GitHubConfig struct {
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
	WebhookSecret  string
	Token          string
}

// AnthropicConfig holds the LLM provider settings.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// WorkerConfig controls the background job processor.
type WorkerConfig struct {
	BatchSize   int
	TimeBudget  time.Duration
	RateWindow  time.Duration
	RateMaxHits int
}

// Config holds the application's configuration values.
type Config struct {
	ServerPort string
	LogLevel   slog.Level
	LogFormat  string

	DB        DBConfig
	GitHub    GitHubConfig
	Anthropic AnthropicConfig
	Worker    WorkerConfig
}

// LoadConfig reads configuration from environment variables and a .env
// file, sets defaults, and validates required fields.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "prguard")
	viper.SetDefault("DB_NAME", "prguard")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 10)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")

	viper.SetDefault("GITHUB_PRIVATE_KEY_PATH", "keys/prguard-app.private-key.pem")

	viper.SetDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514")
	viper.SetDefault("ANTHROPIC_MAX_TOKENS", 4096)

	viper.SetDefault("WORKER_BATCH_SIZE", 5)
	viper.SetDefault("WORKER_TIME_BUDGET", "4m")
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")
	viper.SetDefault("RATE_LIMIT_MAX_HITS", 30)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	if viper.GetString("ANTHROPIC_API_KEY") == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY must be set")
	}
	if viper.GetString("DB_PASSWORD") == "" {
		return nil, fmt.Errorf("DB_PASSWORD must be set")
	}
	// Either App credentials or a PAT must be present.
	if viper.GetInt64("GITHUB_APP_ID") == 0 && viper.GetString("GITHUB_TOKEN") == "" {
		return nil, fmt.Errorf("either GITHUB_APP_ID or GITHUB_TOKEN must be set")
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	timeBudget, err := time.ParseDuration(viper.GetString("WORKER_TIME_BUDGET"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_TIME_BUDGET: %w", err)
	}
	rateWindow, err := time.ParseDuration(viper.GetString("RATE_LIMIT_WINDOW"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}

	return &Config{
		ServerPort: viper.GetString("SERVER_PORT"),
		LogLevel:   parseLogLevel(viper.GetString("LOG_LEVEL")),
		LogFormat:  viper.GetString("LOG_FORMAT"),
		DB: DBConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			Username:        viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSL_MODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		GitHub: GitHubConfig{
			AppID:          viper.GetInt64("GITHUB_APP_ID"),
			InstallationID: viper.GetInt64("GITHUB_INSTALLATION_ID"),
			PrivateKeyPath: viper.GetString("GITHUB_PRIVATE_KEY_PATH"),
			WebhookSecret:  viper.GetString("GITHUB_WEBHOOK_SECRET"),
			Token:          viper.GetString("GITHUB_TOKEN"),
		},
		Anthropic: AnthropicConfig{
			APIKey:    viper.GetString("ANTHROPIC_API_KEY"),
			Model:     viper.GetString("ANTHROPIC_MODEL"),
			MaxTokens: viper.GetInt("ANTHROPIC_MAX_TOKENS"),
		},
		Worker: WorkerConfig{
			BatchSize:   viper.GetInt("WORKER_BATCH_SIZE"),
			TimeBudget:  timeBudget,
			RateWindow:  rateWindow,
			RateMaxHits: viper.GetInt("RATE_LIMIT_MAX_HITS"),
		},
	}, nil
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	default:
		slog.Warn("unrecognized log level, defaulting to info", "provided", raw)
		return slog.LevelInfo
	}
}
