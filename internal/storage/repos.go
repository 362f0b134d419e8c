package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/prguard/prguard/internal/core"
)

// RepoStore reads and writes per-repository review settings. A repository
// with no stored row gets the defaults.
type RepoStore interface {
	GetSettings(ctx context.Context, repoFullName string) (*core.RepoSettings, error)
	UpsertSettings(ctx context.Context, settings *core.RepoSettings) error
}

type repoStore struct {
	db *sqlx.DB
}

// NewRepoStore creates a Postgres-backed RepoStore.
func NewRepoStore(db *sqlx.DB) RepoStore {
	return &repoStore{db: db}
}

func (s *repoStore) GetSettings(ctx context.Context, repoFullName string) (*core.RepoSettings, error) {
	query := `
		SELECT repo_full_name, enabled, auto_review, categories, ignore_paths, custom_instructions
		FROM repo_settings
		WHERE repo_full_name = $1`

	settings := &core.RepoSettings{}
	row := s.db.QueryRowContext(ctx, query, repoFullName)
	err := row.Scan(
		&settings.RepoFullName,
		&settings.Enabled,
		&settings.AutoReview,
		pq.Array(&settings.Categories),
		pq.Array(&settings.IgnorePaths),
		&settings.CustomInstructions,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.DefaultRepoSettings(repoFullName), nil
		}
		return nil, fmt.Errorf("load repo settings: %w", err)
	}
	return settings, nil
}

func (s *repoStore) UpsertSettings(ctx context.Context, settings *core.RepoSettings) error {
	query := `
		INSERT INTO repo_settings
			(repo_full_name, enabled, auto_review, categories, ignore_paths, custom_instructions, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (repo_full_name) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			auto_review = EXCLUDED.auto_review,
			categories = EXCLUDED.categories,
			ignore_paths = EXCLUDED.ignore_paths,
			custom_instructions = EXCLUDED.custom_instructions,
			updated_at = now()`

	_, err := s.db.ExecContext(ctx, query,
		settings.RepoFullName, settings.Enabled, settings.AutoReview,
		pq.Array(settings.Categories), pq.Array(settings.IgnorePaths),
		settings.CustomInstructions)
	if err != nil {
		return fmt.Errorf("upsert repo settings: %w", err)
	}
	return nil
}
