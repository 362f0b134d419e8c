package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/prguard/prguard/internal/core"
)

// ErrNoReview means no prior review exists for the pull request.
var ErrNoReview = errors.New("no previous review found")

// ReviewStore persists review history. Records are immutable; a re-review
// inserts a new row keyed by (repo, PR, head SHA, incremental).
type ReviewStore interface {
	Save(ctx context.Context, result *core.ReviewResult) error
	LatestForPR(ctx context.Context, repoFullName string, prNumber int) (*core.ReviewResult, error)
}

type reviewStore struct {
	db *sqlx.DB
}

// NewReviewStore creates a Postgres-backed ReviewStore.
func NewReviewStore(db *sqlx.DB) ReviewStore {
	return &reviewStore{db: db}
}

func (s *reviewStore) Save(ctx context.Context, result *core.ReviewResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal review result: %w", err)
	}

	query := `
		INSERT INTO reviews
			(repo_full_name, pr_number, head_sha, incremental, recommendation, degraded, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = s.db.ExecContext(ctx, query,
		result.RepoFullName, result.PRNumber, result.HeadSHA, result.Incremental,
		result.Recommendation, result.Degraded, payload, time.Now())
	if err != nil {
		return fmt.Errorf("save review: %w", err)
	}
	return nil
}

// LatestForPR returns the most recent review for a pull request. The
// orchestrator uses its head SHA to decide between full and incremental
// re-review.
func (s *reviewStore) LatestForPR(ctx context.Context, repoFullName string, prNumber int) (*core.ReviewResult, error) {
	query := `
		SELECT result, created_at FROM reviews
		WHERE repo_full_name = $1 AND pr_number = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var payload []byte
	var createdAt time.Time
	row := s.db.QueryRowContext(ctx, query, repoFullName, prNumber)
	if err := row.Scan(&payload, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoReview
		}
		return nil, fmt.Errorf("load latest review: %w", err)
	}

	var result core.ReviewResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode stored review: %w", err)
	}
	result.CreatedAt = createdAt
	return &result, nil
}
