// Package storage implements the Postgres persistence for review jobs,
// review history, and per-repository settings.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/prguard/prguard/internal/core"
)

var (
	// ErrDuplicateJob means a live job already exists for the (repo, PR) key.
	ErrDuplicateJob = errors.New("a review job for this pull request is already queued")
	// ErrNoJob means no pending job is eligible for claiming right now.
	ErrNoJob = errors.New("no job available")
	// ErrJobNotFound means the referenced job id does not exist.
	ErrJobNotFound = errors.New("job not found")
)

// JobStore persists the review job queue. Claim must be a single atomic
// conditional update so that concurrent workers never take the same job.
type JobStore interface {
	Insert(ctx context.Context, job *core.ReviewJob) error
	ClaimOldest(ctx context.Context) (*core.ReviewJob, error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkRetry(ctx context.Context, jobID, lastError string, attempts int, nextRetryAt time.Time) error
	MarkFailed(ctx context.Context, jobID, lastError string, attempts int) error
	ResetStale(ctx context.Context, olderThan time.Duration) (int64, error)
	GetByID(ctx context.Context, jobID string) (*core.ReviewJob, error)
	ListRecent(ctx context.Context, limit int) ([]core.ReviewJob, error)
}

type jobStore struct {
	db *sqlx.DB
}

// NewJobStore creates a Postgres-backed JobStore.
func NewJobStore(db *sqlx.DB) JobStore {
	return &jobStore{db: db}
}

const jobColumns = `id, repo_full_name, repo_owner, repo_name, pr_number, status,
	attempts, max_attempts, risk_payload, last_error, next_retry_at,
	created_at, started_at, completed_at`

// Insert adds a pending job. The partial unique index on live jobs turns a
// concurrent duplicate into a constraint violation, reported as
// ErrDuplicateJob.
func (s *jobStore) Insert(ctx context.Context, job *core.ReviewJob) error {
	query := `
		INSERT INTO review_jobs
			(id, repo_full_name, repo_owner, repo_name, pr_number, status,
			 attempts, max_attempts, risk_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		job.ID, job.RepoFullName, job.RepoOwner, job.RepoName, job.PRNumber,
		job.Status, job.Attempts, job.MaxAttempts, job.RiskPayload, job.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateJob
		}
		return fmt.Errorf("insert review job: %w", err)
	}
	return nil
}

// ClaimOldest atomically selects the oldest eligible pending job and moves it
// to processing. FOR UPDATE SKIP LOCKED keeps concurrent workers from
// blocking on or double-claiming the same row.
func (s *jobStore) ClaimOldest(ctx context.Context) (*core.ReviewJob, error) {
	query := `
		UPDATE review_jobs SET status = 'processing', started_at = now()
		WHERE id = (
			SELECT id FROM review_jobs
			WHERE status = 'pending'
			  AND (next_retry_at IS NULL OR next_retry_at <= now())
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	var job core.ReviewJob
	if err := s.db.GetContext(ctx, &job, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoJob
		}
		return nil, fmt.Errorf("claim review job: %w", err)
	}
	return &job, nil
}

func (s *jobStore) MarkCompleted(ctx context.Context, jobID string) error {
	return s.exec(ctx, jobID,
		`UPDATE review_jobs SET status = 'completed', completed_at = now() WHERE id = $1`, jobID)
}

// MarkRetry sends a failed job back to pending, gated by next_retry_at.
func (s *jobStore) MarkRetry(ctx context.Context, jobID, lastError string, attempts int, nextRetryAt time.Time) error {
	return s.exec(ctx, jobID, `
		UPDATE review_jobs
		SET status = 'pending', attempts = $2, last_error = $3, next_retry_at = $4
		WHERE id = $1`,
		jobID, attempts, lastError, nextRetryAt)
}

// MarkFailed records terminal failure after the attempt ceiling.
func (s *jobStore) MarkFailed(ctx context.Context, jobID, lastError string, attempts int) error {
	return s.exec(ctx, jobID, `
		UPDATE review_jobs
		SET status = 'failed', attempts = $2, last_error = $3, completed_at = now()
		WHERE id = $1`,
		jobID, attempts, lastError)
}

// ResetStale returns jobs stuck in processing to pending. A crashed worker
// leaves its claim behind; the staleness sweep releases it.
func (s *jobStore) ResetStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE review_jobs
		SET status = 'pending', started_at = NULL
		WHERE status = 'processing' AND started_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("reset stale jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset stale jobs: %w", err)
	}
	return n, nil
}

func (s *jobStore) GetByID(ctx context.Context, jobID string) (*core.ReviewJob, error) {
	var job core.ReviewJob
	err := s.db.GetContext(ctx, &job,
		`SELECT `+jobColumns+` FROM review_jobs WHERE id = $1`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get review job: %w", err)
	}
	return &job, nil
}

func (s *jobStore) ListRecent(ctx context.Context, limit int) ([]core.ReviewJob, error) {
	var jobs []core.ReviewJob
	err := s.db.SelectContext(ctx, &jobs,
		`SELECT `+jobColumns+` FROM review_jobs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list review jobs: %w", err)
	}
	return jobs, nil
}

func (s *jobStore) exec(ctx context.Context, jobID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update review job %s: %w", jobID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrJobNotFound
	}
	return nil
}
