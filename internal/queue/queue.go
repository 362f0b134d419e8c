// Package queue implements the persisted review job queue: duplicate-safe
// enqueue, atomic claiming, exponential retry backoff, and stale-claim
// recovery. Exclusivity is delegated entirely to the datastore's conditional
// updates, so multiple worker processes may drain the same queue.
package queue

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/prguard/prguard/internal/core"
	"github.com/prguard/prguard/internal/storage"
)

const (
	// retryBase is the delay before the first retry.
	retryBase = 30 * time.Second
	// retryFactor multiplies the delay per prior attempt.
	retryFactor = 4
	// retryCap bounds the delay regardless of attempt count.
	retryCap = 8 * time.Minute

	// staleAfter is how long a processing claim may be held before the
	// sweep assumes the worker died.
	staleAfter = 10 * time.Minute
)

// Backoff returns the retry delay after the given number of completed
// attempts: min(30s * 4^attempts, 8m).
func Backoff(attempts int) time.Duration {
	d := retryBase
	for i := 0; i < attempts; i++ {
		d *= retryFactor
		if d >= retryCap {
			return retryCap
		}
	}
	return d
}

// Queue coordinates review jobs on top of the persisted store.
type Queue struct {
	jobs   storage.JobStore
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Queue over the given job store.
func New(jobs storage.JobStore, logger *slog.Logger) *Queue {
	return &Queue{jobs: jobs, logger: logger, now: time.Now}
}

// Enqueue inserts a new pending job for the pull request. It returns
// storage.ErrDuplicateJob when a live job already holds the (repo, PR) slot.
func (q *Queue) Enqueue(ctx context.Context, event *core.PullRequestEvent, decision *core.RiskDecision) (*core.ReviewJob, error) {
	var payload []byte
	if decision != nil {
		var err error
		payload, err = json.Marshal(decision)
		if err != nil {
			return nil, fmt.Errorf("encode risk decision: %w", err)
		}
	}

	job := &core.ReviewJob{
		ID:           ulid.MustNew(ulid.Timestamp(q.now()), rand.Reader).String(),
		RepoFullName: event.RepoFullName,
		RepoOwner:    event.RepoOwner,
		RepoName:     event.RepoName,
		PRNumber:     event.PRNumber,
		Status:       core.JobPending,
		MaxAttempts:  core.DefaultMaxAttempts,
		RiskPayload:  payload,
		CreatedAt:    q.now().UTC(),
	}

	if err := q.jobs.Insert(ctx, job); err != nil {
		return nil, err
	}

	q.logger.Info("review job queued",
		"job_id", job.ID, "repo", job.RepoFullName, "pr", job.PRNumber)
	return job, nil
}

// Claim takes the oldest eligible pending job, or storage.ErrNoJob.
func (q *Queue) Claim(ctx context.Context) (*core.ReviewJob, error) {
	return q.jobs.ClaimOldest(ctx)
}

// Complete marks a job terminally successful.
func (q *Queue) Complete(ctx context.Context, job *core.ReviewJob) error {
	if err := q.jobs.MarkCompleted(ctx, job.ID); err != nil {
		return err
	}
	q.logger.Info("review job completed",
		"job_id", job.ID, "repo", job.RepoFullName, "pr", job.PRNumber)
	return nil
}

// Fail records a failed attempt. Below the attempt ceiling the job goes back
// to pending with an exponential backoff gate and Fail returns false; at the
// ceiling the job fails terminally and Fail returns true.
func (q *Queue) Fail(ctx context.Context, job *core.ReviewJob, cause error) (bool, error) {
	attempts := job.Attempts + 1
	msg := cause.Error()

	if attempts < job.MaxAttempts {
		retryAt := q.now().UTC().Add(Backoff(job.Attempts))
		if err := q.jobs.MarkRetry(ctx, job.ID, msg, attempts, retryAt); err != nil {
			return false, err
		}
		q.logger.Warn("review job will retry",
			"job_id", job.ID, "repo", job.RepoFullName, "pr", job.PRNumber,
			"attempts", attempts, "retry_at", retryAt, "error", msg)
		return false, nil
	}

	if err := q.jobs.MarkFailed(ctx, job.ID, msg, attempts); err != nil {
		return false, err
	}
	q.logger.Error("review job failed permanently",
		"job_id", job.ID, "repo", job.RepoFullName, "pr", job.PRNumber,
		"attempts", attempts, "error", msg)
	return true, nil
}

// RecoverStale releases claims held in processing for longer than the
// staleness window.
func (q *Queue) RecoverStale(ctx context.Context) error {
	n, err := q.jobs.ResetStale(ctx, staleAfter)
	if err != nil {
		return err
	}
	if n > 0 {
		q.logger.Warn("recovered stale review jobs", "count", n)
	}
	return nil
}
