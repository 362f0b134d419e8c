package review

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prguard/prguard/internal/core"
	"github.com/prguard/prguard/internal/notify"
	"github.com/prguard/prguard/internal/queue"
	"github.com/prguard/prguard/internal/storage"
)

// Runner reviews one claimed job. *Orchestrator is the production
// implementation.
type Runner interface {
	Run(ctx context.Context, job *core.ReviewJob) (*core.ReviewResult, error)
}

// Worker drains the job queue in batches. It is designed to be invoked
// periodically (scheduler, cron, or the /worker endpoint) rather than run
// as a long-lived loop, so every invocation is bounded in both job count
// and wall-clock time.
type Worker struct {
	queue        *queue.Queue
	orchestrator Runner
	notifier     notify.Notifier
	logger       *slog.Logger

	batchSize  int
	timeBudget time.Duration
	now        func() time.Time
}

// NewWorker builds a worker with the given batch size and time budget.
func NewWorker(q *queue.Queue, orchestrator Runner, notifier notify.Notifier, logger *slog.Logger, batchSize int, timeBudget time.Duration) *Worker {
	if batchSize <= 0 {
		batchSize = 5
	}
	if timeBudget <= 0 {
		timeBudget = 4 * time.Minute
	}
	return &Worker{
		queue:        q,
		orchestrator: orchestrator,
		notifier:     notifier,
		logger:       logger,
		batchSize:    batchSize,
		timeBudget:   timeBudget,
		now:          time.Now,
	}
}

// RunOnce sweeps stale jobs back to pending, then claims and processes up
// to the batch size of jobs within the time budget. It returns the number
// of jobs processed.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	if err := w.queue.RecoverStale(ctx); err != nil {
		w.logger.Error("stale job recovery failed", "error", err)
	}

	deadline := w.now().Add(w.timeBudget)
	processed := 0

	for processed < w.batchSize {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if !w.now().Before(deadline) {
			w.logger.Info("worker time budget exhausted", "processed", processed)
			break
		}

		job, err := w.queue.Claim(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrNoJob) {
				break
			}
			return processed, err
		}

		w.process(ctx, job)
		processed++
	}

	return processed, nil
}

// process runs one job through the orchestrator and settles its queue
// state. Skips complete the job; other errors go through the retry gate.
func (w *Worker) process(ctx context.Context, job *core.ReviewJob) {
	result, err := w.orchestrator.Run(ctx, job)

	switch {
	case err == nil:
		if cerr := w.queue.Complete(ctx, job); cerr != nil {
			w.logger.Error("failed to mark job completed", "job_id", job.ID, "error", cerr)
			return
		}
		w.notifier.ReviewCompleted(ctx, job, result)

	case errors.Is(err, ErrSkip):
		w.logger.Info("job skipped", "job_id", job.ID, "reason", err)
		if cerr := w.queue.Complete(ctx, job); cerr != nil {
			w.logger.Error("failed to mark skipped job completed", "job_id", job.ID, "error", cerr)
		}

	default:
		terminal, ferr := w.queue.Fail(ctx, job, err)
		if ferr != nil {
			w.logger.Error("failed to record job failure", "job_id", job.ID, "error", ferr)
			return
		}
		w.notifier.ReviewFailed(ctx, job, err, terminal)
	}
}
