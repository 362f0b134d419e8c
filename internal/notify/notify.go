// Package notify emits pipeline lifecycle events. The default sink is the
// structured log; deployments that want chat or email fan-out implement
// Notifier against their own transport.
package notify

import (
	"context"
	"log/slog"

	"github.com/prguard/prguard/internal/core"
)

// Notifier receives job lifecycle events. Implementations must not block
// the pipeline; failures are logged and swallowed by the caller.
type Notifier interface {
	JobEnqueued(ctx context.Context, job *core.ReviewJob)
	ReviewCompleted(ctx context.Context, job *core.ReviewJob, result *core.ReviewResult)
	ReviewFailed(ctx context.Context, job *core.ReviewJob, cause error, terminal bool)
}

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a Notifier that writes lifecycle events to the
// structured log.
func NewLogNotifier(logger *slog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) JobEnqueued(_ context.Context, job *core.ReviewJob) {
	n.logger.Info("review job enqueued",
		"job_id", job.ID, "repo", job.RepoFullName, "pr", job.PRNumber)
}

func (n *logNotifier) ReviewCompleted(_ context.Context, job *core.ReviewJob, result *core.ReviewResult) {
	n.logger.Info("review completed",
		"job_id", job.ID, "repo", job.RepoFullName, "pr", job.PRNumber,
		"recommendation", result.Recommendation,
		"comments", len(result.LineComments),
		"incremental", result.Incremental,
		"degraded", result.Degraded)
}

func (n *logNotifier) ReviewFailed(_ context.Context, job *core.ReviewJob, cause error, terminal bool) {
	if terminal {
		n.logger.Error("review failed permanently",
			"job_id", job.ID, "repo", job.RepoFullName, "pr", job.PRNumber,
			"attempts", job.Attempts, "error", cause)
		return
	}
	n.logger.Warn("review attempt failed, will retry",
		"job_id", job.ID, "repo", job.RepoFullName, "pr", job.PRNumber,
		"attempts", job.Attempts, "error", cause)
}
