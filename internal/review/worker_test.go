package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prguard/prguard/internal/core"
	"github.com/prguard/prguard/internal/queue"
	"github.com/prguard/prguard/internal/storage"
)

// fakeJobStore is a minimal in-memory JobStore for worker tests.
type fakeJobStore struct {
	mu   sync.Mutex
	jobs []*core.ReviewJob
}

func (s *fakeJobStore) Insert(_ context.Context, job *core.ReviewJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs = append(s.jobs, &copied)
	return nil
}

func (s *fakeJobStore) ClaimOldest(_ context.Context) (*core.ReviewJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.Status == core.JobPending {
			if j.NextRetryAt.Valid && j.NextRetryAt.Time.After(time.Now()) {
				continue
			}
			j.Status = core.JobProcessing
			copied := *j
			return &copied, nil
		}
	}
	return nil, storage.ErrNoJob
}

func (s *fakeJobStore) MarkCompleted(_ context.Context, jobID string) error {
	return s.setStatus(jobID, core.JobCompleted)
}

func (s *fakeJobStore) MarkRetry(_ context.Context, jobID, lastError string, attempts int, nextRetryAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.ID == jobID {
			j.Status = core.JobPending
			j.Attempts = attempts
			j.LastError.String = lastError
			j.LastError.Valid = true
			j.NextRetryAt.Time = nextRetryAt
			j.NextRetryAt.Valid = true
			return nil
		}
	}
	return storage.ErrJobNotFound
}

func (s *fakeJobStore) MarkFailed(_ context.Context, jobID, lastError string, attempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.ID == jobID {
			j.Status = core.JobFailed
			j.Attempts = attempts
			j.LastError.String = lastError
			j.LastError.Valid = true
			return nil
		}
	}
	return storage.ErrJobNotFound
}

func (s *fakeJobStore) ResetStale(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

func (s *fakeJobStore) GetByID(_ context.Context, jobID string) (*core.ReviewJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.ID == jobID {
			copied := *j
			return &copied, nil
		}
	}
	return nil, storage.ErrJobNotFound
}

func (s *fakeJobStore) ListRecent(_ context.Context, limit int) ([]core.ReviewJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ReviewJob, 0, limit)
	for _, j := range s.jobs {
		if len(out) == limit {
			break
		}
		out = append(out, *j)
	}
	return out, nil
}

func (s *fakeJobStore) setStatus(jobID string, status core.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.ID == jobID {
			j.Status = status
			return nil
		}
	}
	return storage.ErrJobNotFound
}

func (s *fakeJobStore) seed(n int) {
	for i := 0; i < n; i++ {
		s.jobs = append(s.jobs, &core.ReviewJob{
			ID:           fmt.Sprintf("job-%d", i),
			RepoFullName: "acme/widgets",
			RepoOwner:    "acme",
			RepoName:     "widgets",
			PRNumber:     i + 1,
			Status:       core.JobPending,
			MaxAttempts:  core.DefaultMaxAttempts,
		})
	}
}

// stubRunner returns canned results keyed by job ID.
type stubRunner struct {
	errs map[string]error
	runs []string
}

func (r *stubRunner) Run(_ context.Context, job *core.ReviewJob) (*core.ReviewResult, error) {
	r.runs = append(r.runs, job.ID)
	if err := r.errs[job.ID]; err != nil {
		return nil, err
	}
	return &core.ReviewResult{
		RepoFullName:   job.RepoFullName,
		PRNumber:       job.PRNumber,
		Recommendation: core.RecommendComment,
	}, nil
}

// recordingNotifier captures lifecycle events.
type recordingNotifier struct {
	completed []string
	failed    []string
	terminal  []bool
}

func (n *recordingNotifier) JobEnqueued(context.Context, *core.ReviewJob) {}

func (n *recordingNotifier) ReviewCompleted(_ context.Context, job *core.ReviewJob, _ *core.ReviewResult) {
	n.completed = append(n.completed, job.ID)
}

func (n *recordingNotifier) ReviewFailed(_ context.Context, job *core.ReviewJob, _ error, terminal bool) {
	n.failed = append(n.failed, job.ID)
	n.terminal = append(n.terminal, terminal)
}

func newWorkerFixture(store *fakeJobStore, runner Runner, notifier *recordingNotifier, batchSize int) *Worker {
	q := queue.New(store, slog.Default())
	return NewWorker(q, runner, notifier, slog.Default(), batchSize, time.Minute)
}

func TestRunOnceDrainsQueue(t *testing.T) {
	store := &fakeJobStore{}
	store.seed(2)
	runner := &stubRunner{}
	notifier := &recordingNotifier{}
	w := newWorkerFixture(store, runner, notifier, 5)

	processed, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, processed)
	assert.Equal(t, []string{"job-0", "job-1"}, runner.runs)
	assert.Equal(t, []string{"job-0", "job-1"}, notifier.completed)
	for _, j := range store.jobs {
		assert.Equal(t, core.JobCompleted, j.Status)
	}
}

func TestRunOnceRespectsBatchSize(t *testing.T) {
	store := &fakeJobStore{}
	store.seed(3)
	runner := &stubRunner{}
	w := newWorkerFixture(store, runner, &recordingNotifier{}, 2)

	processed, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, processed)
	job, err := store.GetByID(context.Background(), "job-2")
	require.NoError(t, err)
	assert.Equal(t, core.JobPending, job.Status)
}

func TestRunOnceCompletesSkippedJobs(t *testing.T) {
	store := &fakeJobStore{}
	store.seed(1)
	runner := &stubRunner{errs: map[string]error{
		"job-0": fmt.Errorf("%w: reviews disabled", ErrSkip),
	}}
	notifier := &recordingNotifier{}
	w := newWorkerFixture(store, runner, notifier, 5)

	processed, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, processed)
	assert.Empty(t, notifier.failed)
	job, err := store.GetByID(context.Background(), "job-0")
	require.NoError(t, err)
	assert.Equal(t, core.JobCompleted, job.Status)
}

func TestRunOnceRetriesFailedJob(t *testing.T) {
	store := &fakeJobStore{}
	store.seed(1)
	runner := &stubRunner{errs: map[string]error{
		"job-0": errors.New("model unavailable"),
	}}
	notifier := &recordingNotifier{}
	w := newWorkerFixture(store, runner, notifier, 5)

	processed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	require.Len(t, notifier.failed, 1)
	assert.False(t, notifier.terminal[0])

	job, err := store.GetByID(context.Background(), "job-0")
	require.NoError(t, err)
	assert.Equal(t, core.JobPending, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Contains(t, job.LastError.String, "model unavailable")
}
