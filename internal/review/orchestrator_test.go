package review

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	gh "github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/prguard/prguard/internal/core"
	ghc "github.com/prguard/prguard/internal/github"
	"github.com/prguard/prguard/internal/llm"
	"github.com/prguard/prguard/internal/storage"
	"github.com/prguard/prguard/mocks"
)

const testDiff = `diff --git a/internal/auth/middleware.go b/internal/auth/middleware.go
index 1111111..2222222 100644
--- a/internal/auth/middleware.go
+++ b/internal/auth/middleware.go
@@ -40,3 +40,4 @@ func refresh() {
 	ctx := r.Context()
+	log.Printf("token: %s", token)
 	next.ServeHTTP(w, r)
 }
`

const testPatch = `@@ -40,3 +40,4 @@ func refresh() {
 	ctx := r.Context()
+	log.Printf("token: %s", token)
 	next.ServeHTTP(w, r)
 }`

const modelReply = `{
  "summary": {
    "overview": "Adds token refresh handling.",
    "risk_assessment": "Token logging is risky."
  },
  "walkthrough": [
    {"path": "internal/auth/middleware.go", "summary": "adds refresh logging"}
  ],
  "line_comments": [
    {"path": "internal/auth/middleware.go", "line": 41, "body": "Token is logged in plain text.", "severity": "high", "category": "security"}
  ],
  "recommendation": "request_changes"
}`

type orchestratorFixture struct {
	gh       *mocks.MockClient
	provider *mocks.MockProvider
	reviews  *mocks.MockReviewStore
	repos    *mocks.MockRepoStore
	orch     *Orchestrator
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	prompts, err := llm.NewPromptManager()
	require.NoError(t, err)

	f := &orchestratorFixture{
		gh:       mocks.NewMockClient(ctrl),
		provider: mocks.NewMockProvider(ctrl),
		reviews:  mocks.NewMockReviewStore(ctrl),
		repos:    mocks.NewMockRepoStore(ctrl),
	}
	f.orch = NewOrchestrator(f.gh, f.provider, prompts, f.reviews, f.repos, slog.Default())
	return f
}

func changedFiles() []ghc.ChangedFile {
	return []ghc.ChangedFile{{Filename: "internal/auth/middleware.go", Patch: testPatch}}
}

func testJob() *core.ReviewJob {
	return &core.ReviewJob{
		ID:           "01TESTJOB",
		RepoFullName: "acme/widgets",
		RepoOwner:    "acme",
		RepoName:     "widgets",
		PRNumber:     7,
		Status:       core.JobProcessing,
		MaxAttempts:  core.DefaultMaxAttempts,
	}
}

func openPR(headSHA string) *gh.PullRequest {
	return &gh.PullRequest{
		State: gh.Ptr("open"),
		Title: gh.Ptr("Add token refresh"),
		Body:  gh.Ptr("Refreshes tokens before expiry."),
		Head:  &gh.PullRequestBranch{SHA: gh.Ptr(headSHA)},
		Base:  &gh.PullRequestBranch{Ref: gh.Ptr("main")},
	}
}

func TestRunFullReview(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()
	job := testJob()

	f.repos.EXPECT().GetSettings(ctx, "acme/widgets").Return(core.DefaultRepoSettings("acme/widgets"), nil)
	f.gh.EXPECT().GetPullRequest(ctx, "acme", "widgets", 7).Return(openPR("abc123"), nil)
	f.gh.EXPECT().GetFileContent(ctx, "acme", "widgets", ".prguard.yml", "abc123").Return(nil, errors.New("not found"))
	f.reviews.EXPECT().LatestForPR(ctx, "acme/widgets", 7).Return(nil, storage.ErrNoReview)
	f.gh.EXPECT().GetPullRequestDiff(ctx, "acme", "widgets", 7).Return(testDiff, nil)
	f.gh.EXPECT().CreateCheckRun(ctx, "acme", "widgets", gomock.Any()).Return(&gh.CheckRun{ID: gh.Ptr(int64(99))}, nil)
	f.provider.EXPECT().Chat(ctx, gomock.Any()).Return(modelReply, nil)
	f.gh.EXPECT().GetChangedFiles(ctx, "acme", "widgets", 7).Return(
		changedFiles(), nil)
	f.gh.EXPECT().CreateReview(ctx, "acme", "widgets", 7, gomock.Any(), core.RecommendRequestChanges, gomock.Any()).Return(nil)
	f.reviews.EXPECT().Save(ctx, gomock.Any()).Return(nil)
	f.gh.EXPECT().UpdateCheckRun(ctx, "acme", "widgets", int64(99), gomock.Any()).Return(&gh.CheckRun{}, nil)

	result, err := f.orch.Run(ctx, job)
	require.NoError(t, err)

	assert.Equal(t, "abc123", result.HeadSHA)
	assert.False(t, result.Incremental)
	assert.False(t, result.Degraded)
	assert.Equal(t, core.RecommendRequestChanges, result.Recommendation)
	require.Len(t, result.LineComments, 1)
	assert.Equal(t, 41, result.LineComments[0].Line)
}

func TestRunSkipsDisabledRepo(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	settings := core.DefaultRepoSettings("acme/widgets")
	settings.Enabled = false
	f.repos.EXPECT().GetSettings(ctx, "acme/widgets").Return(settings, nil)

	_, err := f.orch.Run(ctx, testJob())
	assert.ErrorIs(t, err, ErrSkip)
}

func TestRunSkipsDraftAndClosed(t *testing.T) {
	tests := []struct {
		name string
		pr   *gh.PullRequest
	}{
		{"draft", &gh.PullRequest{State: gh.Ptr("open"), Draft: gh.Ptr(true)}},
		{"closed", &gh.PullRequest{State: gh.Ptr("closed")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrchestratorFixture(t)
			ctx := context.Background()

			f.repos.EXPECT().GetSettings(ctx, "acme/widgets").Return(core.DefaultRepoSettings("acme/widgets"), nil)
			f.gh.EXPECT().GetPullRequest(ctx, "acme", "widgets", 7).Return(tt.pr, nil)

			_, err := f.orch.Run(ctx, testJob())
			assert.ErrorIs(t, err, ErrSkip)
		})
	}
}

func TestRunDegradedOnUnparseableReply(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()
	job := testJob()

	f.repos.EXPECT().GetSettings(ctx, "acme/widgets").Return(core.DefaultRepoSettings("acme/widgets"), nil)
	f.gh.EXPECT().GetPullRequest(ctx, "acme", "widgets", 7).Return(openPR("abc123"), nil)
	f.gh.EXPECT().GetFileContent(ctx, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("not found"))
	f.reviews.EXPECT().LatestForPR(ctx, "acme/widgets", 7).Return(nil, storage.ErrNoReview)
	f.gh.EXPECT().GetPullRequestDiff(ctx, "acme", "widgets", 7).Return(testDiff, nil)
	f.gh.EXPECT().CreateCheckRun(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(&gh.CheckRun{ID: gh.Ptr(int64(5))}, nil)
	f.provider.EXPECT().Chat(ctx, gomock.Any()).Return("I refuse to emit JSON today.", nil)
	f.gh.EXPECT().CreateReview(ctx, "acme", "widgets", 7, gomock.Any(), core.RecommendComment, gomock.Any()).Return(nil)
	f.reviews.EXPECT().Save(ctx, gomock.Any()).Return(nil)
	f.gh.EXPECT().UpdateCheckRun(ctx, gomock.Any(), gomock.Any(), int64(5), gomock.Any()).Return(&gh.CheckRun{}, nil)

	result, err := f.orch.Run(ctx, job)
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, core.RecommendComment, result.Recommendation)
	assert.Contains(t, result.Summary.Overview, "manual review is recommended")
	assert.Contains(t, result.Summary.Overview, "I refuse to emit JSON today.")
}

func TestRunIncrementalReview(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()
	job := testJob()

	prev := &core.ReviewResult{
		HeadSHA: "old111",
		Summary: core.ReviewSummary{Overview: "Initial review."},
	}

	f.repos.EXPECT().GetSettings(ctx, "acme/widgets").Return(core.DefaultRepoSettings("acme/widgets"), nil)
	f.gh.EXPECT().GetPullRequest(ctx, "acme", "widgets", 7).Return(openPR("new222"), nil)
	f.gh.EXPECT().GetFileContent(ctx, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("not found"))
	f.reviews.EXPECT().LatestForPR(ctx, "acme/widgets", 7).Return(prev, nil)
	f.gh.EXPECT().GetCompareDiff(ctx, "acme", "widgets", "old111", "new222").Return(testDiff, nil)
	f.gh.EXPECT().CreateCheckRun(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(&gh.CheckRun{ID: gh.Ptr(int64(5))}, nil)
	f.provider.EXPECT().Chat(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, req llm.ChatRequest) (string, error) {
			assert.Contains(t, req.UserPrompt, "Initial review.")
			return modelReply, nil
		})
	f.gh.EXPECT().GetChangedFiles(ctx, "acme", "widgets", 7).Return(
		changedFiles(), nil)
	f.gh.EXPECT().CreateReview(ctx, gomock.Any(), gomock.Any(), 7, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.reviews.EXPECT().Save(ctx, gomock.Any()).Return(nil)
	f.gh.EXPECT().UpdateCheckRun(ctx, gomock.Any(), gomock.Any(), int64(5), gomock.Any()).Return(&gh.CheckRun{}, nil)

	result, err := f.orch.Run(ctx, job)
	require.NoError(t, err)
	assert.True(t, result.Incremental)
}

func TestRunIncrementalFallbackToFullDiff(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()
	job := testJob()

	prev := &core.ReviewResult{HeadSHA: "old111"}

	f.repos.EXPECT().GetSettings(ctx, "acme/widgets").Return(core.DefaultRepoSettings("acme/widgets"), nil)
	f.gh.EXPECT().GetPullRequest(ctx, "acme", "widgets", 7).Return(openPR("new222"), nil)
	f.gh.EXPECT().GetFileContent(ctx, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("not found"))
	f.reviews.EXPECT().LatestForPR(ctx, "acme/widgets", 7).Return(prev, nil)
	f.gh.EXPECT().GetCompareDiff(ctx, "acme", "widgets", "old111", "new222").Return("", errors.New("gone"))
	f.gh.EXPECT().GetPullRequestDiff(ctx, "acme", "widgets", 7).Return(testDiff, nil)
	f.gh.EXPECT().CreateCheckRun(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(&gh.CheckRun{ID: gh.Ptr(int64(5))}, nil)
	f.provider.EXPECT().Chat(ctx, gomock.Any()).Return(modelReply, nil)
	f.gh.EXPECT().GetChangedFiles(ctx, "acme", "widgets", 7).Return(
		changedFiles(), nil)
	f.gh.EXPECT().CreateReview(ctx, gomock.Any(), gomock.Any(), 7, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.reviews.EXPECT().Save(ctx, gomock.Any()).Return(nil)
	f.gh.EXPECT().UpdateCheckRun(ctx, gomock.Any(), gomock.Any(), int64(5), gomock.Any()).Return(&gh.CheckRun{}, nil)

	result, err := f.orch.Run(ctx, job)
	require.NoError(t, err)
	assert.False(t, result.Incremental)
}

func TestRunRetryableErrorOnModelFailure(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()
	job := testJob()

	f.repos.EXPECT().GetSettings(ctx, "acme/widgets").Return(core.DefaultRepoSettings("acme/widgets"), nil)
	f.gh.EXPECT().GetPullRequest(ctx, "acme", "widgets", 7).Return(openPR("abc123"), nil)
	f.gh.EXPECT().GetFileContent(ctx, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("not found"))
	f.reviews.EXPECT().LatestForPR(ctx, "acme/widgets", 7).Return(nil, storage.ErrNoReview)
	f.gh.EXPECT().GetPullRequestDiff(ctx, "acme", "widgets", 7).Return(testDiff, nil)
	f.gh.EXPECT().CreateCheckRun(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(&gh.CheckRun{ID: gh.Ptr(int64(5))}, nil)
	f.provider.EXPECT().Chat(ctx, gomock.Any()).Return("", errors.New("model unavailable"))
	f.gh.EXPECT().UpdateCheckRun(ctx, gomock.Any(), gomock.Any(), int64(5), gomock.Any()).Return(&gh.CheckRun{}, nil)

	_, err := f.orch.Run(ctx, job)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSkip)
}
