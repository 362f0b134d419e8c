// Package handler provides the HTTP handlers of the review service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"

	"github.com/prguard/prguard/internal/core"
	ghclient "github.com/prguard/prguard/internal/github"
	"github.com/prguard/prguard/internal/notify"
	"github.com/prguard/prguard/internal/queue"
	"github.com/prguard/prguard/internal/resilience"
	"github.com/prguard/prguard/internal/risk"
	"github.com/prguard/prguard/internal/storage"
)

// WebhookHandler turns inbound GitHub events into queued review jobs.
type WebhookHandler struct {
	secret   string
	limiter  *resilience.RateLimiter
	queue    *queue.Queue
	gh       ghclient.Client
	repos    storage.RepoStore
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewWebhookHandler creates the webhook handler. An empty secret disables
// signature verification.
func NewWebhookHandler(secret string, limiter *resilience.RateLimiter, q *queue.Queue, gh ghclient.Client, repos storage.RepoStore, notifier notify.Notifier, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret:   secret,
		limiter:  limiter,
		queue:    q,
		gh:       gh,
		repos:    repos,
		notifier: notifier,
		logger:   logger,
	}
}

// Handle processes GitHub webhook requests.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	res := h.limiter.Check(r.RemoteAddr)
	if !res.Allowed {
		h.logger.Warn("webhook rate limit exceeded", "remote", r.RemoteAddr, "reset_at", res.ResetAt)
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	payload, err := h.readPayload(r)
	if err != nil {
		h.logger.Error("invalid webhook payload", "error", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		h.logger.Error("could not parse webhook", "error", err)
		http.Error(w, "Could not parse webhook", http.StatusBadRequest)
		return
	}

	switch e := event.(type) {
	case *github.PullRequestEvent:
		h.handlePullRequest(r.Context(), w, e)
	case *github.IssueCommentEvent:
		h.handleIssueComment(r.Context(), w, e)
	default:
		h.logger.Debug("ignoring unhandled webhook event type", "type", github.WebHookType(r))
		_, _ = fmt.Fprint(w, "Event type not handled")
	}
}

// readPayload verifies the sha256 HMAC signature over the raw body. When no
// secret is configured the body is accepted as-is, with a log line so the
// gap is visible in production.
func (h *WebhookHandler) readPayload(r *http.Request) ([]byte, error) {
	if h.secret == "" {
		h.logger.Warn("webhook secret not configured, skipping signature verification")
		return io.ReadAll(r.Body)
	}
	return github.ValidatePayload(r, []byte(h.secret))
}

// handlePullRequest classifies the event and enqueues a job when the risk
// score warrants a review.
func (h *WebhookHandler) handlePullRequest(ctx context.Context, w http.ResponseWriter, event *github.PullRequestEvent) {
	reviewEvent, err := core.EventFromPullRequest(event)
	if err != nil {
		h.logger.Debug("ignoring pull request event", "reason", err.Error(), "repo", event.GetRepo().GetFullName())
		_, _ = fmt.Fprint(w, "Event ignored")
		return
	}

	settings, err := h.repos.GetSettings(ctx, reviewEvent.RepoFullName)
	if err != nil {
		h.logger.Error("failed to load repo settings", "repo", reviewEvent.RepoFullName, "error", err)
		http.Error(w, "Failed to load repository settings", http.StatusInternalServerError)
		return
	}
	if !settings.Enabled || !settings.AutoReview {
		h.logger.Info("automatic review disabled for repository", "repo", reviewEvent.RepoFullName)
		_, _ = fmt.Fprint(w, "Automatic review disabled")
		return
	}

	decision := risk.Classify(reviewEvent.RiskContext(h.changedFilePaths(ctx, reviewEvent)))
	if !decision.ShouldReview {
		h.logger.Info("change below review threshold",
			"repo", reviewEvent.RepoFullName, "pr", reviewEvent.PRNumber, "score", decision.Score)
		_, _ = fmt.Fprint(w, "Change below review threshold")
		return
	}

	h.enqueue(ctx, w, reviewEvent, &decision)
}

// changedFilePaths fetches the PR's changed-file list so the path-based
// scoring rules can fire. When the list cannot be fetched, scoring falls
// back to the metadata-only signals in the webhook payload.
func (h *WebhookHandler) changedFilePaths(ctx context.Context, event *core.PullRequestEvent) []string {
	files, err := h.gh.GetChangedFiles(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		h.logger.Warn("failed to list changed files for risk scoring",
			"repo", event.RepoFullName, "pr", event.PRNumber, "error", err)
		return nil
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Filename)
	}
	return paths
}

// handleIssueComment reacts to "/review" commands, which bypass the risk
// threshold.
func (h *WebhookHandler) handleIssueComment(ctx context.Context, w http.ResponseWriter, event *github.IssueCommentEvent) {
	reviewEvent, err := core.EventFromIssueComment(event)
	if err != nil {
		h.logger.Debug("ignoring issue comment", "reason", err.Error(), "repo", event.GetRepo().GetFullName())
		_, _ = fmt.Fprint(w, "Comment ignored")
		return
	}

	settings, err := h.repos.GetSettings(ctx, reviewEvent.RepoFullName)
	if err != nil {
		h.logger.Error("failed to load repo settings", "repo", reviewEvent.RepoFullName, "error", err)
		http.Error(w, "Failed to load repository settings", http.StatusInternalServerError)
		return
	}
	if !settings.Enabled {
		_, _ = fmt.Fprint(w, "Reviews disabled for this repository")
		return
	}

	decision := &core.RiskDecision{
		ShouldReview: true,
		Depth:        core.DepthStandard,
		Priority:     core.PriorityMedium,
		Reasons:      []string{"Requested via /review command"},
	}
	h.enqueue(ctx, w, reviewEvent, decision)
}

func (h *WebhookHandler) enqueue(ctx context.Context, w http.ResponseWriter, event *core.PullRequestEvent, decision *core.RiskDecision) {
	job, err := h.queue.Enqueue(ctx, event, decision)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateJob) {
			h.logger.Info("review already queued", "repo", event.RepoFullName, "pr", event.PRNumber)
			http.Error(w, "A review for this pull request is already queued", http.StatusConflict)
			return
		}
		h.logger.Error("failed to enqueue review job", "repo", event.RepoFullName, "pr", event.PRNumber, "error", err)
		http.Error(w, "Failed to enqueue review job", http.StatusInternalServerError)
		return
	}

	h.notifier.JobEnqueued(ctx, job)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"repo":     job.RepoFullName,
		"pr":       job.PRNumber,
		"priority": decision.Priority,
		"depth":    decision.Depth,
	})
}
