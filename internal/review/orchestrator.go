// Package review contains the orchestrator that turns a claimed job into a
// posted pull request review, and the worker loop that drives it.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prguard/prguard/internal/config"
	"github.com/prguard/prguard/internal/core"
	"github.com/prguard/prguard/internal/diff"
	"github.com/prguard/prguard/internal/github"
	"github.com/prguard/prguard/internal/llm"
	"github.com/prguard/prguard/internal/storage"
)

// ErrSkip marks a job that needs no review (disabled repo, draft PR, empty
// diff). The worker completes such jobs without retrying.
var ErrSkip = errors.New("review skipped")

// DefaultDiffTokenBudget caps the diff portion of the prompt.
const DefaultDiffTokenBudget = 2000

// degradedReplyLimit bounds how much of an unparseable model reply is kept
// in the stored result.
const degradedReplyLimit = 2000

// Orchestrator runs one review end to end: fetch, prompt, parse, post.
type Orchestrator struct {
	gh       github.Client
	status   github.StatusUpdater
	provider llm.Provider
	prompts  *llm.PromptManager
	reviews  storage.ReviewStore
	repos    storage.RepoStore
	logger   *slog.Logger

	diffTokenBudget int
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(gh github.Client, provider llm.Provider, prompts *llm.PromptManager, reviews storage.ReviewStore, repos storage.RepoStore, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gh:              gh,
		status:          github.NewStatusUpdater(gh),
		provider:        provider,
		prompts:         prompts,
		reviews:         reviews,
		repos:           repos,
		logger:          logger,
		diffTokenBudget: DefaultDiffTokenBudget,
	}
}

// RunOptions tweaks a single orchestrator run.
type RunOptions struct {
	// Post controls whether the review is submitted to the platform.
	// When false the result is returned to the caller only and neither a
	// check run nor history is written.
	Post bool
	// Decision overrides the risk payload stored on the job, used by the
	// synchronous endpoint to force depth and focus areas.
	Decision *core.RiskDecision
}

// Run reviews the pull request a job points at and returns the stored
// result. A returned error wrapping ErrSkip means the job is done but no
// review was posted.
func (o *Orchestrator) Run(ctx context.Context, job *core.ReviewJob) (*core.ReviewResult, error) {
	return o.RunWithOptions(ctx, job, RunOptions{Post: true})
}

// RunWithOptions is Run with explicit posting and risk overrides.
func (o *Orchestrator) RunWithOptions(ctx context.Context, job *core.ReviewJob, opts RunOptions) (*core.ReviewResult, error) {
	logger := o.logger.With("job_id", job.ID, "repo", job.RepoFullName, "pr", job.PRNumber)

	settings, err := o.repos.GetSettings(ctx, job.RepoFullName)
	if err != nil {
		return nil, fmt.Errorf("failed to load repo settings: %w", err)
	}
	if !settings.Enabled {
		return nil, fmt.Errorf("%w: reviews disabled for %s", ErrSkip, job.RepoFullName)
	}

	pr, err := o.gh.GetPullRequest(ctx, job.RepoOwner, job.RepoName, job.PRNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request: %w", err)
	}
	if pr.GetDraft() {
		return nil, fmt.Errorf("%w: pull request is a draft", ErrSkip)
	}
	if pr.GetState() != "open" {
		return nil, fmt.Errorf("%w: pull request is %s", ErrSkip, pr.GetState())
	}
	headSHA := pr.GetHead().GetSHA()
	if headSHA == "" {
		return nil, fmt.Errorf("pull request %d has no head SHA", job.PRNumber)
	}

	settings = o.applyRepoFile(ctx, job, headSHA, settings)

	decision := opts.Decision
	if decision == nil {
		decision = decodeDecision(job, logger)
	}

	diffText, filesSummary, prev, incremental, err := o.prepareDiff(ctx, job, headSHA, settings, logger)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(diffText) == "" {
		return nil, fmt.Errorf("%w: diff is empty after filtering", ErrSkip)
	}

	var checkRunID int64
	if opts.Post {
		checkRunID, err = o.status.InProgress(ctx, job.RepoOwner, job.RepoName, headSHA)
		if err != nil {
			// check runs need App permissions; PAT deployments run without them
			logger.Warn("failed to create check run, continuing without one", "error", err)
			checkRunID = 0
		}
	}

	result, err := o.generate(ctx, job, pr.GetTitle(), pr.GetBody(), pr.GetBase().GetRef(),
		settings, decision, diffText, filesSummary, prev, incremental, logger)
	if err != nil {
		o.finishCheck(ctx, job, checkRunID, "failure", "Review failed", err.Error())
		return nil, err
	}
	result.RepoFullName = job.RepoFullName
	result.PRNumber = job.PRNumber
	result.HeadSHA = headSHA
	result.Incremental = incremental

	if opts.Post {
		if err := o.post(ctx, job, result, logger); err != nil {
			o.finishCheck(ctx, job, checkRunID, "failure", "Review failed", err.Error())
			return nil, err
		}

		// A save failure after posting is logged, not retried: re-running
		// the job would post the same review twice.
		if err := o.reviews.Save(ctx, result); err != nil {
			logger.Error("failed to persist review result", "error", err)
		}

		conclusion, title := checkConclusion(result)
		o.finishCheck(ctx, job, checkRunID, conclusion, title,
			fmt.Sprintf("%d inline finding(s), recommendation: %s", len(result.LineComments), result.Recommendation))
	}

	logger.Info("review completed",
		"posted", opts.Post,
		"recommendation", result.Recommendation,
		"comments", len(result.LineComments),
		"incremental", incremental,
		"degraded", result.Degraded)
	return result, nil
}

// applyRepoFile merges the optional .prguard.yml at the head commit into
// the stored settings. A missing or broken file falls back to the stored
// settings.
func (o *Orchestrator) applyRepoFile(ctx context.Context, job *core.ReviewJob, headSHA string, settings *core.RepoSettings) *core.RepoSettings {
	data, err := o.gh.GetFileContent(ctx, job.RepoOwner, job.RepoName, config.RepoFileName, headSHA)
	if err != nil {
		return settings
	}
	fileCfg, err := config.ParseRepoFile(data)
	if err != nil {
		o.logger.Warn("ignoring malformed repo config file",
			"repo", job.RepoFullName, "file", config.RepoFileName, "error", err)
		return settings
	}
	return config.MergeRepoFile(settings, fileCfg)
}

// decodeDecision recovers the classifier output stored on the job. Jobs
// enqueued manually carry no payload and get a standard-depth review.
func decodeDecision(job *core.ReviewJob, logger *slog.Logger) *core.RiskDecision {
	decision := &core.RiskDecision{
		ShouldReview: true,
		Depth:        core.DepthStandard,
		Priority:     core.PriorityMedium,
	}
	if len(job.RiskPayload) == 0 {
		return decision
	}
	if err := json.Unmarshal(job.RiskPayload, decision); err != nil {
		logger.Warn("failed to decode risk payload, using standard depth", "error", err)
	}
	return decision
}

// prepareDiff fetches the diff to review. When a prior review exists for a
// different head commit, it reviews only the commits since then; if that
// range cannot be fetched the full diff is used and the result is not
// marked incremental.
func (o *Orchestrator) prepareDiff(ctx context.Context, job *core.ReviewJob, headSHA string, settings *core.RepoSettings, logger *slog.Logger) (string, string, *core.ReviewResult, bool, error) {
	var (
		diffText    string
		prev        *core.ReviewResult
		incremental bool
	)

	prev, err := o.reviews.LatestForPR(ctx, job.RepoFullName, job.PRNumber)
	if err != nil && !errors.Is(err, storage.ErrNoReview) {
		return "", "", nil, false, fmt.Errorf("failed to look up previous review: %w", err)
	}

	if prev != nil && prev.HeadSHA != "" && prev.HeadSHA != headSHA {
		diffText, err = o.gh.GetCompareDiff(ctx, job.RepoOwner, job.RepoName, prev.HeadSHA, headSHA)
		if err != nil {
			logger.Warn("failed to fetch incremental diff, falling back to full diff",
				"base", prev.HeadSHA, "head", headSHA, "error", err)
		} else {
			incremental = true
		}
	}

	if !incremental {
		diffText, err = o.gh.GetPullRequestDiff(ctx, job.RepoOwner, job.RepoName, job.PRNumber)
		if err != nil {
			return "", "", nil, false, fmt.Errorf("failed to fetch pull request diff: %w", err)
		}
	}

	files := diff.Parse(diffText)
	files = diff.FilterIgnoredPaths(files, settings.IgnorePaths)
	filesSummary := diff.SummarizeFiles(files)
	diffText = diff.Truncate(diff.Rebuild(files), o.diffTokenBudget)

	return diffText, filesSummary, prev, incremental, nil
}

// generate renders the prompts, calls the model, and parses its reply. An
// unparseable reply yields a degraded result rather than an error so the
// job still completes.
func (o *Orchestrator) generate(ctx context.Context, job *core.ReviewJob, title, body, baseBranch string, settings *core.RepoSettings, decision *core.RiskDecision, diffText, filesSummary string, prev *core.ReviewResult, incremental bool, logger *slog.Logger) (*core.ReviewResult, error) {
	focusAreas := make([]string, 0, len(decision.FocusAreas))
	for _, f := range decision.FocusAreas {
		focusAreas = append(focusAreas, string(f))
	}

	data := llm.PromptData{
		RepoFullName:       job.RepoFullName,
		PRNumber:           job.PRNumber,
		Title:              title,
		Description:        body,
		BaseBranch:         baseBranch,
		Depth:              string(decision.Depth),
		FocusAreas:         focusAreas,
		Categories:         settings.Categories,
		CustomInstructions: settings.CustomInstructions,
		FilesSummary:       filesSummary,
		Diff:               diffText,
	}

	systemPrompt, err := o.prompts.Render(llm.SystemPrompt, llm.DefaultProvider, data)
	if err != nil {
		return nil, err
	}

	promptKey := llm.FullReviewPrompt
	if incremental {
		promptKey = llm.IncrementalReviewPrompt
		data.PreviousSummary = prev.Summary.Overview
	}
	userPrompt, err := o.prompts.Render(promptKey, llm.DefaultProvider, data)
	if err != nil {
		return nil, err
	}

	reply, err := o.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	result, outcome, err := llm.ParseReview(reply)
	switch outcome {
	case llm.OutcomeUnparseable:
		logger.Warn("model reply was unparseable, posting degraded review", "error", err)
		return degradedResult(reply), nil
	case llm.OutcomePartial:
		logger.Warn("model reply only partially parsed")
	}
	return result, nil
}

// degradedNotice opens the summary of a review whose model reply could not
// be parsed.
const degradedNotice = "The model output could not be parsed; manual review is recommended."

// degradedResult wraps an unparseable reply so the raw text still reaches
// the author as a plain comment-level review.
func degradedResult(reply string) *core.ReviewResult {
	reply = strings.TrimSpace(reply)
	if len(reply) > degradedReplyLimit {
		reply = reply[:degradedReplyLimit] + "…"
	}
	return &core.ReviewResult{
		Summary:        core.ReviewSummary{Overview: degradedNotice + "\n\n" + reply},
		Recommendation: core.RecommendComment,
		Degraded:       true,
	}
}

// post submits the review, dropping inline comments that do not land on a
// commentable diff line.
func (o *Orchestrator) post(ctx context.Context, job *core.ReviewJob, result *core.ReviewResult, logger *slog.Logger) error {
	var comments []github.DraftReviewComment
	if len(result.LineComments) > 0 {
		changedFiles, err := o.gh.GetChangedFiles(ctx, job.RepoOwner, job.RepoName, job.PRNumber)
		if err != nil {
			return fmt.Errorf("failed to list changed files: %w", err)
		}

		drafts := make([]github.DraftReviewComment, 0, len(result.LineComments))
		for _, c := range result.LineComments {
			drafts = append(drafts, github.DraftReviewComment{
				Path: c.Path,
				Line: c.Line,
				Body: FormatInlineComment(c),
			})
		}
		comments = github.FilterCommentsToPatches(drafts, changedFiles, logger)
	}

	event := result.Recommendation
	if len(comments) == 0 && event == core.RecommendRequestChanges {
		// all blocking findings were dropped as unplaceable, don't block
		// the merge on a summary-only review
		event = core.RecommendComment
	}

	return o.gh.CreateReview(ctx, job.RepoOwner, job.RepoName, job.PRNumber,
		FormatReviewBody(result), event, comments)
}

func (o *Orchestrator) finishCheck(ctx context.Context, job *core.ReviewJob, checkRunID int64, conclusion, title, summary string) {
	if checkRunID == 0 {
		return
	}
	if err := o.status.Completed(ctx, job.RepoOwner, job.RepoName, checkRunID, conclusion, title, summary); err != nil {
		o.logger.Warn("failed to complete check run",
			"job_id", job.ID, "check_run_id", checkRunID, "error", err)
	}
}

// checkConclusion maps a result onto a check-run conclusion.
func checkConclusion(result *core.ReviewResult) (conclusion, title string) {
	switch {
	case result.Degraded:
		return "neutral", "Review posted (degraded)"
	case result.Recommendation == core.RecommendRequestChanges:
		return "action_required", "Changes requested"
	case result.Recommendation == core.RecommendApprove:
		return "success", "Approved"
	default:
		return "neutral", "Review posted"
	}
}
