// Package github provides the hosting-platform client used by the review
// pipeline: pull request metadata, diff retrieval, and review submission.
// Every call runs through the platform circuit breaker owned by the
// composition root.
package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v73/github"

	"github.com/prguard/prguard/internal/core"
	"github.com/prguard/prguard/internal/resilience"
)

// ChangedFile holds the filename and patch for one file in a pull request.
type ChangedFile struct {
	Filename string
	Patch    string
}

// DraftReviewComment is a single inline comment to submit with a review.
type DraftReviewComment struct {
	Path string
	Line int
	Body string
}

// Client defines the platform operations the review pipeline needs.
//
//go:generate mockgen -destination=../../mocks/mock_github_client.go -package=mocks . Client
type Client interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error)
	GetCompareDiff(ctx context.Context, owner, repo, base, head string) (string, error)
	GetChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error)
	CreateReview(ctx context.Context, owner, repo string, number int, body string, event core.Recommendation, comments []DraftReviewComment) error
	CreateComment(ctx context.Context, owner, repo string, number int, body string) error
	CreateCheckRun(ctx context.Context, owner, repo string, opts github.CreateCheckRunOptions) (*github.CheckRun, error)
	UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts github.UpdateCheckRunOptions) (*github.CheckRun, error)
	GetFileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
}

type gitHubClient struct {
	client  *github.Client
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

// NewClient wraps the official go-github client behind the pipeline's
// focused interface, guarded by the given circuit breaker.
func NewClient(client *github.Client, breaker *resilience.CircuitBreaker, logger *slog.Logger) Client {
	return &gitHubClient{client: client, breaker: breaker, logger: logger}
}

// reviewEvents maps the internal recommendation vocabulary onto GitHub's.
var reviewEvents = map[core.Recommendation]string{
	core.RecommendApprove:        "APPROVE",
	core.RecommendRequestChanges: "REQUEST_CHANGES",
	core.RecommendComment:        "COMMENT",
}

func (g *gitHubClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	var pr *github.PullRequest
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		pr, _, err = g.client.PullRequests.Get(ctx, owner, repo, number)
		return err
	})
	if err != nil {
		g.logger.Error("failed to get pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
		return nil, err
	}
	return pr, nil
}

func (g *gitHubClient) GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	var diff string
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		diff, _, err = g.client.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{Type: github.Diff})
		return err
	})
	if err != nil {
		g.logger.Error("failed to get pull request diff", "owner", owner, "repo", repo, "pr", number, "error", err)
		return "", err
	}
	return diff, nil
}

// GetCompareDiff returns the unified diff between two commits, used for
// incremental re-reviews.
func (g *gitHubClient) GetCompareDiff(ctx context.Context, owner, repo, base, head string) (string, error) {
	var diff string
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		comparison, _, err := g.client.Repositories.CompareCommitsRaw(
			ctx, owner, repo, base, head, github.RawOptions{Type: github.Diff})
		if err != nil {
			return err
		}
		diff = comparison
		return nil
	})
	if err != nil {
		g.logger.Error("failed to compare commits", "owner", owner, "repo", repo,
			"base", base, "head", head, "error", err)
		return "", err
	}
	return diff, nil
}

// GetChangedFiles lists the files modified in a pull request, following
// pagination; GitHub returns at most 100 files per page.
func (g *gitHubClient) GetChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error) {
	var allFiles []ChangedFile
	opts := &github.ListOptions{PerPage: 100}

	for {
		var files []*github.CommitFile
		var resp *github.Response
		err := g.breaker.Execute(ctx, func(ctx context.Context) error {
			var err error
			files, resp, err = g.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
			return err
		})
		if err != nil {
			g.logger.Error("failed to list changed files", "owner", owner, "repo", repo, "pr", number, "error", err)
			return nil, err
		}

		for _, file := range files {
			allFiles = append(allFiles, ChangedFile{
				Filename: file.GetFilename(),
				Patch:    file.GetPatch(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allFiles, nil
}

// CreateReview submits a review with a summary body and inline comments.
func (g *gitHubClient) CreateReview(ctx context.Context, owner, repo string, number int, body string, event core.Recommendation, comments []DraftReviewComment) error {
	ghEvent, ok := reviewEvents[event]
	if !ok {
		return fmt.Errorf("unknown review event %q", event)
	}

	ghComments := make([]*github.DraftReviewComment, 0, len(comments))
	for _, c := range comments {
		ghComments = append(ghComments, &github.DraftReviewComment{
			Path: github.Ptr(c.Path),
			Line: github.Ptr(c.Line),
			Body: github.Ptr(c.Body),
		})
	}

	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		_, _, err := g.client.PullRequests.CreateReview(ctx, owner, repo, number, &github.PullRequestReviewRequest{
			Body:     github.Ptr(body),
			Event:    github.Ptr(ghEvent),
			Comments: ghComments,
		})
		return err
	})
	if err != nil {
		g.logger.Error("failed to create pull request review", "owner", owner, "repo", repo, "pr", number, "error", err)
	}
	return err
}

func (g *gitHubClient) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		_, _, err := g.client.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{Body: github.Ptr(body)})
		return err
	})
	if err != nil {
		g.logger.Error("failed to create comment", "owner", owner, "repo", repo, "pr", number, "error", err)
	}
	return err
}

func (g *gitHubClient) CreateCheckRun(ctx context.Context, owner, repo string, opts github.CreateCheckRunOptions) (*github.CheckRun, error) {
	var checkRun *github.CheckRun
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		checkRun, _, err = g.client.Checks.CreateCheckRun(ctx, owner, repo, opts)
		return err
	})
	if err != nil {
		g.logger.Error("failed to create check run", "owner", owner, "repo", repo, "error", err)
		return nil, err
	}
	return checkRun, nil
}

// GetFileContent fetches a single file from the repository at the given
// ref. Callers treat a missing file as a normal condition.
func (g *gitHubClient) GetFileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	var content string
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		fileContent, _, _, err := g.client.Repositories.GetContents(ctx, owner, repo, path,
			&github.RepositoryContentGetOptions{Ref: ref})
		if err != nil {
			return err
		}
		content, err = fileContent.GetContent()
		return err
	})
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

func (g *gitHubClient) UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts github.UpdateCheckRunOptions) (*github.CheckRun, error) {
	var checkRun *github.CheckRun
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		checkRun, _, err = g.client.Checks.UpdateCheckRun(ctx, owner, repo, checkRunID, opts)
		return err
	})
	if err != nil {
		g.logger.Error("failed to update check run", "owner", owner, "repo", repo, "check_run_id", checkRunID, "error", err)
	}
	return checkRun, err
}
