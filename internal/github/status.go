package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v73/github"
)

const checkRunName = "PRGuard Review"

// StatusUpdater manages the check run that mirrors a review's progress on
// the pull request's head commit.
type StatusUpdater interface {
	InProgress(ctx context.Context, owner, repo, headSHA string) (int64, error)
	Completed(ctx context.Context, owner, repo string, checkRunID int64, conclusion, title, summary string) error
}

type statusUpdater struct {
	client Client
}

// NewStatusUpdater creates a StatusUpdater backed by the given client.
func NewStatusUpdater(client Client) StatusUpdater {
	return &statusUpdater{client: client}
}

// InProgress creates a check run in the "in_progress" state and returns its
// ID for the later completion update.
func (s *statusUpdater) InProgress(ctx context.Context, owner, repo, headSHA string) (int64, error) {
	opts := github.CreateCheckRunOptions{
		Name:    checkRunName,
		HeadSHA: headSHA,
		Status:  github.Ptr("in_progress"),
		Output: &github.CheckRunOutput{
			Title:   github.Ptr("Review in progress"),
			Summary: github.Ptr("Analyzing the changes in this pull request."),
		},
	}
	checkRun, err := s.client.CreateCheckRun(ctx, owner, repo, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to create check run: %w", err)
	}
	return checkRun.GetID(), nil
}

// Completed moves the check run to "completed" with the given conclusion.
func (s *statusUpdater) Completed(ctx context.Context, owner, repo string, checkRunID int64, conclusion, title, summary string) error {
	opts := github.UpdateCheckRunOptions{
		Name:        checkRunName,
		Status:      github.Ptr("completed"),
		Conclusion:  github.Ptr(conclusion),
		CompletedAt: &github.Timestamp{Time: time.Now()},
		Output: &github.CheckRunOutput{
			Title:   github.Ptr(title),
			Summary: github.Ptr(summary),
		},
	}
	_, err := s.client.UpdateCheckRun(ctx, owner, repo, checkRunID, opts)
	return err
}
