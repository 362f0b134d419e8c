package core

import (
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
)

// PullRequestEvent is a simplified, internal view of an inbound GitHub event
// that may trigger a review.
type PullRequestEvent struct {
	RepoOwner    string
	RepoName     string
	RepoFullName string

	PRNumber   int
	PRTitle    string
	PRBody     string
	HeadSHA    string
	BaseBranch string

	Labels       []string
	ChangedFiles int
	Additions    int
	Deletions    int

	InstallationID int64
}

// RiskContext projects the event into the classifier's input shape. File
// paths are not present on webhook payloads; callers fetch the changed-file
// list before classifying so the path-based rules can fire.
func (e *PullRequestEvent) RiskContext(filePaths []string) PRContext {
	return PRContext{
		RepoFullName: e.RepoFullName,
		PRNumber:     e.PRNumber,
		Title:        e.PRTitle,
		Labels:       e.Labels,
		BaseBranch:   e.BaseBranch,
		ChangedFiles: e.ChangedFiles,
		Additions:    e.Additions,
		Deletions:    e.Deletions,
		FilePaths:    filePaths,
	}
}

// reviewableActions are the pull_request actions that can trigger a review.
var reviewableActions = map[string]bool{
	"opened":           true,
	"synchronize":      true,
	"reopened":         true,
	"ready_for_review": true,
}

// EventFromPullRequest transforms a raw GitHub pull_request webhook event into
// the application's internal representation. It acts as an anti-corruption
// layer, validating the payload before any job is created.
func EventFromPullRequest(event *github.PullRequestEvent) (*PullRequestEvent, error) {
	if !reviewableActions[event.GetAction()] {
		return nil, fmt.Errorf("action %q does not trigger a review", event.GetAction())
	}

	pr := event.GetPullRequest()
	if pr == nil {
		return nil, fmt.Errorf("pull request payload is missing")
	}
	if pr.GetDraft() {
		return nil, fmt.Errorf("draft pull requests are not reviewed")
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	prNumber := pr.GetNumber()
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}

	return &PullRequestEvent{
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		PRNumber:       prNumber,
		PRTitle:        pr.GetTitle(),
		PRBody:         pr.GetBody(),
		HeadSHA:        pr.GetHead().GetSHA(),
		BaseBranch:     pr.GetBase().GetRef(),
		Labels:         labels,
		ChangedFiles:   pr.GetChangedFiles(),
		Additions:      pr.GetAdditions(),
		Deletions:      pr.GetDeletions(),
		InstallationID: event.GetInstallation().GetID(),
	}, nil
}

// EventFromIssueComment accepts a "/review" comment on a pull request and
// turns it into an event that forces a review regardless of risk score.
func EventFromIssueComment(event *github.IssueCommentEvent) (*PullRequestEvent, error) {
	if !event.GetIssue().IsPullRequest() {
		return nil, fmt.Errorf("comment is not on a pull request")
	}
	if !strings.EqualFold(strings.TrimSpace(event.GetComment().GetBody()), "/review") {
		return nil, fmt.Errorf("comment is not a review command")
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	prNumber := event.GetIssue().GetNumber()
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	return &PullRequestEvent{
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		PRNumber:       prNumber,
		PRTitle:        event.GetIssue().GetTitle(),
		PRBody:         event.GetIssue().GetBody(),
		InstallationID: event.GetInstallation().GetID(),
	}, nil
}
