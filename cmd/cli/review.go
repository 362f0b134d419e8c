package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/prguard/prguard/internal/core"
	"github.com/prguard/prguard/internal/github"
	"github.com/prguard/prguard/internal/review"
)

var (
	verbose     bool
	postReview  bool
	reviewDepth string
	focusAreas  []string
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.FgHiBlack)
)

var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Run a code review for a GitHub Pull Request",
	Long: `Run a code review for a GitHub Pull Request.

The review command fetches the PR diff, classifies the change, and uses an
LLM to generate a structured review. By default the result is only printed;
pass --post to submit it to GitHub as a PR review with inline comments.

Examples:
  prguard review https://github.com/owner/repo/pull/123
  prguard review --post --depth deep https://github.com/owner/repo/pull/123
  prguard review --focus security --focus performance https://github.com/owner/repo/pull/123`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")
	reviewCmd.Flags().BoolVar(&postReview, "post", false, "Post the review to GitHub instead of only printing it")
	reviewCmd.Flags().StringVar(&reviewDepth, "depth", "", "Review depth: quick, standard, or deep")
	reviewCmd.Flags().StringSliceVar(&focusAreas, "focus", nil, "Focus areas to emphasize (repeatable)")
	rootCmd.AddCommand(reviewCmd)
}

// stepTimer tracks timing for verbose output
type stepTimer struct {
	stepNum    int
	totalSteps int
	start      time.Time
	verbose    bool
}

func newStepTimer(totalSteps int, verbose bool) *stepTimer {
	return &stepTimer{totalSteps: totalSteps, verbose: verbose}
}

func (t *stepTimer) step(name string) {
	t.stepNum++
	t.start = time.Now()
	if t.verbose {
		titleColor.Printf("\nStep %d/%d: %s...\n", t.stepNum, t.totalSteps, name)
	} else {
		fmt.Printf("%s...\n", name)
	}
}

func (t *stepTimer) done(details ...string) {
	if t.verbose {
		elapsed := time.Since(t.start).Round(time.Millisecond)
		successColor.Printf("   done (%s)\n", elapsed)
		for _, d := range details {
			dimColor.Printf("   %s\n", d)
		}
	}
}

func runReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	prURL := args[0]

	depth := core.ReviewDepth(reviewDepth)
	switch depth {
	case "", core.DepthQuick, core.DepthStandard, core.DepthDeep:
	default:
		return fmt.Errorf("invalid depth %q: must be quick, standard, or deep", reviewDepth)
	}
	if depth == "" {
		depth = core.DepthStandard
	}

	owner, repoName, prNumber, err := github.ParsePullRequestURL(prURL)
	if err != nil {
		return fmt.Errorf("invalid PR URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
	}

	timer := newStepTimer(2, verbose)
	overallStart := time.Now()

	titleColor.Println("PRGuard - PR Review")
	dimColor.Printf("   Target: %s\n", prURL)

	timer.step("Initializing application")
	env, cleanup, err := buildEnv(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	timer.done()

	areas := make([]core.FocusArea, 0, len(focusAreas))
	for _, f := range focusAreas {
		areas = append(areas, core.FocusArea(f))
	}
	job := &core.ReviewJob{
		RepoFullName: owner + "/" + repoName,
		RepoOwner:    owner,
		RepoName:     repoName,
		PRNumber:     prNumber,
		MaxAttempts:  1,
	}
	decision := &core.RiskDecision{
		ShouldReview: true,
		Depth:        depth,
		Priority:     core.PriorityMedium,
		FocusAreas:   areas,
		Reasons:      []string{"Manually requested"},
	}

	timer.step("Generating review")
	result, err := env.orchestrator.RunWithOptions(ctx, job, review.RunOptions{
		Post:     postReview,
		Decision: decision,
	})
	if err != nil {
		if errors.Is(err, review.ErrSkip) {
			warnColor.Printf("Review skipped: %v\n", err)
			return nil
		}
		return fmt.Errorf("failed to generate review: %w\n\nTip: Check that the PR exists and your token has access", err)
	}
	timer.done(fmt.Sprintf("Findings: %d", len(result.LineComments)))

	if verbose {
		dimColor.Printf("\nTotal time: %s\n", time.Since(overallStart).Round(time.Millisecond))
	}

	if err := printResult(result); err != nil {
		return err
	}
	if postReview {
		successColor.Printf("\nReview posted to %s#%d\n", result.RepoFullName, result.PRNumber)
	}
	return nil
}

// printResult renders the markdown review body for the terminal.
func printResult(result *core.ReviewResult) error {
	body := review.FormatReviewBody(result)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		// Fall back to raw markdown when the terminal renderer is unavailable.
		fmt.Println(body)
		return nil //nolint:nilerr // raw output is an acceptable fallback
	}

	out, err := renderer.Render(body)
	if err != nil {
		fmt.Println(body)
		return nil //nolint:nilerr
	}
	fmt.Print(out)

	for _, c := range result.LineComments {
		printSeverityBadge(string(c.Severity))
		fmt.Printf(" %s", c.Path)
		dimColor.Printf(":%d\n", c.Line)
		fmt.Printf("   %s\n\n", c.Body)
	}
	return nil
}

func printSeverityBadge(severity string) {
	switch severity {
	case "critical":
		color.New(color.BgRed, color.FgWhite, color.Bold).Printf(" %s ", severity)
	case "high":
		color.New(color.BgHiRed, color.FgWhite).Printf(" %s ", severity)
	case "medium":
		color.New(color.BgYellow, color.FgBlack).Printf(" %s ", severity)
	case "low":
		color.New(color.BgGreen, color.FgWhite).Printf(" %s ", severity)
	default:
		color.New(color.BgWhite, color.FgBlack).Printf(" %s ", severity)
	}
}
