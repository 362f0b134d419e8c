// Package risk scores inbound pull-request events to decide whether a review
// is warranted, how deep it should go, and which categories deserve focus.
// Classification is a pure function of the PR context: identical input always
// yields an identical decision.
package risk

import (
	"regexp"
	"strings"

	"github.com/prguard/prguard/internal/core"
)

// sensitiveKeywords flag titles and paths that touch security-adjacent
// surfaces.
var sensitiveKeywords = regexp.MustCompile(`(?i)\b(auth|login|password|secret|token|api.?key|payment|billing|security|encrypt|middleware|migration|schema|admin|permission)`)

// routePattern flags changes to request-handling surfaces.
var routePattern = regexp.MustCompile(`(?i)(routes?|api|endpoint|handler|controller)s?/`)

// skipLabels suppress review entirely when present on the PR.
var skipLabels = regexp.MustCompile(`(?i)^(skip[-_ ]?review|no[-_ ]?review|wip|dependencies)$`)

const (
	largeChangeLines  = 500
	mediumChangeLines = 200
	manyFiles         = 20
	minReviewChanges  = 30
)

// Classify computes a review decision from the PR context using an additive
// integer score. Thresholds: depth deep >= 6, standard >= 3; priority
// critical >= 7, high >= 5, medium >= 2.
func Classify(pr core.PRContext) core.RiskDecision {
	for _, label := range pr.Labels {
		if skipLabels.MatchString(label) {
			return core.RiskDecision{
				ShouldReview: false,
				Depth:        core.DepthQuick,
				Priority:     core.PriorityLow,
				Reasons:      []string{"Skip label: " + label},
				FocusAreas:   []core.FocusArea{},
			}
		}
	}

	score := 0
	var reasons []string
	var focus []core.FocusArea

	totalChanges := pr.Additions + pr.Deletions
	switch {
	case totalChanges > largeChangeLines:
		score += 3
		reasons = append(reasons, "Large change set")
	case totalChanges > mediumChangeLines:
		score += 2
		reasons = append(reasons, "Medium change set")
	}

	if pr.ChangedFiles > manyFiles {
		score += 2
		reasons = append(reasons, "Many files changed")
	}

	title := strings.ToLower(pr.Title)
	if sensitiveKeywords.MatchString(title) {
		score += 3
		reasons = append(reasons, "Title mentions sensitive area")
	}
	if strings.Contains(title, "security") || strings.Contains(title, "vulnerability") {
		score += 4
		reasons = append(reasons, "Title flags a security concern")
		focus = append(focus, core.FocusSecurity)
	}
	if strings.Contains(title, "fix") || strings.Contains(title, "bug") {
		score++
		reasons = append(reasons, "Bug fix")
		focus = append(focus, core.FocusBug)
	}
	if strings.Contains(title, "perf") {
		focus = append(focus, core.FocusPerformance)
	}

	for _, path := range pr.FilePaths {
		if sensitiveKeywords.MatchString(path) {
			score += 2
			reasons = append(reasons, "Changes touch sensitive paths")
			focus = append(focus, core.FocusSecurity)
			break
		}
	}
	for _, path := range pr.FilePaths {
		if routePattern.MatchString(path) {
			score++
			reasons = append(reasons, "Changes touch API surface")
			focus = append(focus, core.FocusSecurity, core.FocusBug)
			break
		}
	}

	switch pr.BaseBranch {
	case "main", "master", "production":
		score++
		reasons = append(reasons, "Targets protected branch")
	}

	if len(reasons) == 0 {
		reasons = []string{"Standard changes"}
	}

	return core.RiskDecision{
		ShouldReview: score >= 1 || totalChanges > minReviewChanges,
		Score:        score,
		Depth:        depthFor(score),
		Priority:     priorityFor(score),
		Reasons:      reasons,
		FocusAreas:   dedupe(focus),
	}
}

func depthFor(score int) core.ReviewDepth {
	switch {
	case score >= 6:
		return core.DepthDeep
	case score >= 3:
		return core.DepthStandard
	}
	return core.DepthQuick
}

func priorityFor(score int) core.RiskPriority {
	switch {
	case score >= 7:
		return core.PriorityCritical
	case score >= 5:
		return core.PriorityHigh
	case score >= 2:
		return core.PriorityMedium
	}
	return core.PriorityLow
}

func dedupe(areas []core.FocusArea) []core.FocusArea {
	seen := make(map[core.FocusArea]bool, len(areas))
	out := make([]core.FocusArea, 0, len(areas))
	for _, a := range areas {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
