package core

import "time"

// Severity ranks how serious a single finding is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Category classifies what kind of problem a finding describes.
type Category string

const (
	CategorySecurity        Category = "security"
	CategoryBug             Category = "bug"
	CategoryPerformance     Category = "performance"
	CategoryStyle           Category = "style"
	CategorySuggestion      Category = "suggestion"
	CategoryDependency      Category = "dependency"
	CategoryMaintainability Category = "maintainability"
	CategoryOther           Category = "other"
)

// Recommendation maps onto the hosting platform's review-event vocabulary.
type Recommendation string

const (
	RecommendApprove        Recommendation = "approve"
	RecommendRequestChanges Recommendation = "request_changes"
	RecommendComment        Recommendation = "comment"
)

// NormalizeSeverity coerces an arbitrary model-supplied severity string to a
// known value, defaulting to medium rather than rejecting the finding.
func NormalizeSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return Severity(s)
	}
	return SeverityMedium
}

// NormalizeCategory coerces an arbitrary model-supplied category string to a
// known value, defaulting to other.
func NormalizeCategory(c string) Category {
	switch Category(c) {
	case CategorySecurity, CategoryBug, CategoryPerformance, CategoryStyle,
		CategorySuggestion, CategoryDependency, CategoryMaintainability, CategoryOther:
		return Category(c)
	}
	return CategoryOther
}

// NormalizeRecommendation coerces a model-supplied recommendation, defaulting
// to a plain comment so an odd value never blocks posting.
func NormalizeRecommendation(r string) Recommendation {
	switch Recommendation(r) {
	case RecommendApprove, RecommendRequestChanges, RecommendComment:
		return Recommendation(r)
	}
	return RecommendComment
}

// ReviewSummary is the top-level narrative of a review.
type ReviewSummary struct {
	Overview        string   `json:"overview"`
	Changes         string   `json:"changes"`
	RiskAssessment  string   `json:"risk_assessment"`
	Recommendations []string `json:"recommendations"`
	Praise          []string `json:"praise"`
}

// FileWalkthrough summarizes the changes to a single file.
type FileWalkthrough struct {
	Path    string   `json:"path"`
	Summary string   `json:"summary"`
	Changes []string `json:"changes"`
}

// LineComment is a single inline finding anchored to a file and line.
type LineComment struct {
	Path       string   `json:"path"`
	Line       int      `json:"line"`
	Body       string   `json:"body"`
	Severity   Severity `json:"severity"`
	Category   Category `json:"category"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// ReviewResult is the orchestrator's output for one review run. It is
// immutable once created; a re-review produces a new record.
type ReviewResult struct {
	ID             int64             `json:"id"`
	RepoFullName   string            `json:"repo_full_name"`
	PRNumber       int               `json:"pr_number"`
	HeadSHA        string            `json:"head_sha"`
	Incremental    bool              `json:"incremental"`
	Summary        ReviewSummary     `json:"summary"`
	Walkthrough    []FileWalkthrough `json:"walkthrough"`
	LineComments   []LineComment     `json:"line_comments"`
	Recommendation Recommendation    `json:"recommendation"`
	Degraded       bool              `json:"degraded"`
	CreatedAt      time.Time         `json:"created_at"`
}
