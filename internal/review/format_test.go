package review

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prguard/prguard/internal/core"
)

func TestFormatReviewBody(t *testing.T) {
	result := &core.ReviewResult{
		Incremental: true,
		Summary: core.ReviewSummary{
			Overview:        "Adds caching to the user lookup.",
			RiskAssessment:  "Cache invalidation is the risky part.",
			Recommendations: []string{"Add a TTL test"},
			Praise:          []string{"Clear naming"},
		},
		Walkthrough: []core.FileWalkthrough{
			{Path: "internal/cache/cache.go", Summary: "new cache layer", Changes: []string{"adds Get/Set"}},
		},
		LineComments: []core.LineComment{
			{Path: "a.go", Line: 1, Body: "x", Severity: core.SeverityHigh, Category: core.CategoryBug},
			{Path: "a.go", Line: 2, Body: "y", Severity: core.SeverityHigh, Category: core.CategoryBug},
			{Path: "b.go", Line: 3, Body: "z", Severity: core.SeverityLow, Category: core.CategoryStyle},
		},
		Recommendation: core.RecommendComment,
	}

	body := FormatReviewBody(result)

	assert.Contains(t, body, "Incremental review")
	assert.Contains(t, body, "Adds caching to the user lookup.")
	assert.Contains(t, body, "**Risk assessment:**")
	assert.Contains(t, body, "- Add a TTL test")
	assert.Contains(t, body, "`internal/cache/cache.go`")
	assert.Contains(t, body, "**3 finding(s):** 2 high, 1 low")
	assert.NotContains(t, body, "No inline findings")
}

func TestFormatReviewBodyDegraded(t *testing.T) {
	result := &core.ReviewResult{
		Summary:        core.ReviewSummary{Overview: "raw model text"},
		Recommendation: core.RecommendComment,
		Degraded:       true,
	}

	body := FormatReviewBody(result)
	assert.Contains(t, body, "could not be fully parsed")
	assert.Contains(t, body, "raw model text")
}

func TestFormatInlineComment(t *testing.T) {
	c := core.LineComment{
		Path:       "a.go",
		Line:       4,
		Body:       "Use a prepared statement here.",
		Severity:   core.SeverityCritical,
		Category:   core.CategorySecurity,
		Suggestion: "stmt, err := db.Prepare(query)",
	}

	body := FormatInlineComment(c)

	assert.Contains(t, body, "Critical")
	assert.Contains(t, body, "security")
	assert.Contains(t, body, "Use a prepared statement here.")
	assert.Contains(t, body, "```suggestion\nstmt, err := db.Prepare(query)\n```")
}
