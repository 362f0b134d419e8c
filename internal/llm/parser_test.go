package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prguard/prguard/internal/core"
)

const cleanReply = `{
  "summary": {
    "overview": "Adds token refresh to the auth middleware.",
    "changes": "New refresh path and tests.",
    "risk_assessment": "Token handling changes carry security risk.",
    "recommendations": ["Add an expiry test"],
    "praise": ["Good test coverage"]
  },
  "walkthrough": [
    {"path": "internal/auth/middleware.go", "summary": "Adds refresh handling", "changes": ["new refreshToken func"]}
  ],
  "line_comments": [
    {"path": "internal/auth/middleware.go", "line": 42, "body": "Token is logged in plain text.", "severity": "high", "category": "security"}
  ],
  "recommendation": "request_changes"
}`

func TestParseReviewClean(t *testing.T) {
	result, outcome, err := ParseReview(cleanReply)
	require.NoError(t, err)

	assert.Equal(t, OutcomeParsed, outcome)
	assert.Equal(t, core.RecommendRequestChanges, result.Recommendation)
	assert.Equal(t, "Adds token refresh to the auth middleware.", result.Summary.Overview)
	require.Len(t, result.LineComments, 1)
	assert.Equal(t, core.SeverityHigh, result.LineComments[0].Severity)
	assert.Equal(t, core.CategorySecurity, result.LineComments[0].Category)
}

func TestParseReviewFencedWithProse(t *testing.T) {
	reply := "Here is my review:\n\n```json\n" + cleanReply + "\n```\nLet me know if you need more detail."

	result, outcome, err := ParseReview(reply)
	require.NoError(t, err)
	assert.Equal(t, OutcomeParsed, outcome)
	assert.Equal(t, core.RecommendRequestChanges, result.Recommendation)
}

func TestParseReviewCoercesUnknownEnums(t *testing.T) {
	reply := `{
		"summary": {"overview": "ok"},
		"line_comments": [
			{"path": "a.go", "line": 3, "body": "finding", "severity": "blocker", "category": "correctness"}
		],
		"recommendation": "merge it"
	}`

	result, outcome, err := ParseReview(reply)
	require.NoError(t, err)

	assert.Equal(t, OutcomePartial, outcome)
	assert.Equal(t, core.RecommendComment, result.Recommendation)
	require.Len(t, result.LineComments, 1)
	assert.Equal(t, core.SeverityMedium, result.LineComments[0].Severity)
	assert.Equal(t, core.CategoryOther, result.LineComments[0].Category)
}

func TestParseReviewDropsInvalidComments(t *testing.T) {
	reply := `{
		"summary": {"overview": "ok"},
		"line_comments": [
			{"path": "", "line": 3, "body": "no path"},
			{"path": "a.go", "line": 0, "body": "no line"},
			{"path": "a.go", "line": 7, "body": "kept", "severity": "low", "category": "style"}
		],
		"recommendation": "comment"
	}`

	result, outcome, err := ParseReview(reply)
	require.NoError(t, err)

	assert.Equal(t, OutcomePartial, outcome)
	require.Len(t, result.LineComments, 1)
	assert.Equal(t, "kept", result.LineComments[0].Body)
}

func TestParseReviewUnparseable(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"plain prose", "I could not review this pull request."},
		{"broken json", `{"summary": {"overview": "ok"`},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, outcome, err := ParseReview(tt.reply)
			assert.Error(t, err)
			assert.Equal(t, OutcomeUnparseable, outcome)
		})
	}
}
