package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prguard/prguard/internal/core"
)

// ParseOutcome reports how much of the model's reply was usable.
type ParseOutcome string

const (
	// OutcomeParsed means the full reply decoded cleanly.
	OutcomeParsed ParseOutcome = "parsed"
	// OutcomePartial means the reply decoded but some findings were
	// dropped or coerced.
	OutcomePartial ParseOutcome = "partial"
	// OutcomeUnparseable means no JSON object could be recovered.
	OutcomeUnparseable ParseOutcome = "unparseable"
)

// rawReview mirrors the JSON shape the prompts instruct the model to emit.
// Enum-like fields stay strings here so one bad value cannot fail the whole
// decode.
type rawReview struct {
	Summary     core.ReviewSummary `json:"summary"`
	Walkthrough []struct {
		Path    string   `json:"path"`
		Summary string   `json:"summary"`
		Changes []string `json:"changes"`
	} `json:"walkthrough"`
	LineComments []struct {
		Path       string `json:"path"`
		Line       int    `json:"line"`
		Body       string `json:"body"`
		Severity   string `json:"severity"`
		Category   string `json:"category"`
		Suggestion string `json:"suggestion"`
	} `json:"line_comments"`
	Recommendation string `json:"recommendation"`
}

// ParseReview decodes the model's reply into a review result. The reply may
// be wrapped in markdown fences or surrounded by prose; the parser recovers
// the outermost JSON object before decoding.
func ParseReview(reply string) (*core.ReviewResult, ParseOutcome, error) {
	payload := extractJSON(reply)
	if payload == "" {
		return nil, OutcomeUnparseable, fmt.Errorf("no JSON object found in model reply")
	}

	var raw rawReview
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, OutcomeUnparseable, fmt.Errorf("failed to decode model reply: %w", err)
	}

	outcome := OutcomeParsed
	result := &core.ReviewResult{
		Summary:        raw.Summary,
		Recommendation: core.NormalizeRecommendation(raw.Recommendation),
	}
	if core.Recommendation(raw.Recommendation) != result.Recommendation {
		outcome = OutcomePartial
	}

	for _, w := range raw.Walkthrough {
		if w.Path == "" {
			outcome = OutcomePartial
			continue
		}
		result.Walkthrough = append(result.Walkthrough, core.FileWalkthrough{
			Path:    w.Path,
			Summary: w.Summary,
			Changes: w.Changes,
		})
	}

	for _, c := range raw.LineComments {
		if c.Path == "" || c.Line <= 0 || c.Body == "" {
			outcome = OutcomePartial
			continue
		}
		severity := core.NormalizeSeverity(c.Severity)
		category := core.NormalizeCategory(c.Category)
		if string(severity) != c.Severity || string(category) != c.Category {
			outcome = OutcomePartial
		}
		result.LineComments = append(result.LineComments, core.LineComment{
			Path:       c.Path,
			Line:       c.Line,
			Body:       c.Body,
			Severity:   severity,
			Category:   category,
			Suggestion: c.Suggestion,
		})
	}

	return result, outcome, nil
}

// extractJSON returns the outermost JSON object in the reply, stripping
// markdown fences and any surrounding prose.
func extractJSON(reply string) string {
	reply = strings.TrimSpace(reply)

	if strings.HasPrefix(reply, "```") {
		lines := strings.SplitN(reply, "\n", 2)
		if len(lines) > 1 {
			reply = lines[1]
		}
		if idx := strings.LastIndex(reply, "```"); idx >= 0 {
			reply = reply[:idx]
		}
		reply = strings.TrimSpace(reply)
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return reply[start : end+1]
}
