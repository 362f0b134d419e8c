package review

import (
	"fmt"
	"strings"

	"github.com/prguard/prguard/internal/core"
)

var severityBadges = map[core.Severity]string{
	core.SeverityCritical: "🔴 Critical",
	core.SeverityHigh:     "🟠 High",
	core.SeverityMedium:   "🟡 Medium",
	core.SeverityLow:      "🔵 Low",
	core.SeverityInfo:     "⚪ Info",
}

// FormatReviewBody renders the review summary posted as the review's main
// body. Inline findings are posted separately as review comments.
func FormatReviewBody(result *core.ReviewResult) string {
	var sb strings.Builder

	sb.WriteString("## PRGuard Review\n\n")
	if result.Incremental {
		sb.WriteString("_Incremental review of the latest commits._\n\n")
	}
	if result.Degraded {
		sb.WriteString("> ⚠️ The model reply could not be fully parsed; this review may be incomplete.\n\n")
	}

	if result.Summary.Overview != "" {
		sb.WriteString(result.Summary.Overview)
		sb.WriteString("\n\n")
	}
	if result.Summary.RiskAssessment != "" {
		sb.WriteString("**Risk assessment:** ")
		sb.WriteString(result.Summary.RiskAssessment)
		sb.WriteString("\n\n")
	}

	if len(result.Summary.Recommendations) > 0 {
		sb.WriteString("**Recommendations**\n\n")
		for _, r := range result.Summary.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
		sb.WriteString("\n")
	}

	if len(result.Summary.Praise) > 0 {
		sb.WriteString("**What looks good**\n\n")
		for _, p := range result.Summary.Praise {
			fmt.Fprintf(&sb, "- %s\n", p)
		}
		sb.WriteString("\n")
	}

	if len(result.Walkthrough) > 0 {
		sb.WriteString("<details>\n<summary>File walkthrough</summary>\n\n")
		for _, w := range result.Walkthrough {
			fmt.Fprintf(&sb, "**`%s`** — %s\n", w.Path, w.Summary)
			for _, c := range w.Changes {
				fmt.Fprintf(&sb, "  - %s\n", c)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("</details>\n\n")
	}

	if len(result.LineComments) > 0 {
		counts := make(map[core.Severity]int)
		for _, c := range result.LineComments {
			counts[c.Severity]++
		}
		fmt.Fprintf(&sb, "**%d finding(s):** ", len(result.LineComments))
		parts := make([]string, 0, len(counts))
		for _, sev := range []core.Severity{core.SeverityCritical, core.SeverityHigh, core.SeverityMedium, core.SeverityLow, core.SeverityInfo} {
			if counts[sev] > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", counts[sev], sev))
			}
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	} else if !result.Degraded {
		sb.WriteString("No inline findings.\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// FormatInlineComment renders one finding as a review comment body.
func FormatInlineComment(c core.LineComment) string {
	var sb strings.Builder

	badge, ok := severityBadges[c.Severity]
	if !ok {
		badge = string(c.Severity)
	}
	fmt.Fprintf(&sb, "**%s | %s**\n\n", badge, c.Category)
	sb.WriteString(c.Body)

	if c.Suggestion != "" {
		sb.WriteString("\n\n```suggestion\n")
		sb.WriteString(strings.TrimRight(c.Suggestion, "\n"))
		sb.WriteString("\n```")
	}

	return sb.String()
}
