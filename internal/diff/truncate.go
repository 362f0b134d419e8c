package diff

import (
	"fmt"
	"strings"
)

// charsPerToken is the character-count estimate for one model token.
const charsPerToken = 4

// fileBoundary is the marker a truncation point backs up to so a file's
// hunks are never split.
const fileBoundary = "\ndiff --git"

// Truncate filters and prioritizes a raw diff, then cuts it to roughly
// maxTokens. The cut backs up to the nearest preceding file boundary when
// that boundary is past half the budget, avoiding a mid-file cut. A note
// stating how many files were dropped is appended when anything was cut.
func Truncate(text string, maxTokens int) string {
	original := Parse(text)
	files := FilterAndPrioritize(original)
	result := Rebuild(files)

	budget := maxTokens * charsPerToken
	if len(result) > budget {
		cut := result[:budget]
		if idx := strings.LastIndex(cut, fileBoundary); idx >= budget/2 {
			cut = cut[:idx]
		}
		result = cut
	}

	dropped := len(original) - len(Parse(result))
	if dropped > 0 {
		result += fmt.Sprintf("\n\n[... %d file(s) omitted to fit the review size limit ...]\n", dropped)
	}
	return result
}
