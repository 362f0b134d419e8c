package github

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderRegex = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// ValidCommentLines extracts the line numbers on the new side of a patch
// that GitHub will accept an inline review comment on. Comments placed on
// any other line are rejected by the API with a 422.
func ValidCommentLines(patch string) map[int]struct{} {
	validLines := make(map[int]struct{})

	currentLine := -1
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "@@") {
			matches := hunkHeaderRegex.FindStringSubmatch(line)
			if len(matches) < 2 {
				currentLine = -1
				continue
			}
			start, err := strconv.Atoi(matches[1])
			if err != nil {
				// malformed hunk header, don't trust any numbers after it
				currentLine = -1
				continue
			}
			currentLine = start
			continue
		}

		if currentLine == -1 {
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"), strings.HasPrefix(line, " "):
			validLines[currentLine] = struct{}{}
			currentLine++
		case strings.HasPrefix(line, "-"):
			// removed line lives on the old side, not commentable
		}
	}

	return validLines
}

// FilterCommentsToPatches drops draft comments whose target line does not
// exist on the new side of the corresponding file's patch, so a single bad
// line number cannot fail the whole review submission.
func FilterCommentsToPatches(comments []DraftReviewComment, files []ChangedFile, logger *slog.Logger) []DraftReviewComment {
	validByPath := make(map[string]map[int]struct{}, len(files))
	for _, f := range files {
		if f.Patch == "" {
			continue
		}
		validByPath[f.Filename] = ValidCommentLines(f.Patch)
	}

	kept := make([]DraftReviewComment, 0, len(comments))
	for _, c := range comments {
		valid, ok := validByPath[c.Path]
		if !ok {
			logger.Warn("dropping comment for file outside the diff", "path", c.Path, "line", c.Line)
			continue
		}
		if _, ok := valid[c.Line]; !ok {
			logger.Warn("dropping comment on non-commentable line", "path", c.Path, "line", c.Line)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
