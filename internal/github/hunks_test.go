package github

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

const samplePatch = `@@ -10,4 +10,6 @@ func handler() {
 	if err != nil {
 		return err
 	}
+	logger.Info("handled")
+	metrics.Inc()
 	return nil`

func TestValidCommentLines(t *testing.T) {
	lines := ValidCommentLines(samplePatch)

	// 10..15 are the six new-side lines of the hunk
	for want := 10; want <= 15; want++ {
		assert.Contains(t, lines, want)
	}
	assert.NotContains(t, lines, 9)
	assert.NotContains(t, lines, 16)
}

func TestValidCommentLinesRemovalsDoNotAdvance(t *testing.T) {
	patch := "@@ -1,3 +1,2 @@\n line one\n-removed\n line three"
	lines := ValidCommentLines(patch)

	assert.Contains(t, lines, 1)
	assert.Contains(t, lines, 2)
	assert.NotContains(t, lines, 3)
}

func TestValidCommentLinesMalformedHunk(t *testing.T) {
	patch := "@@ garbage @@\n+added line"
	assert.Empty(t, ValidCommentLines(patch))
}

func TestFilterCommentsToPatches(t *testing.T) {
	files := []ChangedFile{
		{Filename: "handler.go", Patch: samplePatch},
		{Filename: "binary.png", Patch: ""},
	}
	comments := []DraftReviewComment{
		{Path: "handler.go", Line: 13, Body: "use Debug level here"},
		{Path: "handler.go", Line: 99, Body: "line outside the hunk"},
		{Path: "other.go", Line: 1, Body: "file not in the diff"},
		{Path: "binary.png", Line: 1, Body: "no patch available"},
	}

	kept := FilterCommentsToPatches(comments, files, slog.Default())

	assert.Len(t, kept, 1)
	assert.Equal(t, "handler.go", kept[0].Path)
	assert.Equal(t, 13, kept[0].Line)
}
