// Package diff parses unified diffs into structured per-file records and
// shapes them to fit a bounded token budget: ignored paths are filtered,
// zero-value files are skipped, source files are surfaced first, and the
// result is truncated on a file boundary.
package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FileStatus describes what happened to a file in a diff.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
	StatusModified FileStatus = "modified"
)

// Hunk is a single change region within a file.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Body     string
}

// FileDiff is one changed file within a unified diff. It is immutable once
// parsed; Raw holds the file's complete diff block for text reconstruction.
type FileDiff struct {
	Path      string
	Status    FileStatus
	Additions int
	Deletions int
	Hunks     []Hunk
	Raw       string
}

var (
	fileHeaderRegex = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
)

// Parse scans a unified diff line by line and produces one FileDiff per
// "diff --git" block. Hunk body lines accumulate until the next file or hunk
// header; the +++/--- marker lines are excluded from the addition and
// deletion counts.
func Parse(text string) []FileDiff {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var files []FileDiff
	var cur *FileDiff
	var curHunk *Hunk
	var hunkBody strings.Builder
	var rawBlock strings.Builder

	flushHunk := func() {
		if cur == nil || curHunk == nil {
			return
		}
		curHunk.Body = hunkBody.String()
		cur.Hunks = append(cur.Hunks, *curHunk)
		curHunk = nil
		hunkBody.Reset()
	}
	flushFile := func() {
		flushHunk()
		if cur == nil {
			return
		}
		cur.Raw = rawBlock.String()
		files = append(files, *cur)
		cur = nil
		rawBlock.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if m := fileHeaderRegex.FindStringSubmatch(line); m != nil {
			flushFile()
			cur = &FileDiff{Path: m[2], Status: StatusModified}
			if m[1] != m[2] {
				cur.Status = StatusRenamed
			}
			rawBlock.WriteString(line)
			rawBlock.WriteString("\n")
			continue
		}

		if cur == nil {
			continue
		}
		rawBlock.WriteString(line)
		rawBlock.WriteString("\n")

		switch {
		case strings.HasPrefix(line, "new file mode"):
			cur.Status = StatusAdded
		case strings.HasPrefix(line, "deleted file mode"):
			cur.Status = StatusDeleted
		case strings.HasPrefix(line, "@@"):
			if m := hunkHeaderRegex.FindStringSubmatch(line); m != nil {
				flushHunk()
				curHunk = &Hunk{
					OldStart: atoiDefault(m[1], 0),
					OldCount: atoiDefault(m[2], 1),
					NewStart: atoiDefault(m[3], 0),
					NewCount: atoiDefault(m[4], 1),
				}
			}
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			// File marker lines, not content.
		case strings.HasPrefix(line, "+"):
			cur.Additions++
			appendHunkLine(curHunk, &hunkBody, line)
		case strings.HasPrefix(line, "-"):
			cur.Deletions++
			appendHunkLine(curHunk, &hunkBody, line)
		default:
			appendHunkLine(curHunk, &hunkBody, line)
		}
	}
	flushFile()

	return files
}

func appendHunkLine(h *Hunk, body *strings.Builder, line string) {
	if h == nil {
		return
	}
	body.WriteString(line)
	body.WriteString("\n")
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Rebuild reassembles a diff text from the given files, in order.
func Rebuild(files []FileDiff) string {
	var b strings.Builder
	for _, f := range files {
		b.WriteString(strings.TrimSuffix(f.Raw, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// SummarizeFiles renders a one-line-per-file overview of a parsed diff.
func SummarizeFiles(files []FileDiff) string {
	if len(files) == 0 {
		return "No files changed"
	}
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "%s: +%d/-%d lines\n", f.Path, f.Additions, f.Deletions)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
