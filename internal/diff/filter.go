package diff

import (
	"regexp"
	"sort"
	"strings"
)

// skipExact lists files excluded from LLM input by exact name. Lock files and
// build artifacts add no review value and burn token budget.
var skipExact = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"bun.lockb":         true,
	"Gemfile.lock":      true,
	"Cargo.lock":        true,
	"composer.lock":     true,
	"poetry.lock":       true,
	"Pipfile.lock":      true,
	"go.sum":            true,
}

// skipSubstrings excludes minified and bundled artifacts by substring match.
var skipSubstrings = []string{".min.js", ".min.css", ".bundle.js", ".chunk.js"}

// sourceExts are treated as reviewable source code (priority 0).
var sourceExts = map[string]bool{
	".go": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".py": true, ".rb": true, ".java": true, ".kt": true, ".rs": true,
	".c": true, ".h": true, ".cc": true, ".cpp": true, ".hpp": true,
	".cs": true, ".swift": true, ".scala": true, ".php": true, ".ex": true,
	".exs": true, ".sql": true, ".sh": true,
}

// lowValuePatterns mark paths that rarely need model attention (priority 2).
var lowValuePatterns = []string{
	".lock", ".sum", ".snap", ".map", ".generated.", "_generated",
	".pb.go", "_test.", ".test.", ".spec.", "__tests__", "__mocks__",
	"__snapshots__", "__pycache__", ".pyc", "testdata/",
}

// Priority buckets a file for ordering inside the token budget: 0 for source
// code, 1 for structured, markup, and config files, 2 for low-value paths.
func Priority(path string) int {
	lower := strings.ToLower(path)
	for _, p := range lowValuePatterns {
		if strings.Contains(lower, p) {
			return 2
		}
	}
	if i := strings.LastIndex(lower, "."); i >= 0 && sourceExts[lower[i:]] {
		return 0
	}
	return 1
}

// Skipped reports whether a path is unconditionally excluded from LLM input.
func Skipped(path string) bool {
	base := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		base = path[i+1:]
	}
	if skipExact[base] {
		return true
	}
	for _, s := range skipSubstrings {
		if strings.Contains(path, s) {
			return true
		}
	}
	return false
}

// FilterIgnoredPaths drops files whose path matches a configured ignore
// pattern. A pattern containing '*' is treated as a glob; otherwise it
// matches as a path prefix or substring.
func FilterIgnoredPaths(files []FileDiff, patterns []string) []FileDiff {
	if len(patterns) == 0 {
		return files
	}

	matchers := make([]*regexp.Regexp, 0, len(patterns))
	literals := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if strings.Contains(p, "*") {
			re, err := regexp.Compile("^" + strings.ReplaceAll(regexp.QuoteMeta(p), `\*`, ".*") + "$")
			if err == nil {
				matchers = append(matchers, re)
				continue
			}
		}
		literals = append(literals, p)
	}

	kept := make([]FileDiff, 0, len(files))
fileLoop:
	for _, f := range files {
		for _, re := range matchers {
			if re.MatchString(f.Path) {
				continue fileLoop
			}
		}
		for _, lit := range literals {
			if strings.HasPrefix(f.Path, lit) || strings.Contains(f.Path, lit) {
				continue fileLoop
			}
		}
		kept = append(kept, f)
	}
	return kept
}

// FilterAndPrioritize removes skip-listed files and reorders the remainder so
// source changes come first. When truncation later cuts tail content, the
// highest-value files survive.
func FilterAndPrioritize(files []FileDiff) []FileDiff {
	kept := make([]FileDiff, 0, len(files))
	for _, f := range files {
		if !Skipped(f.Path) {
			kept = append(kept, f)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return Priority(kept[i].Path) < Priority(kept[j].Path)
	})
	return kept
}
