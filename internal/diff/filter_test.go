package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriority(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"internal/server/router.go", 0},
		{"src/components/App.tsx", 0},
		{"scripts/migrate.sql", 0},
		{"config/settings.yaml", 1},
		{"docs/overview.md", 1},
		{"Dockerfile", 1},
		{"internal/server/router_test.go", 2},
		{"src/__tests__/App.test.tsx", 2},
		{"ui/__snapshots__/App.snap", 2},
		{"dist/app.js.map", 2},
		{"api/service.pb.go", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Priority(tt.path), "path %s", tt.path)
	}
}

func TestSkipped(t *testing.T) {
	assert.True(t, Skipped("package-lock.json"))
	assert.True(t, Skipped("frontend/yarn.lock"))
	assert.True(t, Skipped("go.sum"))
	assert.True(t, Skipped("assets/vendor.min.js"))
	assert.True(t, Skipped("static/app.bundle.js"))

	assert.False(t, Skipped("go.mod"))
	assert.False(t, Skipped("internal/lock/mutex.go"))
	assert.False(t, Skipped("minutes.md"))
}

func TestFilterIgnoredPaths(t *testing.T) {
	files := []FileDiff{
		{Path: "internal/auth/login.go"},
		{Path: "vendor/github.com/x/y.go"},
		{Path: "docs/design.md"},
		{Path: "web/static/logo.svg"},
	}

	t.Run("glob pattern", func(t *testing.T) {
		kept := FilterIgnoredPaths(files, []string{"vendor/*"})
		require.Len(t, kept, 3)
		for _, f := range kept {
			assert.NotContains(t, f.Path, "vendor/")
		}
	})

	t.Run("prefix match", func(t *testing.T) {
		kept := FilterIgnoredPaths(files, []string{"docs/"})
		require.Len(t, kept, 3)
	})

	t.Run("substring match", func(t *testing.T) {
		kept := FilterIgnoredPaths(files, []string{"static"})
		require.Len(t, kept, 3)
	})

	t.Run("no patterns keeps everything", func(t *testing.T) {
		assert.Len(t, FilterIgnoredPaths(files, nil), 4)
	})
}

func TestFilterAndPrioritizeOrdering(t *testing.T) {
	files := []FileDiff{
		{Path: "README.md"},
		{Path: "package-lock.json"},
		{Path: "internal/queue/queue.go"},
		{Path: "internal/queue/queue_test.go"},
		{Path: "cmd/server/main.go"},
	}

	got := FilterAndPrioritize(files)
	require.Len(t, got, 4, "lock file is skipped outright")

	// Source first, then markup, then test paths; stable within a bucket.
	assert.Equal(t, "internal/queue/queue.go", got[0].Path)
	assert.Equal(t, "cmd/server/main.go", got[1].Path)
	assert.Equal(t, "README.md", got[2].Path)
	assert.Equal(t, "internal/queue/queue_test.go", got[3].Path)
}

// The round-trip property: filtering and prioritizing never increases the
// file count relative to the input.
func TestFilterAndPrioritizeNeverGrows(t *testing.T) {
	text := buildDiff(8, 3) + "diff --git a/go.sum b/go.sum\n--- a/go.sum\n+++ b/go.sum\n@@ -1,1 +1,2 @@\n+x\n"
	input := Parse(text)
	output := Parse(Rebuild(FilterAndPrioritize(input)))
	assert.LessOrEqual(t, len(output), len(input))
}
