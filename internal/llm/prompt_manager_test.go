package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPromptManagerLoadsEmbeddedPrompts(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	for _, key := range []PromptKey{SystemPrompt, FullReviewPrompt, IncrementalReviewPrompt} {
		_, err := pm.Render(key, DefaultProvider, PromptData{})
		assert.NoError(t, err, "key %s", key)
	}
}

func TestRenderFullReview(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	out, err := pm.Render(FullReviewPrompt, DefaultProvider, PromptData{
		RepoFullName: "acme/widgets",
		PRNumber:     42,
		Title:        "Add rate limiting",
		BaseBranch:   "main",
		FilesSummary: "api/limit.go: +80/-2 lines",
		Diff:         "diff --git a/api/limit.go b/api/limit.go",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "acme/widgets")
	assert.Contains(t, out, "#42")
	assert.Contains(t, out, "Add rate limiting")
	assert.Contains(t, out, "api/limit.go: +80/-2 lines")
}

func TestRenderSystemPromptIncludesFocus(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	out, err := pm.Render(SystemPrompt, DefaultProvider, PromptData{
		Depth:              "deep",
		FocusAreas:         []string{"security", "bug"},
		CustomInstructions: "Flag any use of unsafe.",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "deep")
	assert.Contains(t, out, "security, bug")
	assert.Contains(t, out, "Flag any use of unsafe.")
}

func TestRenderFallsBackToDefaultProvider(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	out, err := pm.Render(SystemPrompt, ModelProvider("anthropic"), PromptData{Depth: "quick"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderUnknownKey(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	_, err = pm.Render(PromptKey("nope"), DefaultProvider, PromptData{})
	assert.Error(t, err)
}
