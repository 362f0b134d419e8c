package llm

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed prompts/*.prompt
var promptFiles embed.FS

// ModelProvider selects a provider-specific prompt variant; most keys only
// ship a default.
type ModelProvider string

// PromptKey names one prompt template.
type PromptKey string

const (
	DefaultProvider ModelProvider = "default"

	SystemPrompt            PromptKey = "system"
	FullReviewPrompt        PromptKey = "full_review"
	IncrementalReviewPrompt PromptKey = "incremental_review"
)

// PromptData is the template input shared by the review prompts.
type PromptData struct {
	RepoFullName       string
	PRNumber           int
	Title              string
	Description        string
	BaseBranch         string
	Depth              string
	FocusAreas         []string
	Categories         []string
	CustomInstructions string
	FilesSummary       string
	Diff               string
	PreviousSummary    string
}

// PromptManager loads and renders the embedded prompt templates.
type PromptManager struct {
	prompts map[PromptKey]map[ModelProvider]*template.Template
}

// NewPromptManager parses every embedded prompt file, named
// "key_provider.prompt".
func NewPromptManager() (*PromptManager, error) {
	pm := &PromptManager{
		prompts: make(map[PromptKey]map[ModelProvider]*template.Template),
	}

	files, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded prompts directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		fileName := file.Name()
		baseName := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		lastUnderscore := strings.LastIndex(baseName, "_")
		if lastUnderscore <= 0 || lastUnderscore == len(baseName)-1 {
			return nil, fmt.Errorf("invalid prompt filename %s (expected 'key_provider.prompt')", fileName)
		}

		key := PromptKey(baseName[:lastUnderscore])
		provider := ModelProvider(baseName[lastUnderscore+1:])

		content, err := promptFiles.ReadFile("prompts/" + fileName)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded prompt file %s: %w", fileName, err)
		}

		tmpl, err := template.New(baseName).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %s: %w", fileName, err)
		}

		if _, ok := pm.prompts[key]; !ok {
			pm.prompts[key] = make(map[ModelProvider]*template.Template)
		}
		pm.prompts[key][provider] = tmpl
	}

	return pm, nil
}

// Render executes the template for key, falling back to the default
// provider variant when no provider-specific one exists.
func (pm *PromptManager) Render(key PromptKey, provider ModelProvider, data PromptData) (string, error) {
	variants, ok := pm.prompts[key]
	if !ok {
		return "", fmt.Errorf("no prompts found for key %q", key)
	}

	tmpl, ok := variants[provider]
	if !ok {
		tmpl, ok = variants[DefaultProvider]
	}
	if !ok {
		return "", fmt.Errorf("no template for key %q and provider %q", key, provider)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", key, err)
	}
	return buf.String(), nil
}
