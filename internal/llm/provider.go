// Package llm abstracts the language-model provider used for code review
// and parses its structured output.
package llm

import "context"

// ChatRequest carries one prompt exchange to the model.
type ChatRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Provider generates a completion for a prompt. Implementations own their
// retry and circuit-breaking behavior.
//
//go:generate mockgen -destination=../../mocks/mock_llm_provider.go -package=mocks . Provider
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}
