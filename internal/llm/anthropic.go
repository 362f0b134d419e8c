package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/prguard/prguard/internal/config"
	"github.com/prguard/prguard/internal/resilience"
)

// AnthropicProvider implements Provider on top of the Anthropic Messages
// API. Calls are retried with exponential backoff and run through the LLM
// circuit breaker.
type AnthropicProvider struct {
	api       *anthropic.Client
	model     anthropic.Model
	maxTokens int
	retry     resilience.RetryConfig
	breaker   *resilience.CircuitBreaker
	logger    *slog.Logger
}

// NewAnthropicProvider builds a provider from configuration.
func NewAnthropicProvider(cfg config.AnthropicConfig, breaker *resilience.CircuitBreaker, logger *slog.Logger) *AnthropicProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(90*time.Second),
	)
	return &AnthropicProvider{
		api:       &client,
		model:     anthropic.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		retry:     resilience.DefaultRetryConfig(),
		breaker:   breaker,
		logger:    logger,
	}
}

// Chat sends one prompt exchange and returns the model's text reply.
func (p *AnthropicProvider) Chat(ctx context.Context, req ChatRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	var text string
	err := resilience.Retry(ctx, p.retry, func(ctx context.Context) error {
		return p.breaker.Execute(ctx, func(ctx context.Context) error {
			msg, err := p.api.Messages.New(ctx, params)
			if err != nil {
				p.logger.Warn("anthropic api call failed", "model", p.model, "error", err)
				return err
			}

			text = ""
			for _, block := range msg.Content {
				if block.Type == "text" {
					text = block.Text
					break
				}
			}
			if text == "" {
				return fmt.Errorf("no text content in model response")
			}
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("anthropic chat: %w", err)
	}
	return text, nil
}
