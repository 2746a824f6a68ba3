// Package llm renders finished card text from published artifacts using the
// Anthropic SDK, in the same client-construction idiom as
// reportsource.ClaudeVerifier.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/westinedu/ai-courses-gcp/internal/common"
)

// ClaudeRenderer renders card text from a prompt built out of published
// artifacts (spec §4.8 Phase 2 "dispatch an idempotent generate card
// request"). Only the "claude" backend is wired: no other LLM SDK appears
// anywhere in the example pack, so an unrecognized backend falls back to
// Claude with a logged warning rather than failing the dispatch.
type ClaudeRenderer struct {
	client      *anthropic.Client
	logger      arbor.ILogger
	timeout     time.Duration
	maxTokens   int
	temperature float32
}

// NewClaudeRenderer builds a ClaudeRenderer. Returns an error if cfg.APIKey
// is empty.
func NewClaudeRenderer(cfg common.ClaudeConfig, logger arbor.ILogger) (*ClaudeRenderer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: claude renderer requires an API key")
	}
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 2 * time.Minute
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &ClaudeRenderer{
		client:      anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		logger:      logger,
		timeout:     timeout,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Render calls the configured model with prompt, returning the rendered
// text. backend is logged but otherwise ignored — see the package doc.
func (r *ClaudeRenderer) Render(ctx context.Context, backend, model, prompt string) (string, error) {
	if !strings.EqualFold(backend, "claude") && backend != "" {
		r.logger.Warn().Str("backend", backend).Msg("llm: unsupported card backend, falling back to claude")
	}
	if model == "" {
		model = "claude-haiku-4-5"
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(r.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if r.temperature > 0 {
		params.Temperature = anthropic.Float(float64(r.temperature))
	}

	resp, err := r.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return "", fmt.Errorf("llm: card render call failed: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("llm: card render returned no text")
	}
	return out.String(), nil
}
