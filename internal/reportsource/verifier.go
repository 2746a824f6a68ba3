package reportsource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/westinedu/ai-courses-gcp/internal/common"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
)

// ClaudeVerifier implements interfaces.AIVerifier using the Anthropic
// Messages API, gated by REPORT_SOURCE_ENABLE_AI (spec §4.9 step 5).
type ClaudeVerifier struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
	logger    arbor.ILogger
}

// NewClaudeVerifier builds a ClaudeVerifier from configuration.
func NewClaudeVerifier(cfg common.ClaudeConfig, logger arbor.ILogger) (*ClaudeVerifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required for report-source AI verification")
	}
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		timeout = 2 * time.Minute
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &ClaudeVerifier{
		client:    &client,
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

type verdictPayload struct {
	IsOfficialIRPage bool    `json:"is_official_ir_page"`
	Confidence       float64 `json:"confidence"`
	Reason           string  `json:"reason"`
	PageKind         string  `json:"page_kind"`
}

// VerifyIRPage asks Claude to classify whether a fetched page is the
// company's official investor-relations surface, returning a structured
// verdict (spec §4.9 step 5).
func (v *ClaudeVerifier) VerifyIRPage(ctx context.Context, ticker, url, pageText string) (interfaces.VerifierVerdict, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	if len(pageText) > 4000 {
		pageText = pageText[:4000]
	}

	prompt := fmt.Sprintf(
		"Ticker: %s\nURL: %s\nPage text (truncated):\n%s\n\n"+
			"Classify whether this is the company's official investor-relations "+
			"page. Respond with ONLY a JSON object: "+
			`{"is_official_ir_page": bool, "confidence": number 0..1, "reason": string, "page_kind": string}`,
		ticker, url, pageText)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(v.model),
		MaxTokens: int64(v.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	resp, err := v.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return interfaces.VerifierVerdict{}, fmt.Errorf("report-source AI verification call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return interfaces.VerifierVerdict{}, fmt.Errorf("report-source AI verification returned no text")
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(extractJSONObject(text.String())), &payload); err != nil {
		return interfaces.VerifierVerdict{}, fmt.Errorf("report-source AI verification returned unparseable response: %w", err)
	}

	return interfaces.VerifierVerdict{
		IsOfficialIRPage: payload.IsOfficialIRPage,
		Confidence:       clampConfidence(payload.Confidence),
		Reason:           payload.Reason,
		PageKind:         payload.PageKind,
	}, nil
}

// extractJSONObject trims any leading/trailing prose the model emits
// around the JSON object it was asked to return.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
