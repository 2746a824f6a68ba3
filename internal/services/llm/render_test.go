package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westinedu/ai-courses-gcp/internal/common"
)

func TestNewClaudeRenderer_RequiresAPIKey(t *testing.T) {
	_, err := NewClaudeRenderer(common.ClaudeConfig{}, nil)
	assert.Error(t, err)
}

func TestNewClaudeRenderer_DefaultsInvalidTimeoutAndMaxTokens(t *testing.T) {
	r, err := NewClaudeRenderer(common.ClaudeConfig{APIKey: "sk-test", Timeout: "not-a-duration"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2*60, int(r.timeout.Seconds()))
	assert.Equal(t, 4096, r.maxTokens)
}

func TestNewClaudeRenderer_HonorsConfiguredValues(t *testing.T) {
	r, err := NewClaudeRenderer(common.ClaudeConfig{APIKey: "sk-test", Timeout: "30s", MaxTokens: 1024, Temperature: 0.5}, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, int(r.timeout.Seconds()))
	assert.Equal(t, 1024, r.maxTokens)
	assert.InDelta(t, 0.5, r.temperature, 0.0001)
}
