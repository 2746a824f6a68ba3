package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestResolveEquityFlags_GlobalOnly(t *testing.T) {
	u := Universe{GlobalEngineControl: EngineFlags{Financials: true, Trading: false, News: true}}
	flags := u.resolveEquityFlags("AAPL")
	assert.Equal(t, EngineFlags{Financials: true, Trading: false, News: true}, flags)
}

func TestResolveEquityFlags_EquitiesDefaultOverridesGlobal(t *testing.T) {
	u := Universe{
		GlobalEngineControl: EngineFlags{Financials: true, Trading: true, News: true},
		EquitiesDefault:     &EngineOverride{Trading: boolPtr(false)},
	}
	flags := u.resolveEquityFlags("AAPL")
	assert.Equal(t, EngineFlags{Financials: true, Trading: false, News: true}, flags)
}

func TestResolveEquityFlags_PerTargetOverridesEquitiesDefault(t *testing.T) {
	u := Universe{
		GlobalEngineControl: EngineFlags{Financials: true, Trading: true, News: true},
		EquitiesDefault:     &EngineOverride{Trading: boolPtr(false)},
		PerTargetOverrides: []TargetOverride{
			{Ticker: "AAPL", RunEngines: &EngineOverride{Trading: boolPtr(true), News: boolPtr(false)}},
		},
	}
	flags := u.resolveEquityFlags("AAPL")
	assert.Equal(t, EngineFlags{Financials: true, Trading: true, News: false}, flags)

	other := u.resolveEquityFlags("MSFT")
	assert.Equal(t, EngineFlags{Financials: true, Trading: false, News: true}, other, "override only applies to the named ticker")
}

func TestLLMRoutingConfig_Resolve(t *testing.T) {
	r := LLMRoutingConfig{
		Default: LLMTaskConfig{Backend: "anthropic", Model: "claude-default"},
		Tasks:   map[string]LLMTaskConfig{"summary": {Backend: "anthropic", Model: "claude-fast"}},
	}
	assert.Equal(t, "claude-fast", r.Resolve("summary").Model)
	assert.Equal(t, "claude-default", r.Resolve("deep_dive").Model)
}
