// Package orchestrator implements the Batch Orchestrator (spec §4.8): a
// two-phase run over a configured universe of equities, topics, and
// persons — concurrent data-engine fan-out followed by AI-dispatch fan-out.
package orchestrator

import "github.com/westinedu/ai-courses-gcp/internal/models"

// EngineFlags controls which per-entity engines run for one equity.
type EngineFlags struct {
	Financials bool
	Trading    bool
	News       bool
}

// EngineOverride is a partial EngineFlags overlay: only the non-nil fields
// replace the base (spec §4.8 "overlay ... overrides").
type EngineOverride struct {
	Financials *bool
	Trading    *bool
	News       *bool
}

// apply overlays non-nil fields of override onto base, returning the result.
// Only the Financials/Trading/News fields exist; the legacy names
// run_financials_engine, run_trading_engine and run_news_engine are not
// recognised anywhere in this module.
func (o *EngineOverride) apply(base EngineFlags) EngineFlags {
	if o == nil {
		return base
	}
	if o.Financials != nil {
		base.Financials = *o.Financials
	}
	if o.Trading != nil {
		base.Trading = *o.Trading
	}
	if o.News != nil {
		base.News = *o.News
	}
	return base
}

// TargetOverride customizes per-ticker engine routing within the base
// equity universe (spec §4.8 per-target overrides).
type TargetOverride struct {
	Ticker     string
	RunEngines *EngineOverride
}

// AdditionalTarget is an equity, topic, or person outside the base universe
// (spec §4.8 "additional targets"). In Phase 1 every additional target,
// equities included, is passed only to the news engine; RunEngines is not
// read.
type AdditionalTarget struct {
	Entity     models.Entity
	RunEngines *EngineOverride
}

// LLMTaskConfig names the backend/model pair used to render one card type.
type LLMTaskConfig struct {
	Backend string
	Model   string
}

// LLMRoutingConfig resolves the effective backend/model per card type
// (spec §4.8 "task-specific overrides the default").
type LLMRoutingConfig struct {
	Default LLMTaskConfig
	Tasks   map[string]LLMTaskConfig
}

// Resolve returns the task-specific override for cardType if one exists,
// else the default.
func (r LLMRoutingConfig) Resolve(cardType string) LLMTaskConfig {
	if override, ok := r.Tasks[cardType]; ok {
		return override
	}
	return r.Default
}

// Universe is the full per-run input set (spec §4.8 "Per-run inputs").
type Universe struct {
	Equities               []string
	EquitiesDefault        *EngineOverride
	PerTargetOverrides     []TargetOverride
	AdditionalTargets      []AdditionalTarget
	GlobalEngineControl    EngineFlags
	EnabledEquityCardTypes []string
	LLM                    LLMRoutingConfig
}

// resolveEquityFlags applies the three-level overlay from spec §4.8:
// global engine_control, then equities_default, then the per-target
// override for this ticker (if any).
func (u Universe) resolveEquityFlags(ticker string) EngineFlags {
	flags := u.GlobalEngineControl
	flags = u.EquitiesDefault.apply(flags)
	for _, t := range u.PerTargetOverrides {
		if t.Ticker == ticker {
			flags = t.RunEngines.apply(flags)
			break
		}
	}
	return flags
}
