package orchestrator

import "context"

// EngineRunner is the boundary the orchestrator dispatches Phase 1 data
// engine work through. Per-item failures inside an engine (one bad ticker,
// one bad news target) must be swallowed and logged by the implementation,
// not returned here — only a top-level engine failure should surface
// (spec §4.8 "per-item failures ... do not propagate").
type EngineRunner interface {
	RunFinancial(ctx context.Context, tickers []string) error
	RunTrading(ctx context.Context, tickers []string) error
	RunNews(ctx context.Context, tickers []string, targets []AdditionalTarget) error
}

// CardDispatcher is the boundary Phase 2 dispatches idempotent
// "generate card" requests through.
type CardDispatcher interface {
	GenerateCard(ctx context.Context, ticker, cardType string, llm LLMTaskConfig) error
}
