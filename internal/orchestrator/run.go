package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

const defaultDispatchTimeout = 300 * time.Second

// Orchestrator drives one batch run: Phase 1 concurrent engine fan-out,
// then Phase 2 AI-dispatch fan-out (spec §4.8).
type Orchestrator struct {
	engines         EngineRunner
	dispatcher      CardDispatcher
	logger          arbor.ILogger
	dispatchTimeout time.Duration
}

// New builds an Orchestrator. dispatchTimeout of zero uses the spec
// default of 300 seconds.
func New(engines EngineRunner, dispatcher CardDispatcher, logger arbor.ILogger, dispatchTimeout time.Duration) *Orchestrator {
	if dispatchTimeout <= 0 {
		dispatchTimeout = defaultDispatchTimeout
	}
	return &Orchestrator{engines: engines, dispatcher: dispatcher, logger: logger, dispatchTimeout: dispatchTimeout}
}

// RunResult summarizes one batch run's outcome.
type RunResult struct {
	RunID        string
	Phase1Failed bool
	Phase1Errors []error
	Dispatched   int
	Succeeded    int
	Failed       int
	Skipped      int
	Timings      []models.TimingRecord
}

// Run executes Phase 1 then, only if it fully succeeds, Phase 2
// (spec §4.8 "no AI artifact generation begins until all data engines
// complete successfully"). Cancelling ctx stops new dispatch from
// starting; already-started calls are allowed to finish.
func (o *Orchestrator) Run(ctx context.Context, universe Universe) (*RunResult, error) {
	runID := uuid.NewString()
	start := time.Now()
	runLogger := o.logger.WithCorrelationId(runID)

	financialTickers, tradingTickers, newsTickers := o.resolvePhase1Sets(universe)

	runLogger.Info().
		Int("financial_count", len(financialTickers)).
		Int("trading_count", len(tradingTickers)).
		Int("news_count", len(newsTickers)).
		Msg("orchestrator phase 1 starting")

	errs := o.runPhase1(ctx, financialTickers, tradingTickers, newsTickers, universe.AdditionalTargets)
	result := &RunResult{RunID: runID}
	for _, err := range errs {
		if err != nil {
			result.Phase1Failed = true
			result.Phase1Errors = append(result.Phase1Errors, err)
		}
	}
	if result.Phase1Failed {
		runLogger.Error().Msg("orchestrator phase 1 failed; aborting phase 2")
		return result, fmt.Errorf("phase 1 data engines failed: %v", result.Phase1Errors)
	}

	runLogger.Info().Msg("orchestrator phase 1 complete; starting phase 2 dispatch")
	dispatched, succeeded, failed, skipped := o.runPhase2(ctx, universe)
	result.Dispatched = dispatched
	result.Succeeded = succeeded
	result.Failed = failed
	result.Skipped = skipped

	runLogger.Info().
		Int("dispatched", dispatched).
		Int("succeeded", succeeded).
		Int("failed", failed).
		Int("skipped", skipped).
		Int64("total_ms", time.Since(start).Milliseconds()).
		Msg("orchestrator run complete")

	return result, nil
}

// resolvePhase1Sets builds the per-engine ticker sets from the three-level
// flag overlay (spec §4.8 "Build three sets").
func (o *Orchestrator) resolvePhase1Sets(universe Universe) (financial, trading, news []string) {
	for _, ticker := range universe.Equities {
		flags := universe.resolveEquityFlags(ticker)
		if flags.Financials {
			financial = append(financial, ticker)
		}
		if flags.Trading {
			trading = append(trading, ticker)
		}
		if flags.News {
			news = append(news, ticker)
		}
	}
	return financial, trading, news
}

// runPhase1 dispatches the three data engines concurrently and waits for
// all to complete. Returns one error slot per engine, in
// (financial, trading, news) order.
func (o *Orchestrator) runPhase1(ctx context.Context, financialTickers, tradingTickers, newsTickers []string, targets []AdditionalTarget) [3]error {
	var errs [3]error
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		errs[0] = o.engines.RunFinancial(ctx, financialTickers)
	}()
	go func() {
		defer wg.Done()
		errs[1] = o.engines.RunTrading(ctx, tradingTickers)
	}()
	go func() {
		defer wg.Done()
		errs[2] = o.engines.RunNews(ctx, newsTickers, targets)
	}()

	wg.Wait()
	return errs
}
