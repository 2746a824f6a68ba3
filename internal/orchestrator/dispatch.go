package orchestrator

import (
	"context"
)

type dispatchJob struct {
	ticker   string
	cardType string
}

// buildDispatchJobs computes the deduplicated cross product of
// (equity_universe x enabled_equity_card_types) plus every
// (target, card_type) in additional_targets (spec §4.8 Phase 2).
func buildDispatchJobs(universe Universe) []dispatchJob {
	seen := make(map[dispatchJob]bool)
	var jobs []dispatchJob

	add := func(ticker, cardType string) {
		job := dispatchJob{ticker: ticker, cardType: cardType}
		if seen[job] {
			return
		}
		seen[job] = true
		jobs = append(jobs, job)
	}

	for _, ticker := range universe.Equities {
		for _, ct := range universe.EnabledEquityCardTypes {
			add(ticker, ct)
		}
	}
	for _, target := range universe.AdditionalTargets {
		for _, ct := range universe.EnabledEquityCardTypes {
			add(target.Entity.Identifier, ct)
		}
	}

	return jobs
}

// runPhase2 dispatches every deduplicated (ticker, cardType) job with its
// own bounded deadline. Cancelling ctx stops new dispatches from starting;
// in-flight dispatches are allowed to finish (spec §4.8 "Timeouts").
func (o *Orchestrator) runPhase2(ctx context.Context, universe Universe) (dispatched, succeeded, failed, skipped int) {
	jobs := buildDispatchJobs(universe)

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			skipped++
			continue
		default:
		}

		dispatched++
		llm := universe.LLM.Resolve(job.cardType)
		dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.dispatchTimeout)
		err := o.dispatcher.GenerateCard(dispatchCtx, job.ticker, job.cardType, llm)
		cancel()

		if err != nil {
			failed++
			o.logger.Warn().Str("ticker", job.ticker).Str("card_type", job.cardType).Err(err).Msg("card dispatch failed")
			continue
		}
		succeeded++
	}

	return dispatched, succeeded, failed, skipped
}
