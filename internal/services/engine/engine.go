// Package engine wires the Financial, Trading, and News engines together
// behind orchestrator.EngineRunner (spec §4.8 Phase 1). Phase 2 card
// rendering lives in internal/services/carddispatch.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/westinedu/ai-courses-gcp/internal/cache"
	"github.com/westinedu/ai-courses-gcp/internal/configregistry"
	"github.com/westinedu/ai-courses-gcp/internal/factor"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
	"github.com/westinedu/ai-courses-gcp/internal/models"
	"github.com/westinedu/ai-courses-gcp/internal/news"
	"github.com/westinedu/ai-courses-gcp/internal/orchestrator"
	"github.com/westinedu/ai-courses-gcp/internal/reportsource"
)

type financialCache interface {
	Get(ctx context.Context, ticker string, forceRefresh bool) (*cache.FinancialResult, error)
}

type ohlcvGate interface {
	Series(ctx context.Context, ticker string, start, end time.Time) (*cache.OHLCVResult, error)
}

// Deps bundles the per-engine collaborators a Runner dispatches Phase 1
// work through.
type Deps struct {
	Financial     financialCache
	OHLCV         ohlcvGate
	News          *news.Pipeline
	ReportSource  *reportsource.Resolver
	ConfigEntries *configregistry.Registry
	Store         interfaces.ObjectStore
	Logger        arbor.ILogger
	HistoryWindow time.Duration // lookback window Series() is asked for; default 2 years
	NewsMaxAge    int
	NewsMaxPerRun int
}

// Runner implements orchestrator.EngineRunner.
type Runner struct {
	d Deps
}

var _ orchestrator.EngineRunner = (*Runner)(nil)

// New builds a Runner. Missing per-engine collaborators are tolerated: the
// corresponding Run* call becomes a no-op success, which lets a partially
// configured engine (e.g. no EODHD key) still run the engines it can.
func New(d Deps) *Runner {
	if d.HistoryWindow <= 0 {
		d.HistoryWindow = 2 * 365 * 24 * time.Hour
	}
	return &Runner{d: d}
}

// RunFinancial refreshes the financial snapshot for every ticker, and also
// resolves/refreshes its report-source evidence (spec §4.9 is driven off
// the same daily cadence as the Financial engine).
func (r *Runner) RunFinancial(ctx context.Context, tickers []string) error {
	if r.d.Financial == nil {
		return nil
	}
	for _, ticker := range tickers {
		if result, err := r.d.Financial.Get(ctx, ticker, false); err != nil {
			r.logger().Warn().Str("ticker", ticker).Err(err).Msg("financial engine: snapshot refresh failed")
		} else if result.Stale {
			r.logger().Warn().Str("ticker", ticker).Str("reason", result.StaleReason).Msg("financial engine: serving stale snapshot")
		}
		if r.d.ReportSource != nil {
			if _, err := r.d.ReportSource.Resolve(ctx, reportsource.ResolveInput{Ticker: ticker, Now: time.Now().UTC()}); err != nil {
				r.logger().Warn().Str("ticker", ticker).Err(err).Msg("financial engine: report-source resolve failed")
			}
		}
	}
	return nil
}

// RunTrading refreshes the OHLCV history for every ticker and computes its
// factor-model analysis report, persisting it through the Storage Gateway.
func (r *Runner) RunTrading(ctx context.Context, tickers []string) error {
	if r.d.OHLCV == nil {
		return nil
	}
	end := time.Now().UTC()
	start := end.Add(-r.d.HistoryWindow)
	for _, ticker := range tickers {
		result, err := r.d.OHLCV.Series(ctx, ticker, start, end)
		if err != nil {
			r.logger().Warn().Str("ticker", ticker).Err(err).Msg("trading engine: history refresh failed")
			continue
		}
		if result.Stale {
			r.logger().Warn().Str("ticker", ticker).Str("reason", result.StaleReason).Msg("trading engine: serving stale OHLCV series")
		}
		report, err := factor.ComputeAnalysisReport(*result.Series, "eodhd", nil)
		if err != nil {
			r.logger().Warn().Str("ticker", ticker).Err(err).Msg("trading engine: analysis report failed")
			continue
		}
		if r.d.Store != nil {
			if err := persistAnalysisReport(ctx, r.d.Store, ticker, report); err != nil {
				r.logger().Warn().Str("ticker", ticker).Err(err).Msg("trading engine: analysis report persist failed")
			}
		}
	}
	return nil
}

// RunNews ingests every configured feed entry for the equity tickers plus
// every additional (topic/person) target, deduplicating by entity.
func (r *Runner) RunNews(ctx context.Context, tickers []string, targets []orchestrator.AdditionalTarget) error {
	if r.d.News == nil || r.d.ConfigEntries == nil {
		return nil
	}
	seen := make(map[string]bool, len(tickers)+len(targets))
	now := time.Now().UTC()

	for _, ticker := range tickers {
		if seen[ticker] {
			continue
		}
		seen[ticker] = true
		entry, ok := r.d.ConfigEntries.Get(ticker)
		if !ok {
			continue
		}
		r.ingestOne(ctx, entry, now)
	}
	for _, target := range targets {
		id := target.Entity.Identifier
		if seen[id] {
			continue
		}
		seen[id] = true
		entry, ok := r.d.ConfigEntries.Get(id)
		if !ok {
			continue
		}
		r.ingestOne(ctx, entry, now)
	}
	return nil
}

func (r *Runner) ingestOne(ctx context.Context, entry models.EntryConfig, now time.Time) {
	maxAge := entry.MaxAgeHours
	if maxAge <= 0 {
		maxAge = r.d.NewsMaxAge
	}
	maxArticles := entry.MaxArticles
	if maxArticles <= 0 {
		maxArticles = r.d.NewsMaxPerRun
	}
	_, err := r.d.News.Ingest(ctx, news.Options{Entry: entry, MaxAgeHours: maxAge, MaxArticles: maxArticles, Now: now})
	if err != nil {
		r.logger().Warn().Str("entity", entry.Key).Err(err).Msg("news engine: ingest failed")
	}
}

func (r *Runner) logger() arbor.ILogger {
	if r.d.Logger != nil {
		return r.d.Logger
	}
	return arbor.NewLogger()
}

func persistAnalysisReport(ctx context.Context, store interfaces.ObjectStore, ticker string, report models.AnalysisReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analysis report for %s: %w", ticker, err)
	}
	path := fmt.Sprintf("trading/%s/analysis_report.json", ticker)
	return store.Put(ctx, path, data, "application/json")
}
