package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/westinedu/ai-courses-gcp/internal/common"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
	"github.com/westinedu/ai-courses-gcp/internal/models"
	"github.com/westinedu/ai-courses-gcp/internal/timeseries"
)

func ohlcvPath(ticker string) string {
	return fmt.Sprintf("ohlcv/%s.json", ticker)
}

// OHLCVGate enforces the Trading engine's refresh cadence: at most one
// upstream history fetch per ticker per MinIntervalSeconds, with a shorter
// backoff after a failed attempt, and a bounded wait for concurrent callers
// of the same ticker (spec §4.2, §4.5).
type OHLCVGate struct {
	store   interfaces.ObjectStore
	adapter interfaces.MarketDataAdapter
	cfg     *common.Config
	logger  arbor.ILogger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	nextTry  map[string]time.Time
	inflight map[string]*ohlcvInflight
}

type ohlcvInflight struct {
	done chan struct{}
}

// OHLCVResult is the flagged outcome of a Series call: the series plus
// which layer served it, and — for the stale fallback — why the series
// being served is stale rather than freshly refreshed (spec §4.2, §7).
type OHLCVResult struct {
	Series      *models.OHLCVSeries
	Layer       CacheLayer
	Stale       bool
	StaleReason string
}

// NewOHLCVGate wires a gate over the given object store and market data
// adapter.
func NewOHLCVGate(store interfaces.ObjectStore, adapter interfaces.MarketDataAdapter, cfg *common.Config, logger arbor.ILogger) *OHLCVGate {
	return &OHLCVGate{
		store:    store,
		adapter:  adapter,
		cfg:      cfg,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
		nextTry:  make(map[string]time.Time),
		inflight: make(map[string]*ohlcvInflight),
	}
}

// Series returns the merged OHLCV history for ticker, refreshing from
// upstream when the rate gate allows it; otherwise it serves whatever is
// cached in the object store. The returned OHLCVResult always flags which
// layer served the payload, mirroring FinancialCache.Get (spec §4.2, §7).
func (g *OHLCVGate) Series(ctx context.Context, ticker string, start, end time.Time) (*OHLCVResult, error) {
	g.mu.Lock()
	if call, following := g.inflight[ticker]; following {
		g.mu.Unlock()
		return g.followInflight(ctx, ticker, call)
	}

	if !g.allowRefresh(ticker) {
		g.mu.Unlock()
		series, err := g.loadCached(ctx, ticker)
		if err != nil {
			return nil, err
		}
		return &OHLCVResult{Series: series, Layer: LayerL2}, nil
	}

	call := &ohlcvInflight{done: make(chan struct{})}
	g.inflight[ticker] = call
	g.mu.Unlock()

	result, err := g.leaderRefresh(ctx, ticker, start, end)

	g.mu.Lock()
	delete(g.inflight, ticker)
	if err != nil || (result != nil && result.Stale) {
		// A failed attempt does not hold the interval token; the shorter
		// backoff alone gates the retry.
		delete(g.limiters, ticker)
		g.nextTry[ticker] = time.Now().Add(g.cfg.FailBackoff())
	}
	g.mu.Unlock()
	close(call.done)

	return result, err
}

// followInflight waits for the in-flight leader to finish (or for the wait
// to time out), then re-loads the cached series rather than trusting the
// leader's in-memory result directly, tagging the outcome l2-after-wait
// (spec §4.2 step 3, §8 scenario 3).
func (g *OHLCVGate) followInflight(ctx context.Context, ticker string, call *ohlcvInflight) (*OHLCVResult, error) {
	select {
	case <-call.done:
	case <-time.After(g.cfg.FollowerWait()):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	series, err := g.loadCached(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return &OHLCVResult{Series: series, Layer: LayerL2AfterWait}, nil
}

// allowRefresh reports whether this ticker may issue an upstream fetch right
// now, consuming the rate-limiter token if so. Must be called with g.mu held.
func (g *OHLCVGate) allowRefresh(ticker string) bool {
	if until, blocked := g.nextTry[ticker]; blocked && time.Now().Before(until) {
		return false
	}
	limiter, ok := g.limiters[ticker]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(g.cfg.MinRefreshInterval()), 1)
		g.limiters[ticker] = limiter
	}
	return limiter.Allow()
}

// leaderRefresh fetches fresh history from upstream and merges it with
// whatever is cached. On upstream failure it falls back to the existing
// cached series, flagged l2-stale — an explicit fallback, never silent
// (spec §4.2 step 7, §7).
func (g *OHLCVGate) leaderRefresh(ctx context.Context, ticker string, start, end time.Time) (*OHLCVResult, error) {
	existing, _ := g.loadCached(ctx, ticker)

	fresh, err := g.adapter.History(ctx, ticker, start, end)
	if err != nil {
		if existing != nil {
			g.logger.Warn().Err(err).Str("ticker", ticker).Msg("OHLCV refresh failed, serving cached series")
			return &OHLCVResult{Series: existing, Layer: LayerL2Stale, Stale: true, StaleReason: err.Error()}, nil
		}
		return nil, fmt.Errorf("%w: fetch OHLCV history for %s: %v", common.ErrUpstreamUnavailable, ticker, err)
	}

	var cachedRows []models.OHLCVRow
	if existing != nil {
		cachedRows = existing.Rows
	}
	merged := &models.OHLCVSeries{Ticker: ticker, Rows: timeseries.MergeOHLCV(cachedRows, fresh)}

	if err := g.persist(ctx, merged); err != nil {
		g.logger.Warn().Err(err).Str("ticker", ticker).Msg("failed to persist OHLCV series")
	}
	return &OHLCVResult{Series: merged, Layer: LayerUpstream}, nil
}

func (g *OHLCVGate) persist(ctx context.Context, series *models.OHLCVSeries) error {
	data, err := marshalSeries(series)
	if err != nil {
		return err
	}
	return g.store.Put(ctx, ohlcvPath(series.Ticker), data, "application/json")
}

func (g *OHLCVGate) loadCached(ctx context.Context, ticker string) (*models.OHLCVSeries, error) {
	data, err := g.store.Get(ctx, ohlcvPath(ticker))
	if err != nil {
		return nil, err
	}
	return unmarshalSeries(data)
}
