// Package cache implements the layered Financial cache (L1 in-process map,
// L2 object store) and its singleflight read protocol, plus the separate
// OHLCV refresh gate (spec §4.2).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/westinedu/ai-courses-gcp/internal/common"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
	"github.com/westinedu/ai-courses-gcp/internal/models"
	"github.com/westinedu/ai-courses-gcp/internal/timeseries"
)

func financialPath(ticker string) string {
	return fmt.Sprintf("financial/%s.json", ticker)
}

type l1Entry struct {
	snapshot  *models.FinancialSnapshot
	expiresAt time.Time
}

type inflightCall struct {
	done chan struct{}
}

// FinancialResult is the flagged outcome of a Get call: the snapshot plus
// which layer served it, and — for the l2-stale fallback — why the
// snapshot being served is stale rather than freshly refreshed.
type FinancialResult struct {
	Snapshot    *models.FinancialSnapshot
	Layer       CacheLayer
	Stale       bool
	StaleReason string
}

// FinancialCache serves FinancialSnapshot reads through the 7-step protocol:
// L1 check, leader/follower singleflight, L2 load, refresh-policy decision,
// upstream fetch on the leader path, and guaranteed inflight release.
type FinancialCache struct {
	store   interfaces.ObjectStore
	adapter interfaces.MarketDataAdapter
	cfg     *common.Config
	logger  arbor.ILogger

	mu       sync.Mutex
	l1       map[string]l1Entry
	inflight map[string]*inflightCall
}

// NewFinancialCache wires a cache over the given object store and market
// data adapter.
func NewFinancialCache(store interfaces.ObjectStore, adapter interfaces.MarketDataAdapter, cfg *common.Config, logger arbor.ILogger) *FinancialCache {
	return &FinancialCache{
		store:    store,
		adapter:  adapter,
		cfg:      cfg,
		logger:   logger,
		l1:       make(map[string]l1Entry),
		inflight: make(map[string]*inflightCall),
	}
}

// Get returns the FinancialSnapshot for ticker, refreshing from upstream
// when the refresh policy decides it's due. The returned FinancialResult
// always flags which layer served the payload (spec §4.2 step 1-7).
func (c *FinancialCache) Get(ctx context.Context, ticker string, forceRefresh bool) (*FinancialResult, error) {
	// Step 1: L1 check.
	if !forceRefresh {
		if snap, ok := c.readL1(ticker); ok {
			return &FinancialResult{Snapshot: snap, Layer: LayerL1}, nil
		}
	}

	// Step 2: critical section — become leader or follower.
	c.mu.Lock()
	if call, isFollower := c.inflight[ticker]; isFollower {
		c.mu.Unlock()
		return c.followInflight(ctx, ticker, call)
	}
	call := &inflightCall{done: make(chan struct{})}
	c.inflight[ticker] = call
	c.mu.Unlock()

	// Leader path. Always releases the inflight slot on every exit,
	// including a panic, via the deferred release below.
	defer func() {
		c.mu.Lock()
		delete(c.inflight, ticker)
		c.mu.Unlock()
		close(call.done)
	}()

	return c.leaderFetch(ctx, ticker, forceRefresh)
}

// followInflight waits, bounded by the configured follower-wait interval,
// for the in-flight leader to finish (or for the wait to time out), then
// re-checks L1 and L2 in that order — never the leader's in-memory result
// directly — so the returned layer always reflects where the follower
// actually observed the payload (spec §4.2 step 3, §8 scenario 3).
func (c *FinancialCache) followInflight(ctx context.Context, ticker string, call *inflightCall) (*FinancialResult, error) {
	select {
	case <-call.done:
	case <-time.After(c.cfg.FollowerWait()):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if snap, ok := c.readL1(ticker); ok {
		return &FinancialResult{Snapshot: snap, Layer: LayerL1AfterWait}, nil
	}
	if snap, err := c.loadL2(ctx, ticker); err == nil {
		return &FinancialResult{Snapshot: snap, Layer: LayerL2AfterWait}, nil
	}
	return nil, fmt.Errorf("%w: follower wait exceeded for %s with no cached snapshot", common.ErrUpstreamUnavailable, ticker)
}

func (c *FinancialCache) leaderFetch(ctx context.Context, ticker string, forceRefresh bool) (*FinancialResult, error) {
	existing, loadErr := c.loadL2(ctx, ticker)
	hasCached := loadErr == nil

	var meta models.CacheMeta
	if hasCached {
		meta = existing.CacheMeta
	}

	var confirmedEarnings *time.Time
	if c.adapter != nil {
		if d, err := c.adapter.EarningsCalendar(ctx, ticker); err == nil {
			confirmedEarnings = d
		}
	}

	decision := DecideRefresh(time.Now().UTC(), meta, hasCached, confirmedEarnings, forceRefresh, c.noEarningsMaxStaleness())

	if !decision.ShouldRefresh {
		c.writeL1(ticker, existing, false)
		return &FinancialResult{Snapshot: existing, Layer: LayerL2}, nil
	}

	fresh, err := c.fetchUpstream(ctx, ticker, existing, decision.Reason, confirmedEarnings)
	if err != nil {
		if hasCached {
			c.logger.Warn().Err(err).Str("ticker", ticker).Msg("refresh failed, serving stale snapshot")
			c.writeL1(ticker, existing, false)
			return &FinancialResult{Snapshot: existing, Layer: LayerL2Stale, Stale: true, StaleReason: err.Error()}, nil
		}
		c.writeL1(ticker, nil, true)
		return nil, err
	}

	if err := c.persist(ctx, ticker, fresh); err != nil {
		c.logger.Warn().Err(err).Str("ticker", ticker).Msg("failed to persist refreshed snapshot")
	}
	c.writeL1(ticker, fresh, false)
	return &FinancialResult{Snapshot: fresh, Layer: LayerUpstream}, nil
}

func (c *FinancialCache) fetchUpstream(ctx context.Context, ticker string, existing *models.FinancialSnapshot, reason string, confirmedEarnings *time.Time) (*models.FinancialSnapshot, error) {
	statements, err := c.adapter.Statements(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch statements for %s: %v", common.ErrUpstreamUnavailable, ticker, err)
	}

	merged := map[models.StatementKind][]models.StatementRow{}
	for _, kind := range models.AllStatementKinds {
		var cachedRows []models.StatementRow
		if existing != nil {
			cachedRows = existing.Rows(kind)
		}
		freshRows := statements.Annual[kind]
		if freshRows == nil {
			freshRows = statements.Quarterly[kind]
		}
		merged[kind] = timeseries.MergeStatementRows(cachedRows, freshRows)
	}

	now := time.Now().UTC()
	meta := models.CacheMeta{LastRefreshedAt: &now, RefreshReason: reason}
	if confirmedEarnings != nil {
		s := confirmedEarnings.Format("2006-01-02")
		meta.NextEarningsDate = &s
	} else if existing != nil {
		meta.NextEarningsDate = existing.CacheMeta.NextEarningsDate
	}

	snap := &models.FinancialSnapshot{
		Ticker:     ticker,
		Statements: merged,
		Info:       statements.Info,
		Valuations: statements.Valuations,
		FetchedAt:  now,
		CacheMeta:  meta,
	}
	return snap, nil
}

func (c *FinancialCache) persist(ctx context.Context, ticker string, snap *models.FinancialSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", ticker, err)
	}
	return c.store.Put(ctx, financialPath(ticker), data, "application/json")
}

func (c *FinancialCache) loadL2(ctx context.Context, ticker string) (*models.FinancialSnapshot, error) {
	data, err := c.store.Get(ctx, financialPath(ticker))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	var snap models.FinancialSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot for %s: %w", ticker, err)
	}
	return &snap, nil
}

func (c *FinancialCache) readL1(ticker string) (*models.FinancialSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.l1[ticker]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.snapshot, entry.snapshot != nil
}

func (c *FinancialCache) writeL1(ticker string, snap *models.FinancialSnapshot, isMiss bool) {
	ttl := c.cfg.FinancialL1HitTTL()
	if isMiss {
		ttl = c.cfg.FinancialL1MissTTL()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.l1[ticker] = l1Entry{snapshot: snap, expiresAt: time.Now().Add(ttl)}
}

func (c *FinancialCache) noEarningsMaxStaleness() time.Duration {
	return time.Duration(c.cfg.Cache.FinancialNoEarningsMaxStalenessDays) * 24 * time.Hour
}
