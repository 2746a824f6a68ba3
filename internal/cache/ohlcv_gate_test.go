package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOHLCVGate_RateLimitsRepeatedCalls(t *testing.T) {
	store := newMemStore()
	adapter := &stubAdapter{}
	cfg := testConfig()
	cfg.Refresh.MinIntervalSeconds = 600
	g := NewOHLCVGate(store, adapter, cfg, noopLogger())
	ctx := context.Background()

	result, err := g.Series(ctx, "AAPL", time.Now().Add(-30*24*time.Hour), time.Now())
	require.NoError(t, err)
	assert.Equal(t, LayerUpstream, result.Layer)

	// Immediately-repeated call within the interval must not issue a
	// second upstream fetch.
	result, err = g.Series(ctx, "AAPL", time.Now().Add(-30*24*time.Hour), time.Now())
	require.NoError(t, err)
	assert.Equal(t, LayerL2, result.Layer)

	assert.LessOrEqual(t, adapter.calls, int32(1))
}

func TestOHLCVGate_ConcurrentCallsSingleflight(t *testing.T) {
	store := newMemStore()
	adapter := &stubAdapter{}
	g := NewOHLCVGate(store, adapter, testConfig(), noopLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.Series(ctx, "TSLA", time.Now().Add(-30*24*time.Hour), time.Now())
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, adapter.calls)
}

func TestOHLCVGate_ColdFetchServesUpstreamSeries(t *testing.T) {
	store := newMemStore()
	adapter := &stubAdapter{}
	g := NewOHLCVGate(store, adapter, testConfig(), noopLogger())
	ctx := context.Background()

	result, err := g.Series(ctx, "NFLX", time.Now().Add(-30*24*time.Hour), time.Now())
	require.NoError(t, err)
	assert.NotNil(t, result.Series)
	assert.Equal(t, "NFLX", result.Series.Ticker)
	assert.Equal(t, LayerUpstream, result.Layer)
}
