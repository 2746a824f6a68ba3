package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/westinedu/ai-courses-gcp/internal/common"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// memStore is a minimal in-memory ObjectStore for cache tests.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[path] = cp
	return nil
}

func (m *memStore) PutIfAbsent(ctx context.Context, path string, data []byte, contentType string) (interfaces.PutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[path]; ok {
		return interfaces.PutResult{Created: false}, nil
	}
	m.data[path] = data
	return interfaces.PutResult{Created: true}, nil
}

func (m *memStore) Get(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[path]
	if !ok {
		return nil, common.ErrNotFound
	}
	return d, nil
}

func (m *memStore) List(ctx context.Context, prefix string) ([]interfaces.Blob, error) {
	return nil, nil
}

func (m *memStore) Age(ctx context.Context, path string, now time.Time) (time.Duration, error) {
	return 0, common.ErrNotFound
}

// stubAdapter is a minimal MarketDataAdapter with counted Statements and
// History calls.
type stubAdapter struct {
	calls      int32
	statements interfaces.Statements
	err        error
	earnings   *time.Time
}

func (a *stubAdapter) Quote(ctx context.Context, ticker string) (interfaces.Quote, error) {
	return interfaces.Quote{}, nil
}

func (a *stubAdapter) History(ctx context.Context, ticker string, start, end time.Time) ([]models.OHLCVRow, error) {
	atomic.AddInt32(&a.calls, 1)
	return nil, a.err
}

func (a *stubAdapter) Statements(ctx context.Context, ticker string) (interfaces.Statements, error) {
	atomic.AddInt32(&a.calls, 1)
	if a.err != nil {
		return interfaces.Statements{}, a.err
	}
	return a.statements, nil
}

func (a *stubAdapter) EarningsCalendar(ctx context.Context, ticker string) (*time.Time, error) {
	return a.earnings, nil
}

func testConfig() *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Refresh.FollowerWaitSeconds = 1
	return cfg
}

func TestFinancialCache_ColdStartFetchesOnce(t *testing.T) {
	store := newMemStore()
	adapter := &stubAdapter{statements: interfaces.Statements{
		Annual: map[models.StatementKind][]models.StatementRow{
			models.StatementAnnualFinancials: {{Date: "2026-03-31"}},
		},
	}}
	c := NewFinancialCache(store, adapter, testConfig(), noopLogger())

	result, err := c.Get(context.Background(), "AAPL", false)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", result.Snapshot.Ticker)
	assert.Equal(t, LayerUpstream, result.Layer)
	assert.False(t, result.Stale)
	assert.EqualValues(t, 1, adapter.calls)
}

func TestFinancialCache_L1HitAvoidsSecondFetch(t *testing.T) {
	store := newMemStore()
	adapter := &stubAdapter{statements: interfaces.Statements{}}
	c := NewFinancialCache(store, adapter, testConfig(), noopLogger())

	ctx := context.Background()
	_, err := c.Get(ctx, "AAPL", false)
	require.NoError(t, err)
	result, err := c.Get(ctx, "AAPL", false)
	require.NoError(t, err)

	assert.Equal(t, LayerL1, result.Layer)
	assert.EqualValues(t, 1, adapter.calls, "second read within L1 TTL must not refetch")
}

func TestFinancialCache_ConcurrentBurstSingleflights(t *testing.T) {
	store := newMemStore()
	adapter := &stubAdapter{statements: interfaces.Statements{}}
	c := NewFinancialCache(store, adapter, testConfig(), noopLogger())

	var wg sync.WaitGroup
	var mu sync.Mutex
	layers := make([]CacheLayer, 0, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := c.Get(context.Background(), "MSFT", false)
			if err == nil {
				mu.Lock()
				layers = append(layers, result.Layer)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, adapter.calls, "concurrent readers of a cold key must collapse to one upstream fetch")
	var upstreamCount int
	for _, l := range layers {
		switch l {
		case LayerUpstream:
			upstreamCount++
		case LayerL1, LayerL1AfterWait, LayerL2AfterWait:
			// follower outcomes, all valid depending on scheduling.
		default:
			t.Errorf("unexpected layer %q for concurrent burst", l)
		}
	}
	assert.Equal(t, 1, upstreamCount, "exactly one caller must be the singleflight leader")
}

func TestFinancialCache_ServesStaleOnUpstreamFailure(t *testing.T) {
	store := newMemStore()
	adapter := &stubAdapter{statements: interfaces.Statements{}}
	c := NewFinancialCache(store, adapter, testConfig(), noopLogger())
	ctx := context.Background()

	_, err := c.Get(ctx, "GOOG", false)
	require.NoError(t, err)

	adapter.err = assertErr{"upstream down"}
	result, err := c.Get(ctx, "GOOG", true) // force refresh, upstream fails, must serve stale
	require.NoError(t, err)
	assert.Equal(t, "GOOG", result.Snapshot.Ticker)
	assert.Equal(t, LayerL2Stale, result.Layer)
	assert.True(t, result.Stale)
	assert.Equal(t, "upstream unavailable: fetch statements for GOOG: upstream down", result.StaleReason)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }

func noopLogger() arbor.ILogger {
	return arbor.NewLogger()
}
