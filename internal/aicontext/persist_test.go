package aicontext

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[path] = cp
	return nil
}

func (s *memStore) PutIfAbsent(ctx context.Context, path string, data []byte, contentType string) (interfaces.PutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[path]; ok {
		return interfaces.PutResult{Created: false}, nil
	}
	s.data[path] = data
	return interfaces.PutResult{Created: true}, nil
}

func (s *memStore) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[path]
	if !ok {
		return nil, fmt.Errorf("not found: %s", path)
	}
	return data, nil
}

func (s *memStore) List(ctx context.Context, prefix string) ([]interfaces.Blob, error) { return nil, nil }
func (s *memStore) Age(ctx context.Context, path string, now time.Time) (time.Duration, error) {
	return 0, nil
}

func (s *memStore) index(t *testing.T, date string) models.DailyIndex {
	t.Helper()
	data, err := s.Get(context.Background(), dailyIndexPath(date))
	require.NoError(t, err)
	var idx models.DailyIndex
	require.NoError(t, json.Unmarshal(data, &idx))
	return idx
}

func TestPersist_OnlyHighestStepUpdatesDailyIndex(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	results, err := Persist(context.Background(), store, "AAPL", "2026-07-30", now, map[int]string{
		1: "step1 text", 2: "step2 text",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	idx := store.index(t, "2026-07-30")
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, results[2].Path, idx.Entries[0].Path)
}

func TestPersist_IndexOrdering_MultipleEntitiesSameDate(t *testing.T) {
	store := newMemStore()
	date := "2025-02-03"

	t1, err := Persist(context.Background(), store, "AAPL", date, time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC), map[int]string{1: "a"})
	require.NoError(t, err)
	_, err = Persist(context.Background(), store, "MSFT", date, time.Date(2025, 2, 3, 10, 5, 0, 0, time.UTC), map[int]string{1: "b"})
	require.NoError(t, err)
	t3, err := Persist(context.Background(), store, "AAPL", date, time.Date(2025, 2, 3, 11, 0, 0, 0, time.UTC), map[int]string{1: "c"})
	require.NoError(t, err)

	idx := store.index(t, date)
	require.Len(t, idx.Entries, 3, "distinct paths for both AAPL writes must coexist")
	assert.Equal(t, t3[1].Path, idx.Entries[0].Path, "latest AAPL write sorts first")
	assert.NotEqual(t, t1[1].Path, t3[1].Path)

	for i := 1; i < len(idx.Entries); i++ {
		assert.True(t, idx.Entries[i-1].Timestamp.After(idx.Entries[i].Timestamp) || idx.Entries[i-1].Timestamp.Equal(idx.Entries[i].Timestamp))
	}
}

func TestPersist_ReplacesEntryWithSameTickerAndPath(t *testing.T) {
	store := newMemStore()
	date := "2026-07-30"
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	path := artifactPath("AAPL", date, 1, now)
	require.NoError(t, updateDailyIndex(context.Background(), store, "AAPL", date, path, now))
	require.NoError(t, updateDailyIndex(context.Background(), store, "AAPL", date, path, now.Add(time.Hour)))

	idx := store.index(t, date)
	require.Len(t, idx.Entries, 1, "re-appending the same (ticker, path) must replace, not duplicate")
}
