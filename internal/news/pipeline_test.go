package news

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

type fakeFeedAdapter struct {
	entries map[string][]models.FeedEntry
}

func (f *fakeFeedAdapter) Fetch(ctx context.Context, url string) ([]models.FeedEntry, error) {
	return f.entries[url], nil
}

func (f *fakeFeedAdapter) Parse(ctx context.Context, r io.Reader) ([]models.FeedEntry, error) {
	return nil, nil
}

type fakeWebFetcher struct{}

func (f *fakeWebFetcher) Fetch(ctx context.Context, url string) (interfaces.FetchResult, error) {
	return interfaces.FetchResult{}, nil
}
func (f *fakeWebFetcher) ExtractBody(ctx context.Context, url string) (string, error) {
	return "full article body text", nil
}

type fakeStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{data: map[string][]byte{}} }

func (s *fakeStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path] = data
	return nil
}

func (s *fakeStore) PutIfAbsent(ctx context.Context, path string, data []byte, contentType string) (interfaces.PutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[path]; ok {
		return interfaces.PutResult{Created: false}, nil
	}
	s.data[path] = data
	return interfaces.PutResult{Created: true}, nil
}

func (s *fakeStore) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[path]
	if !ok {
		return nil, fmt.Errorf("not found: %s", path)
	}
	return data, nil
}

func (s *fakeStore) List(ctx context.Context, prefix string) ([]interfaces.Blob, error) {
	return nil, nil
}
func (s *fakeStore) Age(ctx context.Context, path string, now time.Time) (time.Duration, error) {
	return 0, nil
}

func testEntry() models.EntryConfig {
	return models.EntryConfig{
		Key:         "aapl",
		Identifier:  "AAPL",
		StoragePath: "equities/AAPL",
		RSSSources:  []string{"https://feed.test/aapl.xml"},
	}
}

func TestPipeline_Ingest_PersistsNewArticle(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	published := now.Add(-2 * time.Hour)
	feeds := &fakeFeedAdapter{entries: map[string][]models.FeedEntry{
		"https://feed.test/aapl.xml": {
			{Title: "Apple posts record earnings", Link: "https://example.com/a1", SourceTitle: "Example Wire", PublishedParsed: &published},
		},
	}}
	store := newFakeStore()
	p := New(feeds, &fakeWebFetcher{}, store)

	articles, err := p.Ingest(context.Background(), Options{Entry: testEntry(), MaxAgeHours: 24, MaxArticles: 10, Now: now})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "AAPL", articles[0].EntityID)
	assert.True(t, articles[0].Extraction.FullTextOK)
	assert.NotEmpty(t, articles[0].DedupeHash)
}

func TestPipeline_Ingest_SkipsArticleOlderThanMaxAge(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	old := now.Add(-72 * time.Hour)
	feeds := &fakeFeedAdapter{entries: map[string][]models.FeedEntry{
		"https://feed.test/aapl.xml": {
			{Title: "Old story", Link: "https://example.com/old", SourceTitle: "Example Wire", PublishedParsed: &old},
		},
	}}
	store := newFakeStore()
	p := New(feeds, &fakeWebFetcher{}, store)

	articles, err := p.Ingest(context.Background(), Options{Entry: testEntry(), MaxAgeHours: 24, MaxArticles: 10, Now: now})
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestPipeline_Ingest_SecondRunSkipsDuplicateAcrossSeparateIngests(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	published := now.Add(-2 * time.Hour)
	feeds := &fakeFeedAdapter{entries: map[string][]models.FeedEntry{
		"https://feed.test/aapl.xml": {
			{Title: "Apple posts record earnings", Link: "https://example.com/a1", SourceTitle: "Example Wire", PublishedParsed: &published},
		},
	}}
	store := newFakeStore()
	p := New(feeds, &fakeWebFetcher{}, store)
	entry := testEntry()

	first, err := p.Ingest(context.Background(), Options{Entry: entry, MaxAgeHours: 24, MaxArticles: 10, Now: now})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := p.Ingest(context.Background(), Options{Entry: entry, MaxAgeHours: 24, MaxArticles: 10, Now: now})
	require.NoError(t, err)
	assert.Empty(t, second, "the manifest from the first ingest must suppress the duplicate")
}

func TestPipeline_Ingest_RequiredKeywordFilterRejectsNonMatching(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	published := now.Add(-1 * time.Hour)
	feeds := &fakeFeedAdapter{entries: map[string][]models.FeedEntry{
		"https://feed.test/aapl.xml": {
			{Title: "Unrelated topic", Link: "https://example.com/u1", SourceTitle: "Example Wire", PublishedParsed: &published},
		},
	}}
	store := newFakeStore()
	p := New(feeds, &fakeWebFetcher{}, store)
	entry := testEntry()
	entry.RequiredKeywords = []string{"earnings"}

	articles, err := p.Ingest(context.Background(), Options{Entry: entry, MaxAgeHours: 24, MaxArticles: 10, Now: now})
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestPipeline_Ingest_SourceBlocklistRejectsMatchingHost(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	published := now.Add(-1 * time.Hour)
	feeds := &fakeFeedAdapter{entries: map[string][]models.FeedEntry{
		"https://feed.test/aapl.xml": {
			{Title: "Apple story", Link: "https://spam.test/a1", SourceTitle: "Spam Wire", PublishedParsed: &published},
		},
	}}
	store := newFakeStore()
	p := New(feeds, &fakeWebFetcher{}, store)
	entry := testEntry()
	entry.SourceBlocklist = []string{"spam.test"}

	articles, err := p.Ingest(context.Background(), Options{Entry: entry, MaxAgeHours: 24, MaxArticles: 10, Now: now})
	require.NoError(t, err)
	assert.Empty(t, articles)
}
