// Package news implements the 9-step ingest pipeline (spec §4.6): parse,
// canonicalize, age-filter, dedupe, pre-filter, extract, content-filter,
// build, persist.
package news

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// Pipeline wires the adapters the ingest sequence needs.
type Pipeline struct {
	feeds   interfaces.FeedAdapter
	fetcher interfaces.WebFetcher
	store   interfaces.ObjectStore
}

// New builds an ingest pipeline.
func New(feeds interfaces.FeedAdapter, fetcher interfaces.WebFetcher, store interfaces.ObjectStore) *Pipeline {
	return &Pipeline{feeds: feeds, fetcher: fetcher, store: store}
}

// Options bounds one ingest run for one entry (spec §3 EntryConfig).
type Options struct {
	Entry       models.EntryConfig
	MaxAgeHours int
	MaxArticles int
	Now         time.Time
}

// Ingest runs the full 9-step pipeline over every configured RSS source for
// one entry and persists newly discovered articles, updating the manifest.
// Returns the articles actually persisted (excludes dupes and filtered-out
// entries).
func (p *Pipeline) Ingest(ctx context.Context, opts Options) ([]models.Article, error) {
	manifest, err := p.loadManifest(ctx, opts.Entry)
	if err != nil {
		return nil, err
	}

	var candidates []models.FeedEntry
	for _, feedURL := range opts.Entry.RSSSources {
		entries, err := p.feeds.Fetch(ctx, feedURL)
		if err != nil {
			continue // one bad feed must not abort the whole entry
		}
		candidates = append(candidates, entries...)
	}

	// Sort newest-first before the per-entity cap is applied (spec §4.6
	// Ordering/tie-breaks), stably so same-timestamp entries keep the order
	// they were fetched in.
	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := candidates[i].PublishedParsed, candidates[j].PublishedParsed
		if pi == nil || pj == nil {
			return pj == nil && pi != nil
		}
		return pi.After(*pj)
	})

	var kept []models.Article
	for _, entry := range candidates {
		if len(kept) >= opts.MaxArticles && opts.MaxArticles > 0 {
			break
		}
		article, ok, err := p.processEntry(ctx, entry, opts, manifest)
		if err != nil || !ok {
			continue
		}
		kept = append(kept, article)
	}

	if len(kept) > 0 {
		if err := p.persistManifest(ctx, opts.Entry, manifest); err != nil {
			return kept, err
		}
	}
	return kept, nil
}

// processEntry runs steps 2 through 8 of the pipeline for a single raw feed
// entry, persisting the article (step 9) when it survives every filter.
func (p *Pipeline) processEntry(ctx context.Context, entry models.FeedEntry, opts Options, manifest *models.Manifest) (models.Article, bool, error) {
	canonicalURL := CanonicalizeURL(entry)

	published := entry.PublishedParsed
	if published == nil {
		return models.Article{}, false, nil
	}
	if !withinAge(*published, opts.Now, opts.MaxAgeHours) {
		return models.Article{}, false, nil
	}

	hash := DedupeHash(entry.Title, entry.SourceTitle, *published)
	if manifest.HasHash(hash) {
		return models.Article{}, false, nil
	}

	if !passesKeywordFilters(entry.Title+" "+entry.Summary, opts.Entry) {
		return models.Article{}, false, nil
	}
	if !passesSourceFilters(canonicalURL, opts.Entry) {
		return models.Article{}, false, nil
	}

	extraction := p.extractBody(ctx, canonicalURL, entry.Summary)
	if opts.Entry.RequireFullText && !extraction.FullTextOK {
		return models.Article{}, false, nil
	}
	if opts.Entry.EnforceContentFilters {
		if len(extraction.Content) < opts.Entry.MinContentLength && len(extraction.Summary) < opts.Entry.MinSummaryLength {
			return models.Article{}, false, nil
		}
	}

	urlHash := urlHashHex(canonicalURL)
	date := published.UTC().Format("2006-01-02")
	article := models.Article{
		ID:         fmt.Sprintf("%s-%s-%s", date, opts.Entry.Identifier, urlHash[:16]),
		EntityID:   opts.Entry.Identifier,
		Date:       date,
		Title:      entry.Title,
		URL:        canonicalURL,
		RSSLink:    entry.Link,
		Published:  *published,
		Source:     entry.SourceTitle,
		Extraction: extraction,
		Metrics: models.ArticleMetrics{
			TitleLen:   len(entry.Title),
			ContentLen: len(extraction.Content),
		},
		DedupeHash: hash,
	}

	relPath := fmt.Sprintf("raw-news/%s/%s/%s_%s_%s_%s.json",
		date, opts.Entry.StoragePath, opts.Now.UTC().Format("150405"),
		slugify(entry.SourceTitle), truncateSlug(slugify(entry.Title), 60))

	if err := p.persistArticle(ctx, relPath, article); err != nil {
		return models.Article{}, false, err
	}
	manifest.Append(hash, relPath)

	return article, true, nil
}

func (p *Pipeline) extractBody(ctx context.Context, url, fallbackSummary string) models.Extraction {
	if p.fetcher == nil {
		return models.Extraction{Summary: fallbackSummary}
	}
	content, err := p.fetcher.ExtractBody(ctx, url)
	if err != nil || content == "" {
		return models.Extraction{Summary: fallbackSummary}
	}
	return models.Extraction{Summary: fallbackSummary, Content: content, FullTextOK: true}
}

func withinAge(published, now time.Time, maxAgeHours int) bool {
	if maxAgeHours <= 0 {
		return true
	}
	return now.Sub(published) <= time.Duration(maxAgeHours)*time.Hour
}

func passesKeywordFilters(text string, entry models.EntryConfig) bool {
	lower := strings.ToLower(text)
	for _, kw := range entry.ExcludedKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return false
		}
	}
	if len(entry.RequiredKeywords) == 0 {
		return true
	}
	for _, kw := range entry.RequiredKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func passesSourceFilters(rawURL string, entry models.EntryConfig) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	host := strings.ToLower(parsed.Host)
	for _, blocked := range entry.SourceBlocklist {
		if blocked != "" && strings.Contains(host, strings.ToLower(blocked)) {
			return false
		}
	}
	if len(entry.SourceAllowlist) == 0 {
		return true
	}
	for _, allowed := range entry.SourceAllowlist {
		if allowed != "" && strings.Contains(host, strings.ToLower(allowed)) {
			return true
		}
	}
	return false
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	slug := nonAlnum.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}

func truncateSlug(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// DedupeHash computes the dedupe key from title/source/minute-precision
// published timestamp (spec §4.6).
func DedupeHash(title, source string, published time.Time) string {
	key := fmt.Sprintf("%s|%s|%s", slugify(title), slugify(source), published.UTC().Format("2006-01-02T15:04"))
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func urlHashHex(canonicalURL string) string {
	sum := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])
}

func (p *Pipeline) loadManifest(ctx context.Context, entry models.EntryConfig) (*models.Manifest, error) {
	path := manifestPath(entry)
	data, err := p.store.Get(ctx, path)
	if err != nil {
		return &models.Manifest{}, nil // cold start: no manifest yet
	}
	manifest, err := unmarshalManifest(data)
	if err != nil {
		return &models.Manifest{}, nil
	}
	return manifest, nil
}

func (p *Pipeline) persistManifest(ctx context.Context, entry models.EntryConfig, manifest *models.Manifest) error {
	data, err := marshalManifest(manifest)
	if err != nil {
		return err
	}
	return p.store.Put(ctx, manifestPath(entry), data, "application/json")
}

func (p *Pipeline) persistArticle(ctx context.Context, path string, article models.Article) error {
	data, err := marshalArticle(article)
	if err != nil {
		return err
	}
	return p.store.Put(ctx, path, data, "application/json")
}

func manifestPath(entry models.EntryConfig) string {
	return fmt.Sprintf("raw-news/%s/manifest.json", entry.StoragePath)
}
