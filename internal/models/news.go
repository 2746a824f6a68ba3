package models

import "time"

// FeedEntry is the untrusted, as-parsed record from a feed adapter
// (spec §4.3, §4.6 step 1). Fields mirror what an RSS/Atom entry exposes
// before canonicalization.
type FeedEntry struct {
	Title           string
	Link            string
	OriginalLink    string // explicit "original link" field, if the feed carries one
	Summary         string
	SourceTitle     string
	PublishedParsed *time.Time
	Published       string
}

// Extraction carries the outcome of body extraction for one article.
type Extraction struct {
	Summary    string `json:"summary"`
	Content    string `json:"content"`
	FullTextOK bool   `json:"fulltext_ok"`
}

// ArticleMetrics carries the length accounting spec §3 requires alongside
// every article.
type ArticleMetrics struct {
	TitleLen   int `json:"title_len"`
	ContentLen int `json:"content_len"`
}

// Article is the canonical, deduplicated news record (spec §3).
type Article struct {
	ID         string         `json:"id"`
	EntityID   string         `json:"entity_id"`
	Date       string         `json:"date"` // YYYY-MM-DD
	Title      string         `json:"title"`
	URL        string         `json:"url"` // canonical
	RSSLink    string         `json:"rss_link,omitempty"`
	Published  time.Time      `json:"published"`
	Source     string         `json:"source"`
	Extraction Extraction     `json:"extraction"`
	Metrics    ArticleMetrics `json:"metrics"`
	NewsType   string         `json:"news_type"`
	Topic      string         `json:"topic,omitempty"`
	TopicGroup string         `json:"topic_group,omitempty"`
	DedupeHash string         `json:"dedupe_hash"`
}

// Manifest is the per-entity dedupe index (spec §3, §4.6), stored at
// raw-news/{storage_path}/manifest.json. It is not partitioned by date:
// one manifest covers an entity's articles across all dates.
type Manifest struct {
	Hashes []string `json:"hashes"`
	Files  []string `json:"files"`
}

// HasHash reports whether a dedupe hash is already recorded.
func (m Manifest) HasHash(hash string) bool {
	for _, h := range m.Hashes {
		if h == hash {
			return true
		}
	}
	return false
}

// Append records a newly-written article's hash and relative path.
func (m *Manifest) Append(hash, relPath string) {
	m.Hashes = append(m.Hashes, hash)
	m.Files = append(m.Files, relPath)
}
