package news

import (
	"time"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// FilterOutcome records why a single feed entry would or would not survive
// the ingest pipeline, without performing any network I/O or persistence.
type FilterOutcome struct {
	Title        string  `json:"title"`
	CanonicalURL string  `json:"canonical_url"`
	Passed       bool    `json:"passed"`
	RejectedAt   string  `json:"rejected_at,omitempty"`
	DedupeHash   string  `json:"dedupe_hash"`
	AgeHours     float64 `json:"age_hours"`
}

// DiagnoseFilters runs every pre-fetch filtering step (age, dedupe,
// keyword, source) over a batch of feed entries and reports the outcome
// for each one, without fetching bodies or writing anything. Operators
// use this to debug why a source stopped producing articles.
func DiagnoseFilters(entries []models.FeedEntry, entry models.EntryConfig, manifest *models.Manifest, now time.Time, maxAgeHours int) []FilterOutcome {
	if manifest == nil {
		manifest = &models.Manifest{}
	}
	out := make([]FilterOutcome, 0, len(entries))
	for _, e := range entries {
		canonical := CanonicalizeURL(e)
		outcome := FilterOutcome{Title: e.Title, CanonicalURL: canonical}

		if e.PublishedParsed == nil {
			outcome.RejectedAt = "missing_published_date"
			out = append(out, outcome)
			continue
		}
		outcome.AgeHours = now.Sub(*e.PublishedParsed).Hours()
		if !withinAge(*e.PublishedParsed, now, maxAgeHours) {
			outcome.RejectedAt = "age_filter"
			out = append(out, outcome)
			continue
		}

		hash := DedupeHash(e.Title, e.SourceTitle, *e.PublishedParsed)
		outcome.DedupeHash = hash
		if manifest.HasHash(hash) {
			outcome.RejectedAt = "dedupe"
			out = append(out, outcome)
			continue
		}

		if !passesKeywordFilters(e.Title+" "+e.Summary, entry) {
			outcome.RejectedAt = "keyword_filter"
			out = append(out, outcome)
			continue
		}
		if !passesSourceFilters(canonical, entry) {
			outcome.RejectedAt = "source_filter"
			out = append(out, outcome)
			continue
		}

		outcome.Passed = true
		out = append(out, outcome)
	}
	return out
}
