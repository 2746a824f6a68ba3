// Package timeseries implements the pure merge functions that combine a
// cached series with freshly fetched rows (spec §4.4). Merging is
// new-overrides-old by date key and is idempotent: merging the same fetch
// result in twice must be a no-op.
package timeseries

import (
	"sort"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// MergeStatementRows combines cached and fresh rows for one statement kind,
// keyed by Date, with fresh taking precedence on overlap. The result is
// sorted strictly descending by date (most recent first), matching how
// statement rows are stored and consumed throughout the Financial engine.
func MergeStatementRows(cached, fresh []models.StatementRow) []models.StatementRow {
	byDate := make(map[string]models.StatementRow, len(cached)+len(fresh))
	for _, row := range cached {
		byDate[row.Date] = row
	}
	for _, row := range fresh {
		byDate[row.Date] = row
	}

	merged := make([]models.StatementRow, 0, len(byDate))
	for _, row := range byDate {
		merged = append(merged, row)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date > merged[j].Date })
	return merged
}

// MergeOHLCV combines a cached series with a freshly fetched window, keyed
// by DateKey, with fresh taking precedence on overlap. OHLCVGate re-fetches
// the caller's whole requested window on every refresh rather than a short
// back-look from the last cached bar, so the fresh rows overlap the cached
// ones; MergeOHLCV is what lets that overlap replace stale rows without
// duplicating them. The result is sorted
// strictly ascending by date, the order every consumer (technical features,
// chart rendering) expects.
func MergeOHLCV(cached, fresh []models.OHLCVRow) []models.OHLCVRow {
	byDate := make(map[string]models.OHLCVRow, len(cached)+len(fresh))
	for _, row := range cached {
		byDate[row.DateKey()] = row
	}
	for _, row := range fresh {
		byDate[row.DateKey()] = row
	}

	merged := make([]models.OHLCVRow, 0, len(byDate))
	for _, row := range byDate {
		merged = append(merged, row)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].DateKey() < merged[j].DateKey() })
	return merged
}
