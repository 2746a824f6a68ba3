package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// Quote is a lightweight real-time-ish price read.
type Quote struct {
	Ticker string
	Price  float64
	AsOf   time.Time
}

// Statements bundles the full statement set an adapter returns for a ticker,
// prior to merge (spec §4.3).
type Statements struct {
	Annual     map[models.StatementKind][]models.StatementRow
	Quarterly  map[models.StatementKind][]models.StatementRow
	Info       map[string]interface{}
	Valuations models.Valuations
}

// MarketDataAdapter exposes OHLCV history, quotes, fundamentals, and the
// earnings calendar lookup (spec §4.3). All time-stamped outputs are
// normalized to UTC midnight for daily granularity.
type MarketDataAdapter interface {
	Quote(ctx context.Context, ticker string) (Quote, error)
	History(ctx context.Context, ticker string, start, end time.Time) ([]models.OHLCVRow, error)
	Statements(ctx context.Context, ticker string) (Statements, error)
	// EarningsCalendar returns the next known earnings date, or nil if
	// unknown. Used both by the Financial engine's own refresh policy and,
	// per the supplemented earnings-calendar lookup, by the Trading engine.
	EarningsCalendar(ctx context.Context, ticker string) (*time.Time, error)
}

// FeedAdapter parses a feed document into untrusted entries (spec §4.3).
type FeedAdapter interface {
	Parse(ctx context.Context, r io.Reader) ([]models.FeedEntry, error)
	// Fetch retrieves a feed URL's body and parses it in one step.
	Fetch(ctx context.Context, url string) ([]models.FeedEntry, error)
}

// FetchResult is the bounded web-page snapshot WebFetcher returns
// (spec §4.3).
type FetchResult struct {
	FinalURL    string
	Status      int
	ContentType string
	Title       string
	TextSnippet string
	Links       []string
}

// WebFetcher exposes a bounded page fetch plus a separate body-extraction
// call (spec §4.3).
type WebFetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
	ExtractBody(ctx context.Context, url string) (string, error)
}

// SearchAdapter dispatches a query to a keyed search engine when available,
// falling back to a free HTML endpoint (spec §4.3).
type SearchAdapter interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// VerifierVerdict is the structured outcome of an AI verification call
// (spec §4.9 step 5).
type VerifierVerdict struct {
	IsOfficialIRPage bool
	Confidence       float64
	Reason           string
	PageKind         string
}

// AIVerifier is the single LLM-shaped boundary the core calls into, used
// only where spec.md explicitly names AI verification.
type AIVerifier interface {
	VerifyIRPage(ctx context.Context, ticker, url, pageText string) (VerifierVerdict, error)
}
