package models

import "time"

// StatementKind enumerates the statement-kind buckets a FinancialSnapshot
// carries, per spec §3.
type StatementKind string

const (
	StatementAnnualFinancials      StatementKind = "annual_financials"
	StatementAnnualBalanceSheet    StatementKind = "annual_balance_sheet"
	StatementAnnualCashflow        StatementKind = "annual_cashflow"
	StatementQuarterlyFinancials   StatementKind = "quarterly_financials"
	StatementQuarterlyBalanceSheet StatementKind = "quarterly_balance_sheet"
	StatementQuarterlyCashflow     StatementKind = "quarterly_cashflow"
	StatementAnnualEarnings        StatementKind = "annual_earnings"
	StatementQuarterlyEarnings     StatementKind = "quarterly_earnings"
)

// AllStatementKinds lists every bucket in the order a snapshot iterates them.
var AllStatementKinds = []StatementKind{
	StatementAnnualFinancials,
	StatementAnnualBalanceSheet,
	StatementAnnualCashflow,
	StatementQuarterlyFinancials,
	StatementQuarterlyBalanceSheet,
	StatementQuarterlyCashflow,
	StatementAnnualEarnings,
	StatementQuarterlyEarnings,
}

// StatementRow is a tagged-variant record: a date plus a metrics map. Every
// missing or non-finite numeric is represented as a nil pointer, the
// explicit null sentinel from spec §3 ("Dynamic dictionaries everywhere").
type StatementRow struct {
	Date    string              `json:"date"` // YYYY-MM-DD
	Metrics map[string]*float64 `json:"metrics"`
}

// Metric returns the named metric value, or (0, false) if absent or null.
func (r StatementRow) Metric(name string) (float64, bool) {
	v, ok := r.Metrics[name]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// CacheMeta records the refresh bookkeeping consulted by the Cache &
// Singleflight layer (spec §4.2).
type CacheMeta struct {
	LastRefreshedAt  *time.Time `json:"last_refreshed_at,omitempty"`
	NextEarningsDate *string    `json:"next_earnings_date,omitempty"` // YYYY-MM-DD
	RefreshReason    string     `json:"refresh_reason,omitempty"`
}

// Valuations holds the per-snapshot valuation ratios named in spec §3.
type Valuations struct {
	TrailingPE   *float64 `json:"trailing_pe,omitempty"`
	PriceToSales *float64 `json:"price_to_sales,omitempty"`
	PriceToBook  *float64 `json:"price_to_book,omitempty"`
}

// FinancialSnapshot is the per-equity merged, deduplicated statement bundle.
type FinancialSnapshot struct {
	Ticker     string                           `json:"ticker"`
	Statements map[StatementKind][]StatementRow `json:"statements"`
	Info       map[string]interface{}           `json:"info,omitempty"`
	Valuations Valuations                       `json:"valuations"`
	FetchedAt  time.Time                        `json:"fetched_at"`
	CacheMeta  CacheMeta                        `json:"cache_meta"`
}

// Rows returns the statement rows for a kind, or nil if absent.
func (s *FinancialSnapshot) Rows(kind StatementKind) []StatementRow {
	if s.Statements == nil {
		return nil
	}
	return s.Statements[kind]
}

// Factor is a single row in a FundamentalSignal's factor breakdown.
type Factor struct {
	Name             string  `json:"name"`
	Weight           float64 `json:"weight"`
	Score            float64 `json:"score"`
	Contribution     float64 `json:"contribution"`
	AvailableMetrics int     `json:"available_metrics"`
	TotalMetrics     int     `json:"total_metrics"`
}

// FundamentalOverall carries the aggregate score/signal/confidence computed
// from the five weighted factors.
type FundamentalOverall struct {
	Score      float64 `json:"score"`
	Signal     string  `json:"signal"` // bullish | neutral | bearish
	Confidence float64 `json:"confidence"`
}

// FundamentalSignal is the output of the fundamental factor model
// (spec §4.5).
type FundamentalSignal struct {
	Ticker              string             `json:"ticker"`
	Overall             FundamentalOverall `json:"overall"`
	Factors             []Factor           `json:"factors"`
	FactorContributions map[string]float64 `json:"factor_contributions"`
	DerivedMetrics      map[string]float64 `json:"derived_metrics"`
}
