// Package market adapts the EODHD client into interfaces.MarketDataAdapter.
package market

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/westinedu/ai-courses-gcp/internal/eodhd"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// Adapter wraps an eodhd.Client to satisfy interfaces.MarketDataAdapter.
type Adapter struct {
	client   *eodhd.Client
	exchange string // suffix appended to bare tickers, e.g. "US"
}

var _ interfaces.MarketDataAdapter = (*Adapter)(nil)

// New wraps client. exchange is the default EODHD exchange suffix used when
// a ticker doesn't already carry one (e.g. "US" turns "AAPL" into
// "AAPL.US").
func New(client *eodhd.Client, exchange string) *Adapter {
	return &Adapter{client: client, exchange: exchange}
}

func (a *Adapter) symbol(ticker string) string {
	for _, r := range ticker {
		if r == '.' {
			return ticker
		}
	}
	if a.exchange == "" {
		return ticker
	}
	return ticker + "." + a.exchange
}

func (a *Adapter) Quote(ctx context.Context, ticker string) (interfaces.Quote, error) {
	data, err := a.client.GetRealTimeQuote(ctx, a.symbol(ticker))
	if err != nil {
		return interfaces.Quote{}, fmt.Errorf("get real-time quote for %s: %w", ticker, err)
	}
	asOf := data.Date
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	return interfaces.Quote{Ticker: ticker, Price: data.Close, AsOf: asOf}, nil
}

func (a *Adapter) History(ctx context.Context, ticker string, start, end time.Time) ([]models.OHLCVRow, error) {
	eod, err := a.client.GetEOD(ctx, a.symbol(ticker), eodhd.WithDateRange(start, end), eodhd.WithOrder("a"))
	if err != nil {
		return nil, fmt.Errorf("get EOD history for %s: %w", ticker, err)
	}
	rows := make([]models.OHLCVRow, 0, len(eod))
	for _, bar := range eod {
		rows = append(rows, models.OHLCVRow{
			Date:   normalizeDate(bar.Date),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: float64(bar.Volume),
		})
	}
	return rows, nil
}

func (a *Adapter) Statements(ctx context.Context, ticker string) (interfaces.Statements, error) {
	fundamentals, err := a.client.GetFundamentals(ctx, a.symbol(ticker))
	if err != nil {
		return interfaces.Statements{}, fmt.Errorf("get fundamentals for %s: %w", ticker, err)
	}

	statements := interfaces.Statements{
		Annual:     map[models.StatementKind][]models.StatementRow{},
		Quarterly:  map[models.StatementKind][]models.StatementRow{},
		Info:       generalInfoMap(fundamentals),
		Valuations: valuationsFrom(fundamentals.Valuation),
	}

	if fin := fundamentals.Financials; fin != nil {
		addStatement(statements.Annual, models.StatementAnnualFinancials, fin.IncomeStatement, true)
		addStatement(statements.Quarterly, models.StatementQuarterlyFinancials, fin.IncomeStatement, false)
		addStatement(statements.Annual, models.StatementAnnualBalanceSheet, fin.BalanceSheet, true)
		addStatement(statements.Quarterly, models.StatementQuarterlyBalanceSheet, fin.BalanceSheet, false)
		addStatement(statements.Annual, models.StatementAnnualCashflow, fin.CashFlow, true)
		addStatement(statements.Quarterly, models.StatementQuarterlyCashflow, fin.CashFlow, false)
	}

	if earnings := fundamentals.Earnings; earnings != nil {
		statements.Annual[models.StatementAnnualEarnings] = earningsAnnualRows(earnings.Annual)
		statements.Quarterly[models.StatementQuarterlyEarnings] = earningsHistoryRows(earnings.History)
	}

	return statements, nil
}

// EarningsCalendar returns the next known earnings report date after now,
// read from the fundamentals payload's earnings history/trend — the
// supplemented cross-engine lookup that both the Financial engine's refresh
// policy and the Trading engine consult.
func (a *Adapter) EarningsCalendar(ctx context.Context, ticker string) (*time.Time, error) {
	fundamentals, err := a.client.GetFundamentals(ctx, a.symbol(ticker))
	if err != nil {
		return nil, fmt.Errorf("get fundamentals for earnings calendar %s: %w", ticker, err)
	}
	if fundamentals.Earnings == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	var upcoming []time.Time
	for _, h := range fundamentals.Earnings.History {
		if t, err := time.Parse("2006-01-02", h.ReportDate); err == nil && t.After(now) {
			upcoming = append(upcoming, t)
		}
	}
	for _, tr := range fundamentals.Earnings.Trend {
		if t, err := time.Parse("2006-01-02", tr.Date); err == nil && t.After(now) {
			upcoming = append(upcoming, t)
		}
	}
	if len(upcoming) == 0 {
		return nil, nil
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].Before(upcoming[j]) })
	return &upcoming[0], nil
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// valuationsFrom maps EODHD's Valuation block onto the three ratio metrics
// the fundamental factor model scores (spec §3, §4.5). EODHD reports a
// missing ratio as 0, which is indistinguishable from "genuinely zero" in
// its wire format; since a zero P/E, P/S, or P/B never occurs for a going
// concern, 0 is treated as "not reported" and left nil.
func valuationsFrom(v *eodhd.Valuation) models.Valuations {
	if v == nil {
		return models.Valuations{}
	}
	var out models.Valuations
	if v.TrailingPE != 0 {
		pe := v.TrailingPE
		out.TrailingPE = &pe
	}
	if v.PriceSalesTTM != 0 {
		ps := v.PriceSalesTTM
		out.PriceToSales = &ps
	}
	if v.PriceBookMRQ != 0 {
		pb := v.PriceBookMRQ
		out.PriceToBook = &pb
	}
	return out
}

func generalInfoMap(f *eodhd.FundamentalsResponse) map[string]interface{} {
	if f.General == nil {
		return nil
	}
	return map[string]interface{}{
		"name":        f.General.Name,
		"sector":      f.General.Sector,
		"industry":    f.General.Industry,
		"description": f.General.Description,
		"website":     f.General.WebURL,
		"exchange":    f.General.Exchange,
	}
}

func addStatement(dest map[models.StatementKind][]models.StatementRow, kind models.StatementKind, stmt *eodhd.FinancialStatement, annual bool) {
	if stmt == nil {
		return
	}
	source := stmt.Quarterly
	if annual {
		source = stmt.Yearly
	}
	rows := make([]models.StatementRow, 0, len(source))
	for date, metrics := range source {
		rows = append(rows, models.StatementRow{Date: date, Metrics: toMetrics(metrics)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
	dest[kind] = rows
}

func toMetrics(raw map[string]interface{}) map[string]*float64 {
	metrics := make(map[string]*float64, len(raw))
	for key, v := range raw {
		f, ok := asFloat(v)
		if !ok {
			continue
		}
		metrics[key] = &f
	}
	return metrics
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func earningsAnnualRows(entries []eodhd.EarningsAnnualEntry) []models.StatementRow {
	rows := make([]models.StatementRow, 0, len(entries))
	for _, e := range entries {
		eps := e.EPSActual
		rows = append(rows, models.StatementRow{Date: e.Date, Metrics: map[string]*float64{"eps_actual": &eps}})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
	return rows
}

func earningsHistoryRows(entries []eodhd.EarningsHistoryEntry) []models.StatementRow {
	rows := make([]models.StatementRow, 0, len(entries))
	for _, e := range entries {
		actual, estimate, surprise := e.EPSActual, e.EPSEstimate, e.SurprisePercent
		rows = append(rows, models.StatementRow{
			Date: e.Date,
			Metrics: map[string]*float64{
				"eps_actual":       &actual,
				"eps_estimate":     &estimate,
				"surprise_percent": &surprise,
			},
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
	return rows
}
