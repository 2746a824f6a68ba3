package factor

import (
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// Fundamental factor weights (spec §4.5). Must sum to 1.0.
const (
	WeightGrowth          = 0.34
	WeightProfitability   = 0.24
	WeightCashflowQuality = 0.22
	WeightBalanceSheet    = 0.14
	WeightValuation       = 0.06
)

const (
	fundamentalBullishThreshold = 0.20
	fundamentalBearishThreshold = -0.20
)

// metricSpec describes how one raw metric maps onto a [-1, 1] factor score:
// a value at or beyond highBound scores +1 (or -1 if inverted), a value at
// or beyond lowBound scores the opposite extreme, and values in between are
// scaled linearly. Invert is true for metrics where a larger raw value is
// worse (e.g. leverage ratios).
type metricSpec struct {
	name      string
	lowBound  float64
	highBound float64
	invert    bool
}

var growthMetrics = []metricSpec{
	{name: "quarterly_revenue_growth_yoy", lowBound: -0.10, highBound: 0.25},
	{name: "quarterly_earnings_growth_yoy", lowBound: -0.10, highBound: 0.30},
}

var profitabilityMetrics = []metricSpec{
	{name: "profit_margin", lowBound: 0.0, highBound: 0.25},
	{name: "operating_margin_ttm", lowBound: 0.0, highBound: 0.25},
	{name: "return_on_equity_ttm", lowBound: 0.0, highBound: 0.25},
}

var cashflowQualityMetrics = []metricSpec{
	{name: "totalCashFromOperatingActivities", lowBound: 0, highBound: 1},
	{name: "freeCashFlow", lowBound: 0, highBound: 1},
}

var balanceSheetMetrics = []metricSpec{
	{name: "totalDebt", lowBound: 0, highBound: 1, invert: true},
	{name: "totalStockholderEquity", lowBound: 0, highBound: 1},
}

var valuationMetrics = []metricSpec{
	{name: "trailing_pe", lowBound: 40, highBound: 10, invert: false},
	{name: "price_to_book", lowBound: 8, highBound: 1, invert: false},
}

// ComputeFundamentalSignal builds a FundamentalSignal from a snapshot's
// latest available statement row and Info/valuation metrics (spec §4.5).
func ComputeFundamentalSignal(snapshot models.FinancialSnapshot) models.FundamentalSignal {
	latest := latestMetrics(snapshot)

	factors := []models.Factor{
		scoreFactor("growth", WeightGrowth, growthMetrics, latest),
		scoreFactor("profitability", WeightProfitability, profitabilityMetrics, latest),
		scoreFactor("cashflow_quality", WeightCashflowQuality, cashflowQualityMetrics, latest),
		scoreFactor("balance_sheet", WeightBalanceSheet, balanceSheetMetrics, latest),
		scoreFactor("valuation", WeightValuation, valuationMetrics, valuationOnly(snapshot)),
	}

	overallScore := 0.0
	contributions := make(map[string]float64, len(factors))
	for i := range factors {
		factors[i].Contribution = factors[i].Score * factors[i].Weight
		overallScore += factors[i].Contribution
		contributions[factors[i].Name] = factors[i].Contribution
	}

	return models.FundamentalSignal{
		Ticker: snapshot.Ticker,
		Overall: models.FundamentalOverall{
			Score:      overallScore,
			Signal:     classifyFundamentalSignal(overallScore),
			Confidence: confidenceFromCoverage(factors),
		},
		Factors:             factors,
		FactorContributions: contributions,
		DerivedMetrics:      latest,
	}
}

func scoreFactor(name string, weight float64, specs []metricSpec, metrics map[string]float64) models.Factor {
	var sum float64
	available := 0
	for _, spec := range specs {
		v, ok := metrics[spec.name]
		if !ok {
			continue
		}
		sum += normalize(v, spec)
		available++
	}
	score := 0.0
	if available > 0 {
		score = sum / float64(available)
	}
	return models.Factor{
		Name:             name,
		Weight:           weight,
		Score:            score,
		AvailableMetrics: available,
		TotalMetrics:     len(specs),
	}
}

// normalize linearly maps v from [lowBound, highBound] (or reversed, when
// invert is set, [highBound, lowBound]) onto [-1, 1], clamped at the ends.
func normalize(v float64, spec metricSpec) float64 {
	low, high := spec.lowBound, spec.highBound
	if spec.invert {
		low, high = high, low
	}
	if high == low {
		return 0
	}
	scaled := 2*((v-low)/(high-low)) - 1
	if scaled > 1 {
		scaled = 1
	}
	if scaled < -1 {
		scaled = -1
	}
	return scaled
}

func classifyFundamentalSignal(score float64) string {
	switch {
	case score >= fundamentalBullishThreshold:
		return "bullish"
	case score <= fundamentalBearishThreshold:
		return "bearish"
	default:
		return "neutral"
	}
}

// confidenceFromCoverage is the flat ratio of available to total metrics
// summed across every factor, unweighted (spec §4.5).
func confidenceFromCoverage(factors []models.Factor) float64 {
	var available, total int
	for _, f := range factors {
		available += f.AvailableMetrics
		total += f.TotalMetrics
	}
	if total == 0 {
		return 0
	}
	return float64(available) / float64(total)
}

// latestMetrics flattens the most recent quarterly statement rows (income,
// balance sheet, cashflow) plus the Info highlights map into one lookup,
// preferring whichever statement actually has the metric.
func latestMetrics(snapshot models.FinancialSnapshot) map[string]float64 {
	out := map[string]float64{}
	for _, kind := range []models.StatementKind{
		models.StatementQuarterlyFinancials,
		models.StatementQuarterlyBalanceSheet,
		models.StatementQuarterlyCashflow,
	} {
		rows := snapshot.Rows(kind)
		if len(rows) == 0 {
			continue
		}
		for name, v := range rows[0].Metrics {
			if v != nil {
				out[name] = *v
			}
		}
	}
	for key, v := range snapshot.Info {
		if f, ok := v.(float64); ok {
			out[key] = f
		}
	}
	return out
}

func valuationOnly(snapshot models.FinancialSnapshot) map[string]float64 {
	out := map[string]float64{}
	if snapshot.Valuations.TrailingPE != nil {
		out["trailing_pe"] = *snapshot.Valuations.TrailingPE
	}
	if snapshot.Valuations.PriceToBook != nil {
		out["price_to_book"] = *snapshot.Valuations.PriceToBook
	}
	return out
}
