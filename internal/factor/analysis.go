package factor

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// Analysis Report factor weights (spec §4.5). "user" carries weight 0 by
// default and only contributes when a caller supplies an override.
const (
	WeightRSI14       = 0.22
	WeightMACDHist    = 0.30
	WeightEMA200Trend = 0.22
	WeightMomentum20  = 0.16
	WeightVolumeTrend = 0.10
	WeightUser        = 0.00
)

const macdHistStdWindow = 120

// UserFactor lets a caller override the zero-weighted "user" factor with a
// custom signal and weight (spec §4.5 "no baseline caching when overridden").
type UserFactor struct {
	Value  float64
	Weight float64
}

// ComputeAnalysisReport builds the BUY/HOLD/SELL factor-model report for a
// ticker's OHLCV history as of its latest bar (spec §4.5). user, when
// non-nil, replaces the zero-weighted "user" factor.
func ComputeAnalysisReport(series models.OHLCVSeries, provider string, user *UserFactor) (models.AnalysisReport, error) {
	rows := series.Rows
	if len(rows) < MinCloseHistory {
		return models.AnalysisReport{}, fmt.Errorf("analysis report for %s: need >=%d candles, have %d", series.Ticker, MinCloseHistory, len(rows))
	}

	closes := make([]float64, len(rows))
	volumes := make([]float64, len(rows))
	for i, r := range rows {
		closes[i] = r.Close
		volumes[i] = r.Volume
	}

	latestClose := closes[len(closes)-1]
	rsi14 := lastRSI(closes, 14)
	_, _, histSeries := talib.Macd(closes, 12, 26, 9)
	histTail := lastNValid(histSeries, macdHistStdWindow)
	lastHist, _ := lastValid(histSeries)
	histStd := stat.StdDev(histTail, nil)

	ema200Series := talib.Ema(closes, 200)
	ema200, _ := lastValid(ema200Series)

	momentumBase := closes[len(closes)-1]
	if len(closes) > 21 {
		momentumBase = closes[len(closes)-21]
	}

	avgVolume20 := mean(tailWindow(volumes, 20))
	latestVolume := volumes[len(volumes)-1]

	factors := []models.AnalysisFactor{
		buildFactor("rsi14", "RSI(14)", rsi14, WeightRSI14, scoreRSIContrarian(rsi14)),
		buildFactor("macdHist", "MACD Histogram", lastHist, WeightMACDHist, tanhScore(safeDiv(lastHist, 2*histStd))),
		buildFactor("ema200Trend", "Price vs EMA(200)", ema200, WeightEMA200Trend, tanhScore(8*safeDiv(latestClose-ema200, ema200))),
		buildFactor("momentum20", "20-day Momentum", momentumBase, WeightMomentum20, tanhScore(10*safeDiv(latestClose-momentumBase, momentumBase))),
		buildFactor("volumeTrend", "Volume vs 20d Avg", latestVolume, WeightVolumeTrend, tanhScore(1.5*safeDiv(latestVolume-avgVolume20, avgVolume20))),
	}
	if user != nil {
		factors = append(factors, buildFactor("user", "User Override", user.Value, user.Weight, clampUnit(user.Value)))
	} else {
		factors = append(factors, buildFactor("user", "User Override", 0, WeightUser, 0))
	}

	var score float64
	for i := range factors {
		factors[i].Contribution = factors[i].Score * factors[i].Weight
		score += factors[i].Contribution
		factors[i].Stance = stanceOf(factors[i].Score)
	}

	pUp := sigmoid(1.6 * score)
	pDown := 1 - pUp
	signal := models.AnalysisSignalHold
	if pUp > 0.6 {
		signal = models.AnalysisSignalBuy
	} else if pUp < 0.4 {
		signal = models.AnalysisSignalSell
	}

	last := rows[len(rows)-1]
	return models.AnalysisReport{
		Ticker: series.Ticker,
		Date:   last.DateKey(),
		AsOf:   models.AnalysisAsOf{T: last.Date, Close: latestClose},
		Candles: models.AnalysisCandles{
			Count: len(rows),
			From:  rows[0].Date,
			To:    last.Date,
		},
		Aggregate: models.AnalysisAggregate{
			Score:      score,
			PUp:        pUp,
			PDown:      pDown,
			Signal:     signal,
			Confidence: 2 * math.Abs(pUp-0.5),
		},
		Factors: factors,
		Meta: models.AnalysisMeta{
			Provider:  provider,
			Years:     len(rows) / 252,
			FetchedAt: last.Date,
		},
	}, nil
}

func buildFactor(id, label string, value, weight, score float64) models.AnalysisFactor {
	return models.AnalysisFactor{
		ID:     id,
		Label:  label,
		Value:  value,
		Weight: weight,
		Score:  score,
	}
}

// scoreRSIContrarian treats an oversold reading as bullish and an
// overbought reading as bearish, piecewise-linear around the neutral
// midpoint at RSI=50 (spec §4.5).
func scoreRSIContrarian(rsi float64) float64 {
	switch {
	case rsi <= 30:
		return 0.5 + 0.5*(30-rsi)/30
	case rsi >= 70:
		return -0.5 - 0.5*(rsi-70)/30
	default:
		return (rsi - 50) / 40
	}
}

func tanhScore(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Tanh(x)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func stanceOf(score float64) int {
	switch {
	case score > 0.05:
		return 1
	case score < -0.05:
		return -1
	default:
		return 0
	}
}

func lastNValid(values []float64, n int) []float64 {
	window := tailWindow(values, n)
	out := make([]float64, 0, len(window))
	for _, v := range window {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
