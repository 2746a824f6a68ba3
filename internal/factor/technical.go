// Package factor computes the Technical Feature Engine, the Fundamental
// factor model, and the Analysis Report factor model (spec §4.5), grounded
// on go-talib for indicator math and gonum/stat for regression and
// dispersion statistics.
package factor

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/westinedu/ai-courses-gcp/internal/common"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// MinCloseHistory is the minimum number of valid closes required before
// TechnicalFeatures can be computed (spec §4.5).
const MinCloseHistory = 200

const trendFlatEpsilon = 1e-6

// ComputeTechnicalFeatures builds the TechnicalFeatures snapshot from the
// tail of an OHLCV series. Returns an error wrapping common's invalid-input
// semantics when fewer than MinCloseHistory valid closes are available.
func ComputeTechnicalFeatures(series models.OHLCVSeries) (models.TechnicalFeatures, error) {
	rows := series.Rows
	closes := make([]float64, 0, len(rows))
	for _, r := range rows {
		if !math.IsNaN(r.Close) && r.Close > 0 {
			closes = append(closes, r.Close)
		}
	}
	if len(closes) < MinCloseHistory {
		return models.TechnicalFeatures{}, fmt.Errorf("%w: technical features for %s: need >=%d valid closes, have %d", common.ErrInvalidInput, series.Ticker, MinCloseHistory, len(closes))
	}

	latest := closes[len(closes)-1]
	prev := closes[len(closes)-2]
	return_1d := 0.0
	if prev != 0 {
		return_1d = (latest - prev) / prev
	}

	ma20 := lastSMA(closes, 20)
	ma50 := lastSMA(closes, 50)
	ma200 := lastSMA(closes, 200)
	rsi14 := lastRSI(closes, 14)
	macd := computeMACD(closes)
	trend := classifyTrend(closes)
	maSignal := classifyMASignal(closes)
	rsiSignal := classifyRSISignal(rsi14)

	return models.TechnicalFeatures{
		Ticker:      series.Ticker,
		AsOf:        rows[len(rows)-1].Date,
		LatestClose: latest,
		Return1D:    return_1d,
		MA20:        ma20,
		MA50:        ma50,
		MA200:       ma200,
		RSI14:       rsi14,
		MACD:        macd,
		Trend:       trend,
		MASignal:    maSignal,
		RSISignal:   rsiSignal,
	}, nil
}

func lastSMA(closes []float64, period int) float64 {
	if len(closes) < period {
		return mean(closes)
	}
	sma := talib.Sma(closes, period)
	if v, ok := lastValid(sma); ok {
		return v
	}
	return mean(closes[len(closes)-period:])
}

func lastRSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50 // neutral midpoint when underspecified; callers already gate on MinCloseHistory
	}
	rsi := talib.Rsi(closes, period)
	if v, ok := lastValid(rsi); ok {
		return v
	}
	return 50
}

func computeMACD(closes []float64) models.MACD {
	macdLine, signalLine, hist := talib.Macd(closes, 12, 26, 9)
	line, _ := lastValid(macdLine)
	sig, _ := lastValid(signalLine)
	h, _ := lastValid(hist)
	return models.MACD{Line: line, Signal: sig, Hist: h}
}

// classifyTrend fits a simple linear regression over the last 10 closes and
// classifies the slope's sign against a small epsilon (spec §4.5).
func classifyTrend(closes []float64) models.Trend {
	window := tailWindow(closes, 10)
	if len(window) < 2 {
		return models.TrendUnknown
	}
	xs := make([]float64, len(window))
	for i := range window {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, window, nil, false)

	switch {
	case slope > trendFlatEpsilon:
		return models.TrendUp
	case slope < -trendFlatEpsilon:
		return models.TrendDown
	default:
		return models.TrendFlat
	}
}

// classifyMASignal compares the 50/200-day moving averages at t-1 and t to
// detect a golden or death cross forming on the latest bar (spec §4.5).
func classifyMASignal(closes []float64) models.MASignal {
	if len(closes) < 202 {
		return models.MASignalNeutral
	}
	ma50Now := lastSMA(closes, 50)
	ma200Now := lastSMA(closes, 200)
	prevCloses := closes[:len(closes)-1]
	ma50Prev := lastSMA(prevCloses, 50)
	ma200Prev := lastSMA(prevCloses, 200)

	wasBelow := ma50Prev < ma200Prev
	isBelow := ma50Now < ma200Now

	switch {
	case wasBelow && !isBelow:
		return models.MASignalGoldenCross
	case !wasBelow && isBelow:
		return models.MASignalDeathCross
	case !isBelow:
		return models.MASignalGoldenCrossState
	case isBelow:
		return models.MASignalDeathCrossState
	default:
		return models.MASignalNeutral
	}
}

func classifyRSISignal(rsi float64) models.RSISignal {
	switch {
	case rsi > 70:
		return models.RSISignalOverbought
	case rsi < 30:
		return models.RSISignalOversold
	default:
		return models.RSISignalNeutral
	}
}

func tailWindow(data []float64, n int) []float64 {
	if len(data) < n {
		return data
	}
	return data[len(data)-n:]
}

func lastValid(values []float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
