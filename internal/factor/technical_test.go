package factor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

func buildSeries(ticker string, n int, trendPerDay float64, base float64) models.OHLCVSeries {
	rows := make([]models.OHLCVRow, n)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	price := base
	for i := 0; i < n; i++ {
		price += trendPerDay
		rows[i] = models.OHLCVRow{
			Date:   start.AddDate(0, 0, i),
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1_000_000,
		}
	}
	return models.OHLCVSeries{Ticker: ticker, Rows: rows}
}

func TestComputeTechnicalFeatures_RequiresMinHistory(t *testing.T) {
	series := buildSeries("AAPL", 50, 0.1, 100)
	_, err := ComputeTechnicalFeatures(series)
	assert.Error(t, err)
}

func TestComputeTechnicalFeatures_UptrendClassifiesUp(t *testing.T) {
	series := buildSeries("AAPL", 250, 0.5, 100)
	features, err := ComputeTechnicalFeatures(series)
	require.NoError(t, err)
	assert.Equal(t, models.TrendUp, features.Trend)
	assert.Greater(t, features.MA20, 0.0)
}

func TestComputeTechnicalFeatures_DowntrendClassifiesDown(t *testing.T) {
	series := buildSeries("AAPL", 250, -0.5, 500)
	features, err := ComputeTechnicalFeatures(series)
	require.NoError(t, err)
	assert.Equal(t, models.TrendDown, features.Trend)
}

func TestComputeTechnicalFeatures_RSIWithinBounds(t *testing.T) {
	series := buildSeries("AAPL", 250, 0.3, 100)
	features, err := ComputeTechnicalFeatures(series)
	require.NoError(t, err)
	assert.True(t, features.RSI14 >= 0 && features.RSI14 <= 100)
}

func TestClassifyRSISignal_Thresholds(t *testing.T) {
	assert.Equal(t, models.RSISignalOverbought, classifyRSISignal(75))
	assert.Equal(t, models.RSISignalOversold, classifyRSISignal(25))
	assert.Equal(t, models.RSISignalNeutral, classifyRSISignal(50))
}

func TestNormalize_ClampsToUnitRange(t *testing.T) {
	spec := metricSpec{lowBound: 0, highBound: 10}
	assert.Equal(t, 1.0, normalize(100, spec))
	assert.Equal(t, -1.0, normalize(-100, spec))
	assert.InDelta(t, 0.0, normalize(5, spec), 1e-9)
}

func TestScoreRSIContrarian_BoundedUnitRange(t *testing.T) {
	for _, rsi := range []float64{0, 15, 30, 50, 70, 85, 100} {
		s := scoreRSIContrarian(rsi)
		assert.True(t, s >= -1 && s <= 1, "rsi=%v score=%v out of bounds", rsi, s)
	}
}

func TestTanhScore_NeverExceedsUnitRange(t *testing.T) {
	for _, x := range []float64{-100, -1, 0, 1, 100, math.Inf(1), math.NaN()} {
		s := tanhScore(x)
		assert.True(t, s >= -1 && s <= 1)
	}
}
