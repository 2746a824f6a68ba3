package factor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

func TestComputeAnalysisReport_RequiresMinCandles(t *testing.T) {
	series := buildSeries("AAPL", 50, 0.1, 100)
	_, err := ComputeAnalysisReport(series, "eodhd", nil)
	assert.Error(t, err)
}

func TestComputeAnalysisReport_ProbabilitiesSumToOne(t *testing.T) {
	series := buildSeries("AAPL", 260, 0.4, 100)
	report, err := ComputeAnalysisReport(series, "eodhd", nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, report.Aggregate.PUp+report.Aggregate.PDown, 1e-9)
}

func TestComputeAnalysisReport_ConfidenceBounded(t *testing.T) {
	series := buildSeries("AAPL", 260, 0.4, 100)
	report, err := ComputeAnalysisReport(series, "eodhd", nil)
	require.NoError(t, err)
	assert.True(t, report.Aggregate.Confidence >= 0 && report.Aggregate.Confidence <= 1)
}

func TestComputeAnalysisReport_SignalThresholds(t *testing.T) {
	series := buildSeries("AAPL", 260, 0.4, 100)
	report, err := ComputeAnalysisReport(series, "eodhd", nil)
	require.NoError(t, err)

	switch {
	case report.Aggregate.PUp > 0.6:
		assert.Equal(t, "BUY", string(report.Aggregate.Signal))
	case report.Aggregate.PUp < 0.4:
		assert.Equal(t, "SELL", string(report.Aggregate.Signal))
	default:
		assert.Equal(t, "HOLD", string(report.Aggregate.Signal))
	}
}

func TestComputeAnalysisReport_UserFactorOverridesWeight(t *testing.T) {
	series := buildSeries("AAPL", 260, 0.1, 100)
	report, err := ComputeAnalysisReport(series, "eodhd", &UserFactor{Value: 1, Weight: 0.5})
	require.NoError(t, err)

	userFactor := findAnalysisFactor(report.Factors, "user")
	assert.Equal(t, 0.5, userFactor.Weight)
	assert.Equal(t, 1.0, userFactor.Score)
}

func findAnalysisFactor(factors []models.AnalysisFactor, id string) models.AnalysisFactor {
	for _, f := range factors {
		if f.ID == id {
			return f
		}
	}
	return models.AnalysisFactor{}
}
