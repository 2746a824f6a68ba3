package cache

import (
	"encoding/json"
	"fmt"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

func marshalSeries(series *models.OHLCVSeries) ([]byte, error) {
	data, err := json.Marshal(series)
	if err != nil {
		return nil, fmt.Errorf("marshal OHLCV series for %s: %w", series.Ticker, err)
	}
	return data, nil
}

func unmarshalSeries(data []byte) (*models.OHLCVSeries, error) {
	var series models.OHLCVSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("unmarshal OHLCV series: %w", err)
	}
	return &series, nil
}
