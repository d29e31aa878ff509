package calculator

import (
	"math"

	"github.com/geongi-im/bithumb-price-monitor/internal/model"
)

// RollingSMA returns a per-bar moving average of close prices. Positions
// with fewer than period bars of lookback are NaN, so a 120-day average
// over a 365-day series is undefined for the first 119 bars.
func RollingSMA(candles []model.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	sum := 0.0
	for i, c := range candles {
		sum += c.Close
		if i >= period {
			sum -= candles[i-period].Close
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// ExtractCloses pulls the close-price column from a candle series.
func ExtractCloses(candles []model.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
