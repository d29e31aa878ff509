package model

import "time"

// DateLayout is the day-granularity key format used throughout the store.
const DateLayout = "2006-01-02"

// Candle represents one day's OHLCV summary for a symbol.
type Candle struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// DateKey returns the candle's reconciliation key (YYYY-MM-DD).
func (c Candle) DateKey() string {
	return c.Date.Format(DateLayout)
}

// Ticker is the latest snapshot for a symbol as reported by the exchange.
type Ticker struct {
	Open   float64
	High   float64
	Low    float64
	Trade  float64 // current trade price
	Volume float64
}
