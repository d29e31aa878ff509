package exchange

import (
	"time"

	"github.com/geongi-im/bithumb-price-monitor/internal/model"
)

// Fetcher defines the interface for fetching market data from the exchange.
type Fetcher interface {
	// FetchCandles returns up to count daily candles, newest first. A
	// non-zero `to` is an exclusive upper bound on the candle timestamp.
	FetchCandles(symbol string, count int, to time.Time) ([]model.Candle, error)
	// FetchTicker returns the latest snapshot for the symbol.
	FetchTicker(symbol string) (model.Ticker, error)
	Name() string
}
