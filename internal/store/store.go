package store

import "github.com/geongi-im/bithumb-price-monitor/internal/model"

// ExtremumKind selects which side of the daily range a window query scans.
type ExtremumKind string

const (
	ExtremumHigh ExtremumKind = "HIGH"
	ExtremumLow  ExtremumKind = "LOW"
)

// Store owns the persisted per-symbol daily price series. No other
// component mutates persisted rows directly.
type Store interface {
	// EnsureTable creates the symbol's series if absent. Idempotent.
	EnsureTable(symbol string) error
	// TableExists reports whether the symbol's series has been created.
	TableExists(symbol string) (bool, error)
	// SeedBulk inserts a full history (oldest to newest) in one
	// transaction. Candles must already be deduplicated by date; a
	// constraint violation rolls back and propagates.
	SeedBulk(symbol string, candles []model.Candle) error
	// Observation returns the row for the given date key, if any.
	Observation(symbol, date string) (model.Candle, bool, error)
	// UpsertDay inserts the candle's row for date, or, when the row
	// already exists, refreshes close/high/low/volume. The open price is
	// never overwritten after creation. Re-running the same poll for the
	// same day converges to the same final row.
	UpsertDay(symbol string, candle model.Candle, date string) error
	// WindowExtremum returns max(high) or min(low) over rows dated within
	// the trailing window, inclusive of today's row. ok is false when no
	// rows qualify.
	WindowExtremum(symbol string, days int, kind ExtremumKind) (value float64, ok bool, err error)
	// FullSeries returns all rows within the trailing window, oldest
	// first, for charting and moving-average lookback.
	FullSeries(symbol string, days int) ([]model.Candle, error)
	Close() error
}
