package monitor

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/geongi-im/bithumb-price-monitor/internal/exchange"
	"github.com/geongi-im/bithumb-price-monitor/internal/model"
	"github.com/geongi-im/bithumb-price-monitor/internal/store"
)

// HistoryFetcher loads a long daily-candle history, newest first. A short
// result is valid input (partial salvage); only an empty one means the
// seed failed.
type HistoryFetcher interface {
	Fetch(symbol string, total int) []model.Candle
}

// Alerter consumes breakout events. Implementations must recover their own
// failures; a returned error is logged but never aborts the cycle.
type Alerter interface {
	Alert(event model.BreakoutEvent) error
}

// Monitor runs the per-symbol breakout cycle: seed the series on first
// sight, fetch the latest price, compare it against today's stored state,
// persist, and emit events.
type Monitor struct {
	Store    store.Store
	Fetcher  exchange.Fetcher
	History  HistoryFetcher
	Alerter  Alerter
	SeedDays int

	now func() time.Time
}

// New creates a Monitor with the default clock.
func New(st store.Store, fetcher exchange.Fetcher, history HistoryFetcher, alerter Alerter, seedDays int) *Monitor {
	return &Monitor{
		Store:    st,
		Fetcher:  fetcher,
		History:  history,
		Alerter:  alerter,
		SeedDays: seedDays,
		now:      time.Now,
	}
}

// Run processes every symbol sequentially. A symbol's storage failure is
// collected into the returned error but never blocks the remaining
// symbols.
func (m *Monitor) Run(symbols []string) error {
	log.Println("[INFO] === bithumb price monitor run start ===")

	var errs []error
	for _, symbol := range symbols {
		if err := m.ensureSeries(symbol); err != nil {
			log.Printf("[ERROR] [%s] series bootstrap: %v", symbol, err)
			errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
		}
	}
	for _, symbol := range symbols {
		if err := m.ProcessSymbol(symbol); err != nil {
			log.Printf("[ERROR] [%s] cycle failed: %v", symbol, err)
			errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
		}
	}

	log.Println("[INFO] === bithumb price monitor run complete ===")
	return errors.Join(errs...)
}

// ensureSeries creates and seeds the symbol's series on first sight. A
// failed seed fetch logs and leaves the series empty; the symbol is still
// processed going forward. Storage failures propagate.
func (m *Monitor) ensureSeries(symbol string) error {
	exists, err := m.Store.TableExists(symbol)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	log.Printf("[INFO] [%s] no series yet, bootstrapping", symbol)
	if err := m.Store.EnsureTable(symbol); err != nil {
		return err
	}

	candles := m.History.Fetch(symbol, m.SeedDays)
	if len(candles) == 0 {
		log.Printf("[ERROR] [%s] seed history unavailable, series left empty", symbol)
		return nil
	}

	seed := dedupeOldestFirst(candles)
	if err := m.Store.SeedBulk(symbol, seed); err != nil {
		return err
	}
	log.Printf("[INFO] [%s] seeded %d days of history", symbol, len(seed))
	return nil
}

// ProcessSymbol runs one evaluation cycle. Fetch failures skip the symbol
// without touching the store; storage failures propagate so the run is
// reported as degraded.
func (m *Monitor) ProcessSymbol(symbol string) error {
	log.Printf("[INFO] [%s] processing", symbol)

	ticker, err := m.Fetcher.FetchTicker(symbol)
	if err != nil {
		log.Printf("[WARN] [%s] ticker fetch failed, skipping: %v", symbol, err)
		return nil
	}
	log.Printf("[INFO] [%s] current price: %.0f", symbol, ticker.Trade)

	now := m.now()
	today := now.Format(model.DateLayout)

	// Today's stored state must be read strictly before the write below;
	// comparing after the upsert would compare the row against itself and
	// suppress every alert.
	prior, havePrior, err := m.Store.Observation(symbol, today)
	if err != nil {
		return err
	}

	var isNewHigh, isNewLow bool
	if havePrior {
		// Compare the trade price against the stored extrema, not the
		// ticker's own high/low fields.
		isNewHigh = ticker.Trade > prior.High
		isNewLow = ticker.Trade < prior.Low
	}

	candle := model.Candle{
		Date:   now,
		Open:   ticker.Open,
		High:   ticker.High,
		Low:    ticker.Low,
		Close:  ticker.Trade,
		Volume: ticker.Volume,
	}
	if err := m.Store.UpsertDay(symbol, candle, today); err != nil {
		return err
	}

	if !havePrior {
		// First observation of the day, nothing to compare against.
		return nil
	}

	if isNewHigh {
		log.Printf("[INFO] [%s] intraday high broken: %.0f -> %.0f", symbol, prior.High, ticker.Trade)
		m.emit(model.BreakoutEvent{
			Symbol: symbol, Kind: model.BreakoutHigh,
			Price: ticker.Trade, PriorExtremum: prior.High, At: now,
		})
	}
	if isNewLow {
		log.Printf("[INFO] [%s] intraday low broken: %.0f -> %.0f", symbol, prior.Low, ticker.Trade)
		m.emit(model.BreakoutEvent{
			Symbol: symbol, Kind: model.BreakoutLow,
			Price: ticker.Trade, PriorExtremum: prior.Low, At: now,
		})
	}
	return nil
}

func (m *Monitor) emit(event model.BreakoutEvent) {
	if err := m.Alerter.Alert(event); err != nil {
		log.Printf("[ERROR] [%s] alert dispatch: %v", event.Symbol, err)
	}
}

// dedupeOldestFirst collapses a newest-first candle page stream to one
// candle per date (the newest page wins) and reverses it for seeding.
func dedupeOldestFirst(newestFirst []model.Candle) []model.Candle {
	seen := make(map[string]bool, len(newestFirst))
	unique := make([]model.Candle, 0, len(newestFirst))
	for _, c := range newestFirst {
		key := c.DateKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, c)
	}
	for i, j := 0, len(unique)-1; i < j; i, j = i+1, j-1 {
		unique[i], unique[j] = unique[j], unique[i]
	}
	return unique
}
