package exchange

import (
	"log"
	"time"

	"github.com/geongi-im/bithumb-price-monitor/internal/model"
)

const (
	// maxPageSize is the exchange's cap on a single candle request.
	maxPageSize = 200
	// pagePace is the sleep between pages to respect rate limits.
	pagePace = 500 * time.Millisecond
)

// History fetches long candle histories by paginating backward in time.
type History struct {
	Fetcher  Fetcher
	PageSize int
	Pace     time.Duration
	sleep    func(time.Duration)
}

// NewHistory creates a history adapter over the given fetcher.
func NewHistory(fetcher Fetcher) *History {
	return &History{
		Fetcher:  fetcher,
		PageSize: maxPageSize,
		Pace:     pagePace,
		sleep:    time.Sleep,
	}
}

// Fetch returns up to total daily candles newest first. The first page is
// unbounded; each following page uses the oldest timestamp seen so far as
// an exclusive upper bound. A mid-pagination error salvages what was
// already accumulated instead of failing the whole fetch, so the result
// may be shorter than requested; callers treat any non-empty result as
// valid history.
func (h *History) Fetch(symbol string, total int) []model.Candle {
	var acc []model.Candle
	var to time.Time

	remaining := total
	for remaining > 0 {
		count := remaining
		if count > h.PageSize {
			count = h.PageSize
		}

		page, err := h.Fetcher.FetchCandles(symbol, count, to)
		if err != nil {
			log.Printf("[WARN] [%s] history page failed, keeping %d candles: %v", symbol, len(acc), err)
			return acc
		}
		if len(page) == 0 {
			// Exchange has no older data.
			break
		}

		acc = append(acc, page...)
		to = page[len(page)-1].Date // pages are newest first
		remaining -= len(page)

		if remaining > 0 {
			h.sleep(h.Pace)
		}
	}
	return acc
}
