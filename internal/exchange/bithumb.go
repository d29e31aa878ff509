package exchange

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/geongi-im/bithumb-price-monitor/internal/model"
)

const candleTimeLayout = "2006-01-02T15:04:05"

// BithumbFetcher implements Fetcher against the Bithumb public REST API.
type BithumbFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewBithumbFetcher creates a fetcher against the public Bithumb API.
func NewBithumbFetcher() *BithumbFetcher {
	return &BithumbFetcher{
		BaseURL: "https://api.bithumb.com",
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *BithumbFetcher) Name() string { return "bithumb" }

// bithumbCandle is the daily candle shape returned by /v1/candles/days.
type bithumbCandle struct {
	Market            string  `json:"market"`
	CandleDateTimeKST string  `json:"candle_date_time_kst"`
	OpeningPrice      float64 `json:"opening_price"`
	HighPrice         float64 `json:"high_price"`
	LowPrice          float64 `json:"low_price"`
	TradePrice        float64 `json:"trade_price"`
	AccTradeVolume    float64 `json:"candle_acc_trade_volume"`
}

// bithumbTicker is the snapshot shape returned by /v1/ticker.
type bithumbTicker struct {
	Market         string  `json:"market"`
	OpeningPrice   float64 `json:"opening_price"`
	HighPrice      float64 `json:"high_price"`
	LowPrice       float64 `json:"low_price"`
	TradePrice     float64 `json:"trade_price"`
	AccTradeVolume float64 `json:"acc_trade_volume"`
}

// FetchCandles requests up to count daily candles for the symbol, newest
// first. A non-zero `to` bounds the page to candles strictly before it.
func (f *BithumbFetcher) FetchCandles(symbol string, count int, to time.Time) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("market", "KRW-"+symbol)
	q.Set("count", strconv.Itoa(count))
	if !to.IsZero() {
		q.Set("to", to.Format(candleTimeLayout))
	}
	endpoint := fmt.Sprintf("%s/v1/candles/days?%s", f.BaseURL, q.Encode())

	body, err := f.get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", symbol, err)
	}

	// Bithumb answers with a bare array; anything else is a failure.
	var raw []bithumbCandle
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode candles %s: %w", symbol, err)
	}

	candles := make([]model.Candle, 0, len(raw))
	for _, bc := range raw {
		date, err := time.Parse(candleTimeLayout, bc.CandleDateTimeKST)
		if err != nil {
			return nil, fmt.Errorf("parse candle time %q: %w", bc.CandleDateTimeKST, err)
		}
		candles = append(candles, model.Candle{
			Date:   date,
			Open:   bc.OpeningPrice,
			High:   bc.HighPrice,
			Low:    bc.LowPrice,
			Close:  bc.TradePrice,
			Volume: bc.AccTradeVolume,
		})
	}
	return candles, nil
}

// FetchTicker returns the latest snapshot for the symbol.
func (f *BithumbFetcher) FetchTicker(symbol string) (model.Ticker, error) {
	endpoint := fmt.Sprintf("%s/v1/ticker?markets=KRW-%s", f.BaseURL, symbol)

	body, err := f.get(endpoint)
	if err != nil {
		return model.Ticker{}, fmt.Errorf("fetch ticker %s: %w", symbol, err)
	}

	var raw []bithumbTicker
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.Ticker{}, fmt.Errorf("decode ticker %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return model.Ticker{}, fmt.Errorf("fetch ticker %s: empty response", symbol)
	}

	t := raw[0]
	open := t.OpeningPrice
	if open == 0 {
		open = t.TradePrice
	}
	return model.Ticker{
		Open:   open,
		High:   t.HighPrice,
		Low:    t.LowPrice,
		Trade:  t.TradePrice,
		Volume: t.AccTradeVolume,
	}, nil
}

func (f *BithumbFetcher) get(endpoint string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
