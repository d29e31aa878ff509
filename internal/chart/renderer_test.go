package chart

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geongi-im/bithumb-price-monitor/internal/alert"
	"github.com/geongi-im/bithumb-price-monitor/internal/model"
)

func syntheticSeries(n int) []model.Candle {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Candle, n)
	for i := range out {
		price := 100 + float64(i%7)
		out[i] = model.Candle{Date: base.AddDate(0, 0, i), Open: price, Close: price, High: price + 1, Low: price - 1, Volume: 1}
	}
	return out
}

func TestRenderWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BTC_test.png")
	spec := alert.ChartSpec{
		Symbol: "BTC",
		Series: syntheticSeries(180),
		Lines: []alert.ReferenceLine{
			{Label: "5일최고가", Value: 107},
			{Label: "120일최고가", Value: 108},
		},
	}

	require.NoError(t, NewPNGRenderer().Render(spec, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderShortSeriesStillDraws(t *testing.T) {
	// 30 bars: only the MA20 overlay has lookback; the longer overlays
	// drop out and the reference line still renders.
	path := filepath.Join(t.TempDir(), "XRP_test.png")
	spec := alert.ChartSpec{
		Symbol: "XRP",
		Series: syntheticSeries(30),
		Lines:  []alert.ReferenceLine{{Label: "5일최고가", Value: 107}},
	}
	require.NoError(t, NewPNGRenderer().Render(spec, path))
}

func TestRenderRejectsTinySeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ETH_test.png")
	spec := alert.ChartSpec{Symbol: "ETH", Series: syntheticSeries(1)}

	require.Error(t, NewPNGRenderer().Render(spec, path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no artifact left behind on failure")
}
