package chart

import (
	"fmt"
	"math"
	"os"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/geongi-im/bithumb-price-monitor/internal/alert"
	"github.com/geongi-im/bithumb-price-monitor/internal/calculator"
	"github.com/geongi-im/bithumb-price-monitor/internal/model"
)

// maPeriods are the moving-average overlays drawn on every alert chart.
var maPeriods = []int{20, 60, 120}

// PNGRenderer draws the close-price series with horizontal reference lines
// at the window extrema and moving-average overlays, and writes it as a
// PNG artifact.
type PNGRenderer struct {
	Width  int
	Height int
}

// NewPNGRenderer creates a renderer with the default canvas size.
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Width: 1100, Height: 600}
}

// Render writes the chart described by spec to path.
func (r *PNGRenderer) Render(spec alert.ChartSpec, path string) error {
	if len(spec.Series) < 2 {
		return fmt.Errorf("chart %s: need at least 2 points, have %d", spec.Symbol, len(spec.Series))
	}

	xs := make([]time.Time, len(spec.Series))
	for i, c := range spec.Series {
		xs[i] = c.Date
	}
	closes := calculator.ExtractCloses(spec.Series)

	series := []gochart.Series{
		gochart.TimeSeries{
			Name:    spec.Symbol,
			XValues: xs,
			YValues: closes,
			Style:   gochart.Style{StrokeColor: gochart.ColorBlue, StrokeWidth: 2},
		},
	}
	series = append(series, maSeries(spec.Series, xs)...)
	series = append(series, referenceSeries(spec.Lines, xs)...)

	graph := gochart.Chart{
		Title:  fmt.Sprintf("%s (%s)", spec.Symbol, xs[len(xs)-1].Format(model.DateLayout)),
		Width:  r.Width,
		Height: r.Height,
		XAxis:  gochart.XAxis{ValueFormatter: gochart.TimeDateValueFormatter},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := graph.Render(gochart.PNG, f); err != nil {
		os.Remove(path)
		return fmt.Errorf("render chart %s: %w", spec.Symbol, err)
	}
	return nil
}

// maSeries builds one overlay per moving-average period, trimmed to the
// bars that have full lookback.
func maSeries(candles []model.Candle, xs []time.Time) []gochart.Series {
	colors := []gochart.Style{
		{StrokeColor: gochart.ColorGreen, StrokeWidth: 1},
		{StrokeColor: gochart.ColorOrange, StrokeWidth: 1},
		{StrokeColor: gochart.ColorRed, StrokeWidth: 1},
	}

	var out []gochart.Series
	for i, period := range maPeriods {
		values := calculator.RollingSMA(candles, period)
		start := -1
		for j, v := range values {
			if !math.IsNaN(v) {
				start = j
				break
			}
		}
		if start < 0 {
			continue // series shorter than the period
		}
		out = append(out, gochart.TimeSeries{
			Name:    fmt.Sprintf("MA%d", period),
			XValues: xs[start:],
			YValues: values[start:],
			Style:   colors[i%len(colors)],
		})
	}
	return out
}

// referenceSeries draws a dashed horizontal line across the full x range
// for each window extremum, so the four values are visually
// distinguishable.
func referenceSeries(lines []alert.ReferenceLine, xs []time.Time) []gochart.Series {
	span := []time.Time{xs[0], xs[len(xs)-1]}
	out := make([]gochart.Series, 0, len(lines))
	for _, line := range lines {
		out = append(out, gochart.TimeSeries{
			Name:    line.Label,
			XValues: span,
			YValues: []float64{line.Value, line.Value},
			Style: gochart.Style{
				StrokeColor:     gochart.ColorLightGray,
				StrokeWidth:     1,
				StrokeDashArray: []float64{5.0, 5.0},
			},
		})
	}
	return out
}
