package alert

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/geongi-im/bithumb-price-monitor/internal/model"
	"github.com/geongi-im/bithumb-price-monitor/internal/store"
)

// Notifier delivers alerts to the messaging destination.
type Notifier interface {
	// SendWithRetry retries the text dispatch with backoff; it is the
	// last delivery path before an alert is lost, so it must be sturdy.
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	SendPhoto(path, caption string) error
	// SendError best-effort reports a failure to the error channel.
	SendError(text string)
}

// Renderer produces a chart image for an alert.
type Renderer interface {
	Render(spec ChartSpec, path string) error
}

// ReferenceLine is a horizontal annotation on the chart.
type ReferenceLine struct {
	Label string
	Value float64
}

// ChartSpec describes the chart accompanying an alert: the price series
// (oldest first) and the window extrema to make visually distinguishable.
type ChartSpec struct {
	Symbol string
	Series []model.Candle
	Lines  []ReferenceLine
}

// Composer turns breakout events into Telegram messages plus chart
// artifacts. Failures degrade (photo -> text -> error channel) and never
// crash the per-symbol cycle.
type Composer struct {
	Store      store.Store
	Notifier   Notifier
	Renderer   Renderer
	ChartDir   string
	SeriesDays int

	now func() time.Time
}

// NewComposer creates a Composer with the default clock and a 365-day
// chart window (enough lookback for a 120-day moving average).
func NewComposer(st store.Store, notifier Notifier, renderer Renderer, chartDir string) *Composer {
	return &Composer{
		Store:      st,
		Notifier:   notifier,
		Renderer:   renderer,
		ChartDir:   chartDir,
		SeriesDays: 365,
		now:        time.Now,
	}
}

// Alert composes and dispatches one breakout notification. The returned
// error means even the degraded text dispatch failed; it is reported, not
// fatal.
func (c *Composer) Alert(event model.BreakoutEvent) error {
	text := c.Compose(event)

	series, err := c.Store.FullSeries(event.Symbol, c.SeriesDays)
	if err != nil {
		log.Printf("[WARN] [%s] chart series query failed, sending text only: %v", event.Symbol, err)
		series = nil
	}
	if len(series) == 0 {
		return c.sendText(event, text)
	}

	path, err := c.renderChart(event, series)
	if err != nil {
		log.Printf("[ERROR] [%s] chart render failed, sending text only: %v", event.Symbol, err)
		c.Notifier.SendError(fmt.Sprintf("[%s] 차트 생성 실패: %v", event.Symbol, err))
		return c.sendText(event, text)
	}

	if err := c.Notifier.SendPhoto(path, text); err != nil {
		log.Printf("[ERROR] [%s] photo dispatch failed, sending text only: %v", event.Symbol, err)
		return c.sendText(event, text)
	}
	log.Printf("[INFO] [%s] alert sent", event.Symbol)
	return nil
}

func (c *Composer) sendText(event model.BreakoutEvent, text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := c.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		c.Notifier.SendError(fmt.Sprintf("[%s] 알림 전송 실패: %v", event.Symbol, err))
		return fmt.Errorf("send alert text: %w", err)
	}
	log.Printf("[INFO] [%s] alert sent (text only)", event.Symbol)
	return nil
}

// Compose formats the breakout message: title by kind, current price, and
// the 5/20/60/120-day extremum of the matching kind with its percent
// deviation from the current price.
func (c *Composer) Compose(event model.BreakoutEvent) string {
	title := "🟥 당일 고가 갱신"
	periodLabel := "최고가"
	kind := store.ExtremumHigh
	if event.Kind == model.BreakoutLow {
		title = "🟦 당일 저가 갱신"
		periodLabel = "최저가"
		kind = store.ExtremumLow
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>%s</b>\n", title))
	b.WriteString(fmt.Sprintf("<b>종목코드: %s</b>\n", event.Symbol))
	b.WriteString(fmt.Sprintf("현재가: %s원\n", formatPrice(event.Price)))

	for _, days := range model.Windows {
		value, ok, err := c.Store.WindowExtremum(event.Symbol, days, kind)
		if err != nil {
			log.Printf("[WARN] [%s] %dd extremum query failed: %v", event.Symbol, days, err)
			ok = false
		}
		valueStr := "N/A"
		if ok {
			valueStr = formatPrice(value)
		}
		line := fmt.Sprintf("%d일%s: %s원", days, periodLabel, valueStr)
		if dev := FormatDeviation(event.Price, value, ok); dev != "" {
			line += fmt.Sprintf(" (%s)", dev)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + event.At.Format("2006-01-02 15:04:05"))
	return b.String()
}

// renderChart deletes the symbol's stale artifacts and renders a fresh one,
// so at most one chart file per symbol exists at any time.
func (c *Composer) renderChart(event model.BreakoutEvent, series []model.Candle) (string, error) {
	if err := os.MkdirAll(c.ChartDir, 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}
	c.removeStale(event.Symbol)

	kind := store.ExtremumHigh
	suffix := "최고가"
	if event.Kind == model.BreakoutLow {
		kind = store.ExtremumLow
		suffix = "최저가"
	}
	var lines []ReferenceLine
	for _, days := range model.Windows {
		value, ok, err := c.Store.WindowExtremum(event.Symbol, days, kind)
		if err != nil || !ok {
			continue
		}
		lines = append(lines, ReferenceLine{Label: fmt.Sprintf("%d일%s", days, suffix), Value: value})
	}

	path := filepath.Join(c.ChartDir, fmt.Sprintf("%s_%s.png", event.Symbol, c.now().Format("20060102150405")))
	spec := ChartSpec{Symbol: event.Symbol, Series: series, Lines: lines}
	if err := c.Renderer.Render(spec, path); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Composer) removeStale(symbol string) {
	matches, err := filepath.Glob(filepath.Join(c.ChartDir, symbol+"_*.png"))
	if err != nil {
		return
	}
	for _, stale := range matches {
		if err := os.Remove(stale); err != nil {
			log.Printf("[WARN] remove stale chart %s: %v", stale, err)
		}
	}
}

// FormatDeviation returns the signed two-decimal percent deviation of
// current from window (e.g. "+10.00%"), or "" when the window value is
// absent or the difference is zero.
func FormatDeviation(current, window float64, ok bool) string {
	if !ok || window == 0 || current == window {
		return ""
	}
	return fmt.Sprintf("%+.2f%%", (current-window)/window*100)
}

func formatPrice(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}
