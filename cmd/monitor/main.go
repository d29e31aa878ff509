package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/geongi-im/bithumb-price-monitor/internal/alert"
	"github.com/geongi-im/bithumb-price-monitor/internal/chart"
	"github.com/geongi-im/bithumb-price-monitor/internal/config"
	"github.com/geongi-im/bithumb-price-monitor/internal/exchange"
	"github.com/geongi-im/bithumb-price-monitor/internal/monitor"
	"github.com/geongi-im/bithumb-price-monitor/internal/notifier"
	"github.com/geongi-im/bithumb-price-monitor/internal/scheduler"
	"github.com/geongi-im/bithumb-price-monitor/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] bithumb price monitor starting...")

	// Load config. Validation runs before any collaborator is touched so a
	// misconfigured process never reaches the network or the database.
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	log.Printf("[INFO] monitoring symbols: %v", cfg.Monitor.Symbols)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
		log.Fatalf("[FATAL] create data dir: %v", err)
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.ErrorChatID)

	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] open store: %v", err)
	}
	defer st.Close()

	fetcher := exchange.NewBithumbFetcher()
	log.Printf("[INFO] data source: %s", fetcher.Name())
	history := exchange.NewHistory(fetcher)
	renderer := chart.NewPNGRenderer()
	composer := alert.NewComposer(st, tn, renderer, cfg.Chart.Dir)
	mon := monitor.New(st, fetcher, history, composer, cfg.Monitor.SeedDays)

	if cfg.Schedule.RunMode == "daemon" {
		runDaemon(cfg, mon, tn)
		return
	}

	if err := mon.Run(cfg.Monitor.Symbols); err != nil {
		log.Printf("[ERROR] run finished with errors: %v", err)
		tn.SendError(fmt.Sprintf("❌ 가격 모니터 실행 오류:\n%v", err))
		os.Exit(1)
	}
}

// runDaemon keeps the process alive, runs the monitor on a cron schedule
// and serves Telegram commands until a shutdown signal arrives.
func runDaemon(cfg *config.Config, mon *monitor.Monitor, tn *notifier.TelegramNotifier) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(mon, cfg.Monitor.Symbols)
	if err := sched.Register(cfg.Schedule.MonitorCron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] daemon mode running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] bithumb price monitor stopped")
}
