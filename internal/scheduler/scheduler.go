package scheduler

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/geongi-im/bithumb-price-monitor/internal/monitor"
)

// Scheduler drives repeated monitor runs in daemon mode and answers
// Telegram commands.
type Scheduler struct {
	Cron    *cron.Cron
	Monitor *monitor.Monitor
	Symbols []string

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// NewScheduler creates a Scheduler for the given monitor and symbols.
func NewScheduler(m *monitor.Monitor, symbols []string) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Monitor: m,
		Symbols: symbols,
	}
}

// Register schedules the monitor run on the given cron spec.
func (s *Scheduler) Register(monitorCron string) error {
	if _, err := s.Cron.AddFunc(monitorCron, s.RunNow); err != nil {
		return fmt.Errorf("register monitor task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes one full monitor run immediately.
func (s *Scheduler) RunNow() {
	err := s.Monitor.Run(s.Symbols)
	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()
	if err != nil {
		log.Printf("[ERROR] monitor run finished with errors: %v", err)
	}
}

// HandleCommand processes a Telegram command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/check":
		go s.RunNow()
		return "모니터링을 시작합니다."
	case "/status":
		return s.status()
	default:
		return "사용 가능한 명령어:\n/check - 즉시 모니터링 실행\n/status - 상태 조회"
	}
}

func (s *Scheduler) status() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString("📡 <b>모니터링 상태</b>\n\n")
	b.WriteString(fmt.Sprintf("대상 종목: %s\n", strings.Join(s.Symbols, ", ")))
	if s.lastRun.IsZero() {
		b.WriteString("마지막 실행: 없음\n")
	} else {
		b.WriteString(fmt.Sprintf("마지막 실행: %s\n", s.lastRun.Format("2006-01-02 15:04:05")))
	}
	if s.lastErr != nil {
		b.WriteString(fmt.Sprintf("마지막 오류: %v\n", s.lastErr))
	}
	return b.String()
}
