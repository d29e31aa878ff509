package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken    string `yaml:"bot_token"`
		ChatID      string `yaml:"chat_id"`
		ErrorChatID string `yaml:"error_chat_id"`
	} `yaml:"telegram"`
	Monitor struct {
		Symbols  []string `yaml:"symbols"`
		SeedDays int      `yaml:"seed_days"`
	} `yaml:"monitor"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Chart struct {
		Dir string `yaml:"dir"`
	} `yaml:"chart"`
	Schedule struct {
		RunMode     string `yaml:"run_mode"` // "once" or "daemon"
		MonitorCron string `yaml:"monitor_cron"`
	} `yaml:"schedule"`
}

// Load reads an optional .env file, then the YAML config file, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	// Mirrors dotenv loading in the original deployment; existing OS vars win.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("TELEGRAM_ERROR_CHAT_ID"); v != "" {
		cfg.Telegram.ErrorChatID = v
	}
	if v := os.Getenv("MONITORED_SYMBOLS"); v != "" {
		cfg.Monitor.Symbols = ParseSymbols(v)
	}
	if v := os.Getenv("SEED_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.Monitor.SeedDays = days
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CHART_DIR"); v != "" {
		cfg.Chart.Dir = v
	}
	if v := os.Getenv("RUN_MODE"); v != "" {
		cfg.Schedule.RunMode = v
	}
	if v := os.Getenv("MONITOR_CRON"); v != "" {
		cfg.Schedule.MonitorCron = v
	}

	// Defaults
	if cfg.Monitor.SeedDays == 0 {
		cfg.Monitor.SeedDays = 365
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/bithumb_price_monitor.db"
	}
	if cfg.Chart.Dir == "" {
		cfg.Chart.Dir = "data/charts"
	}
	if cfg.Schedule.RunMode == "" {
		cfg.Schedule.RunMode = "once"
	}
	if cfg.Schedule.MonitorCron == "" {
		cfg.Schedule.MonitorCron = "0 */10 * * * *"
	}

	return cfg, nil
}

// ParseSymbols splits a comma-separated symbol list, trimming and
// uppercasing each entry.
func ParseSymbols(raw string) []string {
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.ToUpper(strings.TrimSpace(part)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// Validate checks that all required fields are set and reports every
// missing item, so the operator can fix them in one pass.
func (c *Config) Validate() error {
	var missing []string
	if c.Telegram.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.Telegram.ChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(c.Monitor.Symbols) == 0 {
		missing = append(missing, "MONITORED_SYMBOLS")
	}
	if len(missing) > 0 {
		errs := make([]error, 0, len(missing))
		for _, name := range missing {
			errs = append(errs, fmt.Errorf("required configuration %s is not set", name))
		}
		return errors.Join(errs...)
	}
	if c.Schedule.RunMode != "once" && c.Schedule.RunMode != "daemon" {
		return fmt.Errorf("run_mode must be \"once\" or \"daemon\", got %q", c.Schedule.RunMode)
	}
	return nil
}
