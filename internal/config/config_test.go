package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "TELEGRAM_ERROR_CHAT_ID",
		"MONITORED_SYMBOLS", "SEED_DAYS", "SQLITE_PATH", "CHART_DIR",
		"RUN_MODE", "MONITOR_CRON",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestParseSymbols(t *testing.T) {
	assert.Equal(t, []string{"BTC", "XRP", "ETH"}, ParseSymbols(" btc, XRP ,eth"))
	assert.Equal(t, []string{"BTC"}, ParseSymbols("BTC,,"))
	assert.Empty(t, ParseSymbols(""))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 365, cfg.Monitor.SeedDays)
	assert.Equal(t, "data/bithumb_price_monitor.db", cfg.Database.SQLitePath)
	assert.Equal(t, "data/charts", cfg.Chart.Dir)
	assert.Equal(t, "once", cfg.Schedule.RunMode)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  bot_token: from-yaml
  chat_id: chat-yaml
monitor:
  symbols: [BTC]
`), 0o644))

	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("MONITORED_SYMBOLS", "xrp, eth")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.BotToken)
	assert.Equal(t, "chat-yaml", cfg.Telegram.ChatID)
	assert.Equal(t, []string{"XRP", "ETH"}, cfg.Monitor.Symbols)
}

func TestValidateReportsEveryMissingItem(t *testing.T) {
	cfg := &Config{}
	cfg.Schedule.RunMode = "once"

	err := cfg.Validate()
	require.Error(t, err)
	lines := strings.Split(err.Error(), "\n")
	require.Len(t, lines, 3, "one line per missing item")
	assert.Contains(t, lines[0], "TELEGRAM_BOT_TOKEN")
	assert.Contains(t, lines[1], "TELEGRAM_CHAT_ID")
	assert.Contains(t, lines[2], "MONITORED_SYMBOLS")
}

func TestValidateOK(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = "chat"
	cfg.Monitor.Symbols = []string{"BTC"}
	cfg.Schedule.RunMode = "once"

	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownRunMode(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = "chat"
	cfg.Monitor.Symbols = []string{"BTC"}
	cfg.Schedule.RunMode = "hourly"

	assert.Error(t, cfg.Validate())
}
