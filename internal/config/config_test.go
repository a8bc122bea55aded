package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ETH", cfg.DataSource.TargetSymbol)
	assert.Equal(t, "BTC", cfg.DataSource.ReferenceSymbol)
	assert.Equal(t, "USDT", cfg.DataSource.QuoteCurrency)
	assert.Equal(t, 2, cfg.Detector.Step)
	assert.Equal(t, 4, cfg.Detector.Depth)
	assert.Equal(t, 1.0, cfg.Detector.MinAbsPercent)
	assert.Equal(t, 5*time.Second, cfg.Detector.PollInterval)
	assert.Equal(t, 8, cfg.Detector.MaxWorkers)
	assert.Equal(t, "0 0 9 * * *", cfg.Schedule.DailyReportCron)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "abc"
  chat_id: 42
data_source:
  mock: true
  limit: 120
detector:
  step: 3
  depth: 0
  min_abs_percent: 0
  poll_interval: 250ms
websocket:
  addr: ":9090"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.DataSource.Mock)
	assert.Equal(t, 120, cfg.DataSource.Limit)
	assert.Equal(t, 3, cfg.Detector.Step)
	assert.Equal(t, 0, cfg.Detector.Depth)
	assert.Equal(t, 0.0, cfg.Detector.MinAbsPercent)
	assert.Equal(t, 250*time.Millisecond, cfg.Detector.PollInterval)
	assert.Equal(t, ":9090", cfg.WebSocket.Addr)
	// untouched keys keep their defaults
	assert.Equal(t, 8, cfg.Detector.MaxWorkers)
	assert.True(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001")
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("MIN_ABS_PERCENT", "0.5")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("WS_ADDR", ":7000")

	cfg, err := Load(writeConfig(t, "detector:\n  poll_interval: 10s\n"))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, int64(-1001), cfg.Telegram.ChatID)
	assert.Equal(t, 2*time.Second, cfg.Detector.PollInterval)
	assert.Equal(t, 0.5, cfg.Detector.MinAbsPercent)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
	assert.Equal(t, ":7000", cfg.WebSocket.Addr)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "detector: [\n"))
		assert.ErrorContains(t, err, "parse config")
	})
	t.Run("bad chat id", func(t *testing.T) {
		t.Setenv("TELEGRAM_CHAT_ID", "abc")
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "TELEGRAM_CHAT_ID")
	})
	t.Run("bad poll interval", func(t *testing.T) {
		t.Setenv("POLL_INTERVAL", "soon")
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "POLL_INTERVAL")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"zero step", func(c *Config) { c.Detector.Step = 0 }, "detector.step"},
		{"negative depth", func(c *Config) { c.Detector.Depth = -1 }, "detector.depth"},
		{"negative threshold", func(c *Config) { c.Detector.MinAbsPercent = -0.1 }, "min_abs_percent"},
		{"zero poll interval", func(c *Config) { c.Detector.PollInterval = 0 }, "poll_interval"},
		{"zero workers", func(c *Config) { c.Detector.MaxWorkers = 0 }, "max_workers"},
		{"zero limit", func(c *Config) { c.DataSource.Limit = 0 }, "data_source.limit"},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "x" }, "chat_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}
