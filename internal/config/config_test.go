package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
data_source:
  provider: alphavantage
  api_key: demo
  cache_ttl: 30m
storage:
  backend: sqlite
schedule:
  digest_cron: "0 0 18 * * 1-5"
  plans:
    - id: weekly
      cron: "0 0 9 * * 1"
      amount: 500
      fee_percent: 1
      symbols: "aapl:MSFT"
      weights: "60:40"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadYAMLAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Minute, cfg.DataSource.CacheTTL)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "data/portfolios", cfg.Storage.Dir)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	require.Len(t, cfg.Schedule.Plans, 1)

	allocs, err := cfg.Schedule.Plans[0].Allocations()
	require.NoError(t, err)
	assert.Equal(t, "AAPL", allocs[0].Symbol)
	assert.Equal(t, 40.0, allocs[1].Weight)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ProviderAlphaVantage, cfg.DataSource.Provider)
	assert.Equal(t, 6*time.Hour, cfg.DataSource.CacheTTL)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PRICE_PROVIDER", "yahoo")
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("PORTFOLIO_DIR", "/tmp/ledgers")
	t.Setenv("PRICE_CACHE_TTL", "5m")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "1")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, ProviderYahoo, cfg.DataSource.Provider)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/ledgers", cfg.Storage.Dir)
	assert.Equal(t, 5*time.Minute, cfg.DataSource.CacheTTL)
	assert.Equal(t, "tok", cfg.Telegram.BotToken)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"missing api key", func(c *Config) { c.DataSource.APIKey = "" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "tok" }},
		{"bad digest cron", func(c *Config) { c.Schedule.DigestCron = "every day" }},
		{"plan without id", func(c *Config) { c.Schedule.Plans[0].ID = "" }},
		{"duplicate plan", func(c *Config) { c.Schedule.Plans = append(c.Schedule.Plans, c.Schedule.Plans[0]) }},
		{"five-field cron", func(c *Config) { c.Schedule.Plans[0].Cron = "0 9 * * 1" }},
		{"zero amount", func(c *Config) { c.Schedule.Plans[0].Amount = 0 }},
		{"fee too high", func(c *Config) { c.Schedule.Plans[0].FeePercent = 75 }},
		{"misaligned weights", func(c *Config) { c.Schedule.Plans[0].Weights = "100" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, sample))
			require.NoError(t, err)
			tt.edit(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
