// Package config loads daemon and CLI settings.
package config

import (
	"fmt"
	"os"
	"time"

	"PortfolioLedger/internal/strategy"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// PlanConfig is one recurring dollar-cost averaging plan. Symbols and
// Weights are colon-separated and aligned, e.g. "AAPL:MSFT" and "60:40".
// An empty Portfolio creates a flexible portfolio on the first run.
type PlanConfig struct {
	ID         string  `yaml:"id"`
	Portfolio  string  `yaml:"portfolio"`
	Cron       string  `yaml:"cron"`
	Amount     float64 `yaml:"amount"`
	FeePercent float64 `yaml:"fee_percent"`
	Symbols    string  `yaml:"symbols"`
	Weights    string  `yaml:"weights"`
}

// Allocations parses Symbols and Weights.
func (p PlanConfig) Allocations() ([]strategy.Allocation, error) {
	return strategy.ParseAllocations(p.Symbols, p.Weights)
}

// Config holds all application configuration.
type Config struct {
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	DataSource struct {
		Provider string        `yaml:"provider"`
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"data_source"`
	Storage struct {
		Backend    string `yaml:"backend"`
		Dir        string `yaml:"dir"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Directory struct {
		ListingFile string `yaml:"listing_file"`
	} `yaml:"directory"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Plans      []PlanConfig `yaml:"plans"`
		DigestCron string       `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Fund struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"fund"`
	Server struct {
		Addr        string   `yaml:"addr"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy"`
}

const (
	ProviderAlphaVantage = "alphavantage"
	ProviderYahoo        = "yahoo"

	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// CronParser accepts the six-field (with seconds) expressions used by the scheduler.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Load reads config from a YAML file, then .env, then environment variable overrides.
func Load(path string) (*Config, error) {
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

	// A missing .env is fine.
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"LOG_LEVEL":            &c.Log.Level,
		"PRICE_PROVIDER":       &c.DataSource.Provider,
		"PRICE_BASE_URL":       &c.DataSource.BaseURL,
		"ALPHAVANTAGE_API_KEY": &c.DataSource.APIKey,
		"STORAGE_BACKEND":      &c.Storage.Backend,
		"PORTFOLIO_DIR":        &c.Storage.Dir,
		"PORTFOLIO_DB":         &c.Storage.SQLitePath,
		"LISTING_FILE":         &c.Directory.ListingFile,
		"SQLITE_PATH":          &c.Database.SQLitePath,
		"TELEGRAM_BOT_TOKEN":   &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":     &c.Telegram.ChatID,
		"FUND_STATE_FILE":      &c.Fund.StateFile,
		"SERVER_ADDR":          &c.Server.Addr,
		"HTTPS_PROXY":          &c.Proxy,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
	if v := os.Getenv("PRICE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DataSource.CacheTTL = d
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderAlphaVantage
	}
	if c.DataSource.CacheTTL == 0 {
		c.DataSource.CacheTTL = 6 * time.Hour
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFile
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "data/portfolios"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/portfolios.db"
	}
	if c.Directory.ListingFile == "" {
		c.Directory.ListingFile = "data/listing_status.csv"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/portfolio_ledger.db"
	}
	if c.Fund.StateFile == "" {
		c.Fund.StateFile = "data/fund_state.json"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate checks provider and backend names and every plan definition.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderAlphaVantage:
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for %s", ProviderAlphaVantage)
		}
	case ProviderYahoo:
	default:
		return fmt.Errorf("data_source.provider must be %q or %q, got %q", ProviderAlphaVantage, ProviderYahoo, c.DataSource.Provider)
	}
	if c.DataSource.CacheTTL < 0 {
		return fmt.Errorf("data_source.cache_ttl must not be negative")
	}
	if c.Storage.Backend != BackendFile && c.Storage.Backend != BackendSQLite {
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendFile, BackendSQLite, c.Storage.Backend)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when a bot token is set")
	}
	if c.Schedule.DigestCron != "" {
		if _, err := CronParser.Parse(c.Schedule.DigestCron); err != nil {
			return fmt.Errorf("schedule.digest_cron: %w", err)
		}
	}

	seen := make(map[string]bool)
	for i, p := range c.Schedule.Plans {
		if p.ID == "" {
			return fmt.Errorf("schedule.plans[%d].id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("schedule.plans: duplicate id %q", p.ID)
		}
		seen[p.ID] = true
		if _, err := CronParser.Parse(p.Cron); err != nil {
			return fmt.Errorf("plan %s: cron: %w", p.ID, err)
		}
		if p.Amount <= 0 {
			return fmt.Errorf("plan %s: amount must be positive", p.ID)
		}
		if p.FeePercent < strategy.MinFeePercent || p.FeePercent > strategy.MaxFeePercent {
			return fmt.Errorf("plan %s: fee_percent must be between %d and %d", p.ID, strategy.MinFeePercent, strategy.MaxFeePercent)
		}
		if _, err := p.Allocations(); err != nil {
			return fmt.Errorf("plan %s: %w", p.ID, err)
		}
	}
	return nil
}
