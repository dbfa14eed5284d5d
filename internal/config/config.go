package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"PriceOracle/internal/forecast"
	"PriceOracle/internal/pipeline"
	"PriceOracle/internal/steam"
)

// DefaultUSDRate is the fallback USD multiplier used when no live rate is configured.
const DefaultUSDRate = 82.18

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		// RequestsPerMinute throttles outbound listing fetches across all chats.
		RequestsPerMinute int `yaml:"requests_per_minute"`
	} `yaml:"telegram"`
	Steam struct {
		BaseURL  string        `yaml:"base_url"`
		Country  string        `yaml:"country"`
		Language string        `yaml:"language"`
		Currency string        `yaml:"currency"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"steam"`
	Currency struct {
		USDRate     float64       `yaml:"usd_rate"`
		LiveURL     string        `yaml:"live_url"`
		LivePath    string        `yaml:"live_path"`
		LiveTimeout time.Duration `yaml:"live_timeout"`
	} `yaml:"currency"`
	Forecast struct {
		Lags            int    `yaml:"lags"`
		Days            int    `yaml:"days"`
		Model           string `yaml:"model"`
		MinTrainingRows int    `yaml:"min_training_rows"`
		Seed            uint64 `yaml:"seed"`
	} `yaml:"forecast"`
	Schedule struct {
		PruneCron string `yaml:"prune_cron"`
		Retention int    `yaml:"retention_days"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
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

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("FORECAST_LAGS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("FORECAST_LAGS: %w", err)
		}
		cfg.Forecast.Lags = n
	}
	if v := os.Getenv("FORECAST_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("FORECAST_DAYS: %w", err)
		}
		cfg.Forecast.Days = n
	}
	if v := os.Getenv("FORECAST_MODEL"); v != "" {
		cfg.Forecast.Model = v
	}
	if v := os.Getenv("USD_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("USD_RATE: %w", err)
		}
		cfg.Currency.USDRate = rate
	}
	if v := os.Getenv("CURRENCY_LIVE_URL"); v != "" {
		cfg.Currency.LiveURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	// Defaults
	if cfg.Telegram.RequestsPerMinute == 0 {
		cfg.Telegram.RequestsPerMinute = 20
	}
	if cfg.Steam.BaseURL == "" {
		cfg.Steam.BaseURL = steam.DefaultBaseURL
	}
	if cfg.Steam.Country == "" {
		cfg.Steam.Country = "EU"
	}
	if cfg.Steam.Language == "" {
		cfg.Steam.Language = "english"
	}
	if cfg.Steam.Currency == "" {
		cfg.Steam.Currency = "1"
	}
	if cfg.Steam.Timeout == 0 {
		cfg.Steam.Timeout = 30 * time.Second
	}
	if cfg.Currency.USDRate == 0 {
		cfg.Currency.USDRate = DefaultUSDRate
	}
	if cfg.Currency.LivePath == "" {
		cfg.Currency.LivePath = "RUB.0.0"
	}
	if cfg.Currency.LiveTimeout == 0 {
		cfg.Currency.LiveTimeout = 5 * time.Second
	}
	if cfg.Forecast.Lags == 0 {
		cfg.Forecast.Lags = 7
	}
	if cfg.Forecast.Days == 0 {
		cfg.Forecast.Days = 7
	}
	if cfg.Forecast.Model == "" {
		cfg.Forecast.Model = string(forecast.ModelBoosting)
	}
	if cfg.Forecast.Seed == 0 {
		cfg.Forecast.Seed = forecast.DefaultSeed
	}
	if cfg.Schedule.PruneCron == "" {
		cfg.Schedule.PruneCron = "0 30 3 * * *"
	}
	if cfg.Schedule.Retention == 0 {
		cfg.Schedule.Retention = 30
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/price_oracle.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	return cfg, nil
}

// Validate checks the settings every entry point needs.
func (c *Config) Validate() error {
	if c.Forecast.Lags <= 0 {
		return fmt.Errorf("forecast.lags must be positive")
	}
	if c.Forecast.Days <= 0 {
		return fmt.Errorf("forecast.days must be positive")
	}
	if c.Forecast.MinTrainingRows < 0 {
		return fmt.Errorf("forecast.min_training_rows must not be negative")
	}
	if _, err := forecast.ParseModelKind(c.Forecast.Model); err != nil {
		return fmt.Errorf("forecast.model: %w", err)
	}
	if c.Currency.USDRate <= 0 && c.Currency.LiveURL == "" {
		return fmt.Errorf("currency.usd_rate must be positive when no live_url is set")
	}
	if c.Steam.Timeout < 0 {
		return fmt.Errorf("steam.timeout must not be negative")
	}
	if c.Telegram.RequestsPerMinute < 0 {
		return fmt.Errorf("telegram.requests_per_minute must not be negative")
	}
	return nil
}

// ValidateBot checks the additional settings the chat bot needs.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Schedule.Retention < 0 {
		return fmt.Errorf("schedule.retention_days must not be negative")
	}
	return nil
}

// Pipeline projects the read-only pipeline configuration.
func (c *Config) Pipeline() pipeline.Config {
	model, _ := forecast.ParseModelKind(c.Forecast.Model)
	return pipeline.Config{
		Lags:            c.Forecast.Lags,
		Horizon:         c.Forecast.Days,
		MinTrainingRows: c.Forecast.MinTrainingRows,
		Model:           model,
		Seed:            c.Forecast.Seed,
		FallbackRate:    c.Currency.USDRate,
		LiveRateURL:     c.Currency.LiveURL,
		LiveRatePath:    c.Currency.LivePath,
		LiveRateTimeout: c.Currency.LiveTimeout,
		Steam: steam.ClientConfig{
			BaseURL:  c.Steam.BaseURL,
			Country:  c.Steam.Country,
			Language: c.Steam.Language,
			Currency: c.Steam.Currency,
			Timeout:  c.Steam.Timeout,
			Proxy:    c.Proxy,
		},
	}
}
