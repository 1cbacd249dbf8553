package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"MarketForecast/internal/forecast"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr         string        `yaml:"addr" default:":8080" validate:"required"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5m"`
		CORS         bool          `yaml:"cors"`
	} `yaml:"server"`
	DataSource struct {
		Provider          string        `yaml:"provider" default:"yahoo" validate:"oneof=yahoo mock"`
		Proxy             string        `yaml:"proxy"`
		HistoryDays       int           `yaml:"history_days" default:"730" validate:"gte=1"`
		Intraday          *bool         `yaml:"intraday" default:"true"`
		RequestsPerSecond float64       `yaml:"requests_per_second" default:"2" validate:"gte=0"`
		MaxRetries        *int          `yaml:"max_retries" default:"3" validate:"omitempty,gte=0,lte=10"`
		RetryBaseDelay    time.Duration `yaml:"retry_base_delay" default:"1s"`
	} `yaml:"data_source"`
	Forecast forecast.Config `yaml:"forecast"`
	Cache    struct {
		TTL           time.Duration `yaml:"ttl" default:"1h"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
	} `yaml:"cache"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" default:"0 0 22 * * 1-5"`
		RunOnStart  bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Watchlist []string `yaml:"watchlist" default:"[\"AAPL\",\"MSFT\",\"NVDA\",\"AMZN\",\"GOOGL\",\"META\",\"TSLA\",\"AVGO\",\"COST\",\"PEP\",\"ADBE\",\"CSCO\",\"NFLX\",\"AMD\",\"TMUS\",\"INTC\",\"QCOM\",\"TXN\",\"HON\",\"AMGN\"]"`
	Database  struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/forecaster.db"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file yields the defaults.
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
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.DataSource.Proxy = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Schedule.RunOnStart = b
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	for i, t := range cfg.Watchlist {
		cfg.Watchlist[i], _ = forecast.NormalizeTicker(t)
	}
	return cfg, nil
}

// IntradayEnabled reports whether intraday bars should be fetched.
func (c *Config) IntradayEnabled() bool {
	return c.DataSource.Intraday == nil || *c.DataSource.Intraday
}

// RetryAttempts returns how many times a failed fetch is retried.
// An explicit zero disables retries.
func (c *Config) RetryAttempts() int {
	if c.DataSource.MaxRetries == nil {
		return 3
	}
	return *c.DataSource.MaxRetries
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks field ranges and the refresh schedule.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist must not be empty")
	}
	for _, t := range c.Watchlist {
		if _, ok := forecast.NormalizeTicker(t); !ok {
			return fmt.Errorf("watchlist: invalid ticker %q", t)
		}
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.RefreshCron); err != nil {
		return fmt.Errorf("schedule.refresh_cron: %w", err)
	}
	return nil
}
