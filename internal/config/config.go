package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL         string `yaml:"base_url"`
		APIKey          string `yaml:"api_key"`
		TargetSymbol    string `yaml:"target_symbol"`
		ReferenceSymbol string `yaml:"reference_symbol"`
		QuoteCurrency   string `yaml:"quote_currency"`
		Limit           int    `yaml:"limit"`
		Mock            bool   `yaml:"mock"`
	} `yaml:"data_source"`
	Detector struct {
		Step                   int           `yaml:"step"`
		Depth                  int           `yaml:"depth"`
		MinAbsPercent          float64       `yaml:"min_abs_percent"`
		MaxTrials              int           `yaml:"max_trials"`
		PollInterval           time.Duration `yaml:"poll_interval"`
		DispatchYield          time.Duration `yaml:"dispatch_yield"`
		MaxWorkers             int           `yaml:"max_workers"`
		MaxConsecutiveFailures int           `yaml:"max_consecutive_failures"`
	} `yaml:"detector"`
	Schedule struct {
		DailyReportCron string `yaml:"daily_report_cron"`
		StatsCron       string `yaml:"stats_cron"`
		ReportLimit     int    `yaml:"report_limit"`
	} `yaml:"schedule"`
	WebSocket struct {
		Addr string `yaml:"addr"`
	} `yaml:"websocket"`
	Stats struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"stats"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Default returns the configuration used for anything the file and the
// environment leave unset.
func Default() *Config {
	cfg := &Config{}
	cfg.DataSource.BaseURL = "https://min-api.cryptocompare.com"
	cfg.DataSource.TargetSymbol = "ETH"
	cfg.DataSource.ReferenceSymbol = "BTC"
	cfg.DataSource.QuoteCurrency = "USDT"
	cfg.DataSource.Limit = 1440

	cfg.Detector.Step = 2
	cfg.Detector.Depth = 4
	cfg.Detector.MinAbsPercent = 1.0
	cfg.Detector.PollInterval = 5 * time.Second
	cfg.Detector.DispatchYield = 5 * time.Millisecond
	cfg.Detector.MaxWorkers = 8
	cfg.Detector.MaxConsecutiveFailures = 5

	cfg.Schedule.DailyReportCron = "0 0 9 * * *"
	cfg.Schedule.StatsCron = "0 0 * * * *"
	cfg.Schedule.ReportLimit = 1440

	cfg.Stats.StateFile = "data/detector_stats.json"
	cfg.Database.SQLitePath = "data/move_sentinel.db"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads config from a YAML file on top of the defaults, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("CRYPTOCOMPARE_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("CRYPTOCOMPARE_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse POLL_INTERVAL: %w", err)
		}
		c.Detector.PollInterval = d
	}
	if v := os.Getenv("MIN_ABS_PERCENT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse MIN_ABS_PERCENT: %w", err)
		}
		c.Detector.MinAbsPercent = f
	}
	if v := os.Getenv("WS_ADDR"); v != "" {
		c.WebSocket.Addr = v
	}
	return nil
}

// Validate checks that the detection parameters are usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Detector.Step <= 0 {
		errs = append(errs, errors.New("detector.step must be positive"))
	}
	if c.Detector.Depth < 0 {
		errs = append(errs, errors.New("detector.depth must not be negative"))
	}
	if c.Detector.MinAbsPercent < 0 {
		errs = append(errs, errors.New("detector.min_abs_percent must not be negative"))
	}
	if c.Detector.MaxTrials < 0 {
		errs = append(errs, errors.New("detector.max_trials must not be negative"))
	}
	if c.Detector.PollInterval <= 0 {
		errs = append(errs, errors.New("detector.poll_interval must be positive"))
	}
	if c.Detector.MaxWorkers <= 0 {
		errs = append(errs, errors.New("detector.max_workers must be positive"))
	}
	if c.DataSource.Limit <= 0 {
		errs = append(errs, errors.New("data_source.limit must be positive"))
	}
	if c.Schedule.ReportLimit <= 0 {
		errs = append(errs, errors.New("schedule.report_limit must be positive"))
	}
	if c.DataSource.TargetSymbol == "" || c.DataSource.ReferenceSymbol == "" {
		errs = append(errs, errors.New("data_source.target_symbol and reference_symbol are required"))
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("telegram.chat_id is required when bot_token is set"))
	}
	return errors.Join(errs...)
}

// TelegramEnabled reports whether Telegram delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != 0
}
