package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"mocktrade/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the simulator looks for its configuration.
const DefaultConfigPath = "configs/config.yaml"

// Config holds every setting of the simulator.
// LoadConfig reads it from YAML, then lets MOCKTRADE_* environment
// variables (optionally from a .env file) override individual values.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Account struct {
		Name         string       `yaml:"name"`
		InitialFunds domain.Money `yaml:"initial_funds"`
	} `yaml:"account"`

	Quotes struct {
		Tape           string `yaml:"tape"`
		MaxAgeSec      int    `yaml:"max_age_sec"` // 0 disables the freshness check
		Retries        int    `yaml:"retries"`
		RetryBackoffMS int    `yaml:"retry_backoff_ms"`
	} `yaml:"quotes"`

	Strategy struct {
		Symbol              string          `yaml:"symbol"`
		ShortPeriod         int             `yaml:"short_period"`
		LongPeriod          int             `yaml:"long_period"`
		OrderQuantity       int64           `yaml:"order_quantity"`
		TrailingStopPercent decimal.Decimal `yaml:"trailing_stop_percent"` // 0 disables protective stops
	} `yaml:"strategy"`

	Engine struct {
		InboxSize int    `yaml:"inbox_size"`
		DumpFile  string `yaml:"dump_file"`
	} `yaml:"engine"`

	Storage struct {
		Path string `yaml:"path"` // empty uses DefaultPath, ":memory:" keeps nothing
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// LoadConfig reads and validates the configuration at path.
// envFiles are loaded with godotenv first (".env" when none are given);
// a missing env file is not an error.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &domain.ConfigError{Field: "env", Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.ConfigError{Field: path, Err: domain.ErrConfigNotFound}
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &domain.ConfigError{Field: path, Err: err}
	}

	// Environment overrides win over the file
	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the values used for keys the file leaves out.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "mocktrade"
	cfg.Account.Name = "default"
	cfg.Account.InitialFunds = domain.MustParseMoney("10000")
	cfg.Quotes.Retries = 3
	cfg.Quotes.RetryBackoffMS = 200
	cfg.Strategy.ShortPeriod = 3
	cfg.Strategy.LongPeriod = 5
	cfg.Strategy.OrderQuantity = 10
	cfg.Engine.InboxSize = 1024
	cfg.Engine.DumpFile = "panic_dump.json"
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return cfg
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Account.Name) == "" {
		return &domain.ConfigError{Field: "account.name", Err: errors.New("must not be empty")}
	}
	if c.Account.InitialFunds.IsNegative() {
		return &domain.ConfigError{Field: "account.initial_funds", Err: errors.New("must not be negative")}
	}
	if c.Quotes.Tape == "" {
		return &domain.ConfigError{Field: "quotes.tape", Err: errors.New("a quote tape is required")}
	}
	if c.Quotes.MaxAgeSec < 0 || c.Quotes.Retries < 1 || c.Quotes.RetryBackoffMS < 0 {
		return &domain.ConfigError{Field: "quotes", Err: errors.New("max_age_sec and retry_backoff_ms must be >= 0, retries >= 1")}
	}

	if c.Strategy.Symbol != "" {
		if c.Strategy.ShortPeriod < 1 || c.Strategy.ShortPeriod >= c.Strategy.LongPeriod {
			return &domain.ConfigError{Field: "strategy", Err: fmt.Errorf("need 1 <= short_period < long_period, got %d/%d", c.Strategy.ShortPeriod, c.Strategy.LongPeriod)}
		}
		if c.Strategy.OrderQuantity <= 0 || c.Strategy.OrderQuantity > domain.MaxOrderQuantity {
			return &domain.ConfigError{Field: "strategy.order_quantity", Err: fmt.Errorf("must be in [1, %d]", domain.MaxOrderQuantity)}
		}
	}
	pct := c.Strategy.TrailingStopPercent
	if pct.IsNegative() || pct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return &domain.ConfigError{Field: "strategy.trailing_stop_percent", Err: fmt.Errorf("%s is outside [0, 100)", pct)}
	}

	if c.Engine.InboxSize <= 0 {
		return &domain.ConfigError{Field: "engine.inbox_size", Err: errors.New("must be positive")}
	}

	return nil
}

// SlogLevel maps Logging.Level to a slog level (info by default).
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// overrideWithEnv overwrites values for every MOCKTRADE_* variable that is set.
func overrideWithEnv(cfg *Config) error {
	if name := os.Getenv("MOCKTRADE_ACCOUNT_NAME"); name != "" {
		cfg.Account.Name = name
	}
	if funds := os.Getenv("MOCKTRADE_ACCOUNT_FUNDS"); funds != "" {
		m, err := domain.ParseMoney(funds)
		if err != nil {
			return &domain.ConfigError{Field: "MOCKTRADE_ACCOUNT_FUNDS", Err: err}
		}
		cfg.Account.InitialFunds = m
	}
	if tape := os.Getenv("MOCKTRADE_TAPE"); tape != "" {
		cfg.Quotes.Tape = tape
	}
	if symbol := os.Getenv("MOCKTRADE_STRATEGY_SYMBOL"); symbol != "" {
		cfg.Strategy.Symbol = strings.ToUpper(symbol)
	}
	if path := os.Getenv("MOCKTRADE_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if level := os.Getenv("MOCKTRADE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}
