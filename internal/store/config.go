package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/trace"
	"lorentzian-trading-bot/internal/types"
)

type Config struct {
	Mode string `yaml:"mode"`

	Venue struct {
		Name          string  `yaml:"name"`
		Testnet       bool    `yaml:"testnet"`
		QuoteCurrency string  `yaml:"quote_currency"`
		APIKeyEnv     string  `yaml:"api_key_env"`
		SecretEnv     string  `yaml:"secret_env"`
		PaperBalance  float64 `yaml:"paper_balance"`
	} `yaml:"venue"`

	Schedule struct {
		Cycle        string `yaml:"cycle"`
		CycleTimeout string `yaml:"cycle_timeout"`
		EOD          string `yaml:"eod"`
	} `yaml:"schedule"`

	Worker struct {
		Python      string   `yaml:"python"`
		Script      string   `yaml:"script"`
		Args        []string `yaml:"args"`
		DataDir     string   `yaml:"data_dir"`
		PIDFile     string   `yaml:"pid_file"`
		ResultStore string   `yaml:"result_store"`
		LogFile     string   `yaml:"log_file"`
		Table       string   `yaml:"table"`
		Autostart   bool     `yaml:"autostart"`
	} `yaml:"worker"`

	Defaults struct {
		Symbol              string `yaml:"symbol"`
		Interval            string `yaml:"interval"`
		Limit               int    `yaml:"limit"`
		PredictionThreshold int    `yaml:"prediction_threshold"`
	} `yaml:"defaults"`

	Risk types.RiskConfig `yaml:"risk"`

	Settings struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		Seed   bool   `yaml:"seed"`
	} `yaml:"settings"`

	Cursor struct {
		Backend   string `yaml:"backend"`
		Path      string `yaml:"path"`
		RedisAddr string `yaml:"redis_addr"`
		RedisDB   int    `yaml:"redis_db"`
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"cursor"`

	TradeLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"tradelog"`

	Log     logger.LogConfig `yaml:"log"`
	Tracing trace.Config     `yaml:"tracing"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// DefaultRisk is the risk profile used when neither the file nor the settings store supply one.
var DefaultRisk = types.RiskConfig{
	StoplossFromAccountBalance:   0.23,
	TakeProfitFromAccountBalance: 0.30,
	StoplossFromCoin:             0.03,
	TakeProfitFromCoin:           0.023,
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Venue.Name == "" {
		return errors.New("venue.name cannot be empty")
	}
	if c.Defaults.Symbol == "" || c.Defaults.Interval == "" {
		return errors.New("defaults.symbol and defaults.interval are required")
	}
	if c.Defaults.Limit <= 0 {
		return fmt.Errorf("defaults.limit must be positive, got %d", c.Defaults.Limit)
	}
	if c.Defaults.PredictionThreshold < 0 {
		return fmt.Errorf("defaults.prediction_threshold must not be negative, got %d", c.Defaults.PredictionThreshold)
	}
	for name, v := range map[string]float64{
		"risk.stoploss_from_account_balance":    c.Risk.StoplossFromAccountBalance,
		"risk.take_profit_from_account_balance": c.Risk.TakeProfitFromAccountBalance,
		"risk.stoploss_from_coin":               c.Risk.StoplossFromCoin,
		"risk.take_profit_from_coin":            c.Risk.TakeProfitFromCoin,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %.4f", name, v)
		}
	}
	switch c.Settings.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("settings.driver must be 'sqlite' or 'postgres', got '%s'", c.Settings.Driver)
	}
	switch c.Cursor.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("cursor.backend must be 'memory', 'file' or 'redis', got '%s'", c.Cursor.Backend)
	}
	if c.Cursor.Backend == "redis" && c.Cursor.RedisAddr == "" {
		return errors.New("cursor.redis_addr is required for the redis backend")
	}
	if _, err := time.ParseDuration(c.Schedule.CycleTimeout); err != nil {
		return fmt.Errorf("schedule.cycle_timeout: %w", err)
	}
	return nil
}

// CycleTimeout is the per-cycle deadline applied to venue calls.
func (c *Config) CycleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Schedule.CycleTimeout)
	return d
}

// DefaultSettings is the settings snapshot described by the file alone.
func (c *Config) DefaultSettings() types.Settings {
	return types.Settings{
		Symbol:              c.Defaults.Symbol,
		Interval:            c.Defaults.Interval,
		Limit:               c.Defaults.Limit,
		PredictionThreshold: c.Defaults.PredictionThreshold,
		Risk:                c.Risk,
	}
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	c.Mode = strings.ToUpper(c.Mode)
	if c.Venue.Name == "" {
		c.Venue.Name = "binance"
	}
	if c.Venue.QuoteCurrency == "" {
		c.Venue.QuoteCurrency = "USDT"
	}
	if c.Venue.APIKeyEnv == "" {
		c.Venue.APIKeyEnv = "EXCHANGE_API_KEY"
	}
	if c.Venue.SecretEnv == "" {
		c.Venue.SecretEnv = "EXCHANGE_SECRET"
	}
	if c.Venue.PaperBalance == 0 {
		c.Venue.PaperBalance = 1000
	}

	if c.Schedule.Cycle == "" {
		c.Schedule.Cycle = "@every 1m"
	}
	if c.Schedule.CycleTimeout == "" {
		c.Schedule.CycleTimeout = "30s"
	}
	if c.Schedule.EOD == "" {
		c.Schedule.EOD = "0 5 0 * * *"
	}

	if c.Worker.Python == "" {
		c.Worker.Python = "python3"
	}
	if len(c.Worker.Args) == 0 {
		c.Worker.Args = []string{"{symbol}", "{interval}", "{limit}", "{result_store}"}
	}
	if c.Worker.DataDir == "" {
		c.Worker.DataDir = "data"
	}
	if c.Worker.PIDFile == "" {
		c.Worker.PIDFile = "lorentzian.pid"
	}
	if c.Worker.ResultStore == "" {
		c.Worker.ResultStore = "results.db"
	}
	if c.Worker.LogFile == "" {
		c.Worker.LogFile = "lorentzian.log"
	}
	if c.Worker.Table == "" {
		c.Worker.Table = "lorentzian_results"
	}

	if c.Defaults.Symbol == "" {
		c.Defaults.Symbol = "BTCUSDT"
	}
	if c.Defaults.Interval == "" {
		c.Defaults.Interval = "1m"
	}
	if c.Defaults.Limit == 0 {
		c.Defaults.Limit = 1000
	}
	if c.Defaults.PredictionThreshold == 0 {
		c.Defaults.PredictionThreshold = 6
	}
	if c.Risk == (types.RiskConfig{}) {
		c.Risk = DefaultRisk
	}

	if c.Settings.Driver == "" {
		c.Settings.Driver = "sqlite"
	}
	if c.Settings.DSN == "" && c.Settings.Driver == "sqlite" {
		c.Settings.DSN = filepath.Join(c.Worker.DataDir, "bot.db")
	}

	if c.Cursor.Backend == "" {
		c.Cursor.Backend = "file"
	}
	if c.Cursor.Path == "" {
		c.Cursor.Path = filepath.Join(c.Worker.DataDir, "cursor.json")
	}
	if c.Cursor.KeyPrefix == "" {
		c.Cursor.KeyPrefix = "lorentzian:cursor"
	}

	if c.TradeLog.Dir == "" {
		c.TradeLog.Dir = "logs"
	}
	if c.Log.Level == "" {
		c.Log.Level = "INFO"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// WorkerPath resolves a worker file name against the data directory.
func (c *Config) WorkerPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Worker.DataDir, name)
}
