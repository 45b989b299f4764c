package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	applogger "FinSignal/pkg/logger"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Log         applogger.Config `yaml:"log"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"1s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Postgres struct {
		DSN           string        `yaml:"dsn"`
		MaxOpenConns  int           `yaml:"max_open_conns" default:"20"`
		MaxIdleConns  int           `yaml:"max_idle_conns" default:"5"`
		ConnLifetime  time.Duration `yaml:"conn_lifetime" default:"30m"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"500ms"`
		AutoMigrate   bool          `yaml:"auto_migrate" default:"true"`
	} `yaml:"postgres"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"default"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"ohlc_bars"`
		UseHTTP          bool          `yaml:"use_http"`
		InitSchema       bool          `yaml:"init_schema"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		ConnLifetime     time.Duration `yaml:"conn_lifetime" default:"5m"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled      bool          `yaml:"enabled"`
		Addr         string        `yaml:"addr" default:"localhost:6379"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		Prefix       string        `yaml:"prefix" default:"finsignal"`
		PoolSize     int           `yaml:"pool_size" default:"10"`
		MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
		PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Compression  string   `yaml:"compression" default:"snappy"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Topics       struct {
			OHLCUpdated   string `yaml:"ohlc_updated" default:"ohlc.updated"`
			SignalCreated string `yaml:"signal_created" default:"signal.created"`
			SignalClosed  string `yaml:"signal_closed" default:"signal.closed"`
		} `yaml:"topics"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"finsignal"`
			Workers    int           `yaml:"workers" default:"1"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"10s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Pipeline struct {
		Symbols      []string      `yaml:"symbols"`
		Intervals    []string      `yaml:"intervals"`
		Workers      int           `yaml:"workers" default:"4"`
		UnitTimeout  time.Duration `yaml:"unit_timeout" default:"2m"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"30m"`
		HistoryLimit int           `yaml:"history_limit" default:"1000"`
		LockTTL      time.Duration `yaml:"lock_ttl" default:"5m"`
		RunTTL       time.Duration `yaml:"run_ttl" default:"168h"`
		// Schedule is a cron expression with a seconds field; empty disables
		// the scheduled batch.
		Schedule string `yaml:"schedule" default:"0 5 * * * *"`
	} `yaml:"pipeline"`
	Scoring struct {
		TrendBase          float64 `yaml:"trend_base"`
		ReversionBase      float64 `yaml:"reversion_base"`
		HoldBelow          float64 `yaml:"hold_below"`
		CautiousBelow      float64 `yaml:"cautious_below"`
		TrendingBonus      float64 `yaml:"trending_bonus"`
		VolumeRatioMin     float64 `yaml:"volume_ratio_min"`
		VolumeBonus        float64 `yaml:"volume_bonus"`
		MACDBonus          float64 `yaml:"macd_bonus"`
		ReversionProximity float64 `yaml:"reversion_proximity"`
		HistoryWindow      int     `yaml:"history_window"`
	} `yaml:"scoring"`
	Regime struct {
		TrendADX      float64 `yaml:"trend_adx" default:"25"`
		TrendMaxInPct float64 `yaml:"trend_max_in_pct" default:"55"`
		RangeADX      float64 `yaml:"range_adx" default:"20"`
		RangeMinInPct float64 `yaml:"range_min_in_pct" default:"70"`
		TieBreakADX   float64 `yaml:"tie_break_adx" default:"22"`
	} `yaml:"regime"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled" default:"true"`
		RPS     float64 `yaml:"rps" default:"10"`
		Burst   int     `yaml:"burst" default:"20"`
	} `yaml:"ratelimit"`
}

// DefaultSymbols is the universe used when none is configured.
var DefaultSymbols = []string{
	"BTC/USD", "ETH/USD", "SOL/USD", "DOGE/USD", "BCH/USD",
	"LTC/USD", "XRP/USD", "LINK/USD", "ETH/BTC",
}

// Load reads a YAML file and applies defaults. It does not validate.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes over the defaults, so explicit false and zero
// values in the file are kept.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(c.Pipeline.Symbols) == 0 {
		c.Pipeline.Symbols = append([]string(nil), DefaultSymbols...)
	}
	return &c, nil
}

// LoadWithEnv loads the file, applies environment overrides and validates.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("SYMBOLS"); v != "" {
		c.Pipeline.Symbols = splitList(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if len(c.Pipeline.Symbols) == 0 {
		return fmt.Errorf("pipeline.symbols cannot be empty")
	}
	for _, iv := range c.Pipeline.Intervals {
		switch iv {
		case "1H", "4H", "1D", "1W":
		default:
			return fmt.Errorf("pipeline.intervals: unsupported interval %q", iv)
		}
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("ratelimit.rps must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
