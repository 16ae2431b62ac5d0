package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"TradeAgent/internal/analysis/plan"
	"TradeAgent/internal/analysis/sr"
	"TradeAgent/internal/analysis/trend"
	"TradeAgent/internal/backtest/inertia"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		FactsTopic   string   `yaml:"facts_topic" default:"market.facts"`
		PlansTopic   string   `yaml:"plans_topic" default:"market.plans"`
		CandlesTopic string   `yaml:"candles_topic" default:"market.candles"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"tradeagent-ingest"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"tradeagent"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Binance struct {
		RESTBaseURL    string        `yaml:"rest_base_url" default:"https://api.binance.com"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://stream.binance.com:9443/ws"`
		Symbols        []string      `yaml:"symbols"`
		Intervals      []string      `yaml:"intervals"`
		PageLimit      int           `yaml:"page_limit" default:"1000"`
		RequestTimeout time.Duration `yaml:"request_timeout" default:"10s"`
		RetryMax       int           `yaml:"retry_max" default:"5"`
		RetryBackoff   time.Duration `yaml:"retry_backoff" default:"1s"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"binance"`
	Ingest struct {
		Backend         string `yaml:"backend" default:"clickhouse"`
		MaxEPS          int    `yaml:"max_eps" default:"20"`
		BufferSize      int    `yaml:"buffer_size" default:"1000"`
		GapThreshold    int    `yaml:"gap_threshold" default:"5"`
		BackfillOnStart bool   `yaml:"backfill_on_start"`
	} `yaml:"ingest"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr" default:"localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		FactsTTL time.Duration `yaml:"facts_ttl" default:"5m"`
	} `yaml:"redis"`
	Analysis struct {
		Version  string         `yaml:"version" default:"v1"`
		Lookback int            `yaml:"lookback" default:"1000"`
		Trend    trend.Params   `yaml:"trend"`
		SR       sr.Params      `yaml:"sr"`
		Risk     plan.RiskParams `yaml:"risk"`
		Inertia  inertia.Params `yaml:"inertia"`
	} `yaml:"analysis"`
	Backtest struct {
		FeeBps   float64 `yaml:"fee_bps" default:"2"`
		ZoneMult float64 `yaml:"zone_mult" default:"1.5"`
	} `yaml:"backtest"`
}

// Load reads and parses a YAML configuration file. Defaults are applied
// before parsing so the file only needs to name what it overrides.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Binance.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Binance.Symbols) == 0 {
		return fmt.Errorf("binance.symbols cannot be empty")
	}
	if len(c.Binance.Intervals) == 0 {
		return fmt.Errorf("binance.intervals cannot be empty")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	switch c.Ingest.Backend {
	case "kafka", "clickhouse":
	default:
		return fmt.Errorf("ingest.backend must be kafka or clickhouse, got %q", c.Ingest.Backend)
	}
	if c.Ingest.Backend == "kafka" && !c.Kafka.Enabled {
		return fmt.Errorf("ingest.backend kafka requires kafka.enabled")
	}
	return nil
}
