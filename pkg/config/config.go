package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"NatalChart/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		BodyLimit       string        `yaml:"body_limit"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
		// Error entries are aggregated and shipped to kafka.logs_topic when enabled.
		Collect       bool          `yaml:"collect"`
		FlushInterval time.Duration `yaml:"flush_interval"`
		FlushCount    int           `yaml:"flush_count"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Chart struct {
		HouseSystem         string             `yaml:"house_system"`
		FallbackHouseSystem string             `yaml:"fallback_house_system"`
		IncludeNodes        bool               `yaml:"include_nodes"`
		Workers             int                `yaml:"workers"`
		Timeout             time.Duration      `yaml:"timeout"`
		Orbs                map[string]float64 `yaml:"orbs"`
	} `yaml:"chart"`
	Cache struct {
		Enabled       bool          `yaml:"enabled"`
		TTL           time.Duration `yaml:"ttl"`
		MemoryMaxSize int           `yaml:"memory_max_size"`
		Redis         struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers"`
		RequestsTopic string   `yaml:"requests_topic"`
		EventsTopic   string   `yaml:"events_topic"`
		LogsTopic     string   `yaml:"logs_topic"`
		RequiredAcks  int      `yaml:"required_acks"`
		Compression   string   `yaml:"compression"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled"`
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"ratelimit"`
}

// Default returns a complete configuration with every external backend
// disabled, suitable for the CLI and tests.
func Default() *Config {
	c := &Config{Environment: "development"}

	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 10 * time.Second
	c.Server.ShutdownTimeout = 15 * time.Second
	c.Server.BodyLimit = "64K"

	c.Log.Level = "info"
	c.Log.Format = "console"
	c.Log.Output = "stdout"
	c.Log.FlushInterval = 30 * time.Second
	c.Log.FlushCount = 100

	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"

	c.Chart.HouseSystem = "placidus"
	c.Chart.FallbackHouseSystem = "porphyry"
	c.Chart.Timeout = 5 * time.Second

	c.Cache.Enabled = true
	c.Cache.TTL = 24 * time.Hour
	c.Cache.MemoryMaxSize = 1000
	c.Cache.Redis.Host = "localhost"
	c.Cache.Redis.Port = 6379
	c.Cache.Redis.PoolSize = 10
	c.Cache.Redis.Prefix = "natal"

	c.Kafka.RequestsTopic = "natal.chart.requests"
	c.Kafka.EventsTopic = "natal.chart.events"
	c.Kafka.LogsTopic = "natal.logs"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "snappy"
	c.Kafka.Consumer.GroupID = "natal-chart"
	c.Kafka.Consumer.Workers = 4
	c.Kafka.Consumer.BufferSize = 64
	c.Kafka.Consumer.RetryMax = 3
	c.Kafka.Consumer.BackoffMin = 50 * time.Millisecond
	c.Kafka.Consumer.BackoffMax = 2 * time.Second

	c.ClickHouse.Host = "localhost"
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "natal"
	c.ClickHouse.User = "default"

	c.RateLimit.Capacity = 20
	c.RateLimit.RefillPerSec = 5
	return c
}

// Load reads a YAML file over Default and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
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
	if v := getenv("NATAL_HOUSE_SYSTEM"); v != "" {
		c.Chart.HouseSystem = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("SERVER_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Host = host
		if ok {
			c.Cache.Redis.Port = util.ParseIntDefault(port, c.Cache.Redis.Port)
		}
		c.Cache.Redis.Enabled = true
	}
	if v := getenv("RATELIMIT_REFILL_PER_SEC"); v != "" {
		c.RateLimit.RefillPerSec = util.ParseFloatDefault(v, c.RateLimit.RefillPerSec)
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
}

var houseSystems = map[string]bool{"placidus": true, "equal": true, "whole_sign": true, "porphyry": true}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if !houseSystems[c.Chart.HouseSystem] {
		return fmt.Errorf("chart.house_system '%s' is not supported", c.Chart.HouseSystem)
	}
	if c.Chart.FallbackHouseSystem != "" && !houseSystems[c.Chart.FallbackHouseSystem] {
		return fmt.Errorf("chart.fallback_house_system '%s' is not supported", c.Chart.FallbackHouseSystem)
	}
	if c.Chart.Workers < 0 {
		return fmt.Errorf("chart.workers cannot be negative")
	}
	for name, orb := range c.Chart.Orbs {
		if orb < 0 || orb >= 90 {
			return fmt.Errorf("chart.orbs.%s must be in [0, 90), got %v", name, orb)
		}
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.EventsTopic == "" {
			return fmt.Errorf("kafka.events_topic is required")
		}
		if c.Kafka.Consumer.Enabled && c.Kafka.RequestsTopic == "" {
			return fmt.Errorf("kafka.requests_topic is required when the consumer is enabled")
		}
	}
	if c.Log.Collect && !c.Kafka.Enabled {
		return fmt.Errorf("log.collect requires kafka")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Database == "" {
		return fmt.Errorf("clickhouse.database is required")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Capacity < 1 || c.RateLimit.RefillPerSec <= 0) {
		return fmt.Errorf("ratelimit needs capacity >= 1 and refill_per_sec > 0")
	}
	return nil
}
