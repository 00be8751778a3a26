// Package config loads the engine configuration from a YAML file with
// environment-variable overrides for deployment secrets.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Vendor   VendorConfig   `yaml:"vendor"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Rules    RulesConfig    `yaml:"rules"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GetHost returns the listen host, honoring container environments where
// the server must bind all interfaces.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the optional preview-cache settings.
type RedisConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Addr              string `yaml:"addr"`
	PreviewTTLSeconds int    `yaml:"preview_ttl_seconds"`
}

// PreviewTTL returns the preview cache TTL as a duration.
func (c RedisConfig) PreviewTTL() time.Duration {
	return time.Duration(c.PreviewTTLSeconds) * time.Second
}

// VendorConfig selects and tunes the delivery vendor. An empty BaseURL
// uses the in-process simulator.
type VendorConfig struct {
	BaseURL        string  `yaml:"base_url"`
	SuccessRate    float64 `yaml:"success_rate"`
	MaxLatencyMs   int     `yaml:"max_latency_ms"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// Timeout returns the vendor call timeout as a duration.
func (c VendorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MaxLatency returns the simulator's latency bound as a duration.
func (c VendorConfig) MaxLatency() time.Duration {
	return time.Duration(c.MaxLatencyMs) * time.Millisecond
}

// DispatchConfig tunes the delivery pipeline batching.
type DispatchConfig struct {
	InsertBatchSize   int `yaml:"insert_batch_size"`
	DeliveryBatchSize int `yaml:"delivery_batch_size"`
	BatchPauseSeconds int `yaml:"batch_pause_seconds"`
	QueueSize         int `yaml:"queue_size"`
}

// BatchPause returns the inter-batch backpressure delay.
func (c DispatchConfig) BatchPause() time.Duration {
	return time.Duration(c.BatchPauseSeconds) * time.Second
}

// RulesConfig selects the rule-group combinator.
type RulesConfig struct {
	// StrictANDGroups switches AND-groups to all-rules-must-match
	// semantics instead of the legacy inverted combinator.
	StrictANDGroups bool `yaml:"strict_and_groups"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.PreviewTTLSeconds == 0 {
		cfg.Redis.PreviewTTLSeconds = 30
	}
	if cfg.Vendor.SuccessRate == 0 {
		cfg.Vendor.SuccessRate = 0.9
	}
	if cfg.Vendor.MaxLatencyMs == 0 {
		cfg.Vendor.MaxLatencyMs = 1000
	}
	if cfg.Vendor.TimeoutSeconds == 0 {
		cfg.Vendor.TimeoutSeconds = 30
	}
	if cfg.Dispatch.InsertBatchSize == 0 {
		cfg.Dispatch.InsertBatchSize = 100
	}
	if cfg.Dispatch.DeliveryBatchSize == 0 {
		cfg.Dispatch.DeliveryBatchSize = 50
	}
	if cfg.Dispatch.BatchPauseSeconds == 0 {
		cfg.Dispatch.BatchPauseSeconds = 1
	}
	if cfg.Dispatch.QueueSize == 0 {
		cfg.Dispatch.QueueSize = 64
	}
}

// LoadFromEnv loads configuration with environment variable overrides. A
// .env file is loaded first when present, so secrets can live there locally
// and in real env vars on deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if baseURL := os.Getenv("VENDOR_BASE_URL"); baseURL != "" {
		cfg.Vendor.BaseURL = baseURL
	}
	if rate := os.Getenv("VENDOR_SUCCESS_RATE"); rate != "" {
		if v, err := strconv.ParseFloat(rate, 64); err == nil {
			cfg.Vendor.SuccessRate = v
		}
	}
	if strict := os.Getenv("STRICT_AND_GROUPS"); strict != "" {
		cfg.Rules.StrictANDGroups = strict == "true" || strict == "1"
	}

	return cfg, nil
}
