// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type SwiftPayConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	TillID  string `yaml:"till_id"`
}

type PollConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Interval    time.Duration `yaml:"interval"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty disables the redis layer entirely
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // outcome cache + pending entry lifetime
}

type RateLimitConfig struct {
	Limit  int           `yaml:"limit"` // initiations per phone per window; 0 disables
	Window time.Duration `yaml:"window"`
}

type ReconcilerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Workers  int           `yaml:"workers"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	SwiftPay   SwiftPayConfig   `yaml:"swiftpay"`
	Poll       PollConfig       `yaml:"poll"`
	Redis      RedisConfig      `yaml:"redis"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the yaml file when present, then applies environment
// overrides (SWIFTPAY_API_KEY, SWIFTPAY_TILL_ID, SWIFTPAY_BACKEND_URL,
// REDIS_URL, PORT). Running from environment alone is supported; a missing
// config file is not an error.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
		// env-only deployment
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	// env overrides
	if v := os.Getenv("SWIFTPAY_API_KEY"); v != "" {
		cfg.SwiftPay.APIKey = v
	}
	if v := os.Getenv("SWIFTPAY_TILL_ID"); v != "" {
		cfg.SwiftPay.TillID = v
	}
	if v := os.Getenv("SWIFTPAY_BACKEND_URL"); v != "" {
		cfg.SwiftPay.BaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Poll.MaxAttempts <= 0 {
		cfg.Poll.MaxAttempts = 12
	}
	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = 5 * time.Second
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = 30 * time.Second
	}
	if cfg.Reconciler.Workers <= 0 {
		cfg.Reconciler.Workers = 4
	}

	// Missing credentials are an operator problem and must stop the process
	// here, not surface later as a confusing client-facing error. Dev mode
	// swaps in the noop gateway and needs neither.
	if !dev {
		if cfg.SwiftPay.APIKey == "" {
			return nil, errors.New("swiftpay.api_key (SWIFTPAY_API_KEY) is required")
		}
		if cfg.SwiftPay.TillID == "" {
			return nil, errors.New("swiftpay.till_id (SWIFTPAY_TILL_ID) is required")
		}
	}
	if cfg.Reconciler.Enabled && cfg.Redis.URL == "" {
		return nil, errors.New("reconciler.enabled requires redis.url")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
