// Package config holds the service settings. Defaults come first, then an
// optional YAML file named by SAMPLED_CONFIG, then environment variables,
// each layer overriding the one before it.
package config

import (
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the full set of service settings.
type Config struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	MaxFileSizeMB int `yaml:"max_file_size_mb"` // on-disk size cap per loaded file
	MaxCacheLines int `yaml:"max_cache_lines"`  // pool capacity
	MaxSampleSize int `yaml:"max_sample_size"`  // largest n a single sample may request

	RateLimitRPS   float64 `yaml:"rate_limit_rps"` // 0 disables rate limiting
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:           8000,
		LogLevel:       "info",
		MaxFileSizeMB:  500,
		MaxCacheLines:  10_000_000,
		MaxSampleSize:  1_000_000,
		RateLimitRPS:   20,
		RateLimitBurst: 40,
	}
}

// Load builds the effective configuration: defaults, then the YAML file from
// SAMPLED_CONFIG if set, then environment variables, validated at the end.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("SAMPLED_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.fromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) fromEnv() error {
	if err := envInt("PORT", &c.Port); err != nil {
		return err
	}
	if err := envInt("MAX_FILE_SIZE_MB", &c.MaxFileSizeMB); err != nil {
		return err
	}
	if err := envInt("MAX_CACHE_LINES", &c.MaxCacheLines); err != nil {
		return err
	}
	if err := envInt("MAX_SAMPLE_SIZE", &c.MaxSampleSize); err != nil {
		return err
	}
	if err := envInt("RATE_LIMIT_BURST", &c.RateLimitBurst); err != nil {
		return err
	}
	if s := os.Getenv("RATE_LIMIT_RPS"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		c.RateLimitRPS = f
	}
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		c.LogLevel = s
	}
	return nil
}

func envInt(key string, dst *int) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
	}
	if c.MaxFileSizeMB < 1 {
		return fmt.Errorf("max_file_size_mb must be >= 1, got %d", c.MaxFileSizeMB)
	}
	if c.MaxCacheLines < 1 {
		return fmt.Errorf("max_cache_lines must be >= 1, got %d", c.MaxCacheLines)
	}
	if c.MaxSampleSize < 1 {
		return fmt.Errorf("max_sample_size must be >= 1, got %d", c.MaxSampleSize)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate_limit_rps must be >= 0, got %v", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("rate_limit_burst must be >= 1 when rate limiting is on, got %d", c.RateLimitBurst)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// MaxFileSizeBytes is MaxFileSizeMB expressed in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}
