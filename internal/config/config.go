// Package config handles configuration loading for the rate snapshot service.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. RATESNAP_CACHE_TTL
const EnvPrefix = "RATESNAP"

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendBadger = "badger"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Range    RangeConfig    `mapstructure:"range"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ProviderConfig describes the upstream currency API.
type ProviderConfig struct {
	// BaseURL is the root serving the latest snapshots. Historical roots are
	// derived by swapping "@<LatestTag>" for "@YYYY-MM-DD".
	BaseURL           string        `mapstructure:"base_url"`
	LatestTag         string        `mapstructure:"latest_tag"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// CacheConfig selects the snapshot store.
type CacheConfig struct {
	Backend string        `mapstructure:"backend"` // "memory" or "badger"
	TTL     time.Duration `mapstructure:"ttl"`     // 0 keeps entries for the process lifetime
}

// RetryConfig tunes retries of transient upstream failures.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
}

// RangeConfig tunes range reconstruction.
type RangeConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml
//  2. ~/.ratesnap/config.yaml
//  3. /etc/ratesnap/config.yaml
//
// Environment variables override config file values.
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".ratesnap"))
	v.AddConfigPath("/etc/ratesnap")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)

	v.SetDefault("provider.base_url", "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1")
	v.SetDefault("provider.latest_tag", "latest")
	v.SetDefault("provider.timeout", 10*time.Second)
	v.SetDefault("provider.requests_per_second", 20.0)
	v.SetDefault("provider.burst", 20)

	v.SetDefault("cache.backend", CacheBackendMemory)
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay", 200*time.Millisecond)
	v.SetDefault("retry.max_delay", 2*time.Second)

	v.SetDefault("range.concurrency", 4)
	v.SetDefault("range.timeout", 60*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Provider.BaseURL) == "" {
		return errors.New("provider.base_url must not be empty")
	}
	if c.Provider.LatestTag == "" {
		return errors.New("provider.latest_tag must not be empty")
	}
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendBadger:
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl must not be negative")
	}
	if c.Range.Concurrency <= 0 {
		return errors.New("range.concurrency must be positive")
	}
	if c.Retry.MaxAttempts <= 0 {
		return errors.New("retry.max_attempts must be positive")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
