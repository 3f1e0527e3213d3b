// Package common provides shared utilities for marketgate
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for marketgate
type Config struct {
	Environment string          `toml:"environment"`
	Watchlist   []string        `toml:"watchlist"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Providers   ProvidersConfig `toml:"providers"`
	Engine      EngineConfig    `toml:"engine"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the cache store location.
type StorageConfig struct {
	Path string `toml:"path"`
}

// EngineConfig bounds the concurrent fetch engine.
type EngineConfig struct {
	MaxWorkers   int    `toml:"max_workers"`
	BatchTimeout string `toml:"batch_timeout"`
}

// GetBatchTimeout parses and returns the batch deadline duration
func (c *EngineConfig) GetBatchTimeout() time.Duration {
	d, err := time.ParseDuration(c.BatchTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetMaxWorkers returns the worker bound with a sane floor.
func (c *EngineConfig) GetMaxWorkers() int {
	if c.MaxWorkers <= 0 {
		return 5
	}
	return c.MaxWorkers
}

// ProvidersConfig holds per-provider client configurations
type ProvidersConfig struct {
	Stooq        ProviderConfig `toml:"stooq"`
	Yahoo        ProviderConfig `toml:"yahoo"`
	AlphaVantage ProviderConfig `toml:"alphavantage"`
	Edgar        ProviderConfig `toml:"edgar"`
	NewsAPI      ProviderConfig `toml:"newsapi"`
}

// ProviderConfig holds one provider's endpoint, credentials and limits
type ProviderConfig struct {
	BaseURL     string `toml:"base_url"`
	APIKey      string `toml:"api_key"`
	Priority    int    `toml:"priority"`
	RateLimit   int    `toml:"rate_limit"`   // requests per second
	WindowLimit int    `toml:"window_limit"` // requests per rolling 24h, 0 = unlimited
	MaxInFlight int    `toml:"max_in_flight"`
	MaxRetries  int    `toml:"max_retries"`
	Timeout     string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`
	FilePath   string `toml:"file_path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Watchlist:   []string{"7203", "6758", "9984"},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Storage: StorageConfig{
			Path: "data/cache",
		},
		Engine: EngineConfig{
			MaxWorkers:   5,
			BatchTimeout: "60s",
		},
		Providers: ProvidersConfig{
			Stooq: ProviderConfig{
				BaseURL:     "https://stooq.com",
				Priority:    2,
				RateLimit:   5,
				MaxRetries:  3,
				MaxInFlight: 4,
				Timeout:     "30s",
			},
			Yahoo: ProviderConfig{
				BaseURL:     "https://query1.finance.yahoo.com",
				Priority:    1,
				RateLimit:   5,
				MaxRetries:  3,
				MaxInFlight: 4,
				Timeout:     "30s",
			},
			AlphaVantage: ProviderConfig{
				BaseURL:     "https://www.alphavantage.co",
				Priority:    3,
				RateLimit:   1,
				WindowLimit: 500,
				MaxRetries:  2,
				MaxInFlight: 2,
				Timeout:     "30s",
			},
			Edgar: ProviderConfig{
				BaseURL:     "https://data.sec.gov",
				Priority:    1,
				RateLimit:   2,
				MaxRetries:  2,
				MaxInFlight: 2,
				Timeout:     "30s",
			},
			NewsAPI: ProviderConfig{
				BaseURL:     "https://newsapi.org",
				Priority:    1,
				RateLimit:   2,
				WindowLimit: 1000,
				MaxRetries:  2,
				MaxInFlight: 2,
				Timeout:     "30s",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   "./logs/marketgate.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MARKETGATE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("MARKETGATE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("MARKETGATE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("MARKETGATE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("MARKETGATE_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	// Provider API keys resolve env-first so keys never need to live in
	// config files.
	if v := resolveAPIKey("ALPHAVANTAGE_API_KEY", "MARKETGATE_ALPHAVANTAGE_API_KEY"); v != "" {
		config.Providers.AlphaVantage.APIKey = v
	}
	if v := resolveAPIKey("NEWSAPI_API_KEY", "MARKETGATE_NEWSAPI_API_KEY"); v != "" {
		config.Providers.NewsAPI.APIKey = v
	}
}

// resolveAPIKey returns the first non-empty value among the named env vars.
func resolveAPIKey(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
