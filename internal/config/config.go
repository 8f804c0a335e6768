// Package config loads Mantle's configuration from mantle.yml and the
// environment.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Backend names a supported document-store backend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config represents the Mantle configuration.
type Config struct {
	ProjectName string      `mapstructure:"project_name"`
	Store       StoreConfig `mapstructure:"store"`
	Log         LogConfig   `mapstructure:"log"`
}

// StoreConfig selects and configures the document-store backend.
type StoreConfig struct {
	Backend  string      `mapstructure:"backend"`
	Database string      `mapstructure:"database"`
	URL      string      `mapstructure:"url"`
	Redis    RedisConfig `mapstructure:"redis"`
	// WriteConcernW is the default acknowledgement level for writes.
	WriteConcernW int `mapstructure:"write_concern_w"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads the configuration from mantle.yml or mantle.yaml, falling
// back to defaults when no file exists.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.database", "mantle")
	v.SetDefault("store.write_concern_w", 1)
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("log.level", "info")

	v.SetConfigName("mantle")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetStoreURL returns the store URL from the environment or config.
func GetStoreURL() string {
	if url := os.Getenv("MANTLE_STORE_URL"); url != "" {
		return url
	}
	cfg, err := Load()
	if err != nil {
		return ""
	}
	return cfg.Store.URL
}

// validateConfig validates the configuration.
func validateConfig(cfg *Config) error {
	switch cfg.Store.Backend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
	if cfg.Store.Backend == BackendPostgres && cfg.Store.URL == "" && os.Getenv("MANTLE_STORE_URL") == "" {
		return fmt.Errorf("store.url is required for the postgres backend")
	}
	if cfg.Store.WriteConcernW < 0 {
		return fmt.Errorf("store.write_concern_w must not be negative, got: %d", cfg.Store.WriteConcernW)
	}
	return nil
}
