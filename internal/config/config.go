package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"hypotest/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Cache CacheConfig
}

// CacheConfig holds result-cache settings. The directory and TTL are passed
// explicitly to the cache manager at construction so multiple independent
// caches can coexist in tests.
type CacheConfig struct {
	Dir      string
	TTLHours int
}

// TTL returns the entry lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Cache: loadCacheConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Dir:      getEnvOrDefault("HYPOTEST_CACHE_DIR", filepath.Join(os.TempDir(), "hypotest-cache")),
		TTLHours: getEnvIntOrDefault("HYPOTEST_CACHE_TTL_HOURS", 24),
	}
}

func validateConfig(config *Config) error {
	if config.Cache.Dir == "" {
		return errors.ConfigInvalid("cache directory is required")
	}
	if config.Cache.TTLHours < 0 {
		return errors.ConfigInvalid("cache TTL must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
