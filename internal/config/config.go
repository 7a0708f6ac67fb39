package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config represents the complete application configuration
type Config struct {
	Models     ModelsConfig
	Database   DatabaseConfig
	Simulation SimulationConfig
}

// ModelsConfig holds model discovery settings
type ModelsConfig struct {
	Dir string
}

// DatabaseConfig holds optional database connection settings. When URL is
// empty the filesystem store is used instead.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// SimulationConfig holds Monte Carlo defaults
type SimulationConfig struct {
	Seed    int64
	Samples int
	Workers int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Models: ModelsConfig{
			Dir: getEnvOrDefault("MODEL_DIR", "./models"),
		},
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Simulation: SimulationConfig{
			Seed:    getEnvInt64OrDefault("OPENCM_SEED", 0),
			Samples: getEnvIntOrDefault("OPENCM_SAMPLES", 1000),
			Workers: getEnvIntOrDefault("OPENCM_WORKERS", 0),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Models.Dir == "" && config.Database.URL == "" {
		return fmt.Errorf("MODEL_DIR or DATABASE_URL is required")
	}
	if config.Simulation.Samples <= 0 {
		return fmt.Errorf("OPENCM_SAMPLES must be positive")
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

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
