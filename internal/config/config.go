package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the whole application configuration, populated from
// environment variables.
type Config struct {
	App     AppConfig
	Redis   RedisConfig
	Storage StorageConfig
	Upload  UploadConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

// StorageConfig describes where chapter pages and covers live on disk.
// Root is the directory served publicly under /files.
type StorageConfig struct {
	Root string
}

// UploadConfig carries the batch limits for page ingestion and the single
// file limit for cover uploads.
type UploadConfig struct {
	MaxPagesPerBatch  int
	MaxPageSizeBytes  int64
	MaxCoverSizeBytes int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Mangazinho API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "4000"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Root: getEnv("STORAGE_ROOT", "./storage"),
		},
		Upload: UploadConfig{
			MaxPagesPerBatch:  getEnvInt("UPLOAD_MAX_PAGES", 300),
			MaxPageSizeBytes:  int64(getEnvInt("UPLOAD_MAX_PAGE_MB", 25)) << 20,
			MaxCoverSizeBytes: int64(getEnvInt("UPLOAD_MAX_COVER_MB", 15)) << 20,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the config for values that must not ship to production.
func (c *Config) Validate() error {
	if c.Storage.Root == "" {
		return fmt.Errorf("STORAGE_ROOT must not be empty")
	}
	if c.Upload.MaxPagesPerBatch <= 0 {
		return fmt.Errorf("UPLOAD_MAX_PAGES must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
