// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Artifact root (always absolute)
	SymbolsFile  string // YAML symbol groups
	LogLevel     string
	LogPretty    bool
	Port         int
	Workers      int    // Symbols analyzed in parallel
	Schedule     string // Six-field cron spec (with seconds)
	Cache        CacheConfig
	Yahoo        YahooConfig
	Publish      PublishConfig
	PublishOnRun bool // Scheduled runs upload artifacts after summarizing
}

// CacheConfig holds market data cache settings
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// YahooConfig holds Yahoo Finance client settings
type YahooConfig struct {
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// PublishConfig holds the S3-compatible (R2) bucket settings
type PublishConfig struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Prefix          string
	RetentionDays   int // Snapshot archives older than this are rotated out (0 keeps all)
}

// Enabled reports whether a bucket is configured
func (p PublishConfig) Enabled() bool {
	return p.Bucket != ""
}

// CachePath is the SQLite cache file inside the data directory
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("MARKETSNAP_DATA_DIR", "data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:     absDataDir,
		SymbolsFile: getEnv("MARKETSNAP_SYMBOLS_FILE", "symbols.yaml"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getEnvAsBool("LOG_PRETTY", true),
		Port:        getEnvAsInt("GO_PORT", 8001),
		Workers:     getEnvAsInt("MARKETSNAP_WORKERS", 4),
		Schedule:    getEnv("MARKETSNAP_SCHEDULE", "0 30 22 * * MON-FRI"), // after the US close
		Cache: CacheConfig{
			Enabled: getEnvAsBool("MARKETSNAP_CACHE_ENABLED", true),
			TTL:     time.Duration(getEnvAsInt("MARKETSNAP_CACHE_TTL_HOURS", 12)) * time.Hour,
		},
		Yahoo: YahooConfig{
			RequestsPerSec:  getEnvAsInt("YAHOO_REQUESTS_PER_SEC", 2),
			MaxRetryTimeout: time.Duration(getEnvAsInt("YAHOO_MAX_RETRY_SECONDS", 30)) * time.Second,
		},
		Publish: PublishConfig{
			Endpoint:        getEnv("R2_ENDPOINT", ""),
			Bucket:          getEnv("R2_BUCKET", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			Region:          getEnv("R2_REGION", "auto"),
			Prefix:          getEnv("R2_PREFIX", "marketsnap"),
			RetentionDays:   getEnvAsInt("R2_SNAPSHOT_RETENTION_DAYS", 30),
		},
		PublishOnRun: getEnvAsBool("MARKETSNAP_PUBLISH_ON_RUN", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges and that the publish settings are complete
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("MARKETSNAP_WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT out of range: %d", c.Port)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("MARKETSNAP_CACHE_TTL_HOURS must be positive when the cache is enabled")
	}
	if c.Yahoo.RequestsPerSec < 1 {
		return fmt.Errorf("YAHOO_REQUESTS_PER_SEC must be at least 1, got %d", c.Yahoo.RequestsPerSec)
	}
	if _, err := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
	).Parse(c.Schedule); err != nil {
		return fmt.Errorf("invalid MARKETSNAP_SCHEDULE %q: %w", c.Schedule, err)
	}

	if c.Publish.Enabled() {
		if c.Publish.Endpoint == "" || c.Publish.AccessKeyID == "" || c.Publish.SecretAccessKey == "" {
			return fmt.Errorf("R2_BUCKET is set but R2_ENDPOINT, R2_ACCESS_KEY_ID or R2_SECRET_ACCESS_KEY is missing")
		}
	}
	if c.Publish.RetentionDays < 0 {
		return fmt.Errorf("R2_SNAPSHOT_RETENTION_DAYS must not be negative, got %d", c.Publish.RetentionDays)
	}
	if c.PublishOnRun && !c.Publish.Enabled() {
		return fmt.Errorf("MARKETSNAP_PUBLISH_ON_RUN requires R2_BUCKET")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
