package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chassis-framework/chassis/pkg/audit"
	"github.com/chassis-framework/chassis/pkg/cache"
	"github.com/chassis-framework/chassis/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Cache configuration
	Cache CacheConfig

	// Audit configuration
	Audit AuditConfig

	// Locale configuration
	Locale LocaleConfig

	// Query configuration
	Query QueryConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// CacheConfig holds cache backend settings
type CacheConfig struct {
	// Backend selects the store implementation: "redis" or "memory"
	Backend string

	// DefaultTTL applies to cached reads that don't specify their own.
	// Zero disables caching entirely.
	DefaultTTL time.Duration

	Redis cache.RedisConfig
}

// AuditConfig holds audit pipeline settings
type AuditConfig struct {
	Destination audit.Destination
}

// LocaleConfig holds message rendering settings
type LocaleConfig struct {
	DefaultLanguage string
}

// QueryConfig holds repository query settings
type QueryConfig struct {
	// MinTermLength is the shortest free-text search term that expands
	// into column matches.
	MinTermLength int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Database:      loadDatabaseConfig(),
		Cache:         loadCacheConfig(),
		Audit:         loadAuditConfig(),
		Locale:        loadLocaleConfig(),
		Query:         loadQueryConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDatabaseConfig loads database configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("CHASSIS_DATABASE_URL", ""),
		MaxOpenConns:    getEnvInt("CHASSIS_DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("CHASSIS_DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("CHASSIS_DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// loadCacheConfig loads cache configuration from environment
func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Backend:    getEnv("CHASSIS_CACHE_BACKEND", "memory"),
		DefaultTTL: getEnvDuration("CHASSIS_CACHE_DEFAULT_TTL", time.Hour),
		Redis: cache.RedisConfig{
			URL:        getEnv("CHASSIS_REDIS_URL", "redis://localhost:6379"),
			Password:   getEnv("CHASSIS_REDIS_PASSWORD", ""),
			DB:         getEnvInt("CHASSIS_REDIS_DB", 0),
			MaxRetries: getEnvInt("CHASSIS_REDIS_MAX_RETRIES", 3),
			PoolSize:   getEnvInt("CHASSIS_REDIS_POOL_SIZE", 10),
		},
	}
}

// loadAuditConfig loads audit configuration from environment
func loadAuditConfig() AuditConfig {
	return AuditConfig{
		Destination: audit.Destination(getEnv("CHASSIS_AUDIT_DESTINATION", string(audit.DestinationLog))),
	}
}

// loadLocaleConfig loads locale configuration from environment
func loadLocaleConfig() LocaleConfig {
	return LocaleConfig{
		DefaultLanguage: getEnv("CHASSIS_DEFAULT_LANGUAGE", "en"),
	}
}

// loadQueryConfig loads query configuration from environment
func loadQueryConfig() QueryConfig {
	return QueryConfig{
		MinTermLength: getEnvInt("CHASSIS_MIN_TERM_LENGTH", 2),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("CHASSIS_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("CHASSIS_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "redis":
		if c.Cache.Redis.URL == "" {
			return fmt.Errorf("redis URL is required for redis cache backend")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid cache backend: %s (must be redis or memory)", c.Cache.Backend)
	}

	if !c.Audit.Destination.Valid() {
		return fmt.Errorf("invalid audit destination: %s (must be log or table)", c.Audit.Destination)
	}
	if c.Audit.Destination == audit.DestinationTable && c.Database.URL == "" {
		return fmt.Errorf("database URL is required for table audit destination")
	}

	if c.Locale.DefaultLanguage == "" {
		return fmt.Errorf("default language is required")
	}

	if c.Query.MinTermLength < 0 {
		return fmt.Errorf("minimum term length must not be negative")
	}

	if c.Cache.DefaultTTL < 0 {
		return fmt.Errorf("cache default TTL must not be negative")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
