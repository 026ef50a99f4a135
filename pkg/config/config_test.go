package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chassis-framework/chassis/pkg/audit"
	"github.com/chassis-framework/chassis/pkg/observability"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.DefaultTTL)
	assert.Equal(t, audit.DestinationLog, cfg.Audit.Destination)
	assert.Equal(t, "en", cfg.Locale.DefaultLanguage)
	assert.Equal(t, 2, cfg.Query.MinTermLength)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("CHASSIS_CACHE_BACKEND", "redis")
	t.Setenv("CHASSIS_REDIS_URL", "redis://cache.internal:6379")
	t.Setenv("CHASSIS_CACHE_DEFAULT_TTL", "15m")
	t.Setenv("CHASSIS_AUDIT_DESTINATION", "table")
	t.Setenv("CHASSIS_DATABASE_URL", "postgres://localhost/chassis")
	t.Setenv("CHASSIS_LOG_LEVEL", "debug")
	t.Setenv("CHASSIS_MIN_TERM_LENGTH", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "redis://cache.internal:6379", cfg.Cache.Redis.URL)
	assert.Equal(t, 15*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, audit.DestinationTable, cfg.Audit.Destination)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.Equal(t, 3, cfg.Query.MinTermLength)
}

func TestValidateRejectsUnknownCacheBackend(t *testing.T) {
	t.Setenv("CHASSIS_CACHE_BACKEND", "memcached")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache backend")
}

func TestValidateRejectsUnknownAuditDestination(t *testing.T) {
	t.Setenv("CHASSIS_AUDIT_DESTINATION", "syslog")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid audit destination")
}

func TestValidateTableDestinationRequiresDatabase(t *testing.T) {
	t.Setenv("CHASSIS_AUDIT_DESTINATION", "table")
	t.Setenv("CHASSIS_DATABASE_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
}

func TestInvalidEnvValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("CHASSIS_CACHE_DEFAULT_TTL", "not-a-duration")
	t.Setenv("CHASSIS_MIN_TERM_LENGTH", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Cache.DefaultTTL)
	assert.Equal(t, 2, cfg.Query.MinTermLength)
}
