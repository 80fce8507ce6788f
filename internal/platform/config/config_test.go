package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"CHILDMINDER_ADDR", "DBS_REGISTRY_TIMEOUT", "DBS_DEGRADED_AS_NOT_FOUND", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.Registry.Timeout)
	assert.False(t, cfg.Registry.DegradedAsNotFound, "registry outages must not read as not-found by default")
	assert.Equal(t, RegistryCacheTTL, cfg.Registry.CacheTTL)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CHILDMINDER_ADDR", ":9090")
	t.Setenv("DBS_REGISTRY_TIMEOUT", "750ms")
	t.Setenv("DBS_DEGRADED_AS_NOT_FOUND", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 750*time.Millisecond, cfg.Registry.Timeout)
	assert.True(t, cfg.Registry.DegradedAsNotFound)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestFromEnv_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("DBS_REGISTRY_TIMEOUT", "soon")
	t.Setenv("DBS_DEGRADED_AS_NOT_FOUND", "sometimes")
	t.Setenv("REDIS_POOL_SIZE", "many")

	cfg := FromEnv()

	assert.Equal(t, 5*time.Second, cfg.Registry.Timeout)
	assert.False(t, cfg.Registry.DegradedAsNotFound)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
