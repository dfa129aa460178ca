package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithMemoryBackends(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("INVENTORY_BACKEND", "Memory")
	t.Setenv("HOLIDAYS", " 2026-12-25, ,2027-01-01")
	t.Setenv("THINK_HOLD_TTL", "5m")

	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, BackendMemory, cfg.InventoryBackend)
	assert.False(t, cfg.NeedsMySQL())
	assert.Empty(t, cfg.DBUser)
	assert.Equal(t, 5*time.Minute, cfg.ThinkHoldTTL)
	assert.Equal(t, 30*time.Second, cfg.ConfirmHoldTTL)
	assert.Equal(t, []string{"2026-12-25", "2027-01-01"}, cfg.Holidays)
}

func TestLoadRequiresDatabaseForMySQL(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_BACKEND", "mysql")
	t.Setenv("INVENTORY_BACKEND", "redis")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "cinema")
	t.Setenv("DB_MIGRATE", "yes")

	cfg := Load()
	assert.True(t, cfg.NeedsMySQL())
	assert.Equal(t, "cinema", cfg.DBName)
	assert.True(t, cfg.DBMigrate)
}

func TestValidate(t *testing.T) {
	ok := Config{
		StoreBackend: BackendMemory, InventoryBackend: BackendRedis,
		ThinkHoldTTL: time.Minute, ConfirmHoldTTL: time.Second,
		SweepInterval: time.Second, InventoryOpTimeout: time.Second,
	}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.StoreBackend = "postgres"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.InventoryBackend = "etcd"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.ConfirmHoldTTL = 0
	assert.Error(t, bad.Validate())

	bad = ok
	bad.EventsEnabled = true
	assert.Error(t, bad.Validate())
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 10*time.Second, c.TTL)

	t.Setenv("RATE_LIMIT_BURST", "7")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "500ms")
	c = LoadRateLimitConfig()
	assert.Equal(t, 7, c.Capacity)
	assert.Equal(t, 500*time.Millisecond, c.RefillInterval)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_ENABLED", "off")
	c := LoadCacheConfig()
	assert.False(t, c.Enabled)
	assert.True(t, c.Methods["HEAD"])
	assert.Equal(t, time.Minute, c.TTL)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())
	rdb := NewRedisClient()
	require.NotNil(t, rdb)
	_ = rdb.Close()

	mr.Close()
	assert.Nil(t, NewRedisClient())
}
