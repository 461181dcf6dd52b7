package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "8083", cfg.Port)
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, "chat.events", cfg.AMQPExchange)
	require.False(t, cfg.DebugRoutes)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("DEBUG_ROUTES", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "9999", cfg.Port)
	require.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	require.True(t, cfg.DebugRoutes)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("REDIS_ADDR=localhost:6379\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("REDIS_ADDR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("REFRESH_TOKEN_TTL", "0s")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}
