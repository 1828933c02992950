package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
mode = "monitor"

[chain]
active_network = 4
testnet_rpc = "https://rinkeby.example"

[refresh]
interval = "2m"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "monitor", cfg.Mode)
	assert.Equal(t, 4, cfg.Chain.ActiveNetwork)
	assert.Equal(t, "https://rinkeby.example", cfg.Chain.TestnetRPC)
	assert.Equal(t, 2*time.Minute, cfg.Refresh.Interval.Duration)

	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 4, cfg.Refresh.Concurrency)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `mode = "server"`)

	t.Setenv("TREASURYBOT_MODE", "once")
	t.Setenv("TREASURYBOT_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("TREASURYBOT_REFRESH_INTERVAL", "30s")
	t.Setenv("TREASURYBOT_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TREASURYBOT_POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "once", cfg.Mode)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Refresh.Interval.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Postgres.RunMigrations)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
