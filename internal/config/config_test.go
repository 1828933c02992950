package config

import (
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1, cfg.Chain.ActiveNetwork)
	assert.Equal(t, "full", cfg.Mode)
	assert.Equal(t, 5*time.Minute, cfg.Refresh.Interval.Duration)
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateRejectsBadNetwork(t *testing.T) {
	cfg := Defaults()
	cfg.Chain.ActiveNetwork = 137

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "active_network")
}

func TestValidateRequiresRPCForActiveNetwork(t *testing.T) {
	cfg := Defaults()
	cfg.Chain.ActiveNetwork = 4
	cfg.Chain.TestnetRPC = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "testnet_rpc")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	cfg.Redis.Addr = ""
	cfg.Refresh.Concurrency = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "redis: addr")
	assert.Contains(t, err.Error(), "refresh: concurrency")
}

func TestValidateTelegramCredentialsPaired(t *testing.T) {
	cfg := Defaults()
	cfg.Notify.TelegramToken = "token"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
}

func TestDurationTOMLRoundTrip(t *testing.T) {
	var out struct {
		Interval duration `toml:"interval"`
	}
	_, err := toml.Decode(`interval = "90s"`, &out)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, out.Interval.Duration)

	text, err := out.Interval.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))
}
