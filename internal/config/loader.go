package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TREASURYBOT_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TREASURYBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setInt(&cfg.Chain.ActiveNetwork, "TREASURYBOT_CHAIN_ACTIVE_NETWORK")
	setStr(&cfg.Chain.MainnetRPC, "TREASURYBOT_CHAIN_MAINNET_RPC")
	setStr(&cfg.Chain.MainnetTreasury, "TREASURYBOT_CHAIN_MAINNET_TREASURY")
	setStr(&cfg.Chain.MainnetCalculator, "TREASURYBOT_CHAIN_MAINNET_CALCULATOR")
	setStr(&cfg.Chain.TestnetRPC, "TREASURYBOT_CHAIN_TESTNET_RPC")
	setStr(&cfg.Chain.TestnetTreasury, "TREASURYBOT_CHAIN_TESTNET_TREASURY")
	setStr(&cfg.Chain.TestnetCalculator, "TREASURYBOT_CHAIN_TESTNET_CALCULATOR")
	setDuration(&cfg.Chain.CallTimeout, "TREASURYBOT_CHAIN_CALL_TIMEOUT")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "TREASURYBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TREASURYBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TREASURYBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TREASURYBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TREASURYBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TREASURYBOT_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "TREASURYBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "TREASURYBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TREASURYBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TREASURYBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TREASURYBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TREASURYBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TREASURYBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TREASURYBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TREASURYBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TREASURYBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Refresh ──
	setDuration(&cfg.Refresh.Interval, "TREASURYBOT_REFRESH_INTERVAL")
	setInt(&cfg.Refresh.Concurrency, "TREASURYBOT_REFRESH_CONCURRENCY")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "TREASURYBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "TREASURYBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "TREASURYBOT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "TREASURYBOT_SERVER_API_KEY")
	setInt(&cfg.Server.RefreshRateLimit, "TREASURYBOT_SERVER_REFRESH_RATE_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TREASURYBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TREASURYBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "TREASURYBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "TREASURYBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "TREASURYBOT_MODE")
	setStr(&cfg.LogLevel, "TREASURYBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
