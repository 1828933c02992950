// Package config defines the top-level configuration for treasurybot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by TREASURYBOT_* environment
// variables.
type Config struct {
	Chain    ChainConfig    `toml:"chain"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	Refresh  RefreshConfig  `toml:"refresh"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ChainConfig holds RPC endpoints and protocol contract addresses per network.
type ChainConfig struct {
	// ActiveNetwork is the numeric chain ID bonds are valued on (1 or 4).
	ActiveNetwork int `toml:"active_network"`

	MainnetRPC        string `toml:"mainnet_rpc"`
	MainnetTreasury   string `toml:"mainnet_treasury"`
	MainnetCalculator string `toml:"mainnet_calculator"`

	TestnetRPC        string `toml:"testnet_rpc"`
	TestnetTreasury   string `toml:"testnet_treasury"`
	TestnetCalculator string `toml:"testnet_calculator"`

	CallTimeout duration `toml:"call_timeout"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters for valuation history.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RefreshConfig holds valuation refresh-loop parameters.
type RefreshConfig struct {
	Interval duration `toml:"interval"`
	// Concurrency bounds the number of bonds valued in parallel.
	Concurrency int `toml:"concurrency"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	// RefreshRateLimit caps manual refresh triggers per client per minute.
	RefreshRateLimit int `toml:"refresh_rate_limit"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			ActiveNetwork:     1,
			MainnetRPC:        "https://eth.llamarpc.com",
			MainnetTreasury:   "0x31F8Cc382c9898b273eff4e0b7626a6987C846E8",
			MainnetCalculator: "0xCaAA6a2D4b26067A391e7b7D65c16bb2d5fa571a",
			TestnetRPC:        "",
			TestnetTreasury:   "0x0d722D813601E48b7DAcb2DF9bae282cFd98c6E7",
			TestnetCalculator: "0xaDBE4FA3c2fcf36412D618AfCfC519C869400CEB",
			CallTimeout:       duration{15 * time.Second},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "treasurybot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Refresh: RefreshConfig{
			Interval:    duration{5 * time.Minute},
			Concurrency: 4,
		},
		Server: ServerConfig{
			Enabled:          true,
			Port:             8000,
			CORSOrigins:      []string{"http://localhost:3000", "http://localhost:5173"},
			RefreshRateLimit: 6,
		},
		Notify: NotifyConfig{
			Events: []string{"refresh_failed", "value_moved", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"monitor": true,
	"once":    true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, monitor, once, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Chain
	switch c.Chain.ActiveNetwork {
	case 1:
		if c.Chain.MainnetRPC == "" {
			errs = append(errs, "chain: mainnet_rpc must not be empty when active_network is 1")
		}
	case 4:
		if c.Chain.TestnetRPC == "" {
			errs = append(errs, "chain: testnet_rpc must not be empty when active_network is 4")
		}
	default:
		errs = append(errs, fmt.Sprintf("chain: active_network must be 1 (mainnet) or 4 (testnet), got %d", c.Chain.ActiveNetwork))
	}
	if c.Chain.MainnetRPC != "" && c.Chain.MainnetTreasury == "" {
		errs = append(errs, "chain: mainnet_treasury must not be empty")
	}
	if c.Chain.MainnetRPC != "" && c.Chain.MainnetCalculator == "" {
		errs = append(errs, "chain: mainnet_calculator must not be empty")
	}
	if c.Chain.TestnetRPC != "" && c.Chain.TestnetTreasury == "" {
		errs = append(errs, "chain: testnet_treasury must not be empty")
	}
	if c.Chain.CallTimeout.Duration < 0 {
		errs = append(errs, "chain: call_timeout must not be negative")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Refresh
	if c.Refresh.Interval.Duration <= 0 {
		errs = append(errs, "refresh: interval must be > 0")
	}
	if c.Refresh.Concurrency < 1 {
		errs = append(errs, "refresh: concurrency must be >= 1")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RefreshRateLimit < 0 {
			errs = append(errs, "server: refresh_rate_limit must be >= 0")
		}
	}

	// Notify — Telegram credentials must be set together, or not at all.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
