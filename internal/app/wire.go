package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/treasurybot/internal/bond"
	"github.com/alanyoungcy/treasurybot/internal/cache/redis"
	"github.com/alanyoungcy/treasurybot/internal/chain"
	"github.com/alanyoungcy/treasurybot/internal/config"
	"github.com/alanyoungcy/treasurybot/internal/domain"
	"github.com/alanyoungcy/treasurybot/internal/notify"
	"github.com/alanyoungcy/treasurybot/internal/store/postgres"
)

// Dependencies bundles the domain-level dependencies the application modes
// need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	Network  domain.Network
	Registry *bond.Registry
	Caller   domain.ContractCaller

	ValuationCache domain.ValuationCache
	SignalBus      domain.SignalBus
	RateLimiter    domain.RateLimiter

	ValuationStore domain.ValuationStore

	Notifier *notify.Notifier
}

// chainNetworks builds the per-network chain client configuration from the
// networks that have an RPC endpoint configured.
func chainNetworks(cfg *config.Config) map[domain.Network]chain.NetworkConfig {
	networks := make(map[domain.Network]chain.NetworkConfig, 2)
	if cfg.Chain.MainnetRPC != "" {
		networks[domain.Mainnet] = chain.NetworkConfig{
			RPCURL:     cfg.Chain.MainnetRPC,
			Treasury:   common.HexToAddress(cfg.Chain.MainnetTreasury),
			Calculator: common.HexToAddress(cfg.Chain.MainnetCalculator),
		}
	}
	if cfg.Chain.TestnetRPC != "" {
		networks[domain.Testnet] = chain.NetworkConfig{
			RPCURL:     cfg.Chain.TestnetRPC,
			Treasury:   common.HexToAddress(cfg.Chain.TestnetTreasury),
			Calculator: common.HexToAddress(cfg.Chain.TestnetCalculator),
		}
	}
	return networks
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// releases resources on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	network := domain.Network(cfg.Chain.ActiveNetwork)
	if !network.Valid() {
		return nil, nil, fmt.Errorf("wire: invalid active network %d", cfg.Chain.ActiveNetwork)
	}

	deps := &Dependencies{
		Network:  network,
		Registry: bond.DefaultRegistry(),
	}

	// --- Chain client ---
	chainClient, err := chain.New(ctx, chain.ClientConfig{
		Networks:    chainNetworks(cfg),
		CallTimeout: cfg.Chain.CallTimeout.Duration,
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: chain: %w", err)
	}
	closers = append(closers, chainClient.Close)
	deps.Caller = chainClient

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.ValuationCache = redis.NewValuationCache(redisClient, 0)
	deps.SignalBus = redis.NewSignalBus(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.ValuationStore = postgres.NewValuationStore(pgClient.Pool())

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
