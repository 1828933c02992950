package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/treasurybot/internal/server"
	"github.com/alanyoungcy/treasurybot/internal/server/handler"
	"github.com/alanyoungcy/treasurybot/internal/server/ws"
	"github.com/alanyoungcy/treasurybot/internal/service"
)

// newRefresher builds the valuation refresher from the wired dependencies.
func (a *App) newRefresher(deps *Dependencies) *service.Refresher {
	return service.NewRefresher(service.Config{
		Registry:    deps.Registry,
		Caller:      deps.Caller,
		Network:     deps.Network,
		Cache:       deps.ValuationCache,
		Store:       deps.ValuationStore,
		Bus:         deps.SignalBus,
		Notifier:    deps.Notifier,
		Concurrency: a.cfg.Refresh.Concurrency,
	}, a.logger)
}

// ServerMode serves the API from cached and persisted valuations without
// running the periodic refresh loop. Manual refreshes via POST /api/refresh
// still work.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, a.newRefresher(deps))
	return g.Wait()
}

// MonitorMode runs the periodic refresh loop without the HTTP server.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode",
		slog.Duration("interval", a.cfg.Refresh.Interval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)
	refresher := a.newRefresher(deps)
	g.Go(func() error {
		return refresher.Run(ctx, a.cfg.Refresh.Interval.Duration)
	})
	return g.Wait()
}

// OnceMode performs a single refresh pass and exits. Useful for cron-driven
// deployments and smoke tests.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting once mode")

	summary, err := a.newRefresher(deps).RefreshAll(ctx)
	if err != nil {
		return fmt.Errorf("once mode: %w", err)
	}
	a.logger.InfoContext(ctx, "once mode finished",
		slog.Int("refreshed", summary.Refreshed),
		slog.Int("failed", summary.Failed),
		slog.Float64("total_usd", summary.TotalUSD),
	)
	return nil
}

// FullMode runs the refresh loop and the HTTP server together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	refresher := a.newRefresher(deps)
	g.Go(func() error {
		return refresher.Run(ctx, a.cfg.Refresh.Interval.Duration)
	})

	a.startHTTPServer(ctx, g, deps, refresher)
	return g.Wait()
}

// startHTTPServer assembles the handlers, WebSocket hub, and server, and
// registers their goroutines on g. It is a no-op when the server is disabled
// in configuration.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, refresher *service.Refresher) {
	if !a.cfg.Server.Enabled {
		a.logger.InfoContext(ctx, "http server disabled")
		return
	}

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Network:   deps.Network,
		BondCount: len(deps.Registry.AvailableOn(deps.Network)),
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(deps.Network, a.logger),
		Bonds: handler.NewBondHandler(
			deps.Registry, deps.ValuationCache, deps.ValuationStore, deps.Network, a.logger,
		),
		Valuations: handler.NewValuationHandler(
			deps.Registry, deps.ValuationCache, deps.ValuationStore, refresher, deps.Network, a.logger,
		),
	}

	srv := server.NewServer(server.Config{
		Port:             a.cfg.Server.Port,
		CORSOrigins:      a.cfg.Server.CORSOrigins,
		APIKey:           a.cfg.Server.APIKey,
		RefreshRateLimit: a.cfg.Server.RefreshRateLimit,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})
}
