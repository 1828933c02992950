// Package service coordinates valuation refreshes: it walks the bond
// registry, computes treasury values through the contract caller, and fans
// the results out to the cache, the history store, and the signal bus.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/treasurybot/internal/bond"
	"github.com/alanyoungcy/treasurybot/internal/domain"
	"github.com/alanyoungcy/treasurybot/internal/notify"
)

// ValuationChannel is the signal-bus channel valuation updates are published
// on.
const ValuationChannel = "valuations"

// valueMovedThreshold is the relative change in a bond's treasury value that
// triggers a value_moved alert.
const valueMovedThreshold = 0.10

// Refresher computes and distributes treasury valuations for every bond
// available on the active network.
type Refresher struct {
	registry *bond.Registry
	caller   domain.ContractCaller
	network  domain.Network

	cache    domain.ValuationCache
	store    domain.ValuationStore // nil when persistence is disabled
	bus      domain.SignalBus      // nil when streaming is disabled
	notifier *notify.Notifier      // nil when notifications are disabled

	concurrency int
	logger      *slog.Logger
}

// Config bundles the Refresher dependencies. Store, Bus, and Notifier are
// optional.
type Config struct {
	Registry    *bond.Registry
	Caller      domain.ContractCaller
	Network     domain.Network
	Cache       domain.ValuationCache
	Store       domain.ValuationStore
	Bus         domain.SignalBus
	Notifier    *notify.Notifier
	Concurrency int
}

// NewRefresher creates a Refresher from the given dependencies.
func NewRefresher(cfg Config, logger *slog.Logger) *Refresher {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Refresher{
		registry:    cfg.Registry,
		caller:      cfg.Caller,
		network:     cfg.Network,
		cache:       cfg.Cache,
		store:       cfg.Store,
		bus:         cfg.Bus,
		notifier:    cfg.Notifier,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "refresher")),
	}
}

// Network returns the network the refresher values bonds on.
func (r *Refresher) Network() domain.Network {
	return r.network
}

// RefreshBond values a single bond: treasury value, reserve price, and the
// depository's bond quote, fetched concurrently and joined fail-fast. The
// returned valuation is not yet cached or persisted.
func (r *Refresher) RefreshBond(ctx context.Context, b *bond.Bond) (domain.Valuation, error) {
	var value, reservePrice, bondPrice float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		value, err = b.TreasuryValue(gctx, r.network, r.caller)
		return err
	})
	g.Go(func() error {
		var err error
		reservePrice, err = b.ReservePrice(gctx, r.network, r.caller)
		return err
	})
	g.Go(func() error {
		var err error
		bondPrice, err = b.BondPriceUSD(gctx, r.network, r.caller)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Valuation{}, err
	}

	return domain.Valuation{
		Bond:         b.Name,
		Network:      r.network,
		Value:        value,
		ReservePrice: reservePrice,
		BondPriceUSD: bondPrice,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Summary reports the outcome of one RefreshAll pass.
type Summary struct {
	Refreshed int
	Failed    int
	TotalUSD  float64
	Elapsed   time.Duration
}

// RefreshAll values every bond available on the active network with bounded
// concurrency, then distributes the results. A single bond's failure is
// logged and counted but does not abort the other bonds; RefreshAll returns
// an error only when every bond failed or the context was cancelled.
func (r *Refresher) RefreshAll(ctx context.Context) (Summary, error) {
	start := time.Now()
	bonds := r.registry.AvailableOn(r.network)

	results := make([]domain.Valuation, len(bonds))
	failures := make([]error, len(bonds))

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for i, b := range bonds {
		g.Go(func() error {
			v, err := r.RefreshBond(ctx, b)
			if err != nil {
				failures[i] = err
				r.logger.ErrorContext(ctx, "refresh bond failed",
					slog.String("bond", b.Name),
					slog.String("network", r.network.String()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			results[i] = v
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Summary{}, fmt.Errorf("service: refresh all: %w", err)
	}

	summary := Summary{}
	for i := range bonds {
		if failures[i] != nil {
			summary.Failed++
			continue
		}
		r.distribute(ctx, results[i])
		summary.Refreshed++
		summary.TotalUSD += results[i].Value
	}
	summary.Elapsed = time.Since(start)

	r.logger.InfoContext(ctx, "refresh complete",
		slog.Int("refreshed", summary.Refreshed),
		slog.Int("failed", summary.Failed),
		slog.Float64("total_usd", summary.TotalUSD),
		slog.Duration("elapsed", summary.Elapsed),
	)

	if r.notifier != nil {
		if summary.Failed > 0 {
			_ = r.notifier.Notify(ctx, "refresh_failed",
				"Bond refresh failures",
				fmt.Sprintf("%d of %d bonds failed to refresh on %s", summary.Failed, len(bonds), r.network),
			)
		} else if summary.Refreshed > 0 {
			_ = r.notifier.Notify(ctx, "refresh_complete",
				"Bond refresh complete",
				fmt.Sprintf("%d bonds refreshed on %s, treasury total %.2f USD", summary.Refreshed, r.network, summary.TotalUSD),
			)
		}
	}

	if summary.Refreshed == 0 && len(bonds) > 0 {
		return summary, fmt.Errorf("service: refresh all: every bond failed (%d)", summary.Failed)
	}
	return summary, nil
}

// distribute writes a valuation to the cache and store and publishes it on
// the signal bus. Distribution failures are logged, not returned: the
// valuation itself succeeded and the next refresh overwrites any gap.
func (r *Refresher) distribute(ctx context.Context, v domain.Valuation) {
	r.alertOnValueMove(ctx, v)

	if err := r.cache.Set(ctx, v); err != nil {
		r.logger.WarnContext(ctx, "cache valuation failed",
			slog.String("bond", v.Bond),
			slog.String("error", err.Error()),
		)
	}

	if r.store != nil {
		if err := r.store.Insert(ctx, v); err != nil {
			r.logger.WarnContext(ctx, "persist valuation failed",
				slog.String("bond", v.Bond),
				slog.String("error", err.Error()),
			)
		}
	}

	if r.bus != nil {
		evt, _ := json.Marshal(map[string]any{
			"event":         "valuation",
			"bond":          v.Bond,
			"network":       v.Network.String(),
			"value_usd":     v.Value,
			"reserve_price": v.ReservePrice,
			"bond_price":    v.BondPriceUSD,
			"timestamp":     v.CreatedAt.Format(time.RFC3339Nano),
		})
		if err := r.bus.Publish(ctx, ValuationChannel, evt); err != nil {
			r.logger.WarnContext(ctx, "publish valuation failed",
				slog.String("bond", v.Bond),
				slog.String("error", err.Error()),
			)
		}
	}
}

// alertOnValueMove compares the fresh valuation against the cached one and
// raises a value_moved alert when the treasury value changed by more than the
// threshold since the last refresh. Must run before the cache is overwritten.
func (r *Refresher) alertOnValueMove(ctx context.Context, v domain.Valuation) {
	if r.notifier == nil {
		return
	}
	prev, err := r.cache.Get(ctx, v.Network, v.Bond)
	if err != nil || prev.Value <= 0 {
		return
	}

	change := (v.Value - prev.Value) / prev.Value
	if change < valueMovedThreshold && change > -valueMovedThreshold {
		return
	}

	_ = r.notifier.Notify(ctx, "value_moved",
		fmt.Sprintf("Treasury value moved: %s", v.Bond),
		fmt.Sprintf("%s on %s moved %+.1f%% (%.2f -> %.2f USD)",
			v.Bond, v.Network, change*100, prev.Value, v.Value),
	)
}

// Run refreshes immediately and then on every tick of the given interval
// until the context is cancelled.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) error {
	if _, err := r.RefreshAll(ctx); err != nil {
		r.logger.ErrorContext(ctx, "initial refresh failed",
			slog.String("error", err.Error()),
		)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RefreshAll(ctx); err != nil {
				r.logger.ErrorContext(ctx, "scheduled refresh failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
