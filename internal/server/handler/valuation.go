package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/treasurybot/internal/bond"
	"github.com/alanyoungcy/treasurybot/internal/domain"
	"github.com/alanyoungcy/treasurybot/internal/service"
)

// RefreshService defines the refresh trigger the valuation handler requires.
type RefreshService interface {
	RefreshAll(ctx context.Context) (service.Summary, error)
}

// ValuationHandler serves the aggregate treasury endpoints and the manual
// refresh trigger.
type ValuationHandler struct {
	registry  *bond.Registry
	cache     domain.ValuationCache
	store     domain.ValuationStore // nil when persistence is disabled
	refresher RefreshService
	network   domain.Network
	logger    *slog.Logger
}

// NewValuationHandler creates a ValuationHandler. store may be nil.
func NewValuationHandler(registry *bond.Registry, cache domain.ValuationCache, store domain.ValuationStore, refresher RefreshService, network domain.Network, logger *slog.Logger) *ValuationHandler {
	return &ValuationHandler{
		registry:  registry,
		cache:     cache,
		store:     store,
		refresher: refresher,
		network:   network,
		logger:    logger,
	}
}

// Treasury returns the total treasury value on the active network with a
// per-bond breakdown from the cache. When the cache is cold it falls back to
// the newest persisted snapshots.
// GET /api/treasury
func (h *ValuationHandler) Treasury(w http.ResponseWriter, r *http.Request) {
	log := logHandler(h.logger, "treasury")

	names := make([]string, 0)
	for _, b := range h.registry.AvailableOn(h.network) {
		names = append(names, b.Name)
	}

	cached, err := h.cache.GetAll(r.Context(), h.network, names)
	if err != nil {
		log.WarnContext(r.Context(), "cache lookup failed",
			slog.String("error", err.Error()),
		)
	}

	if len(cached) == 0 {
		h.treasuryFromStore(w, r)
		return
	}

	var total float64
	var newest time.Time
	breakdown := make(map[string]float64, len(cached))
	for name, v := range cached {
		total += v.Value
		breakdown[name] = v.Value
		if v.CreatedAt.After(newest) {
			newest = v.CreatedAt
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"network":    h.network.String(),
		"total_usd":  total,
		"breakdown":  breakdown,
		"updated_at": newest.UTC().Format(time.RFC3339),
		"source":     "cache",
	})
}

// treasuryFromStore answers the treasury total from persisted history when
// the cache has nothing.
func (h *ValuationHandler) treasuryFromStore(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no valuations available yet")
		return
	}

	total, newest, err := h.store.LatestTotal(r.Context(), h.network)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusServiceUnavailable, "no valuations available yet")
			return
		}
		logHandler(h.logger, "treasury").ErrorContext(r.Context(), "latest total query failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to compute treasury total")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"network":    h.network.String(),
		"total_usd":  total,
		"updated_at": newest.UTC().Format(time.RFC3339),
		"source":     "store",
	})
}

// Refresh triggers a synchronous valuation pass over all bonds and reports
// the outcome. The route is rate limited upstream.
// POST /api/refresh
func (h *ValuationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := logHandler(h.logger, "refresh")

	summary, err := h.refresher.RefreshAll(r.Context())
	if err != nil {
		log.ErrorContext(r.Context(), "manual refresh failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"network":    h.network.String(),
		"refreshed":  summary.Refreshed,
		"failed":     summary.Failed,
		"total_usd":  summary.TotalUSD,
		"elapsed_ms": summary.Elapsed.Milliseconds(),
	})
}
