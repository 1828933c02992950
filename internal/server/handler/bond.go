package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/treasurybot/internal/bond"
	"github.com/alanyoungcy/treasurybot/internal/domain"
)

// bondView is the JSON shape of a bond descriptor plus its latest cached
// valuation, when one exists.
type bondView struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name"`
	BondToken    string   `json:"bond_token"`
	Type         string   `json:"type"`
	IsLP         bool     `json:"is_lp"`
	IconURL      string   `json:"icon_url,omitempty"`
	LPURL        string   `json:"lp_url,omitempty"`
	ValueUSD     *float64 `json:"value_usd,omitempty"`
	ReservePrice *float64 `json:"reserve_price,omitempty"`
	BondPriceUSD *float64 `json:"bond_price_usd,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
}

func newBondView(b *bond.Bond) bondView {
	return bondView{
		Name:        b.Name,
		DisplayName: b.DisplayName,
		BondToken:   b.BondToken,
		Type:        string(b.Type),
		IsLP:        b.IsLP,
		IconURL:     b.IconURL,
		LPURL:       b.LPURL,
	}
}

func (v *bondView) attach(val domain.Valuation) {
	v.ValueUSD = &val.Value
	v.ReservePrice = &val.ReservePrice
	v.BondPriceUSD = &val.BondPriceUSD
	v.UpdatedAt = val.CreatedAt.UTC().Format(time.RFC3339)
}

// BondHandler serves bond descriptor and valuation endpoints.
type BondHandler struct {
	registry *bond.Registry
	cache    domain.ValuationCache
	store    domain.ValuationStore // nil when persistence is disabled
	network  domain.Network
	logger   *slog.Logger
}

// NewBondHandler creates a BondHandler for the active network. store may be
// nil, which disables the history endpoint.
func NewBondHandler(registry *bond.Registry, cache domain.ValuationCache, store domain.ValuationStore, network domain.Network, logger *slog.Logger) *BondHandler {
	return &BondHandler{
		registry: registry,
		cache:    cache,
		store:    store,
		network:  network,
		logger:   logger,
	}
}

// ListBonds returns the bonds available on the active network, merged with
// their latest cached valuations. An optional ?network= query (name or chain
// ID) lists another network's registry view instead; cached valuations are
// still keyed by the requested network.
// GET /api/bonds
func (h *BondHandler) ListBonds(w http.ResponseWriter, r *http.Request) {
	log := logHandler(h.logger, "list_bonds")

	network := h.network
	if q := r.URL.Query().Get("network"); q != "" {
		parsed, err := domain.ParseNetwork(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown network "+q)
			return
		}
		network = parsed
	}

	bonds := h.registry.AvailableOn(network)
	names := make([]string, len(bonds))
	for i, b := range bonds {
		names[i] = b.Name
	}

	cached, err := h.cache.GetAll(r.Context(), network, names)
	if err != nil {
		log.WarnContext(r.Context(), "cache lookup failed",
			slog.String("error", err.Error()),
		)
		cached = nil
	}

	views := make([]bondView, len(bonds))
	for i, b := range bonds {
		views[i] = newBondView(b)
		if val, ok := cached[b.Name]; ok {
			views[i].attach(val)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"network": network.String(),
		"bonds":   views,
		"count":   len(views),
	})
}

// GetBond returns a single bond descriptor with its latest cached valuation.
// GET /api/bonds/{name}
func (h *BondHandler) GetBond(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing bond name")
		return
	}

	b, ok := h.registry.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown bond")
		return
	}
	if !b.AvailableOn(h.network) {
		writeError(w, http.StatusNotFound, "bond not available on "+h.network.String())
		return
	}

	view := newBondView(b)
	val, err := h.cache.Get(r.Context(), h.network, b.Name)
	switch {
	case err == nil:
		view.attach(val)
	case errors.Is(err, domain.ErrNotFound):
		// Not refreshed yet; serve the bare descriptor.
	default:
		logHandler(h.logger, "get_bond").WarnContext(r.Context(), "cache lookup failed",
			slog.String("bond", b.Name),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, http.StatusOK, view)
}

// History returns persisted valuation snapshots for a bond, newest first.
// GET /api/bonds/{name}/history
func (h *BondHandler) History(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing bond name")
		return
	}
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "history persistence is disabled")
		return
	}

	b, ok := h.registry.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown bond")
		return
	}

	list, err := h.store.History(r.Context(), h.network, b.Name, parseLimit(r))
	if err != nil {
		logHandler(h.logger, "bond_history").ErrorContext(r.Context(), "history query failed",
			slog.String("bond", b.Name),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load bond history")
		return
	}
	if list == nil {
		list = []domain.Valuation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bond":    b.Name,
		"network": h.network.String(),
		"history": list,
		"count":   len(list),
	})
}
