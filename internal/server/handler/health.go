package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/treasurybot/internal/domain"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	network domain.Network
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler reporting the active network.
func NewHealthHandler(network domain.Network, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{network: network, logger: logger}
}

// HealthCheck responds with a simple JSON status indicating the server is alive.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"network":   h.network.String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
