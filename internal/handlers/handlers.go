// Package handlers implements the HTTP layer over the transfer services.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/klauslube/raro-ledger/internal/service"
)

// Handler holds the services used by the HTTP endpoints
type Handler struct {
	transfers service.Transferrer
	health    service.HealthChecker
	logger    *slog.Logger
}

// NewHandler creates a new Handler
func NewHandler(transfers service.Transferrer, health service.HealthChecker, logger *slog.Logger) *Handler {
	return &Handler{
		transfers: transfers,
		health:    health,
		logger:    logger,
	}
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.PingContext(r.Context()); err != nil {
			h.logger.Error("health check failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
