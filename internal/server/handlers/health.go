package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/avolkov/folio/internal/server/refresh"
	"github.com/avolkov/folio/internal/server/storage"
)

// HealthHandler serves the health check endpoint.
type HealthHandler struct {
	logger  *slog.Logger
	tokens  *refresh.Manager
	version string
}

// NewHealthHandler creates the health check handler.
func NewHealthHandler(logger *slog.Logger, tokens *refresh.Manager, version string) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		tokens:  tokens,
		version: version,
	}
}

// HealthResponse is the health check payload. Token counts come from
// storage, so a populated Tokens field doubles as a database liveness probe.
type HealthResponse struct {
	Status  string              `json:"status"`
	Version string              `json:"version,omitempty"`
	Tokens  *storage.TokenStats `json:"tokens,omitempty"`
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
	}
	statusCode := http.StatusOK

	stats, err := h.tokens.Stats(r.Context())
	if err != nil {
		h.logger.Error("health check storage probe failed", slog.Any("error", err))
		resp.Status = "degraded"
		statusCode = http.StatusServiceUnavailable
	} else {
		resp.Tokens = stats
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
