package report

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/tekstil/internal/platform/httpx"
)

// Handler exposes the PDF converter health check.
type Handler struct {
	client *Client
	logger *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{client: client, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
}

type pingResponse struct {
	Status    string                  `json:"status"`
	LatencyMS int64                   `json:"latency_ms"`
	Modules   map[string]HealthDetail `json:"modules,omitempty"`
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	health, err := h.client.Health(r.Context())
	resp := pingResponse{Status: "ok", LatencyMS: time.Since(started).Milliseconds(), Modules: health.Details}
	switch {
	case errors.Is(err, ErrDisabled):
		resp.Status = "disabled"
		httpx.JSON(w, http.StatusServiceUnavailable, resp)
	case err != nil:
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		resp.Status = "unavailable"
		httpx.JSON(w, http.StatusServiceUnavailable, resp)
	default:
		httpx.JSON(w, http.StatusOK, resp)
	}
}
