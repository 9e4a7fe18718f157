package exports

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/tekstil/internal/platform/httpx"
	"github.com/odyssey-erp/tekstil/internal/platform/objectstore"
)

// Handler serves export endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the export HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers export endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/exports", h.handleCreate)
	r.Get("/exports/{id}", h.handleGet)
	r.Get("/exports/{id}/download", h.handleDownload)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%v: %w", err, httpx.ErrValidation))
		return
	}
	e, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, "create export", err)
		return
	}
	w.Header().Set("Location", "/exports/"+e.ID.String())
	httpx.JSON(w, http.StatusAccepted, e)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("id: %w", httpx.ErrNotFound))
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get export", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("id: %w", httpx.ErrNotFound))
		return
	}
	e, obj, err := h.service.Download(r.Context(), id)
	if err != nil {
		h.respondError(w, "download export", err)
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": e.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(obj.Data); err != nil && h.logger != nil {
		h.logger.Error("stream export", slog.Any("error", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, context string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, objectstore.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "export tidak ditemukan")
	case errors.Is(err, ErrNotReady):
		httpx.Problem(w, http.StatusConflict, "Conflict", "export belum selesai")
	default:
		if h.logger != nil {
			h.logger.Warn(context, slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
