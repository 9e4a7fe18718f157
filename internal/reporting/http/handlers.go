package reporthttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/tekstil/internal/platform/httpx"
	"github.com/odyssey-erp/tekstil/internal/reporting"
	"github.com/odyssey-erp/tekstil/internal/reporting/export"
	"github.com/odyssey-erp/tekstil/internal/shared"
	"github.com/odyssey-erp/tekstil/internal/view"
)

const (
	formatJSON    = "json"
	formatPreview = "preview"
)

// ReportService builds reports.
type ReportService interface {
	Build(ctx context.Context, token string, q reporting.Query) (reporting.Report, error)
}

// Handler serves report endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	renderers export.Renderers
	templates *view.Engine
	pageSize  int
}

// NewHandler builds a report handler.
func NewHandler(logger *slog.Logger, service ReportService, renderers export.Renderers, templates *view.Engine, pageSize int) *Handler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Handler{logger: logger, service: service, renderers: renderers, templates: templates, pageSize: pageSize}
}

type definitionResponse struct {
	reporting.Definition
	URL string `json:"url"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	defs := reporting.Definitions()
	out := make([]definitionResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, definitionResponse{Definition: def, URL: "/reports/" + def.Name})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func queryFromRequest(r *http.Request) reporting.Query {
	q := r.URL.Query()
	return reporting.Query{
		Report: chi.URLParam(r, "name"),
		From:   q.Get("from"),
		To:     q.Get("to"),
		Status: q.Get("status"),
		Type:   q.Get("type"),
	}
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatJSON
	}
	switch format {
	case formatJSON, formatPreview, export.FormatExcel, export.FormatHTML, export.FormatPDF:
	default:
		httpx.RespondError(w, fmt.Errorf("format %q: %w", format, httpx.ErrValidation))
		return
	}
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("page: %w", httpx.ErrValidation))
			return
		}
		page = n
	}

	q := queryFromRequest(r)
	rep, err := h.service.Build(r.Context(), shared.TokenFromContext(r.Context()), q)
	if err != nil {
		h.handleBuildError(w, q, format, err)
		return
	}

	etag := fmt.Sprintf(`"%s-%s"`, rep.Digest(), format)
	if format == formatPreview {
		etag = fmt.Sprintf(`"%s-%s-%d"`, rep.Digest(), format, page)
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	switch format {
	case formatJSON:
		httpx.JSON(w, http.StatusOK, rep)
	case formatPreview:
		h.renderPreview(w, r, rep, page)
	case export.FormatHTML:
		doc, err := h.renderers.Print.HTML(rep, true)
		if err != nil {
			h.handleServerError(w, "render print", err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(w, doc); err != nil {
			h.logError("stream print", err)
		}
	default:
		artifact, err := h.renderers.Render(r.Context(), rep, format)
		if err != nil {
			h.handleServerError(w, "render "+format, err)
			return
		}
		disposition := "attachment"
		if format == export.FormatPDF {
			disposition = "inline"
		}
		w.Header().Set("Content-Type", artifact.ContentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": artifact.Filename}))
		w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(artifact.Data); err != nil {
			h.logError("stream "+format, err)
		}
	}
}

func (h *Handler) renderPreview(w http.ResponseWriter, r *http.Request, rep reporting.Report, page int) {
	preview := export.NewPreview(rep, page, h.pageSize, r.URL.Path, r.URL.Query())
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, preview)
		return
	}
	if err := h.templates.Render(w, export.PreviewTemplate, view.TemplateData{
		Title:       preview.Title,
		Subtitle:    preview.Period,
		CurrentPath: r.URL.Path,
		Data:        preview,
	}); err != nil {
		h.handleServerError(w, "render preview", err)
	}
}

func (h *Handler) handleBuildError(w http.ResponseWriter, q reporting.Query, format string, err error) {
	switch {
	case errors.Is(err, reporting.ErrUnknownReport):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "laporan tidak dikenal")
	case errors.Is(err, reporting.ErrInvalidQuery):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, reporting.ErrNoData):
		if format != export.FormatHTML && format != formatPreview {
			httpx.Problem(w, http.StatusNotFound, "Not Found", reporting.ErrNoData.Error())
			return
		}
		h.renderEmpty(w, q)
	default:
		if h.logger != nil {
			h.logger.Warn("build report", slog.String("report", q.Report), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}

func (h *Handler) renderEmpty(w http.ResponseWriter, q reporting.Query) {
	def, dr, err := q.Resolve()
	if err != nil {
		h.handleServerError(w, "resolve empty report", err)
		return
	}
	if err := h.templates.Render(w, "reports/empty.html", view.TemplateData{Title: def.Title, Subtitle: dr.Label()}); err != nil {
		h.handleServerError(w, "render empty report", err)
	}
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	mediaType, _, err := mime.ParseMediaType(accept)
	return err == nil && mediaType == "application/json"
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}
