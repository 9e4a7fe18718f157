package quantity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/tekstil/internal/backend"
	"github.com/odyssey-erp/tekstil/internal/platform/httpx"
	"github.com/odyssey-erp/tekstil/internal/shared"
	"github.com/odyssey-erp/tekstil/internal/textile"
)

// DocumentSource reads documents from the ERP backend.
type DocumentSource interface {
	List(ctx context.Context, token string, kind textile.Kind, filter backend.ListFilter) ([]textile.Document, error)
	Detail(ctx context.Context, token string, kind textile.Kind, id int64) (textile.Document, error)
}

// Handler serves remaining-quantity lookups and picker options.
type Handler struct {
	logger *slog.Logger
	source DocumentSource
}

// NewHandler constructs the quantity HTTP handler.
func NewHandler(logger *slog.Logger, source DocumentSource) *Handler {
	return &Handler{logger: logger, source: source}
}

// MountRoutes registers quantity endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/documents/{kind}/{id}/remaining", h.handleRemaining)
	r.Get("/pickers/{kind}", h.handlePicker)
}

type remainingResponse struct {
	DocumentID int64  `json:"document_id"`
	Number     string `json:"number"`
	Mode       string `json:"mode"`
	Label      string `json:"label"`
	Complete   bool   `json:"complete"`
	Result
}

func (h *Handler) handleRemaining(w http.ResponseWriter, r *http.Request) {
	kind, ok := textile.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		httpx.RespondError(w, fmt.Errorf("kind: %w", httpx.ErrNotFound))
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("id: %w", httpx.ErrValidation))
		return
	}
	calc, err := modeFromRequest(r)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%v: %w", err, httpx.ErrValidation))
		return
	}

	doc, err := h.source.Detail(r.Context(), shared.TokenFromContext(r.Context()), kind, id)
	if err != nil {
		h.respondBackendError(w, "load document", err)
		return
	}
	res := calc.Document(doc)
	httpx.JSON(w, http.StatusOK, remainingResponse{
		DocumentID: doc.ID,
		Number:     doc.Number,
		Mode:       calc.Name(),
		Label:      res.Label(),
		Complete:   res.Status == StatusDone,
		Result:     res,
	})
}

type pickerResponse struct {
	Kind    textile.Kind `json:"kind"`
	Mode    string       `json:"mode"`
	Options []Option     `json:"options"`
}

func (h *Handler) handlePicker(w http.ResponseWriter, r *http.Request) {
	kind, ok := textile.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		httpx.RespondError(w, fmt.Errorf("kind: %w", httpx.ErrNotFound))
		return
	}
	calc, err := modeFromRequest(r)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%v: %w", err, httpx.ErrValidation))
		return
	}
	query := r.URL.Query()
	filter := backend.ListFilter{PurchaseType: textile.PurchaseType(query.Get("type"))}
	if !filter.PurchaseType.Valid() {
		httpx.RespondError(w, fmt.Errorf("type: %w", httpx.ErrValidation))
		return
	}
	if raw := query.Get("counterparty_id"); raw != "" {
		cid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("counterparty_id: %w", httpx.ErrValidation))
			return
		}
		filter.CounterpartyID = cid
	}
	via := query.Get("via")
	switch via {
	case "", "true", "1", "false", "0":
	default:
		httpx.RespondError(w, fmt.Errorf("via: %w", httpx.ErrValidation))
		return
	}

	docs, err := h.source.List(r.Context(), shared.TokenFromContext(r.Context()), kind, filter)
	if err != nil {
		h.respondBackendError(w, "list documents", err)
		return
	}
	docs = FilterOpen(docs, calc)
	regular, viaDocs := PartitionVia(docs)
	switch via {
	case "true", "1":
		docs = viaDocs
	case "false", "0":
		docs = regular
	}
	httpx.JSON(w, http.StatusOK, pickerResponse{Kind: kind, Mode: calc.Name(), Options: Options(docs, calc)})
}

func (h *Handler) respondBackendError(w http.ResponseWriter, context string, err error) {
	if h.logger != nil {
		h.logger.Warn(context, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func modeFromRequest(r *http.Request) (Calculator, error) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = r.URL.Query().Get("filter")
	}
	return ParseMode(mode)
}
