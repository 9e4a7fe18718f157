package payments

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/tekstil/internal/backend"
	"github.com/odyssey-erp/tekstil/internal/debt"
	"github.com/odyssey-erp/tekstil/internal/platform/httpx"
	"github.com/odyssey-erp/tekstil/internal/shared"
)

const formSessionHeader = "X-Form-Session"

// Handler exposes payment form endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the payments handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes under /payments/{kind}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/payments/{kind}", func(r chi.Router) {
		r.Get("/balance", h.handleBalance)
		r.Get("/suppliers/{key}/outstanding", h.handleSupplier)
		r.Post("/preview", h.handlePreview)
		r.Post("/", h.handleCreate)
		r.Put("/{id}", h.handleUpdate)
	})
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (backend.PaymentKind, bool) {
	kind, ok := backend.ParsePaymentKind(chi.URLParam(r, "kind"))
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "jenis pembayaran tidak dikenal")
	}
	return kind, ok
}

func queryInt(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s: %w", name, httpx.ErrValidation)
	}
	return v, nil
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	sjID, err := queryInt(r, "sj_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	exclude, err := queryInt(r, "exclude")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	bal, err := h.service.Balance(r.Context(), BalanceRequest{
		FormID:     r.Header.Get(formSessionHeader),
		Token:      shared.TokenFromContext(r.Context()),
		Kind:       kind,
		DocumentID: sjID,
		ExcludeID:  exclude,
	})
	if err != nil {
		h.respondError(w, "load balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bal)
}

func (h *Handler) handleSupplier(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	key, err := strconv.ParseInt(chi.URLParam(r, "key"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("supplier: %w", httpx.ErrValidation))
		return
	}
	roll, err := h.service.Supplier(r.Context(), r.Header.Get(formSessionHeader), shared.TokenFromContext(r.Context()), kind, key)
	if err != nil {
		h.respondError(w, "supplier rollup", err)
		return
	}
	httpx.JSON(w, http.StatusOK, roll)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	var req PreviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("body: %w", httpx.ErrValidation))
		return
	}
	req.FormID = r.Header.Get(formSessionHeader)
	req.Kind = kind
	live, err := h.service.Preview(r.Context(), req)
	if err != nil {
		h.respondError(w, "preview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, live)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, 0)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("id: %w", httpx.ErrValidation))
		return
	}
	h.submit(w, r, id)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, paymentID int64) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	var input SubmitInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, fmt.Errorf("body: %w", httpx.ErrValidation))
		return
	}
	payment, err := h.service.Submit(r.Context(), SubmitRequest{
		FormID:         r.Header.Get(formSessionHeader),
		Token:          shared.TokenFromContext(r.Context()),
		Kind:           kind,
		PaymentID:      paymentID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		Input:          input,
	})
	if err != nil {
		h.respondError(w, "submit payment", err)
		return
	}
	status := http.StatusCreated
	if paymentID != 0 {
		status = http.StatusOK
	}
	httpx.JSON(w, status, payment)
}

func (h *Handler) respondError(w http.ResponseWriter, context string, err error) {
	var verr ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.ValidationProblem(w, verr.Fields)
		return
	case errors.Is(err, ErrOverpayment):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
		return
	case errors.Is(err, debt.ErrSessionRequired):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "header "+formSessionHeader+" wajib diisi")
		return
	case errors.Is(err, debt.ErrNotLoaded):
		httpx.Problem(w, http.StatusConflict, "Conflict", "muat saldo terlebih dahulu")
		return
	}
	if _, ok := backend.AsAPIError(err); !ok && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrDuplicate) {
		h.logger.Error(context, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
