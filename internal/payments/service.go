package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/tekstil/internal/backend"
	"github.com/odyssey-erp/tekstil/internal/debt"
	"github.com/odyssey-erp/tekstil/internal/platform/httpx"
	"github.com/odyssey-erp/tekstil/internal/shared"
	"github.com/odyssey-erp/tekstil/internal/textile"
)

// Backend submits payments to the ERP backend.
type Backend interface {
	CreatePayment(ctx context.Context, token string, kind backend.PaymentKind, input backend.PaymentInput) (textile.Payment, error)
	UpdatePayment(ctx context.Context, token string, kind backend.PaymentKind, id int64, input backend.PaymentInput) (textile.Payment, error)
}

// Ledger exposes memoised balances for one form session.
type Ledger interface {
	Balance(ctx context.Context, formID, token string, kind backend.PaymentKind, documentID, excludeID int64) (debt.Balance, error)
	Supplier(ctx context.Context, formID, token string, kind backend.PaymentKind, counterpartyID int64) (debt.Rollup, error)
	Preview(ctx context.Context, formID string, kind backend.PaymentKind, documentID, excludeID int64, pembayaran, potongan decimal.Decimal) (debt.LiveBalance, error)
	Invalidate(ctx context.Context, formID string) error
}

// IdempotencyStore records submitted Idempotency-Key values.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, scope string) error
	Delete(ctx context.Context, key, scope string) error
}

// Service coordinates payment form operations.
type Service struct {
	backend   Backend
	ledger    Ledger
	idem      IdempotencyStore
	validator *validator.Validate
	logger    *slog.Logger
}

// NewService constructs the payments service. idem may be nil.
func NewService(b Backend, ledger Ledger, idem IdempotencyStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, ledger: ledger, idem: idem, validator: newValidator(), logger: logger}
}

// BalanceRequest identifies one delivery note in one form session.
type BalanceRequest struct {
	FormID     string
	Token      string
	Kind       backend.PaymentKind
	DocumentID int64
	ExcludeID  int64
}

// Balance returns the base remaining of a delivery note.
func (s *Service) Balance(ctx context.Context, req BalanceRequest) (debt.Balance, error) {
	if req.DocumentID <= 0 {
		return debt.Balance{}, fmt.Errorf("sj_id: %w", httpx.ErrValidation)
	}
	return s.ledger.Balance(ctx, req.FormID, req.Token, req.Kind, req.DocumentID, req.ExcludeID)
}

// Supplier returns the counterparty rollup.
func (s *Service) Supplier(ctx context.Context, formID, token string, kind backend.PaymentKind, counterpartyID int64) (debt.Rollup, error) {
	if counterpartyID <= 0 {
		return debt.Rollup{}, fmt.Errorf("counterparty: %w", httpx.ErrValidation)
	}
	return s.ledger.Supplier(ctx, formID, token, kind, counterpartyID)
}

// PreviewRequest carries the values typed so far.
type PreviewRequest struct {
	FormID     string              `json:"-"`
	Kind       backend.PaymentKind `json:"-"`
	DocumentID int64               `json:"sj_id"`
	ExcludeID  int64               `json:"exclude_id"`
	Pembayaran decimal.Decimal     `json:"pembayaran"`
	Potongan   decimal.Decimal     `json:"potongan"`
}

// Preview returns the live remaining for the typed values.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (debt.LiveBalance, error) {
	return s.ledger.Preview(ctx, req.FormID, req.Kind, req.DocumentID, req.ExcludeID, req.Pembayaran, req.Potongan)
}

// SubmitRequest creates a payment when PaymentID is zero and updates it
// otherwise.
type SubmitRequest struct {
	FormID         string
	Token          string
	Kind           backend.PaymentKind
	PaymentID      int64
	IdempotencyKey string
	Input          SubmitInput
}

// Submit validates the payment, guards against overpayment and duplicates,
// then forwards it to the backend. Backend errors are returned unchanged.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (textile.Payment, error) {
	if err := validateInput(s.validator, req.Input); err != nil {
		return textile.Payment{}, err
	}
	scope := "payments:" + string(req.Kind)
	if s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, req.IdempotencyKey, scope); err != nil {
			switch {
			case errors.Is(err, shared.ErrIdempotencyConflict):
				return textile.Payment{}, fmt.Errorf("%w: %v", httpx.ErrDuplicate, err)
			case errors.Is(err, shared.ErrIdempotencyKeyInvalid):
				return textile.Payment{}, fmt.Errorf("Idempotency-Key: %w", httpx.ErrValidation)
			}
			return textile.Payment{}, fmt.Errorf("payments: idempotency: %w", err)
		}
	}

	payment, err := s.submit(ctx, req)
	if err != nil {
		if s.idem != nil {
			if derr := s.idem.Delete(ctx, req.IdempotencyKey, scope); derr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		return textile.Payment{}, err
	}

	if req.FormID != "" {
		if err := s.ledger.Invalidate(ctx, req.FormID); err != nil {
			s.logger.Warn("invalidate form session", slog.String("form", req.FormID), slog.Any("error", err))
		}
	}
	s.logger.Info("payment submitted",
		slog.String("kind", string(req.Kind)),
		slog.Int64("sj_id", req.Input.SJID),
		slog.Int64("payment_id", payment.ID),
		slog.Bool("update", req.PaymentID != 0))
	return payment, nil
}

func (s *Service) submit(ctx context.Context, req SubmitRequest) (textile.Payment, error) {
	formID := req.FormID
	if formID == "" {
		formID = "submit:" + uuid.NewString()
	}
	bal, err := s.ledger.Balance(ctx, formID, req.Token, req.Kind, req.Input.SJID, req.PaymentID)
	if err != nil {
		return textile.Payment{}, err
	}
	if req.Input.Settled().GreaterThan(bal.Remaining) {
		return textile.Payment{}, fmt.Errorf("%w: sisa %s", ErrOverpayment,
			textile.FormatMoney(bal.Invoice.Currency, bal.Remaining))
	}

	input := req.Input.backendInput()
	if req.PaymentID != 0 {
		return s.backend.UpdatePayment(ctx, req.Token, req.Kind, req.PaymentID, input)
	}
	return s.backend.CreatePayment(ctx, req.Token, req.Kind, input)
}
