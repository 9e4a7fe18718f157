package debt

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/tekstil/internal/backend"
	"github.com/odyssey-erp/tekstil/internal/platform/cache"
	"github.com/odyssey-erp/tekstil/internal/textile"
)

var (
	// ErrSessionRequired is returned when no form session id was supplied.
	ErrSessionRequired = errors.New("debt: form session required")
	// ErrNotLoaded is returned by Preview before the balance was loaded in the session.
	ErrNotLoaded = errors.New("debt: balance not loaded in this session")
)

// Source reads delivery notes and payments from the ERP backend.
type Source interface {
	List(ctx context.Context, token string, kind textile.Kind, filter backend.ListFilter) ([]textile.Document, error)
	Detail(ctx context.Context, token string, kind textile.Kind, id int64) (textile.Document, error)
	Payments(ctx context.Context, token string, kind backend.PaymentKind) ([]textile.Payment, error)
}

// Balance is the base remaining of one delivery note.
type Balance struct {
	Invoice   Invoice         `json:"invoice"`
	Paid      decimal.Decimal `json:"paid"`
	Discount  decimal.Decimal `json:"discount"`
	Remaining decimal.Decimal `json:"remaining"`
	ExcludeID int64           `json:"exclude_id,omitempty"`
}

// Rollup is the outstanding debt of one supplier or customer, per currency.
type Rollup struct {
	CounterpartyID int64                                `json:"counterparty_id"`
	Invoices       []Invoice                            `json:"invoices"`
	Outstanding    map[textile.Currency]decimal.Decimal `json:"outstanding"`
}

// Session memoises balances and rollups for the lifetime of one payment form
// session. Keys are namespaced by the form session id so a submit only
// invalidates its own form.
type Session struct {
	source  Source
	cache   *cache.JSONCache
	logger  *slog.Logger
	workers int
	group   singleflight.Group
}

// NewSession builds the session memo. workers bounds rollup detail fetches.
func NewSession(source Source, c *cache.JSONCache, logger *slog.Logger, workers int) *Session {
	if workers <= 0 {
		workers = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{source: source, cache: c, logger: logger, workers: workers}
}

func namespace(formID string) (string, error) {
	if formID == "" {
		return "", ErrSessionRequired
	}
	sum := blake2b.Sum256([]byte(formID))
	return "form:" + hex.EncodeToString(sum[:12]), nil
}

func (s *Session) balanceKey(ctx context.Context, formID string, kind backend.PaymentKind, documentID, excludeID int64) (string, error) {
	ns, err := namespace(formID)
	if err != nil {
		return "", err
	}
	return s.cache.BuildKey(ctx, ns, string(kind), "sj", strconv.FormatInt(documentID, 10), "x", strconv.FormatInt(excludeID, 10))
}

// Balance returns the base remaining of documentID, loading it once per
// form session.
func (s *Session) Balance(ctx context.Context, formID, token string, kind backend.PaymentKind, documentID, excludeID int64) (Balance, error) {
	key, err := s.balanceKey(ctx, formID, kind, documentID, excludeID)
	if err != nil {
		return Balance{}, err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var out Balance
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			return s.loadBalance(ctx, token, kind, documentID, excludeID)
		})
		return out, err
	})
	if err != nil {
		return Balance{}, err
	}
	return v.(Balance), nil
}

func (s *Session) loadBalance(ctx context.Context, token string, kind backend.PaymentKind, documentID, excludeID int64) (Balance, error) {
	var (
		doc      textile.Document
		payments []textile.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doc, err = s.source.Detail(gctx, token, kind.DeliveryKind(), documentID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.source.Payments(gctx, token, kind)
		return err
	})
	if err := g.Wait(); err != nil {
		return Balance{}, fmt.Errorf("debt: load balance %d: %w", documentID, err)
	}
	inv := InvoiceFromDocument(doc)
	paid, discount := Applied(payments, documentID, excludeID)
	return Balance{
		Invoice:   inv,
		Paid:      paid,
		Discount:  discount,
		Remaining: Remaining(inv, payments, excludeID),
		ExcludeID: excludeID,
	}, nil
}

// Preview applies the uncommitted input to the memoised base remaining. It
// never reaches the backend.
func (s *Session) Preview(ctx context.Context, formID string, kind backend.PaymentKind, documentID, excludeID int64, pembayaran, potongan decimal.Decimal) (LiveBalance, error) {
	key, err := s.balanceKey(ctx, formID, kind, documentID, excludeID)
	if err != nil {
		return LiveBalance{}, err
	}
	var base Balance
	ok, err := s.cache.Lookup(ctx, key, &base)
	if err != nil {
		return LiveBalance{}, err
	}
	if !ok {
		return LiveBalance{}, ErrNotLoaded
	}
	return Live(base.Remaining, pembayaran, potongan), nil
}

// Supplier returns the rollup of one counterparty, computed once per form
// session.
func (s *Session) Supplier(ctx context.Context, formID, token string, kind backend.PaymentKind, counterpartyID int64) (Rollup, error) {
	ns, err := namespace(formID)
	if err != nil {
		return Rollup{}, err
	}
	key, err := s.cache.BuildKey(ctx, ns, string(kind), "supplier", strconv.FormatInt(counterpartyID, 10))
	if err != nil {
		return Rollup{}, err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var out Rollup
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			return s.loadRollup(ctx, token, kind, counterpartyID)
		})
		return out, err
	})
	if err != nil {
		return Rollup{}, err
	}
	return v.(Rollup), nil
}

func (s *Session) loadRollup(ctx context.Context, token string, kind backend.PaymentKind, counterpartyID int64) (Rollup, error) {
	docKind := kind.DeliveryKind()
	docs, err := s.source.List(ctx, token, docKind, backend.ListFilter{CounterpartyID: counterpartyID})
	if err != nil {
		return Rollup{}, fmt.Errorf("debt: list %s: %w", docKind, err)
	}
	docs = slices.DeleteFunc(docs, func(doc textile.Document) bool {
		return doc.CounterpartyID != counterpartyID
	})
	payments, err := s.source.Payments(ctx, token, kind)
	if err != nil {
		return Rollup{}, fmt.Errorf("debt: payments %s: %w", kind, err)
	}

	invoices := make([]Invoice, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, doc := range docs {
		if len(doc.Items) > 0 {
			invoices[i] = InvoiceFromDocument(doc)
			continue
		}
		g.Go(func() error {
			detail, err := s.source.Detail(gctx, token, docKind, doc.ID)
			if err != nil {
				return fmt.Errorf("debt: detail %d: %w", doc.ID, err)
			}
			invoices[i] = InvoiceFromDocument(detail)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Rollup{}, err
	}

	byCurrency := make(map[textile.Currency][]Invoice)
	for _, inv := range invoices {
		byCurrency[inv.Currency] = append(byCurrency[inv.Currency], inv)
	}
	out := Rollup{
		CounterpartyID: counterpartyID,
		Invoices:       invoices,
		Outstanding:    make(map[textile.Currency]decimal.Decimal, len(byCurrency)),
	}
	for cur, group := range byCurrency {
		out.Outstanding[cur] = SupplierOutstanding(group, payments)
	}
	s.logger.Debug("supplier rollup computed",
		slog.String("kind", string(kind)),
		slog.Int64("counterparty_id", counterpartyID),
		slog.Int("invoices", len(invoices)))
	return out, nil
}

// Invalidate drops every memoised value of the form session, typically after
// a successful submit.
func (s *Session) Invalidate(ctx context.Context, formID string) error {
	ns, err := namespace(formID)
	if err != nil {
		return err
	}
	return s.cache.Bump(ctx, ns)
}
