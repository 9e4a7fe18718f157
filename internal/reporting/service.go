// Package reporting assembles delivery note and order status reports from
// ERP backend documents.
package reporting

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/blake2b"

	"github.com/odyssey-erp/tekstil/internal/backend"
	"github.com/odyssey-erp/tekstil/internal/textile"
)

var (
	// ErrNoData is returned when a report has no rows after filtering.
	ErrNoData = errors.New("Tidak ada data")
	// ErrUnknownReport is returned for report names missing from the registry.
	ErrUnknownReport = errors.New("reporting: unknown report")
	// ErrInvalidQuery wraps report query validation failures.
	ErrInvalidQuery = errors.New("reporting: invalid query")
)

// Status tab values.
const (
	StatusDone    = "done"
	StatusNotDone = "not_done"
)

// Source reads documents from the ERP backend.
type Source interface {
	List(ctx context.Context, token string, kind textile.Kind, filter backend.ListFilter) ([]textile.Document, error)
	Detail(ctx context.Context, token string, kind textile.Kind, id int64) (textile.Document, error)
}

// Query selects a report and its filters.
type Query struct {
	Report string `json:"report" validate:"required"`
	From   string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Status string `json:"status" validate:"omitempty,oneof=done not_done"`
	Type   string `json:"type" validate:"omitempty,oneof=greige celup finish kain_jadi jual_beli"`
}

var queryValidator = validator.New()

// Resolve validates q and returns its definition and date range.
func (q Query) Resolve() (Definition, DateRange, error) {
	if err := queryValidator.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Definition{}, DateRange{}, fmt.Errorf("%s: %w", verrs[0].Field(), ErrInvalidQuery)
		}
		return Definition{}, DateRange{}, fmt.Errorf("%v: %w", err, ErrInvalidQuery)
	}
	def, ok := Lookup(q.Report)
	if !ok {
		return Definition{}, DateRange{}, fmt.Errorf("%w: %s", ErrUnknownReport, q.Report)
	}
	if q.Status != "" && !def.Tabs {
		return Definition{}, DateRange{}, fmt.Errorf("status: %w", ErrInvalidQuery)
	}
	if q.Type != "" && !def.TypeFilter {
		return Definition{}, DateRange{}, fmt.Errorf("type: %w", ErrInvalidQuery)
	}
	r, err := ParseDateRange(q.From, q.To)
	if err != nil {
		return Definition{}, DateRange{}, err
	}
	return def, r, nil
}

// Report is an assembled report ready for rendering.
type Report struct {
	Definition  Definition      `json:"definition"`
	Range       DateRange       `json:"-"`
	Period      string          `json:"period"`
	Status      string          `json:"status,omitempty"`
	Records     []Record        `json:"records"`
	Totals      []CurrencyTotal `json:"totals"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Filename is "<Title> - <Period>.<ext>".
func (r Report) Filename(ext string) string {
	return fmt.Sprintf("%s - %s.%s", r.Definition.Title, r.Period, ext)
}

// Digest is a content hash of the records and totals, stable across builds
// of the same backend state.
func (r Report) Digest() string {
	raw, err := json.Marshal(struct {
		Name    string          `json:"name"`
		Period  string          `json:"period"`
		Status  string          `json:"status"`
		Records []Record        `json:"records"`
		Totals  []CurrencyTotal `json:"totals"`
	}{r.Definition.Name, r.Period, r.Status, r.Records, r.Totals})
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:16])
}

// Service builds reports.
type Service struct {
	source    Source
	assembler *Assembler
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the report service.
func NewService(source Source, assembler *Assembler, logger *slog.Logger) *Service {
	if assembler == nil {
		assembler = &Assembler{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, assembler: assembler, logger: logger, now: time.Now}
}

// Build lists the report's documents, filters them by date, assembles their
// details, applies the status tab and sorts by date. Every call starts from
// an empty detail cache.
func (s *Service) Build(ctx context.Context, token string, q Query) (Report, error) {
	def, dr, err := q.Resolve()
	if err != nil {
		return Report{}, err
	}

	rows, err := s.source.List(ctx, token, def.Kind, backend.ListFilter{PurchaseType: textile.PurchaseType(q.Type)})
	if err != nil {
		return Report{}, fmt.Errorf("reporting: list %s: %w", def.Kind, err)
	}
	rows = FilterByDate(rows, dr)
	if len(rows) == 0 {
		return Report{}, ErrNoData
	}
	for i := range rows {
		if rows[i].Kind == "" {
			rows[i].Kind = def.Kind
		}
	}

	fetch := func(ctx context.Context, id int64) (textile.Document, error) {
		return s.source.Detail(ctx, token, def.Kind, id)
	}
	records := s.assembler.Assemble(ctx, rows, fetch, Normalizer(def.calc))
	records = filterStatus(records, q.Status)
	if len(records) == 0 {
		return Report{}, ErrNoData
	}
	SortRecords(records)

	s.logger.Debug("report built",
		slog.String("report", def.Name),
		slog.Int("rows", len(rows)),
		slog.Int("records", len(records)))
	return Report{
		Definition:  def,
		Range:       dr,
		Period:      dr.Label(),
		Status:      q.Status,
		Records:     records,
		Totals:      OrderedTotals(records),
		GeneratedAt: s.now(),
	}, nil
}

func filterStatus(records []Record, status string) []Record {
	if status == "" {
		return records
	}
	want := status == StatusDone
	out := records[:0]
	for _, rec := range records {
		if rec.MainData.Complete == want {
			out = append(out, rec)
		}
	}
	return out
}
