// Package quantity computes remaining (outstanding) quantities of contracts,
// orders and delivery notes from their backend summaries.
package quantity

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/tekstil/internal/textile"
)

// Status classifies a remaining-quantity result.
type Status string

const (
	// StatusNone means no usable data: unknown unit or zero total.
	StatusNone Status = "-"
	// StatusDone means nothing remains.
	StatusDone Status = "DONE"
	// StatusOpen means some quantity remains.
	StatusOpen Status = "OPEN"
)

// Result is the outcome of one remaining-quantity calculation.
type Result struct {
	Unit      textile.Unit    `json:"unit,omitempty"`
	Total     decimal.Decimal `json:"total"`
	InProcess decimal.Decimal `json:"in_process"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    Status          `json:"status"`
}

// Label renders the status for display, e.g. "120.00 / 500.00".
func (r Result) Label() string {
	switch r.Status {
	case StatusDone:
		return string(StatusDone)
	case StatusOpen:
		return fmt.Sprintf("%s / %s", r.Remaining.StringFixed(2), r.Total.StringFixed(2))
	default:
		return string(StatusNone)
	}
}

// Calculator is a named remaining-quantity rule. System and Real read
// different consumed-quantity fields and are kept apart on purpose.
type Calculator struct {
	name     string
	consumed func(textile.Summary, textile.Unit) decimal.Decimal
}

var (
	// System subtracts total_<unit>_dalam_proses.
	System = Calculator{name: "system", consumed: textile.Summary.InProcess}
	// Real subtracts total_<unit>_dalam_surat_jalan.
	Real = Calculator{name: "real", consumed: textile.Summary.Shipped}
)

// Name identifies the calculator.
func (c Calculator) Name() string {
	return c.name
}

// ParseMode resolves a filter mode. Empty selects System.
func ParseMode(mode string) (Calculator, error) {
	switch mode {
	case "", System.name:
		return System, nil
	case Real.name:
		return Real, nil
	default:
		return Calculator{}, fmt.Errorf("quantity: unknown mode %q", mode)
	}
}

// Remaining computes the outstanding quantity of summary in the named unit.
func (c Calculator) Remaining(summary textile.Summary, unitName string) Result {
	unit, ok := textile.ParseUnit(unitName)
	if !ok || c.consumed == nil {
		return Result{Status: StatusNone}
	}
	total := summary.Total(unit)
	consumed := c.consumed(summary, unit)
	res := Result{Unit: unit, Total: total, InProcess: consumed}
	if total.IsZero() {
		res.Status = StatusNone
		return res
	}
	remaining := total.Sub(consumed)
	if remaining.Sign() <= 0 {
		res.Remaining = decimal.Zero
		res.Status = StatusDone
		return res
	}
	res.Remaining = remaining
	res.Status = StatusOpen
	return res
}

// Document is Remaining applied to a document's own summary and unit.
func (c Calculator) Document(doc textile.Document) Result {
	return c.Remaining(doc.Summary, doc.UnitName)
}

// IsComplete reports whether doc has nothing left to process.
func (c Calculator) IsComplete(doc textile.Document) bool {
	return c.Document(doc).Status == StatusDone
}
