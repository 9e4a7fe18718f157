package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/tekstil/internal/textile"
)

const dateLayout = "2006-01-02"

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// DateRange is an inclusive range of calendar dates. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDateRange parses YYYY-MM-DD bounds; empty strings leave a bound open.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	var err error
	if from = strings.TrimSpace(from); from != "" {
		if r.From, err = time.Parse(dateLayout, from); err != nil {
			return DateRange{}, fmt.Errorf("from: %w", ErrInvalidQuery)
		}
	}
	if to = strings.TrimSpace(to); to != "" {
		if r.To, err = time.Parse(dateLayout, to); err != nil {
			return DateRange{}, fmt.Errorf("to: %w", ErrInvalidQuery)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return DateRange{}, fmt.Errorf("from after to: %w", ErrInvalidQuery)
	}
	return r, nil
}

// Bounded reports whether either bound is set.
func (r DateRange) Bounded() bool {
	return !r.From.IsZero() || !r.To.IsZero()
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Contains compares on the date only; time of day is ignored. An undated
// value is outside any bounded range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Bounded() {
		return true
	}
	if t.IsZero() {
		return false
	}
	day := dayOf(t)
	if !r.From.IsZero() && day.Before(dayOf(r.From)) {
		return false
	}
	if !r.To.IsZero() && day.After(dayOf(r.To)) {
		return false
	}
	return true
}

// Label renders the period for banners and filenames.
func (r DateRange) Label() string {
	switch {
	case !r.From.IsZero() && !r.To.IsZero():
		return FormatDate(r.From) + " - " + FormatDate(r.To)
	case !r.From.IsZero():
		return "Sejak " + FormatDate(r.From)
	case !r.To.IsZero():
		return "Sampai " + FormatDate(r.To)
	default:
		return "Semua Periode"
	}
}

// FormatDate renders a date as "02 Januari 2006", or "-" when missing.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// FilterByDate keeps the documents whose date falls in r.
func FilterByDate(docs []textile.Document, r DateRange) []textile.Document {
	if !r.Bounded() {
		return docs
	}
	out := make([]textile.Document, 0, len(docs))
	for _, doc := range docs {
		if r.Contains(doc.Date) {
			out = append(out, doc)
		}
	}
	return out
}
