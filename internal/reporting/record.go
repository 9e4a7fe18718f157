package reporting

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/tekstil/internal/quantity"
	"github.com/odyssey-erp/tekstil/internal/textile"
)

// MainData holds the parent document's display fields.
type MainData struct {
	DocumentID   int64                `json:"id"`
	Date         time.Time            `json:"-"`
	Tanggal      string               `json:"tanggal"`
	DateLabel    string               `json:"tanggal_label"`
	Number       string               `json:"no_dokumen"`
	Reference    string               `json:"no_referensi,omitempty"`
	Counterparty string               `json:"nama"`
	Currency     textile.Currency     `json:"currency"`
	Unit         string               `json:"satuan"`
	PurchaseType textile.PurchaseType `json:"jenis,omitempty"`
	Status       string               `json:"status,omitempty"`
	Complete     bool                 `json:"complete"`
}

// Line is one item row of a document.
type Line struct {
	Fabric      string          `json:"corak_kain"`
	Color       string          `json:"warna"`
	Grade       string          `json:"grade"`
	Meter       decimal.Decimal `json:"meter"`
	Yard        decimal.Decimal `json:"yard"`
	Kilogram    decimal.Decimal `json:"kilogram"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"harga_satuan"`
	UnitPrice   decimal.Decimal `json:"harga"`
	GreigePrice decimal.Decimal `json:"harga_greige"`
	MaklunPrice decimal.Decimal `json:"harga_maklun"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Record groups a document's lines under its main data.
type Record struct {
	MainData MainData `json:"mainData"`
	Items    []Line   `json:"items"`
}

// Subtotal sums the record's line subtotals.
func (r Record) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range r.Items {
		total = total.Add(line.Subtotal)
	}
	return total
}

// NormalizeFunc maps a fetched detail into a record.
type NormalizeFunc func(textile.Document) Record

// Normalizer builds the NormalizeFunc of a report. A nil calc leaves the
// status columns empty.
func Normalizer(calc *quantity.Calculator) NormalizeFunc {
	return func(doc textile.Document) Record {
		return Normalize(doc, calc)
	}
}

// Normalize maps one document detail into a record.
func Normalize(doc textile.Document, calc *quantity.Calculator) Record {
	unit, _ := doc.Unit()
	main := MainData{
		DocumentID:   doc.ID,
		Date:         doc.Date,
		DateLabel:    FormatDate(doc.Date),
		Number:       placeholder(doc.Number),
		Reference:    doc.Reference,
		Counterparty: placeholder(doc.CounterpartyName),
		Currency:     doc.Currency,
		Unit:         placeholder(doc.UnitName),
		PurchaseType: doc.PurchaseType,
	}
	if !doc.Date.IsZero() {
		main.Tanggal = doc.Date.Format(dateLayout)
	}
	if main.Currency == "" {
		main.Currency = textile.IDR
	}
	if calc != nil {
		res := calc.Document(doc)
		main.Status = res.Label()
		main.Complete = res.Status == quantity.StatusDone
	}

	lines := make([]Line, 0, len(doc.Items))
	for _, item := range doc.Items {
		lines = append(lines, Line{
			Fabric:      placeholder(item.Fabric),
			Color:       placeholder(item.Color),
			Grade:       placeholder(item.Grade),
			Meter:       item.Meter,
			Yard:        item.Yard,
			Kilogram:    item.Kilogram,
			Quantity:    item.Quantity(unit),
			Price:       item.Price(doc.PurchaseType),
			UnitPrice:   item.UnitPrice,
			GreigePrice: item.GreigePrice,
			MaklunPrice: item.MaklunPrice,
			Subtotal:    item.Subtotal(unit, doc.PurchaseType),
		})
	}
	return Record{MainData: main, Items: lines}
}

func placeholder(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

// SortRecords orders records by date ascending, keeping fetch order on ties.
// Undated records go last.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].MainData.Date, records[j].MainData.Date
		switch {
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		default:
			return dayOf(a).Before(dayOf(b))
		}
	})
}

// CurrencyTotal is one grand-total row.
type CurrencyTotal struct {
	Currency textile.Currency `json:"currency"`
	Amount   decimal.Decimal  `json:"amount"`
}

// Totals accumulates line subtotals separately per currency.
func Totals(records []Record) map[textile.Currency]decimal.Decimal {
	out := make(map[textile.Currency]decimal.Decimal)
	for _, rec := range records {
		cur := rec.MainData.Currency
		out[cur] = out[cur].Add(rec.Subtotal())
	}
	return out
}

// OrderedTotals lists the per-currency totals IDR first, then USD, omitting
// zero totals.
func OrderedTotals(records []Record) []CurrencyTotal {
	totals := Totals(records)
	out := make([]CurrencyTotal, 0, len(textile.Currencies))
	for _, cur := range textile.Currencies {
		amount, ok := totals[cur]
		if !ok || amount.IsZero() {
			continue
		}
		out = append(out, CurrencyTotal{Currency: cur, Amount: amount})
	}
	return out
}
