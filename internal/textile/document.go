package textile

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies a backend document family.
type Kind string

const (
	KindPurchaseContract Kind = "purchase-contract"
	KindPurchaseOrder    Kind = "purchase-order"
	KindPurchaseDelivery Kind = "purchase-delivery"
	KindSalesContract    Kind = "sales-contract"
	KindSalesOrder       Kind = "sales-order"
	KindSalesDelivery    Kind = "sales-delivery"
	KindPackingList      Kind = "packing-list"
)

// Kinds lists every document family the service understands.
var Kinds = []Kind{
	KindPurchaseContract,
	KindPurchaseOrder,
	KindPurchaseDelivery,
	KindSalesContract,
	KindSalesOrder,
	KindSalesDelivery,
	KindPackingList,
}

// ParseKind validates a kind path segment.
func ParseKind(v string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == v {
			return k, true
		}
	}
	return "", false
}

// PurchaseType is the jenis of a purchase order or purchase delivery note.
type PurchaseType string

const (
	PurchaseGreige   PurchaseType = "greige"
	PurchaseCelup    PurchaseType = "celup"
	PurchaseFinish   PurchaseType = "finish"
	PurchaseKainJadi PurchaseType = "kain_jadi"
	PurchaseJualBeli PurchaseType = "jual_beli"
)

// Valid reports whether t is a known purchase type. The empty type is valid.
func (t PurchaseType) Valid() bool {
	switch t {
	case "", PurchaseGreige, PurchaseCelup, PurchaseFinish, PurchaseKainJadi, PurchaseJualBeli:
		return true
	default:
		return false
	}
}

// Summary carries the backend-maintained aggregate totals of a document.
type Summary struct {
	TotalMeter    decimal.Decimal `json:"total_meter"`
	TotalYard     decimal.Decimal `json:"total_yard"`
	TotalKilogram decimal.Decimal `json:"total_kilogram"`

	TotalMeterDalamProses    decimal.Decimal `json:"total_meter_dalam_proses"`
	TotalYardDalamProses     decimal.Decimal `json:"total_yard_dalam_proses"`
	TotalKilogramDalamProses decimal.Decimal `json:"total_kilogram_dalam_proses"`

	TotalMeterDalamSuratJalan    decimal.Decimal `json:"total_meter_dalam_surat_jalan"`
	TotalYardDalamSuratJalan     decimal.Decimal `json:"total_yard_dalam_surat_jalan"`
	TotalKilogramDalamSuratJalan decimal.Decimal `json:"total_kilogram_dalam_surat_jalan"`
}

// Total returns total_<unit>.
func (s Summary) Total(u Unit) decimal.Decimal {
	switch u {
	case UnitMeter:
		return s.TotalMeter
	case UnitYard:
		return s.TotalYard
	case UnitKilogram:
		return s.TotalKilogram
	default:
		return decimal.Zero
	}
}

// InProcess returns total_<unit>_dalam_proses.
func (s Summary) InProcess(u Unit) decimal.Decimal {
	switch u {
	case UnitMeter:
		return s.TotalMeterDalamProses
	case UnitYard:
		return s.TotalYardDalamProses
	case UnitKilogram:
		return s.TotalKilogramDalamProses
	default:
		return decimal.Zero
	}
}

// Shipped returns total_<unit>_dalam_surat_jalan.
func (s Summary) Shipped(u Unit) decimal.Decimal {
	switch u {
	case UnitMeter:
		return s.TotalMeterDalamSuratJalan
	case UnitYard:
		return s.TotalYardDalamSuratJalan
	case UnitKilogram:
		return s.TotalKilogramDalamSuratJalan
	default:
		return decimal.Zero
	}
}

// Document is the normalised view of any backend document.
type Document struct {
	ID               int64        `json:"id"`
	Kind             Kind         `json:"kind"`
	Number           string       `json:"number"`
	Date             time.Time    `json:"date"`
	UnitName         string       `json:"unit_name"`
	Currency         Currency     `json:"currency"`
	CounterpartyID   int64        `json:"counterparty_id"`
	CounterpartyName string       `json:"counterparty_name"`
	Reference        string       `json:"reference,omitempty"`
	IsVia            bool         `json:"is_via"`
	PurchaseType     PurchaseType `json:"purchase_type,omitempty"`
	Summary          Summary      `json:"summary"`
	Items            []Item       `json:"items,omitempty"`
}

// Unit resolves the document's unit name. ok is false for unknown names.
func (d Document) Unit() (Unit, bool) {
	return ParseUnit(d.UnitName)
}

// Principal is the invoice amount of the document: the sum of its line subtotals.
func (d Document) Principal() decimal.Decimal {
	unit, _ := d.Unit()
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.Subtotal(unit, d.PurchaseType))
	}
	return total
}

// Item is one line of a document.
type Item struct {
	ID          int64           `json:"id"`
	Fabric      string          `json:"fabric"`
	Color       string          `json:"color"`
	Grade       string          `json:"grade"`
	Meter       decimal.Decimal `json:"meter"`
	Yard        decimal.Decimal `json:"yard"`
	Kilogram    decimal.Decimal `json:"kilogram"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	GreigePrice decimal.Decimal `json:"greige_price"`
	MaklunPrice decimal.Decimal `json:"maklun_price"`
}

// Quantity returns the line quantity in the document's native unit.
func (i Item) Quantity(u Unit) decimal.Decimal {
	switch u {
	case UnitMeter:
		return i.Meter
	case UnitYard:
		return i.Yard
	case UnitKilogram:
		return i.Kilogram
	default:
		return decimal.Zero
	}
}

// Price returns the effective unit price. Finished fabric (kain jadi) lines
// sum the greige and maklun components.
func (i Item) Price(t PurchaseType) decimal.Decimal {
	if t == PurchaseKainJadi {
		return i.GreigePrice.Add(i.MaklunPrice)
	}
	return i.UnitPrice
}

// Subtotal is quantity in the document unit times the effective price.
func (i Item) Subtotal(u Unit, t PurchaseType) decimal.Decimal {
	return i.Quantity(u).Mul(i.Price(t))
}
