package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/tekstil/internal/textile"
)

// flexDecimal decodes numbers, numeric strings, "" and null. Anything it
// cannot read becomes zero instead of failing the whole document.
type flexDecimal struct {
	decimal.Decimal
}

func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if raw == "" || raw == "null" {
		f.Decimal = decimal.Zero
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		f.Decimal = decimal.Zero
		return nil
	}
	f.Decimal = v
	return nil
}

// flexBool accepts true/false, 0/1 and their string forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	raw := strings.ToLower(strings.Trim(string(bytes.TrimSpace(data)), `"`))
	switch raw {
	case "1", "true", "yes":
		*b = true
	default:
		*b = false
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// flexTime parses the date formats the backend emits. Invalid dates become
// the zero time, rendered as "-".
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parseDate(raw)
	return nil
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if v, err := time.Parse(layout, raw); err == nil {
			return v
		}
	}
	return time.Time{}
}

// flexID accepts numeric ids sent either as numbers or strings.
type flexID int64

func (i *flexID) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if raw == "" || raw == "null" {
		*i = 0
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		*i = 0
		return nil
	}
	*i = flexID(v)
	return nil
}

type summaryWire struct {
	TotalMeter    flexDecimal `json:"total_meter"`
	TotalYard     flexDecimal `json:"total_yard"`
	TotalKilogram flexDecimal `json:"total_kilogram"`

	TotalMeterDalamProses    flexDecimal `json:"total_meter_dalam_proses"`
	TotalYardDalamProses     flexDecimal `json:"total_yard_dalam_proses"`
	TotalKilogramDalamProses flexDecimal `json:"total_kilogram_dalam_proses"`

	TotalMeterDalamSuratJalan    flexDecimal `json:"total_meter_dalam_surat_jalan"`
	TotalYardDalamSuratJalan     flexDecimal `json:"total_yard_dalam_surat_jalan"`
	TotalKilogramDalamSuratJalan flexDecimal `json:"total_kilogram_dalam_surat_jalan"`
}

func (s summaryWire) toSummary() textile.Summary {
	return textile.Summary{
		TotalMeter:                   s.TotalMeter.Decimal,
		TotalYard:                    s.TotalYard.Decimal,
		TotalKilogram:                s.TotalKilogram.Decimal,
		TotalMeterDalamProses:        s.TotalMeterDalamProses.Decimal,
		TotalYardDalamProses:         s.TotalYardDalamProses.Decimal,
		TotalKilogramDalamProses:     s.TotalKilogramDalamProses.Decimal,
		TotalMeterDalamSuratJalan:    s.TotalMeterDalamSuratJalan.Decimal,
		TotalYardDalamSuratJalan:     s.TotalYardDalamSuratJalan.Decimal,
		TotalKilogramDalamSuratJalan: s.TotalKilogramDalamSuratJalan.Decimal,
	}
}

type itemWire struct {
	ID          flexID      `json:"id"`
	Corak       string      `json:"corak_kain"`
	Warna       string      `json:"deskripsi_warna"`
	Grade       string      `json:"grade_name"`
	Meter       flexDecimal `json:"meter_total"`
	Yard        flexDecimal `json:"yard_total"`
	Kilogram    flexDecimal `json:"kilogram_total"`
	Harga       flexDecimal `json:"harga"`
	HargaGreige flexDecimal `json:"harga_greige"`
	HargaMaklun flexDecimal `json:"harga_maklun"`
}

func (w itemWire) toItem() textile.Item {
	return textile.Item{
		ID:          int64(w.ID),
		Fabric:      w.Corak,
		Color:       w.Warna,
		Grade:       w.Grade,
		Meter:       w.Meter.Decimal,
		Yard:        w.Yard.Decimal,
		Kilogram:    w.Kilogram.Decimal,
		UnitPrice:   w.Harga.Decimal,
		GreigePrice: w.HargaGreige.Decimal,
		MaklunPrice: w.HargaMaklun.Decimal,
	}
}

// baseWire holds the fields every document kind shares.
type baseWire struct {
	ID         flexID      `json:"id"`
	CreatedAt  flexTime    `json:"created_at"`
	SatuanUnit string      `json:"satuan_unit_name"`
	Currency   string      `json:"currency_name"`
	Summary    summaryWire `json:"summary"`
	Items      []itemWire  `json:"items"`
}

func (b baseWire) document(kind textile.Kind) textile.Document {
	items := make([]textile.Item, 0, len(b.Items))
	for _, it := range b.Items {
		items = append(items, it.toItem())
	}
	return textile.Document{
		ID:       int64(b.ID),
		Kind:     kind,
		Date:     b.CreatedAt.Time,
		UnitName: b.SatuanUnit,
		Currency: textile.ParseCurrency(b.Currency),
		Summary:  b.Summary.toSummary(),
		Items:    items,
	}
}

type paymentWire struct {
	ID            flexID      `json:"id"`
	SJID          flexID      `json:"sj_id"`
	NoPembayaran  string      `json:"no_pembayaran"`
	SupplierID    flexID      `json:"supplier_id"`
	CustomerID    flexID      `json:"customer_id"`
	Pembayaran    flexDecimal `json:"pembayaran"`
	Potongan      flexDecimal `json:"potongan"`
	PaymentMethod string      `json:"payment_method"`
	BankName      string      `json:"bank_name"`
	NoGiro        string      `json:"no_giro"`
	JatuhTempo    flexTime    `json:"tanggal_jatuh_tempo"`
	TanggalBayar  flexTime    `json:"tanggal_pembayaran"`
}

func (w paymentWire) toPayment() textile.Payment {
	counterparty := int64(w.SupplierID)
	if counterparty == 0 {
		counterparty = int64(w.CustomerID)
	}
	return textile.Payment{
		ID:             int64(w.ID),
		DocumentID:     int64(w.SJID),
		Number:         w.NoPembayaran,
		CounterpartyID: counterparty,
		Pembayaran:     w.Pembayaran.Decimal,
		Potongan:       w.Potongan.Decimal,
		Method:         w.PaymentMethod,
		Bank:           w.BankName,
		GiroNumber:     w.NoGiro,
		DueDate:        w.JatuhTempo.Time,
		PaidAt:         w.TanggalBayar.Time,
	}
}
