package backend

import (
	"encoding/json"
	"fmt"

	"github.com/odyssey-erp/tekstil/internal/textile"
)

// endpoint fixes, per document kind, where the backend serves it and which
// envelope field wraps the payload. Responses are never shape-sniffed.
type endpoint struct {
	path        string
	listField   string
	detailField string
	normalize   func(json.RawMessage) (textile.Document, error)
}

var endpoints = map[textile.Kind]endpoint{
	textile.KindPurchaseContract: {path: "/purchase-contracts", listField: "contracts", detailField: "contract", normalize: normalizePurchaseContract},
	textile.KindPurchaseOrder:    {path: "/purchase-orders", listField: "orders", detailField: "order", normalize: normalizePurchaseOrder},
	textile.KindPurchaseDelivery: {path: "/purchase-surat-jalan", listField: "surat_jalan", detailField: "surat_jalan", normalize: normalizePurchaseDelivery},
	textile.KindSalesContract:    {path: "/sales-contracts", listField: "contracts", detailField: "contract", normalize: normalizeSalesContract},
	textile.KindSalesOrder:       {path: "/sales-orders", listField: "orders", detailField: "order", normalize: normalizeSalesOrder},
	textile.KindSalesDelivery:    {path: "/sales-surat-jalan", listField: "surat_jalan", detailField: "surat_jalan", normalize: normalizeSalesDelivery},
	textile.KindPackingList:      {path: "/packing-lists", listField: "packing_lists", detailField: "packing_list", normalize: normalizePackingList},
}

func lookup(kind textile.Kind) (endpoint, error) {
	ep, ok := endpoints[kind]
	if !ok {
		return endpoint{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return ep, nil
}

type purchaseContractWire struct {
	baseWire
	NoPC         string `json:"no_pc"`
	JenisKontrak string `json:"jenis_kontrak"`
	SupplierID   flexID `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
}

func normalizePurchaseContract(raw json.RawMessage) (textile.Document, error) {
	var w purchaseContractWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return textile.Document{}, fmt.Errorf("decode purchase contract: %w", err)
	}
	doc := w.document(textile.KindPurchaseContract)
	doc.Number = w.NoPC
	doc.PurchaseType = textile.PurchaseType(w.JenisKontrak)
	doc.CounterpartyID = int64(w.SupplierID)
	doc.CounterpartyName = w.SupplierName
	return doc, nil
}

type purchaseOrderWire struct {
	baseWire
	NoPO         string `json:"no_po"`
	NoPC         string `json:"no_pc"`
	JenisPO      string `json:"jenis_po"`
	SupplierID   flexID `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
}

func normalizePurchaseOrder(raw json.RawMessage) (textile.Document, error) {
	var w purchaseOrderWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return textile.Document{}, fmt.Errorf("decode purchase order: %w", err)
	}
	doc := w.document(textile.KindPurchaseOrder)
	doc.Number = w.NoPO
	doc.Reference = w.NoPC
	doc.PurchaseType = textile.PurchaseType(w.JenisPO)
	doc.CounterpartyID = int64(w.SupplierID)
	doc.CounterpartyName = w.SupplierName
	return doc, nil
}

type purchaseDeliveryWire struct {
	baseWire
	NoSJ         string `json:"no_sj"`
	NoPO         string `json:"no_po"`
	JenisPO      string `json:"jenis_po"`
	SupplierID   flexID `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
}

func normalizePurchaseDelivery(raw json.RawMessage) (textile.Document, error) {
	var w purchaseDeliveryWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return textile.Document{}, fmt.Errorf("decode purchase surat jalan: %w", err)
	}
	doc := w.document(textile.KindPurchaseDelivery)
	doc.Number = w.NoSJ
	doc.Reference = w.NoPO
	doc.PurchaseType = textile.PurchaseType(w.JenisPO)
	doc.CounterpartyID = int64(w.SupplierID)
	doc.CounterpartyName = w.SupplierName
	return doc, nil
}

type salesContractWire struct {
	baseWire
	NoSC         string   `json:"no_sc"`
	CustomerID   flexID   `json:"customer_id"`
	CustomerName string   `json:"customer_name"`
	IsVia        flexBool `json:"is_via"`
}

func normalizeSalesContract(raw json.RawMessage) (textile.Document, error) {
	var w salesContractWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return textile.Document{}, fmt.Errorf("decode sales contract: %w", err)
	}
	doc := w.document(textile.KindSalesContract)
	doc.Number = w.NoSC
	doc.CounterpartyID = int64(w.CustomerID)
	doc.CounterpartyName = w.CustomerName
	doc.IsVia = bool(w.IsVia)
	return doc, nil
}

type salesOrderWire struct {
	baseWire
	NoSO         string   `json:"no_so"`
	NoSC         string   `json:"no_sc"`
	CustomerID   flexID   `json:"customer_id"`
	CustomerName string   `json:"customer_name"`
	IsVia        flexBool `json:"is_via"`
}

func normalizeSalesOrder(raw json.RawMessage) (textile.Document, error) {
	var w salesOrderWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return textile.Document{}, fmt.Errorf("decode sales order: %w", err)
	}
	doc := w.document(textile.KindSalesOrder)
	doc.Number = w.NoSO
	doc.Reference = w.NoSC
	doc.CounterpartyID = int64(w.CustomerID)
	doc.CounterpartyName = w.CustomerName
	doc.IsVia = bool(w.IsVia)
	return doc, nil
}

type salesDeliveryWire struct {
	baseWire
	NoSJ         string `json:"no_sj"`
	NoSO         string `json:"no_so"`
	CustomerID   flexID `json:"customer_id"`
	CustomerName string `json:"customer_name"`
}

func normalizeSalesDelivery(raw json.RawMessage) (textile.Document, error) {
	var w salesDeliveryWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return textile.Document{}, fmt.Errorf("decode sales surat jalan: %w", err)
	}
	doc := w.document(textile.KindSalesDelivery)
	doc.Number = w.NoSJ
	doc.Reference = w.NoSO
	doc.CounterpartyID = int64(w.CustomerID)
	doc.CounterpartyName = w.CustomerName
	return doc, nil
}

type packingListWire struct {
	baseWire
	NoPL         string `json:"no_pl"`
	NoSO         string `json:"no_so"`
	CustomerID   flexID `json:"customer_id"`
	CustomerName string `json:"customer_name"`
}

func normalizePackingList(raw json.RawMessage) (textile.Document, error) {
	var w packingListWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return textile.Document{}, fmt.Errorf("decode packing list: %w", err)
	}
	doc := w.document(textile.KindPackingList)
	doc.Number = w.NoPL
	doc.Reference = w.NoSO
	doc.CounterpartyID = int64(w.CustomerID)
	doc.CounterpartyName = w.CustomerName
	return doc, nil
}

// PaymentKind separates supplier payments from customer receipts.
type PaymentKind string

const (
	// PaymentHutang pays a purchase surat jalan.
	PaymentHutang PaymentKind = "hutang"
	// PaymentPiutang receives against a sales surat jalan.
	PaymentPiutang PaymentKind = "piutang"
)

// ParsePaymentKind validates a payment kind path segment.
func ParsePaymentKind(v string) (PaymentKind, bool) {
	switch PaymentKind(v) {
	case PaymentHutang, PaymentPiutang:
		return PaymentKind(v), true
	default:
		return "", false
	}
}

// DeliveryKind is the document kind payments of this kind reference via sj_id.
func (k PaymentKind) DeliveryKind() textile.Kind {
	if k == PaymentPiutang {
		return textile.KindSalesDelivery
	}
	return textile.KindPurchaseDelivery
}

type paymentEndpoint struct {
	path        string
	listField   string
	detailField string
}

var paymentEndpoints = map[PaymentKind]paymentEndpoint{
	PaymentHutang:  {path: "/payments/hutang", listField: "payments", detailField: "payment"},
	PaymentPiutang: {path: "/payments/piutang", listField: "receipts", detailField: "receipt"},
}
