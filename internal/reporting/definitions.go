package reporting

import (
	"github.com/odyssey-erp/tekstil/internal/quantity"
	"github.com/odyssey-erp/tekstil/internal/textile"
)

// Definition describes one report: which documents it lists and how it is
// laid out.
type Definition struct {
	Name       string       `json:"name"`
	Title      string       `json:"title"`
	Kind       textile.Kind `json:"kind"`
	Tabs       bool         `json:"tabs"`
	TypeFilter bool         `json:"type_filter"`
	Layout     Layout       `json:"-"`
	calc       *quantity.Calculator
}

// Calculator returns the remaining-quantity calculator of status reports.
func (d Definition) Calculator() (quantity.Calculator, bool) {
	if d.calc == nil {
		return quantity.Calculator{}, false
	}
	return *d.calc, true
}

func calculator(c quantity.Calculator) *quantity.Calculator {
	return &c
}

var definitions = []Definition{
	{
		Name:   "sales-delivery",
		Title:  "Laporan Surat Jalan Penjualan",
		Kind:   textile.KindSalesDelivery,
		Layout: deliveryLayout("No. SO", "Customer", false),
	},
	{
		Name:       "purchase-delivery",
		Title:      "Laporan Surat Jalan Pembelian",
		Kind:       textile.KindPurchaseDelivery,
		TypeFilter: true,
		Layout:     deliveryLayout("No. PO", "Supplier", true),
	},
	{
		Name:       "purchase-order-status",
		Title:      "Laporan Status Purchase Order",
		Kind:       textile.KindPurchaseOrder,
		Tabs:       true,
		TypeFilter: true,
		Layout:     statusLayout("No. PO", "No. PC", "Supplier", true),
		calc:       calculator(quantity.System),
	},
	{
		Name:   "sales-order-status",
		Title:  "Laporan Status Sales Order",
		Kind:   textile.KindSalesOrder,
		Tabs:   true,
		Layout: statusLayout("No. SO", "No. SC", "Customer", false),
		calc:   calculator(quantity.System),
	},
	{
		Name:   "sales-contract-status",
		Title:  "Laporan Status Sales Contract",
		Kind:   textile.KindSalesContract,
		Tabs:   true,
		Layout: statusLayout("No. SC", "", "Customer", false),
		calc:   calculator(quantity.Real),
	},
}

// Lookup finds a report definition by name.
func Lookup(name string) (Definition, bool) {
	for _, def := range definitions {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// Definitions lists every report in display order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}
