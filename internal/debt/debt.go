// Package debt computes outstanding hutang and piutang balances of delivery
// notes and rolls them up per supplier or customer.
package debt

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/tekstil/internal/textile"
)

// Invoice is a delivery note seen as a debt: its principal is the sum of the
// note's line subtotals.
type Invoice struct {
	DocumentID     int64            `json:"document_id"`
	Number         string           `json:"number"`
	CounterpartyID int64            `json:"counterparty_id"`
	Counterparty   string           `json:"counterparty"`
	Currency       textile.Currency `json:"currency"`
	Principal      decimal.Decimal  `json:"principal"`
}

// InvoiceFromDocument derives the invoice of a delivery note.
func InvoiceFromDocument(doc textile.Document) Invoice {
	return Invoice{
		DocumentID:     doc.ID,
		Number:         doc.Number,
		CounterpartyID: doc.CounterpartyID,
		Counterparty:   doc.CounterpartyName,
		Currency:       doc.Currency,
		Principal:      doc.Principal(),
	}
}

// Applied sums pembayaran and potongan over the payments referencing
// documentID, skipping the payment identified by excludeID.
func Applied(payments []textile.Payment, documentID, excludeID int64) (paid, discount decimal.Decimal) {
	paid, discount = decimal.Zero, decimal.Zero
	for _, p := range payments {
		if p.DocumentID != documentID {
			continue
		}
		if excludeID != 0 && p.ID == excludeID {
			continue
		}
		paid = paid.Add(p.Pembayaran)
		discount = discount.Add(p.Potongan)
	}
	return paid, discount
}

// Remaining is max(0, principal - Σpembayaran - Σpotongan) over the payments
// referencing inv. excludeID leaves out the payment being edited.
func Remaining(inv Invoice, payments []textile.Payment, excludeID int64) decimal.Decimal {
	paid, discount := Applied(payments, inv.DocumentID, excludeID)
	return clamp(inv.Principal.Sub(paid).Sub(discount))
}

// SupplierOutstanding is Σ principals minus Σ(pembayaran + potongan) over
// every payment referencing one of invoices, clamped at zero.
func SupplierOutstanding(invoices []Invoice, payments []textile.Payment) decimal.Decimal {
	owned := make(map[int64]struct{}, len(invoices))
	total := decimal.Zero
	for _, inv := range invoices {
		if _, dup := owned[inv.DocumentID]; dup {
			continue
		}
		owned[inv.DocumentID] = struct{}{}
		total = total.Add(inv.Principal)
	}
	for _, p := range payments {
		if _, ok := owned[p.DocumentID]; ok {
			total = total.Sub(p.Settled())
		}
	}
	return clamp(total)
}

// LiveBalance is the remaining amount shown while a payment is being typed.
type LiveBalance struct {
	Base       decimal.Decimal `json:"base"`
	Pembayaran decimal.Decimal `json:"pembayaran"`
	Potongan   decimal.Decimal `json:"potongan"`
	Remaining  decimal.Decimal `json:"remaining"`
	Overpaid   bool            `json:"overpaid"`
}

// Live subtracts the uncommitted input from the base remaining. The result is
// not clamped so the form can flag an overpayment.
func Live(base, pembayaran, potongan decimal.Decimal) LiveBalance {
	remaining := base.Sub(pembayaran).Sub(potongan)
	return LiveBalance{
		Base:       base,
		Pembayaran: pembayaran,
		Potongan:   potongan,
		Remaining:  remaining,
		Overpaid:   remaining.IsNegative(),
	}
}

func clamp(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
