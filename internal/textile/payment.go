package textile

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a hutang payment or piutang receipt referencing one delivery note.
type Payment struct {
	ID             int64           `json:"id"`
	DocumentID     int64           `json:"sj_id"`
	Number         string          `json:"number"`
	CounterpartyID int64           `json:"counterparty_id"`
	Pembayaran     decimal.Decimal `json:"pembayaran"`
	Potongan       decimal.Decimal `json:"potongan"`
	Method         string          `json:"method"`
	Bank           string          `json:"bank,omitempty"`
	GiroNumber     string          `json:"giro_number,omitempty"`
	DueDate        time.Time       `json:"due_date"`
	PaidAt         time.Time       `json:"paid_at"`
}

// Settled is pembayaran plus potongan, the amount the record removes from the debt.
func (p Payment) Settled() decimal.Decimal {
	return p.Pembayaran.Add(p.Potongan)
}
