package textile

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency of a document. Amounts in different currencies are never summed.
type Currency string

const (
	IDR Currency = "IDR"
	USD Currency = "USD"
)

// Currencies lists supported currencies in report total order.
var Currencies = []Currency{IDR, USD}

var (
	idPrinter = message.NewPrinter(language.Indonesian)
	enPrinter = message.NewPrinter(language.AmericanEnglish)
)

// ParseCurrency normalises a backend currency flag, defaulting to IDR.
func ParseCurrency(v string) Currency {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "USD", "US$", "$":
		return USD
	default:
		return IDR
	}
}

// Symbol returns the display prefix for amounts.
func (c Currency) Symbol() string {
	if c == USD {
		return "$"
	}
	return "Rp"
}

// ExcelFormat returns the custom number format used for money cells.
func (c Currency) ExcelFormat() string {
	if c == USD {
		return `"$ "#,##0.00`
	}
	return `"Rp "#,##0.00`
}

// FormatMoney renders an amount with the currency's symbol and locale grouping.
func FormatMoney(c Currency, v decimal.Decimal) string {
	p := idPrinter
	if c == USD {
		p = enPrinter
	}
	f, _ := v.Round(2).Float64()
	return c.Symbol() + " " + p.Sprint(number.Decimal(f, number.Scale(2)))
}

// FormatQty renders a quantity with two decimals and Indonesian grouping.
func FormatQty(v decimal.Decimal) string {
	f, _ := v.Round(2).Float64()
	return idPrinter.Sprint(number.Decimal(f, number.Scale(2)))
}
