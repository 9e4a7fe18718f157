package reporting

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/tekstil/internal/textile"
)

// CellKind selects how a renderer formats a cell.
type CellKind int

const (
	CellText CellKind = iota
	CellQuantity
	CellMoney
)

// Cell is one rendered value.
type Cell struct {
	Kind     CellKind
	Text     string
	Number   decimal.Decimal
	Currency textile.Currency
}

// Display formats the cell for HTML output.
func (c Cell) Display() string {
	switch c.Kind {
	case CellQuantity:
		return textile.FormatQty(c.Number)
	case CellMoney:
		return textile.FormatMoney(c.Currency, c.Number)
	default:
		return c.Text
	}
}

// Column is one report column. Parent columns show document fields and span
// all item rows of the document.
type Column struct {
	Key    string
	Header string
	Parent bool
	Width  float64
	value  func(index int, rec Record, line Line) Cell
}

// Value returns the cell of the column for one item row. index is the
// position of the record in the report.
func (c Column) Value(index int, rec Record, line Line) Cell {
	if c.value == nil {
		return Cell{Text: "-"}
	}
	return c.value(index, rec, line)
}

// Layout is the column set shared by every renderer of a report.
type Layout struct {
	Columns []Column
}

// ParentSpan reports the number of leading parent columns.
func (l Layout) ParentSpan() int {
	n := 0
	for _, col := range l.Columns {
		if !col.Parent {
			break
		}
		n++
	}
	return n
}

// TotalColumn is the index of the subtotal column, or -1.
func (l Layout) TotalColumn() int {
	for i, col := range l.Columns {
		if col.Key == "subtotal" {
			return i
		}
	}
	return -1
}

func numberColumn() Column {
	return Column{Key: "no", Header: "No", Parent: true, Width: 5, value: func(i int, _ Record, _ Line) Cell {
		return Cell{Text: strconv.Itoa(i + 1)}
	}}
}

func parentText(key, header string, width float64, get func(MainData) string) Column {
	return Column{Key: key, Header: header, Parent: true, Width: width, value: func(_ int, rec Record, _ Line) Cell {
		return Cell{Text: placeholder(get(rec.MainData))}
	}}
}

func lineText(key, header string, width float64, get func(Line) string) Column {
	return Column{Key: key, Header: header, Width: width, value: func(_ int, _ Record, line Line) Cell {
		return Cell{Text: placeholder(get(line))}
	}}
}

func quantityColumn() Column {
	return Column{Key: "quantity", Header: "Quantity", Width: 14, value: func(_ int, _ Record, line Line) Cell {
		return Cell{Kind: CellQuantity, Number: line.Quantity}
	}}
}

func moneyColumn(key, header string, get func(Line) decimal.Decimal) Column {
	return Column{Key: key, Header: header, Width: 18, value: func(_ int, rec Record, line Line) Cell {
		return Cell{Kind: CellMoney, Number: get(line), Currency: rec.MainData.Currency}
	}}
}

// deliveryLayout is shared by the delivery note reports.
func deliveryLayout(reference, counterparty string, withType bool) Layout {
	cols := []Column{
		numberColumn(),
		parentText("tanggal", "Tanggal", 16, func(m MainData) string { return m.DateLabel }),
		parentText("no_dokumen", "No. SJ", 22, func(m MainData) string { return m.Number }),
		parentText("no_referensi", reference, 22, func(m MainData) string { return m.Reference }),
		parentText("nama", counterparty, 28, func(m MainData) string { return m.Counterparty }),
	}
	if withType {
		cols = append(cols, parentText("jenis", "Jenis", 12, func(m MainData) string { return string(m.PurchaseType) }))
	}
	cols = append(cols, parentText("satuan", "Satuan", 10, func(m MainData) string { return m.Unit }))
	return Layout{Columns: append(cols, itemColumns()...)}
}

// statusLayout is shared by the order and contract status reports.
func statusLayout(number, reference, counterparty string, withType bool) Layout {
	cols := []Column{
		numberColumn(),
		parentText("tanggal", "Tanggal", 16, func(m MainData) string { return m.DateLabel }),
		parentText("no_dokumen", number, 22, func(m MainData) string { return m.Number }),
	}
	if reference != "" {
		cols = append(cols, parentText("no_referensi", reference, 22, func(m MainData) string { return m.Reference }))
	}
	cols = append(cols, parentText("nama", counterparty, 28, func(m MainData) string { return m.Counterparty }))
	if withType {
		cols = append(cols, parentText("jenis", "Jenis", 12, func(m MainData) string { return string(m.PurchaseType) }))
	}
	cols = append(cols,
		parentText("satuan", "Satuan", 10, func(m MainData) string { return m.Unit }),
		parentText("status", "Sisa / Status", 20, func(m MainData) string { return m.Status }),
	)
	return Layout{Columns: append(cols, itemColumns()...)}
}

func itemColumns() []Column {
	return []Column{
		lineText("corak_kain", "Corak Kain", 22, func(l Line) string { return l.Fabric }),
		lineText("warna", "Warna", 16, func(l Line) string { return l.Color }),
		lineText("grade", "Grade", 8, func(l Line) string { return l.Grade }),
		quantityColumn(),
		moneyColumn("harga", "Harga", func(l Line) decimal.Decimal { return l.Price }),
		moneyColumn("subtotal", "Subtotal", func(l Line) decimal.Decimal { return l.Subtotal }),
	}
}
