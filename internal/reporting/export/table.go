// Package export renders assembled reports as Excel workbooks, HTML print
// documents, paginated previews and PDFs.
package export

import (
	"github.com/odyssey-erp/tekstil/internal/reporting"
	"github.com/odyssey-erp/tekstil/internal/textile"
)

// TableCell is one HTML table cell. RowSpan above one merges the cell across
// a document's item rows.
type TableCell struct {
	Text    string
	RowSpan int
	Numeric bool
}

// TableRow is one item row.
type TableRow struct {
	First bool
	Cells []TableCell
}

// TotalRow is one per-currency grand total.
type TotalRow struct {
	Label     string
	Amount    string
	LabelSpan int
	Trailing  int
}

// Table is the grouped view shared by the print and preview renderers.
type Table struct {
	Headers []string
	Rows    []TableRow
	Totals  []TotalRow
}

// BuildTable lays records out under layout. offset numbers the records when
// rendering a page of a larger report. totals are rendered after the rows.
func BuildTable(layout reporting.Layout, records []reporting.Record, offset int, totals []reporting.CurrencyTotal) Table {
	t := Table{Headers: make([]string, 0, len(layout.Columns))}
	for _, col := range layout.Columns {
		t.Headers = append(t.Headers, col.Header)
	}
	for i, rec := range records {
		lines := recordLines(rec)
		for j, line := range lines {
			row := TableRow{First: j == 0}
			for _, col := range layout.Columns {
				if col.Parent && j > 0 {
					continue
				}
				cell := col.Value(offset+i, rec, line)
				tc := TableCell{Text: cell.Display(), RowSpan: 1, Numeric: cell.Kind != reporting.CellText}
				if col.Parent {
					tc.RowSpan = len(lines)
				}
				row.Cells = append(row.Cells, tc)
			}
			t.Rows = append(t.Rows, row)
		}
	}
	t.Totals = totalRows(layout, totals)
	return t
}

func totalRows(layout reporting.Layout, totals []reporting.CurrencyTotal) []TotalRow {
	idx := layout.TotalColumn()
	if idx < 0 {
		return nil
	}
	out := make([]TotalRow, 0, len(totals))
	for _, total := range totals {
		out = append(out, TotalRow{
			Label:     totalLabel(total.Currency),
			Amount:    textile.FormatMoney(total.Currency, total.Amount),
			LabelSpan: idx,
			Trailing:  len(layout.Columns) - idx - 1,
		})
	}
	return out
}

func totalLabel(c textile.Currency) string {
	return "Grand Total (" + string(c) + ")"
}

// recordLines yields at least one line so a document without items still
// renders its parent row.
func recordLines(rec reporting.Record) []reporting.Line {
	if len(rec.Items) == 0 {
		return []reporting.Line{{}}
	}
	return rec.Items
}
