package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/tekstil/internal/reporting"
	"github.com/odyssey-erp/tekstil/internal/textile"
)

const (
	sheetName    = "Laporan"
	headerRow    = 4
	firstDataRow = 5
)

// ExcelContentType is the MIME type of xlsx workbooks.
const ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExcelRenderer builds xlsx workbooks.
type ExcelRenderer struct{}

type excelStyles struct {
	title    int
	period   int
	header   int
	text     int
	quantity int
	money    map[textile.Currency]int
	total    int
}

// Render returns the workbook bytes of report.
func (ExcelRenderer) Render(report reporting.Report) ([]byte, error) {
	if len(report.Records) == 0 {
		return nil, reporting.ErrNoData
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	styles, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}

	layout := report.Definition.Layout
	lastCol, err := excelize.ColumnNumberToName(len(layout.Columns))
	if err != nil {
		return nil, err
	}

	banners := []struct {
		row   int
		text  string
		style int
	}{
		{1, report.Definition.Title, styles.title},
		{2, "Periode: " + report.Period, styles.period},
	}
	for _, b := range banners {
		start, end := fmt.Sprintf("A%d", b.row), fmt.Sprintf("%s%d", lastCol, b.row)
		if err := f.MergeCell(sheetName, start, end); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, start, b.text); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, start, end, b.style); err != nil {
			return nil, err
		}
	}

	for i, col := range layout.Columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetCellValue(sheetName, fmt.Sprintf("%s%d", name, headerRow), col.Header); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, name, name, col.Width); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", lastCol, headerRow), styles.header); err != nil {
		return nil, err
	}

	row := firstDataRow
	for i, rec := range report.Records {
		lines := recordLines(rec)
		for j, line := range lines {
			for c, col := range layout.Columns {
				if col.Parent && j > 0 {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(c+1, row)
				if err := writeCell(f, cell, col.Value(i, rec, line), styles); err != nil {
					return nil, err
				}
			}
			row++
		}
		if len(lines) > 1 {
			first := row - len(lines)
			for c, col := range layout.Columns {
				if !col.Parent {
					continue
				}
				top, _ := excelize.CoordinatesToCellName(c+1, first)
				bottom, _ := excelize.CoordinatesToCellName(c+1, row-1)
				if err := f.MergeCell(sheetName, top, bottom); err != nil {
					return nil, err
				}
			}
		}
	}

	if idx := layout.TotalColumn(); idx > 0 {
		for _, total := range report.Totals {
			labelEnd, _ := excelize.CoordinatesToCellName(idx, row)
			amount, _ := excelize.CoordinatesToCellName(idx+1, row)
			if err := f.MergeCell(sheetName, fmt.Sprintf("A%d", row), labelEnd); err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), totalLabel(total.Currency)); err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), labelEnd, styles.total); err != nil {
				return nil, err
			}
			if err := f.SetCellFloat(sheetName, amount, total.Amount.Round(2).InexactFloat64(), -1, 64); err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(sheetName, amount, amount, styles.money[total.Currency]); err != nil {
				return nil, err
			}
			row++
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCell(f *excelize.File, cell string, v reporting.Cell, styles excelStyles) error {
	switch v.Kind {
	case reporting.CellQuantity:
		if err := f.SetCellFloat(sheetName, cell, v.Number.Round(2).InexactFloat64(), -1, 64); err != nil {
			return err
		}
		return f.SetCellStyle(sheetName, cell, cell, styles.quantity)
	case reporting.CellMoney:
		if err := f.SetCellFloat(sheetName, cell, v.Number.Round(2).InexactFloat64(), -1, 64); err != nil {
			return err
		}
		style, ok := styles.money[v.Currency]
		if !ok {
			style = styles.money[textile.IDR]
		}
		return f.SetCellStyle(sheetName, cell, cell, style)
	default:
		if err := f.SetCellValue(sheetName, cell, v.Text); err != nil {
			return err
		}
		return f.SetCellStyle(sheetName, cell, cell, styles.text)
	}
}

func newExcelStyles(f *excelize.File) (excelStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	middle := &excelize.Alignment{Vertical: "center", WrapText: true}

	var s excelStyles
	var err error
	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}, Alignment: center}); err != nil {
		return s, err
	}
	if s.period, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true}, Alignment: center}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9D9D9"}},
		Border:    border,
		Alignment: center,
	}); err != nil {
		return s, err
	}
	if s.text, err = f.NewStyle(&excelize.Style{Border: border, Alignment: middle}); err != nil {
		return s, err
	}
	qty := "#,##0.00"
	if s.quantity, err = f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &qty, Alignment: middle}); err != nil {
		return s, err
	}
	if s.total, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, Border: border, Alignment: &excelize.Alignment{Horizontal: "right"}}); err != nil {
		return s, err
	}
	s.money = make(map[textile.Currency]int, len(textile.Currencies))
	for _, cur := range textile.Currencies {
		format := cur.ExcelFormat()
		id, err := f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &format, Alignment: middle})
		if err != nil {
			return s, err
		}
		s.money[cur] = id
	}
	return s, nil
}
