package export

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/tekstil/internal/reporting"
	"github.com/odyssey-erp/tekstil/internal/textile"
	"github.com/odyssey-erp/tekstil/internal/view"
	"github.com/odyssey-erp/tekstil/report"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func sampleReport(t *testing.T, name string) reporting.Report {
	t.Helper()
	def, ok := reporting.Lookup(name)
	require.True(t, ok)
	records := []reporting.Record{
		{
			MainData: reporting.MainData{DocumentID: 1, DateLabel: "02 Januari 2025", Number: "SJ-001", Reference: "SO-01", Counterparty: "PT Maju", Currency: textile.IDR, Unit: "Meter"},
			Items: []reporting.Line{
				{Fabric: "Drill", Color: "Navy", Grade: "A", Quantity: d("100"), Price: d("100"), Subtotal: d("10000")},
				{Fabric: "Drill", Color: "Hitam", Grade: "A", Quantity: d("50"), Price: d("100"), Subtotal: d("5000")},
			},
		},
		{
			MainData: reporting.MainData{DocumentID: 2, DateLabel: "03 Januari 2025", Number: "SJ-002", Reference: "SO-02", Counterparty: "Global Ltd", Currency: textile.USD, Unit: "Yard"},
			Items: []reporting.Line{
				{Fabric: "Twill", Color: "Putih", Grade: "B", Quantity: d("10"), Price: d("2.5"), Subtotal: d("25")},
			},
		},
		{
			MainData: reporting.MainData{DocumentID: 3, DateLabel: "04 Januari 2025", Number: "SJ-003", Reference: "-", Counterparty: "PT Kosong", Currency: textile.IDR, Unit: "Meter"},
		},
	}
	return reporting.Report{
		Definition:  def,
		Period:      "02 Januari 2025 - 04 Januari 2025",
		Records:     records,
		Totals:      reporting.OrderedTotals(records),
		GeneratedAt: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildTableSpansParentCells(t *testing.T) {
	rep := sampleReport(t, "sales-delivery")
	table := BuildTable(rep.Definition.Layout, rep.Records, 0, rep.Totals)

	require.Len(t, table.Headers, 12)
	assert.Equal(t, "No. SJ", table.Headers[2])
	// 2 + 1 + 1 (document without items keeps a row)
	require.Len(t, table.Rows, 4)

	first := table.Rows[0]
	assert.True(t, first.First)
	require.Len(t, first.Cells, 12)
	assert.Equal(t, "1", first.Cells[0].Text)
	assert.Equal(t, 2, first.Cells[0].RowSpan)
	assert.Equal(t, "SJ-001", first.Cells[2].Text)

	second := table.Rows[1]
	assert.False(t, second.First)
	require.Len(t, second.Cells, 6)
	assert.Equal(t, "Hitam", second.Cells[1].Text)
	assert.True(t, second.Cells[3].Numeric)

	empty := table.Rows[3]
	assert.Equal(t, "3", empty.Cells[0].Text)
	assert.Equal(t, "-", empty.Cells[6].Text)

	require.Len(t, table.Totals, 2)
	assert.Equal(t, "Grand Total (IDR)", table.Totals[0].Label)
	assert.Equal(t, "Grand Total (USD)", table.Totals[1].Label)
	assert.Equal(t, 11, table.Totals[0].LabelSpan)
	assert.Equal(t, 0, table.Totals[0].Trailing)
}

func TestBuildTableOffsetNumbersRows(t *testing.T) {
	rep := sampleReport(t, "sales-delivery")
	table := BuildTable(rep.Definition.Layout, rep.Records[1:2], 20, nil)
	assert.Equal(t, "21", table.Rows[0].Cells[0].Text)
	assert.Empty(t, table.Totals)
}

func TestExcelRender(t *testing.T) {
	rep := sampleReport(t, "sales-delivery")
	data, err := ExcelRenderer{}.Render(rep)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	value := func(cell string) string {
		v, err := f.GetCellValue(sheetName, cell, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Laporan Surat Jalan Penjualan", value("A1"))
	assert.Equal(t, "Periode: 02 Januari 2025 - 04 Januari 2025", value("A2"))
	assert.Equal(t, "No", value("A4"))
	assert.Equal(t, "Subtotal", value("L4"))
	assert.Equal(t, "SJ-001", value("C5"))
	assert.Equal(t, "Navy", value("H5"))
	assert.Equal(t, "Hitam", value("H6"))
	assert.Equal(t, "10000", value("L5"))
	assert.Equal(t, "SJ-002", value("C7"))
	assert.Equal(t, "Grand Total (IDR)", value("A9"))
	assert.Equal(t, "15000", value("L9"))
	assert.Equal(t, "Grand Total (USD)", value("A10"))
	assert.Equal(t, "25", value("L10"))

	merges, err := f.GetMergeCells(sheetName)
	require.NoError(t, err)
	ranges := make([]string, 0, len(merges))
	for _, m := range merges {
		ranges = append(ranges, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.Contains(t, ranges, "A1:L1")
	assert.Contains(t, ranges, "A2:L2")
	assert.Contains(t, ranges, "C5:C6")
	assert.Contains(t, ranges, "A9:K9")
	assert.NotContains(t, ranges, "C7:C7")
}

func TestExcelRenderEmpty(t *testing.T) {
	rep := sampleReport(t, "sales-delivery")
	rep.Records = nil
	_, err := ExcelRenderer{}.Render(rep)
	assert.ErrorIs(t, err, reporting.ErrNoData)
}

func newPrint(t *testing.T) *PrintRenderer {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	return NewPrintRenderer(engine)
}

func TestPrintRender(t *testing.T) {
	rep := sampleReport(t, "sales-delivery")
	html, err := newPrint(t).HTML(rep, true)
	require.NoError(t, err)

	assert.Contains(t, html, "Laporan Surat Jalan Penjualan")
	assert.Contains(t, html, "/static/js/print.js")
	assert.Contains(t, html, `rowspan="2"`)
	assert.Contains(t, html, "Grand Total (IDR)")
	assert.Contains(t, html, "Grand Total (USD)")
	assert.Less(t, strings.Index(html, "Grand Total (IDR)"), strings.Index(html, "Grand Total (USD)"))

	html, err = newPrint(t).HTML(rep, false)
	require.NoError(t, err)
	assert.NotContains(t, html, "/static/js/print.js")
}

func TestPrintRenderEmpty(t *testing.T) {
	rep := sampleReport(t, "sales-delivery")
	rep.Records = nil
	_, err := newPrint(t).HTML(rep, true)
	assert.ErrorIs(t, err, reporting.ErrNoData)
}

type stubConverter struct {
	html string
	opts report.Options
	err  error
}

func (s *stubConverter) RenderHTML(ctx context.Context, html string, opts report.Options) ([]byte, error) {
	s.html = html
	s.opts = opts
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.4"), nil
}

func TestPDFRender(t *testing.T) {
	conv := &stubConverter{}
	pdf := NewPDFRenderer(newPrint(t), conv)
	out, err := pdf.Render(context.Background(), sampleReport(t, "sales-delivery"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(out))
	assert.True(t, conv.opts.Landscape)
	assert.Contains(t, conv.html, "SJ-002")
	assert.NotContains(t, conv.html, "/static/js/print.js")

	conv.err = errors.New("gotenberg down")
	_, err = pdf.Render(context.Background(), sampleReport(t, "sales-delivery"))
	assert.EqualError(t, err, "gotenberg down")
}

func TestPreviewPaginates(t *testing.T) {
	rep := sampleReport(t, "sales-delivery")
	query := url.Values{"from": {"2025-01-02"}, "format": {"preview"}, "page": {"2"}}
	p := NewPreview(rep, 2, 2, "/reports/sales-delivery", query)

	assert.Equal(t, 2, p.Pagination.Page)
	assert.Equal(t, 2, p.Pagination.TotalPages)
	require.Len(t, p.Records, 1)
	assert.Equal(t, int64(3), p.Records[0].MainData.DocumentID)
	assert.Equal(t, "3", p.Table.Rows[0].Cells[0].Text)
	assert.Equal(t, "/reports/sales-delivery?format=preview&from=2025-01-02&page=1", p.Links.Prev)
	assert.Empty(t, p.Links.Next)
	assert.Equal(t, "/reports/sales-delivery?format=xlsx&from=2025-01-02", p.Links.Excel)
	assert.Empty(t, p.Tabs)
	assert.Len(t, p.Totals, 2)
}

func TestPreviewTabs(t *testing.T) {
	rep := sampleReport(t, "sales-order-status")
	rep.Status = reporting.StatusDone
	p := NewPreview(rep, 1, 10, "/reports/sales-order-status", url.Values{"status": {"done"}})

	require.Len(t, p.Tabs, 3)
	assert.Equal(t, "/reports/sales-order-status?format=preview", p.Tabs[0].URL)
	assert.False(t, p.Tabs[0].Active)
	assert.True(t, p.Tabs[1].Active)
	assert.Equal(t, "/reports/sales-order-status?format=preview&status=not_done", p.Tabs[2].URL)
}

func TestPreviewTemplate(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)
	rep := sampleReport(t, "sales-order-status")
	p := NewPreview(rep, 1, 2, "/reports/sales-order-status", nil)

	var buf bytes.Buffer
	require.NoError(t, engine.Execute(&buf, PreviewTemplate, view.TemplateData{Title: p.Title, Subtitle: p.Period, Data: p}))
	html := buf.String()
	assert.Contains(t, html, "Halaman 1 dari 2")
	assert.Contains(t, html, "Belum Selesai")
	assert.Contains(t, html, "Berikutnya")
}

func TestRenderersArtifacts(t *testing.T) {
	conv := &stubConverter{}
	printer := newPrint(t)
	r := Renderers{Print: printer, PDF: NewPDFRenderer(printer, conv)}
	rep := sampleReport(t, "sales-delivery")

	xlsx, err := r.Render(context.Background(), rep, FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, "Laporan Surat Jalan Penjualan - 02 Januari 2025 - 04 Januari 2025.xlsx", xlsx.Filename)
	assert.Equal(t, ExcelContentType, xlsx.ContentType)
	assert.NotEmpty(t, xlsx.Data)

	pdf, err := r.Render(context.Background(), rep, FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)

	html, err := r.Render(context.Background(), rep, FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, string(html.Data), "SJ-001")

	_, err = r.Render(context.Background(), rep, "csv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	rep.Records = nil
	_, err = r.Render(context.Background(), rep, FormatExcel)
	assert.ErrorIs(t, err, reporting.ErrNoData)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/html; charset=utf-8", ContentType(FormatHTML))
	assert.Equal(t, "application/octet-stream", ContentType("bin-unknown"))
	assert.NotEmpty(t, mime.TypeByExtension(".xlsx"))
}
