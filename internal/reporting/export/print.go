package export

import (
	"bytes"
	"io"

	"github.com/odyssey-erp/tekstil/internal/reporting"
	"github.com/odyssey-erp/tekstil/internal/view"
)

const printTemplate = "reports/print.html"

type printData struct {
	Table     Table
	AutoPrint bool
}

// PrintRenderer renders the standalone print document of a report.
type PrintRenderer struct {
	engine *view.Engine
}

// NewPrintRenderer wires the renderer to parsed templates.
func NewPrintRenderer(engine *view.Engine) *PrintRenderer {
	return &PrintRenderer{engine: engine}
}

// Render writes the print document to w. autoPrint opens the browser print
// dialog on load.
func (p *PrintRenderer) Render(w io.Writer, report reporting.Report, autoPrint bool) error {
	if len(report.Records) == 0 {
		return reporting.ErrNoData
	}
	layout := report.Definition.Layout
	return p.engine.Execute(w, printTemplate, view.TemplateData{
		Title:    report.Definition.Title,
		Subtitle: report.Period,
		Data: printData{
			Table:     BuildTable(layout, report.Records, 0, report.Totals),
			AutoPrint: autoPrint,
		},
	})
}

// HTML returns the print document as a string.
func (p *PrintRenderer) HTML(report reporting.Report, autoPrint bool) (string, error) {
	var buf bytes.Buffer
	if err := p.Render(&buf, report, autoPrint); err != nil {
		return "", err
	}
	return buf.String(), nil
}
