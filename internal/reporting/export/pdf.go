package export

import (
	"context"
	"time"

	"github.com/odyssey-erp/tekstil/internal/reporting"
	"github.com/odyssey-erp/tekstil/report"
)

// Converter turns HTML into PDF bytes.
type Converter interface {
	RenderHTML(ctx context.Context, html string, opts report.Options) ([]byte, error)
}

// PDFRenderer prints a report to HTML and converts it through Gotenberg.
type PDFRenderer struct {
	print     *PrintRenderer
	converter Converter
}

// NewPDFRenderer constructs a PDF renderer.
func NewPDFRenderer(printer *PrintRenderer, converter Converter) *PDFRenderer {
	return &PDFRenderer{print: printer, converter: converter}
}

// Render returns the landscape PDF of rep.
func (p *PDFRenderer) Render(ctx context.Context, rep reporting.Report) ([]byte, error) {
	html, err := p.print.HTML(rep, false)
	if err != nil {
		return nil, err
	}
	return p.converter.RenderHTML(ctx, html, report.Options{
		Landscape: true,
		WaitDelay: 100 * time.Millisecond,
		Margin:    0.4,
	})
}
