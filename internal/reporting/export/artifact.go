package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/odyssey-erp/tekstil/internal/reporting"
)

// Downloadable formats.
const (
	FormatExcel = "xlsx"
	FormatPDF   = "pdf"
	FormatHTML  = "html"
)

// ErrUnsupportedFormat is returned for formats that cannot be stored.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// Artifact is one rendered file.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Renderers bundles the file renderers of a report.
type Renderers struct {
	Excel ExcelRenderer
	Print *PrintRenderer
	PDF   *PDFRenderer
}

// Render produces the artifact of rep in format.
func (r Renderers) Render(ctx context.Context, rep reporting.Report, format string) (Artifact, error) {
	switch format {
	case FormatExcel:
		data, err := r.Excel.Render(rep)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Filename: rep.Filename(FormatExcel), ContentType: ContentType(FormatExcel), Data: data}, nil
	case FormatPDF:
		if r.PDF == nil {
			return Artifact{}, fmt.Errorf("%w: pdf renderer not configured", ErrUnsupportedFormat)
		}
		data, err := r.PDF.Render(ctx, rep)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Filename: rep.Filename(FormatPDF), ContentType: ContentType(FormatPDF), Data: data}, nil
	case FormatHTML:
		if r.Print == nil {
			return Artifact{}, fmt.Errorf("%w: print renderer not configured", ErrUnsupportedFormat)
		}
		html, err := r.Print.HTML(rep, false)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Filename: rep.Filename(FormatHTML), ContentType: ContentType(FormatHTML), Data: []byte(html)}, nil
	default:
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
