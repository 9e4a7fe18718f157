package export

import (
	"net/url"
	"strconv"

	"github.com/odyssey-erp/tekstil/internal/reporting"
	"github.com/odyssey-erp/tekstil/internal/shared"
)

// PreviewTemplate is the HTML template of paginated previews.
const PreviewTemplate = "reports/preview.html"

// Tab is one status tab of an order status report.
type Tab struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// Links point at the other renderings of the same query.
type Links struct {
	Excel string `json:"excel"`
	Print string `json:"print"`
	PDF   string `json:"pdf"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
}

// Preview is one page of a report.
type Preview struct {
	Report     string                    `json:"report"`
	Title      string                    `json:"title"`
	Period     string                    `json:"period"`
	Status     string                    `json:"status,omitempty"`
	Tabs       []Tab                     `json:"tabs,omitempty"`
	Pagination shared.Pagination         `json:"pagination"`
	Records    []reporting.Record        `json:"records"`
	Totals     []reporting.CurrencyTotal `json:"totals"`
	Links      Links                     `json:"links"`
	Table      Table                     `json:"-"`
}

var tabLabels = []struct{ status, label string }{
	{"", "Semua"},
	{reporting.StatusDone, "Selesai"},
	{reporting.StatusNotDone, "Belum Selesai"},
}

// NewPreview slices rep into the requested page. path is the report URL and
// query the request's filters; links keep every filter except page and
// format.
func NewPreview(rep reporting.Report, page, perPage int, path string, query url.Values) Preview {
	p := shared.NewPagination(page, perPage, len(rep.Records))
	start, end := p.Bounds()
	records := rep.Records[start:end]

	base := url.Values{}
	for k, v := range query {
		if k == "page" || k == "format" {
			continue
		}
		base[k] = v
	}
	link := func(set map[string]string) string {
		q := url.Values{}
		for k, v := range base {
			q[k] = v
		}
		for k, v := range set {
			if v == "" {
				q.Del(k)
				continue
			}
			q.Set(k, v)
		}
		if enc := q.Encode(); enc != "" {
			return path + "?" + enc
		}
		return path
	}

	out := Preview{
		Report:     rep.Definition.Name,
		Title:      rep.Definition.Title,
		Period:     rep.Period,
		Status:     rep.Status,
		Pagination: p,
		Records:    records,
		Totals:     rep.Totals,
		Table:      BuildTable(rep.Definition.Layout, records, start, rep.Totals),
		Links: Links{
			Excel: link(map[string]string{"format": "xlsx"}),
			Print: link(map[string]string{"format": "html"}),
			PDF:   link(map[string]string{"format": "pdf"}),
		},
	}
	if p.HasPrev() {
		out.Links.Prev = link(map[string]string{"format": "preview", "page": strconv.Itoa(p.Page - 1)})
	}
	if p.HasNext() {
		out.Links.Next = link(map[string]string{"format": "preview", "page": strconv.Itoa(p.Page + 1)})
	}
	if rep.Definition.Tabs {
		for _, t := range tabLabels {
			out.Tabs = append(out.Tabs, Tab{
				Status: t.status,
				Label:  t.label,
				URL:    link(map[string]string{"format": "preview", "status": t.status}),
				Active: rep.Status == t.status,
			})
		}
	}
	return out
}
