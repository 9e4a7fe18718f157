// Package web embeds the report templates and the assets they load.
package web

import (
	"embed"
	"io/fs"
)

// TemplatePatterns lists the globs parsed into the view engine.
var TemplatePatterns = []string{"templates/layouts/*.html", "templates/reports/*.html"}

// Templates holds the layout and report templates.
//
//go:embed templates/layouts/*.html templates/reports/*.html
var Templates embed.FS

//go:embed static/js/*.js
var static embed.FS

// Static returns the asset tree rooted at static/, served under /static/.
func Static() (fs.FS, error) {
	return fs.Sub(static, "static")
}
