// Package view renders the embedded report templates.
package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/odyssey-erp/tekstil/web"
)

// ErrNoEngine is returned when rendering through a nil engine.
var ErrNoEngine = errors.New("view: template engine not initialised")

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	Subtitle    string
	CurrentPath string
	Data        any
}

// NewEngine parses every embedded template once at startup.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").ParseFS(web.Templates, web.TemplatePatterns...)
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	return &Engine{templates: tpl}, nil
}

// Has reports whether a template called name was parsed.
func (e *Engine) Has(name string) bool {
	return e != nil && e.templates.Lookup(name) != nil
}

// Execute writes a named template to w.
func (e *Engine) Execute(w io.Writer, name string, data TemplateData) error {
	if e == nil {
		return ErrNoEngine
	}
	if !e.Has(name) {
		return fmt.Errorf("view: unknown template %q", name)
	}
	return e.templates.ExecuteTemplate(w, name, data)
}

// Render executes the template into memory first, so a failing template
// leaves w untouched and the caller can still send an error response.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	var buf bytes.Buffer
	if err := e.Execute(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}
