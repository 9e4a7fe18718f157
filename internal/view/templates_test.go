package view

import (
	"bytes"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineParsesReportTemplates(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	for _, name := range []string{"reports/print.html", "reports/preview.html", "reports/empty.html", "layouts/report_head", "layouts/report_table"} {
		assert.True(t, engine.Has(name), name)
	}
	assert.False(t, engine.Has("reports/missing.html"))
}

func TestRenderEmptyNotice(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, engine.Render(rr, "reports/empty.html", TemplateData{Title: "Laporan Surat Jalan Penjualan", Subtitle: "Semua Periode"}))
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Tidak ada data")
	assert.Contains(t, rr.Body.String(), "Laporan Surat Jalan Penjualan")
	assert.Equal(t, rr.Header().Get("Content-Length"), strconv.Itoa(rr.Body.Len()))
}

func TestRenderUnknownTemplateWritesNothing(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	assert.Error(t, engine.Render(rr, "reports/missing.html", TemplateData{}))
	assert.Zero(t, rr.Body.Len())
	assert.Empty(t, rr.Header().Get("Content-Type"))
}

func TestNilEngine(t *testing.T) {
	var engine *Engine
	assert.ErrorIs(t, engine.Execute(&bytes.Buffer{}, "reports/empty.html", TemplateData{}), ErrNoEngine)
	assert.False(t, engine.Has("reports/empty.html"))
}
