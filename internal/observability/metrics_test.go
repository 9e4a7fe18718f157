package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/tekstil/internal/jobs"
	"github.com/odyssey-erp/tekstil/internal/reporting"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestRegistererCollectsPackageMetrics(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	_ = jobs.Track("report_export").End(nil)
	reporting.NewMetrics(metrics.Registerer())

	body := scrape(t, metrics)
	assert.Contains(t, body, "tekstil_jobs_total")
	assert.Contains(t, body, "go_goroutines")
}

func TestMiddlewareRecordsRoute(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("teh"))
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/reports/{name}")
	req := httptest.NewRequest(http.MethodGet, "/reports/sales-delivery", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `tekstil_http_requests_total{code="418",method="GET",route="/reports/{name}"} 1`)
	assert.Contains(t, body, `tekstil_http_response_bytes_total{route="/reports/{name}"} 3`)
	assert.Contains(t, body, `tekstil_http_request_duration_seconds_bucket{route="/reports/{name}"`)
	assert.Contains(t, body, "tekstil_http_requests_in_flight 0")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
