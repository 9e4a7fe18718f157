package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/tekstil/internal/exports"
	"github.com/odyssey-erp/tekstil/internal/observability"
	"github.com/odyssey-erp/tekstil/internal/payments"
	"github.com/odyssey-erp/tekstil/internal/quantity"
	reporthttp "github.com/odyssey-erp/tekstil/internal/reporting/http"
	"github.com/odyssey-erp/tekstil/jobs"
	"github.com/odyssey-erp/tekstil/report"
	"github.com/odyssey-erp/tekstil/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	QuantityHandler *quantity.Handler
	PaymentsHandler *payments.Handler
	ReportHandler   *reporthttp.Handler
	ExportsHandler  *exports.Handler
	PDFHandler      *report.Handler
	JobHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with tekstil defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(api chi.Router) {
		api.Use(RequireToken)
		if params.QuantityHandler != nil {
			params.QuantityHandler.MountRoutes(api)
		}
		if params.PaymentsHandler != nil {
			params.PaymentsHandler.MountRoutes(api)
		}
		if params.ReportHandler != nil {
			params.ReportHandler.MountRoutes(api)
		}
		if params.ExportsHandler != nil {
			params.ExportsHandler.MountRoutes(api)
		}
	})
	if params.PDFHandler != nil {
		r.Route("/pdf", params.PDFHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := web.Static()
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
