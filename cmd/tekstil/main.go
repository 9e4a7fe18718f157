package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/tekstil/internal/app"
	"github.com/odyssey-erp/tekstil/internal/backend"
	"github.com/odyssey-erp/tekstil/internal/debt"
	"github.com/odyssey-erp/tekstil/internal/exports"
	"github.com/odyssey-erp/tekstil/internal/observability"
	"github.com/odyssey-erp/tekstil/internal/payments"
	"github.com/odyssey-erp/tekstil/internal/platform/cache"
	"github.com/odyssey-erp/tekstil/internal/platform/db"
	"github.com/odyssey-erp/tekstil/internal/quantity"
	"github.com/odyssey-erp/tekstil/internal/reporting"
	"github.com/odyssey-erp/tekstil/internal/reporting/export"
	reporthttp "github.com/odyssey-erp/tekstil/internal/reporting/http"
	"github.com/odyssey-erp/tekstil/internal/shared"
	"github.com/odyssey-erp/tekstil/internal/view"
	"github.com/odyssey-erp/tekstil/jobs"
	"github.com/odyssey-erp/tekstil/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	var pool *pgxpool.Pool
	if cfg.PGDSN != "" {
		pool, err = db.New(ctx, cfg.Postgres("tekstil"))
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
	} else {
		logger.Warn("PG_DSN not set, idempotency keys disabled")
	}

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Warn("redis unavailable, session cache kept in memory", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)

	sessionCache := cache.NewJSONCache(redisClient, "tekstil", cfg.SessionCacheTTL)
	ledger := debt.NewSession(backendClient, sessionCache, logger, cfg.ReportWorkers)
	var idem payments.IdempotencyStore
	if pool != nil {
		idem = shared.NewIdempotencyStore(pool)
	}
	paymentsService := payments.NewService(backendClient, ledger, idem, logger)
	paymentsHandler := payments.NewHandler(logger, paymentsService)

	quantityHandler := quantity.NewHandler(logger, backendClient)

	assembler := &reporting.Assembler{
		Workers: cfg.ReportWorkers,
		Logger:  logger,
		Metrics: reporting.NewMetrics(metrics.Registerer()),
	}
	reportService := reporting.NewService(backendClient, assembler, logger)

	printer := export.NewPrintRenderer(templates)
	pdfClient := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	renderers := export.Renderers{
		Print: printer,
		PDF:   export.NewPDFRenderer(printer, pdfClient),
	}
	reportHandler := reporthttp.NewHandler(logger, reportService, renderers, templates, cfg.ReportPageSize)
	pdfHandler := report.NewHandler(pdfClient, logger)

	params := app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Metrics:         metrics,
		QuantityHandler: quantityHandler,
		PaymentsHandler: paymentsHandler,
		ReportHandler:   reportHandler,
		PDFHandler:      pdfHandler,
	}

	if redisClient != nil {
		redisOpts := cfg.AsynqRedis()
		exportsHandler, closeExports, err := newExportsHandler(ctx, cfg, logger, pool, redisClient, redisOpts)
		if err != nil {
			logger.Error("init exports", slog.Any("error", err))
			os.Exit(1)
		}
		defer closeExports()
		params.ExportsHandler = exportsHandler

		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		params.JobHandler = jobs.NewHandler(inspector, logger)
	} else {
		logger.Warn("redis unavailable, background exports disabled")
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      app.NewRouter(params),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func newExportsHandler(ctx context.Context, cfg *app.Config, logger *slog.Logger, pool *pgxpool.Pool, client *redis.Client, redisOpts asynq.RedisClientOpt) (*exports.Handler, func(), error) {
	artifacts, err := app.NewArtifactStore(ctx, cfg, client)
	if err != nil {
		return nil, nil, err
	}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}
	service := exports.NewService(app.NewExportStore(cfg, pool, client), jobClient, artifacts, logger)
	return exports.NewHandler(logger, service), closeFn, nil
}
