package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/tekstil/internal/app"
	"github.com/odyssey-erp/tekstil/internal/backend"
	"github.com/odyssey-erp/tekstil/internal/exports"
	jobmetrics "github.com/odyssey-erp/tekstil/internal/jobs"
	"github.com/odyssey-erp/tekstil/internal/platform/cache"
	"github.com/odyssey-erp/tekstil/internal/platform/db"
	"github.com/odyssey-erp/tekstil/internal/reporting"
	"github.com/odyssey-erp/tekstil/internal/reporting/export"
	"github.com/odyssey-erp/tekstil/internal/shared"
	"github.com/odyssey-erp/tekstil/internal/view"
	"github.com/odyssey-erp/tekstil/jobs"
	"github.com/odyssey-erp/tekstil/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
	if cfg.BackendServiceToken == "" {
		logger.Warn("BACKEND_SERVICE_TOKEN not set, exports run unauthenticated")
	}

	var pool *pgxpool.Pool
	if cfg.PGDSN != "" {
		pool, err = db.New(ctx, cfg.Postgres("tekstil-worker"))
		if err != nil {
			logger.Error("connect database", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
	}

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := jobmetrics.NewMetrics(nil)
	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	reportService := reporting.NewService(backendClient, &reporting.Assembler{
		Workers: cfg.ReportWorkers,
		Logger:  logger,
		Metrics: reporting.NewMetrics(nil),
	}, logger)

	printer := export.NewPrintRenderer(templates)
	renderers := export.Renderers{
		Print: printer,
		PDF:   export.NewPDFRenderer(printer, report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)),
	}

	artifacts, err := app.NewArtifactStore(ctx, cfg, redisClient)
	if err != nil {
		logger.Error("init artifact store", slog.Any("error", err))
		os.Exit(1)
	}
	// The worker never enqueues; the service is only used through the runner.
	exportService := exports.NewService(app.NewExportStore(cfg, pool, redisClient), nil, artifacts, logger)
	runner := exports.NewRunner(exportService, reportService, renderers, cfg.BackendServiceToken)
	exportJob := jobs.NewReportExportJob(runner, metrics, logger)

	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskReportExport, Handler: exportJob.Handle},
	}
	var cron []jobs.CronRegistration
	if pool != nil {
		cleanup := jobs.NewIdempotencyCleanupHandler(shared.NewIdempotencyStore(pool), cfg.IdempotencyRetention, metrics, logger)
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskIdempotencyCleanup, Handler: cleanup})
		cron = append(cron, jobs.CronRegistration{
			Spec: "0 * * * *",
			Task: jobs.NewIdempotencyCleanupTask(),
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.AsynqRedis(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    handlers,
		Cron:        cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
