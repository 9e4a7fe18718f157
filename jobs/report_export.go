package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/tekstil/internal/exports"
	jobmetrics "github.com/odyssey-erp/tekstil/internal/jobs"
)

const reportExportJob = "report_export"

// ExportRunner renders one export.
type ExportRunner interface {
	Run(ctx context.Context, id uuid.UUID) (exports.Export, error)
}

// ReportExportJob processes TaskReportExport tasks.
type ReportExportJob struct {
	runner  ExportRunner
	metrics *jobmetrics.Metrics
	logger  *slog.Logger
}

// NewReportExportJob constructs the job.
func NewReportExportJob(runner ExportRunner, metrics *jobmetrics.Metrics, logger *slog.Logger) *ReportExportJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExportJob{runner: runner, metrics: metrics, logger: logger}
}

// Handle implements asynq.HandlerFunc. Failed exports are recorded on the
// export row and not retried; transient store errors are retried by asynq.
func (j *ReportExportJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReportExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.ExportID == uuid.Nil {
		return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	}
	tracker := j.metrics.Track(reportExportJob)
	e, err := j.runner.Run(ctx, payload.ExportID)
	if e.Status != "" {
		j.metrics.AddArtifact(e.Format, string(e.Status), e.Size)
	}
	if err != nil {
		j.logger.Error("report export", slog.String("export_id", payload.ExportID.String()), slog.Any("error", err))
		if e.Status == exports.StatusFailed {
			err = fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
	}
	return tracker.End(err)
}
