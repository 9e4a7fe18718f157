package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault carries report exports.
	QueueDefault = "default"
	// QueueMaintenance carries housekeeping that may wait behind exports.
	QueueMaintenance = "maintenance"
	// TaskReportExport renders one queued report export.
	TaskReportExport = "report:export"
	// TaskIdempotencyCleanup prunes expired payment idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ReportExportPayload identifies the export to render.
type ReportExportPayload struct {
	ExportID uuid.UUID `json:"export_id"`
}

// NewReportExportTask constructs an Asynq task. Exports give up after three
// retries and are marked failed.
func NewReportExportTask(payload ReportExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportExport, data, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}

// NewIdempotencyCleanupTask constructs the cron task. The task is unique per
// hour so overlapping schedulers cannot queue it twice.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil,
		asynq.Queue(QueueMaintenance),
		asynq.Unique(time.Hour),
		asynq.MaxRetry(3),
	)
}
