package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/tekstil/internal/jobs"
)

const idempotencyCleanupJob = "idempotency_cleanup"

// KeyPruner deletes idempotency keys older than a retention window.
type KeyPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NewIdempotencyCleanupHandler prunes payment idempotency keys past retention.
func NewIdempotencyCleanupHandler(pruner KeyPruner, retention time.Duration, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metrics.Track(idempotencyCleanupJob)
		removed, err := pruner.Cleanup(ctx, retention)
		if err != nil {
			if logger != nil {
				logger.Error("cleanup idempotency keys", slog.Any("error", err))
			}
			return tracker.End(err)
		}
		if logger != nil {
			logger.Info("cleaned idempotency keys", slog.String("job", idempotencyCleanupJob), slog.Int64("removed", removed))
		}
		return tracker.End(nil)
	}
}
