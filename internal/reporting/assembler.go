package reporting

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/tekstil/internal/textile"
)

// DefaultWorkers is the detail-fetch pool width.
const DefaultWorkers = 5

// Assembler fetches document details through a bounded worker pool and
// normalises them into records.
type Assembler struct {
	Workers int
	Logger  *slog.Logger
	Metrics *Metrics
}

// Assemble fetches the detail of every row and normalises it. A failed fetch
// is logged and its row dropped; it never aborts the rest. Cancelling ctx
// stops dispatch and returns the records already finished. Records keep the
// order of rows.
func (a *Assembler) Assemble(ctx context.Context, rows []textile.Document, fetch FetchFunc, normalize NormalizeFunc) []Record {
	start := time.Now()
	workers := a.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	details := NewDetailCache(fetch)

	results := make([]*Record, len(rows))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, row := range rows {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			doc, err := details.Get(ctx, row.ID)
			if err != nil {
				a.Metrics.failure(string(row.Kind))
				logger.Warn("report detail fetch failed",
					slog.Int64("document_id", row.ID),
					slog.String("kind", string(row.Kind)),
					slog.Any("error", err))
				return nil
			}
			if doc.Kind == "" {
				doc.Kind = row.Kind
			}
			rec := normalize(doc)
			results[i] = &rec
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Record, 0, len(rows))
	for _, rec := range results {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	kind := ""
	if len(rows) > 0 {
		kind = string(rows[0].Kind)
	}
	a.Metrics.assembled(kind, len(out), start)
	return out
}
