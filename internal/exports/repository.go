package exports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/tekstil/internal/platform/db"
)

const exportColumns = `id, report, format, date_from, date_to, status_filter, type_filter, status, error, filename, artifact_key, size, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records a new export.
func (r *Repository) Insert(ctx context.Context, e Export) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO report_exports (`+exportColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.Report, e.Format, e.From, e.To, e.StatusFilter, e.TypeFilter, string(e.Status),
		e.Error, e.Filename, e.ArtifactKey, e.Size, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

// Get loads one export.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Export, error) {
	e, err := scanExport(r.pool.QueryRow(ctx, `SELECT `+exportColumns+` FROM report_exports WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Export{}, ErrNotFound
		}
		return Export{}, fmt.Errorf("get export: %w", err)
	}
	return e, nil
}

// Transition moves an export to status under a row lock and applies mutate
// before saving.
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, to Status, at time.Time, mutate func(*Export)) (Export, error) {
	var out Export
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		e, err := scanExport(tx.QueryRow(ctx, `SELECT `+exportColumns+` FROM report_exports WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if !CanTransition(e.Status, to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, e.Status, to)
		}
		e.Status = to
		e.UpdatedAt = at
		if mutate != nil {
			mutate(&e)
		}
		_, err = tx.Exec(ctx, `UPDATE report_exports
SET status = $2, error = $3, filename = $4, artifact_key = $5, size = $6, updated_at = $7
WHERE id = $1`, e.ID, string(e.Status), e.Error, e.Filename, e.ArtifactKey, e.Size, e.UpdatedAt)
		if err != nil {
			return err
		}
		out = e
		return nil
	})
	return out, err
}

func scanExport(row pgx.Row) (Export, error) {
	var (
		e      Export
		status string
	)
	err := row.Scan(&e.ID, &e.Report, &e.Format, &e.From, &e.To, &e.StatusFilter, &e.TypeFilter, &status,
		&e.Error, &e.Filename, &e.ArtifactKey, &e.Size, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Export{}, err
	}
	e.Status = Status(status)
	return e, nil
}
