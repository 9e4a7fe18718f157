package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxIdempotencyKeyLen bounds accepted Idempotency-Key header values.
const MaxIdempotencyKeyLen = 128

var (
	// ErrIdempotencyConflict indicates a duplicate key.
	ErrIdempotencyConflict = errors.New("idempotent request already processed")
	// ErrIdempotencyKeyInvalid rejects oversized keys and missing scopes.
	ErrIdempotencyKeyInvalid = errors.New("invalid idempotency key")
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// IdempotencyStore records processed Idempotency-Key values in
// idempotency_keys, unique per (key, module).
type IdempotencyStore struct {
	db  execer
	now func() time.Time
}

// NewIdempotencyStore constructs the store. A nil pool yields a nil store,
// which accepts every key.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	if pool == nil {
		return nil
	}
	return &IdempotencyStore{db: pool, now: time.Now}
}

// CheckAndInsert claims key within scope. A key that was already claimed
// returns ErrIdempotencyConflict. Empty keys are not tracked.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, scope string) error {
	if s == nil || key == "" {
		return nil
	}
	if scope == "" || len(key) > MaxIdempotencyKeyLen {
		return ErrIdempotencyKeyInvalid
	}
	tag, err := s.db.Exec(ctx,
		`INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key, module) DO NOTHING`, key, scope, s.now())
	if err != nil {
		return fmt.Errorf("shared: claim idempotency key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Cleanup removes entries older than olderThan and reports how many went.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("shared: prune idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete releases a key so a rejected submission can be retried.
func (s *IdempotencyStore) Delete(ctx context.Context, key, scope string) error {
	if s == nil || key == "" {
		return nil
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1 AND module = $2`, key, scope); err != nil {
		return fmt.Errorf("shared: release idempotency key: %w", err)
	}
	return nil
}
