package exports

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps exports in process when no database is configured.
// Rows are lost on restart.
type MemoryRepository struct {
	mu      sync.Mutex
	exports map[uuid.UUID]Export
}

// NewMemoryRepository constructs an empty in-process repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{exports: make(map[uuid.UUID]Export)}
}

// Insert records a new export.
func (r *MemoryRepository) Insert(_ context.Context, e Export) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports[e.ID] = e
	return nil
}

// Get loads one export.
func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (Export, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.exports[id]
	if !ok {
		return Export{}, ErrNotFound
	}
	return e, nil
}

// Transition moves an export to status and applies mutate.
func (r *MemoryRepository) Transition(_ context.Context, id uuid.UUID, to Status, at time.Time, mutate func(*Export)) (Export, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.exports[id]
	if !ok {
		return Export{}, ErrNotFound
	}
	if !CanTransition(e.Status, to) {
		return Export{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, e.Status, to)
	}
	e.Status = to
	e.UpdatedAt = at
	if mutate != nil {
		mutate(&e)
	}
	r.exports[id] = e
	return e, nil
}
