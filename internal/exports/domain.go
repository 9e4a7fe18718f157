// Package exports records background report exports and serves their
// artifacts once the worker has rendered them.
package exports

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown export ids.
	ErrNotFound = errors.New("exports: not found")
	// ErrNotReady is returned when downloading an export that has no artifact.
	ErrNotReady = errors.New("exports: artifact not ready")
	// ErrInvalidTransition guards the export status machine.
	ErrInvalidTransition = errors.New("exports: invalid status transition")
)

// Status of an export.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
)

var transitions = map[Status][]Status{
	StatusQueued: {StatusRunning, StatusFailed},
	// A redelivered task finds its export still running.
	StatusRunning: {StatusRunning, StatusDone, StatusEmpty, StatusFailed},
	StatusFailed:  {StatusRunning},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Request asks for one report export.
type Request struct {
	Report string `json:"report" validate:"required"`
	From   string `json:"from"`
	To     string `json:"to"`
	Format string `json:"format" validate:"required,oneof=xlsx pdf html"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

// Export is one recorded export.
type Export struct {
	ID           uuid.UUID `json:"id"`
	Report       string    `json:"report"`
	Format       string    `json:"format"`
	From         string    `json:"from,omitempty"`
	To           string    `json:"to,omitempty"`
	StatusFilter string    `json:"status_filter,omitempty"`
	TypeFilter   string    `json:"type_filter,omitempty"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
	Filename     string    `json:"filename,omitempty"`
	ArtifactKey  string    `json:"-"`
	Size         int       `json:"size,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
