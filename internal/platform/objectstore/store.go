// Package objectstore keeps rendered export artifacts in redis or an
// S3-compatible bucket.
package objectstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an artifact is missing or expired.
var ErrNotFound = errors.New("objectstore: object not found")

// Object is one stored artifact.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Store persists artifacts by key.
type Store interface {
	Put(ctx context.Context, obj Object) error
	Get(ctx context.Context, key string) (Object, error)
}
