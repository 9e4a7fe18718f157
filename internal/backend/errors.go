package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned for kinds missing from the endpoint table.
	ErrUnknownKind = errors.New("backend: unknown document kind")
	// ErrUnexpectedShape is returned when a response lacks the expected envelope field.
	ErrUnexpectedShape = errors.New("backend: unexpected response shape")
	// ErrNotFound maps a 404 from the backend.
	ErrNotFound = errors.New("backend: not found")
	// ErrResponseTooLarge reports a body above the client's read limit.
	ErrResponseTooLarge = errors.New("backend: response too large")
)

// APIError carries a non-2xx backend response. Message is the backend's own
// message, surfaced to the user verbatim.
type APIError struct {
	Status  int
	Message string
	// Err is the transport failure, if any.
	Err error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}

// HTTPStatus forwards backend 4xx statuses and reports 502 for the rest.
func (e *APIError) HTTPStatus() int {
	if e.Status >= 400 && e.Status < 500 {
		return e.Status
	}
	return 502
}

// Detail returns the backend message unchanged.
func (e *APIError) Detail() string {
	return e.Message
}

// AsAPIError unwraps an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
