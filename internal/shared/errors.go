package shared

import "errors"

// ErrMissingToken occurs when a request carries no backend credentials.
var ErrMissingToken = errors.New("authorization token missing")
