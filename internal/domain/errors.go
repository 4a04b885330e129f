package domain

import "errors"

// ErrAllocationExhausted is returned when every id allocation strategy has
// failed, including the degraded local random fallback.
var ErrAllocationExhausted = errors.New("id allocation exhausted")

// Validation error codes surfaced to API clients.
const (
	ValidationEmptyContent   = "empty_content"
	ValidationContentTooLong = "content_too_long"
)

// ValidationError rejects item content before any store call is made.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
