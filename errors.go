package analyst

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrNoWarehouse indicates SQL execution was requested without a
	// configured warehouse connection.
	ErrNoWarehouse = errors.New("no warehouse connection configured")
)

// MalformedEventError reports a streamed event whose payload is missing a
// required field. It aborts the current decode pass, not the session.
type MalformedEventError struct {
	EventType string // wire event type, e.g. "message.content.delta"
	Field     string // missing field, e.g. "suggestions_delta.index"
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event: missing field %q", e.EventType, e.Field)
}
