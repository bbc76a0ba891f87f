package strand

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)

// APIError reports a non-success HTTP response from the platform. Message
// comes from the response body's detail or error field, falling back to the
// HTTP status line.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// DistributedPhase distinguishes where a distributed-mode failure occurred.
type DistributedPhase string

const (
	PhaseHandshake DistributedPhase = "handshake"
	PhaseStreaming DistributedPhase = "streaming"
)

// DistributedError tags a distributed-mode failure with its protocol phase
// for diagnostics.
type DistributedError struct {
	Phase DistributedPhase
	Err   error
}

func (e *DistributedError) Error() string {
	return fmt.Sprintf("distributed %s: %v", e.Phase, e.Err)
}

func (e *DistributedError) Unwrap() error { return e.Err }
