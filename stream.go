package strand

import "context"

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateConnecting StreamState = iota // Before the first line arrives.
	StreamStateStreaming                     // Mid-stream, receiving events.
	StreamStateComplete                      // Next() returned io.EOF.
	StreamStateError                         // Next() returned non-EOF error.
	StreamStateClosed                        // Close() called before a terminal state.
)

// Stream is a lazy, finite, single-pass sequence of decoded events. It uses
// a pull-based iterator pattern: Next() blocks until an event arrives,
// returns io.EOF on graceful stream end, and returns the context's error
// when the owning context is cancelled. Cancellation flows through the
// context passed to Streamer.Stream(); it is observed at the next read and
// never panics past the caller.
//
// Exactly one consumer owns a Stream. Close() is idempotent and safe to
// call before, during, or after completion; it releases the underlying
// connection on every exit path.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Close() error
}

// Streamer opens one end-to-end streaming turn against the backend.
type Streamer interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}
