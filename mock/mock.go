// Package mock provides test doubles for strand interfaces using function
// fields.
package mock

import (
	"context"
	"io"

	"github.com/strandhq/strand"
)

// Interface compliance checks.
var (
	_ strand.Streamer = (*Streamer)(nil)
	_ strand.Stream   = (*Stream)(nil)
)

// Streamer is a test double for strand.Streamer.
// Set StreamFn before calling Stream.
type Streamer struct {
	StreamFn func(ctx context.Context, req strand.Request) (strand.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Streamer) Stream(ctx context.Context, req strand.Request) (strand.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Stream is a test double for strand.Stream. NextFn panics when nil to catch
// missing setup. StateFn and CloseFn are nil-safe (zero value and no-op)
// because test code commonly calls defer stream.Close() and these methods
// rarely need custom behavior.
type Stream struct {
	NextFn  func() (strand.Event, error)
	StateFn func() strand.StreamState
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (strand.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateConnecting when StateFn is nil.
func (s *Stream) State() strand.StreamState {
	if s.StateFn == nil {
		return strand.StreamStateConnecting
	}
	return s.StateFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// FixedStream returns a Stream that yields the given events in order, then
// err (io.EOF when err is nil).
func FixedStream(events []strand.Event, err error) *Stream {
	if err == nil {
		err = io.EOF
	}
	i := 0
	return &Stream{
		NextFn: func() (strand.Event, error) {
			if i >= len(events) {
				return nil, err
			}
			evt := events[i]
			i++
			return evt, nil
		},
	}
}
