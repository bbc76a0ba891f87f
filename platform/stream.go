package platform

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/strandhq/strand"
)

type streamMode int

const (
	modeSync streamMode = iota
	modeDistributed
)

// stream implements [strand.Stream] over an SSE response body. One stream
// owns exactly one response body; the body (and the request context behind
// it) is released on every exit path: normal completion, error, or Close.
type stream struct {
	ctx    context.Context
	body   io.ReadCloser
	lines  *lineReader
	mode   streamMode
	cancel context.CancelFunc

	state strand.StreamState
	err   error // terminal error, if any

	// Idle timeout, distributed mode only. Every received chunk resets the
	// timer; firing aborts the underlying connection via cancel.
	idle       *time.Timer
	idleWindow time.Duration
	idleFired  atomic.Bool

	released bool
}

// Interface compliance check.
var _ strand.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, mode streamMode, idleWindow time.Duration, cancel context.CancelFunc) *stream {
	s := &stream{
		ctx:        ctx,
		body:       body,
		lines:      newLineReader(body),
		mode:       mode,
		cancel:     cancel,
		state:      strand.StreamStateConnecting,
		idleWindow: idleWindow,
	}
	if mode == modeDistributed && idleWindow > 0 {
		s.idle = time.AfterFunc(idleWindow, func() {
			s.idleFired.Store(true)
			cancel()
		})
		s.lines.onChunk = func() { s.idle.Reset(idleWindow) }
	}
	return s
}

// Next reads lines until one decodes to an event. Returns io.EOF when the
// stream ends gracefully, including on a distributed done marker (which is
// consumed, never yielded). Returns the context's error on cancellation.
func (s *stream) Next() (strand.Event, error) {
	switch s.state {
	case strand.StreamStateComplete:
		return nil, io.EOF
	case strand.StreamStateError:
		return nil, s.err
	case strand.StreamStateClosed:
		return nil, strand.ErrStreamClosed
	}

	for {
		if err := s.ctx.Err(); err != nil {
			s.terminate(err)
			return nil, s.err
		}

		line, err := s.lines.ReadLine()
		if err == io.EOF {
			s.complete()
			return nil, io.EOF
		}
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}
		s.state = strand.StreamStateStreaming

		data, ok := cutData(line)
		if !ok {
			continue // blank line, keep-alive, or non-data field
		}
		evt, ok := decodeData(data, s.mode == modeDistributed)
		if !ok {
			continue // malformed payload: skip, keep the stream alive
		}
		if _, done := evt.(strand.DoneEvent); done {
			s.complete()
			return nil, io.EOF
		}
		return evt, nil
	}
}

// State returns the current stream state.
func (s *stream) State() strand.StreamState {
	return s.state
}

// Close releases the underlying connection. Idempotent; safe before, during,
// or after completion.
func (s *stream) Close() error {
	if s.state != strand.StreamStateComplete && s.state != strand.StreamStateError {
		s.state = strand.StreamStateClosed
	}
	s.release()
	return nil
}

func (s *stream) complete() {
	s.state = strand.StreamStateComplete
	s.release()
}

// terminate records a terminal error, mapping idle-timer aborts and context
// cancellation to their caller-facing forms.
func (s *stream) terminate(err error) {
	s.state = strand.StreamStateError
	switch {
	case s.idleFired.Load():
		s.err = &strand.DistributedError{
			Phase: strand.PhaseStreaming,
			Err:   fmt.Errorf("idle timeout after %s with no data", s.idleWindow),
		}
	case s.ctx.Err() != nil:
		s.err = s.ctx.Err()
	case s.mode == modeDistributed:
		s.err = &strand.DistributedError{Phase: strand.PhaseStreaming, Err: err}
	default:
		s.err = fmt.Errorf("platform: %w", err)
	}
	s.release()
}

func (s *stream) release() {
	if s.released {
		return
	}
	s.released = true
	if s.idle != nil {
		s.idle.Stop()
	}
	s.body.Close()
	if s.cancel != nil {
		s.cancel()
	}
}
