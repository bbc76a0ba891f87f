package strand

import "encoding/json"

// Event is a sealed interface representing one decoded stream event.
// Events are purely semantic. Transport/protocol errors come from
// Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// MessagesEvent carries an ordered batch of incremental message chunks.
// Chunks are cumulative: consumers concatenate or group them, never
// replace prior state with them.
type MessagesEvent struct {
	Chunks []MessageChunk
}

func (MessagesEvent) event() {}

// ValuesEvent carries a complete snapshot of the conversation state.
// The latest snapshot is authoritative and replaces all prior ones.
type ValuesEvent struct {
	Snapshot StateSnapshot
}

func (ValuesEvent) event() {}

// ErrorEvent reports a backend-side failure in human-readable form.
type ErrorEvent struct {
	Message string
}

func (ErrorEvent) event() {}

// MetadataEvent identifies the session; generally the first event.
type MetadataEvent struct {
	ThreadID    string
	AssistantID string
	ProjectID   string
}

func (MetadataEvent) event() {}

// DoneEvent is the terminal marker of a distributed stream. The stream
// layer consumes it to end iteration; consumers never observe it.
type DoneEvent struct{}

func (DoneEvent) event() {}

// UnknownEvent preserves an event with an unrecognized type tag so that
// forward-compatible server additions are not silently lost.
type UnknownEvent struct {
	Tag     string
	Payload json.RawMessage
}

func (UnknownEvent) event() {}

// Interface compliance checks.
var (
	_ Event = MessagesEvent{}
	_ Event = ValuesEvent{}
	_ Event = ErrorEvent{}
	_ Event = MetadataEvent{}
	_ Event = DoneEvent{}
	_ Event = UnknownEvent{}
)
