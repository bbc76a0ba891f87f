package strand

// Transcript accumulates decoded events into consumer-facing conversation
// state. Messages events are cumulative and append; the latest values
// snapshot is authoritative and replaces all prior state. Metadata fields
// stick once seen so callers can continue the thread on the next turn.
type Transcript struct {
	ThreadID    string
	AssistantID string
	ProjectID   string

	chunks   []MessageChunk
	snapshot *StateSnapshot
}

// Apply folds one event into the transcript. Done and unknown events are
// no-ops.
func (t *Transcript) Apply(evt Event) {
	switch e := evt.(type) {
	case MessagesEvent:
		t.chunks = append(t.chunks, e.Chunks...)
	case ValuesEvent:
		snap := e.Snapshot
		t.snapshot = &snap
	case MetadataEvent:
		if e.ThreadID != "" {
			t.ThreadID = e.ThreadID
		}
		if e.AssistantID != "" {
			t.AssistantID = e.AssistantID
		}
		if e.ProjectID != "" {
			t.ProjectID = e.ProjectID
		}
	}
}

// Messages returns the authoritative message list: the latest snapshot's
// messages when one has arrived, otherwise the accumulated chunks.
func (t *Transcript) Messages() []MessageChunk {
	if t.snapshot != nil {
		return t.snapshot.Messages
	}
	return t.chunks
}

// Snapshot returns the latest values snapshot, or nil if none arrived.
func (t *Transcript) Snapshot() *StateSnapshot {
	return t.snapshot
}
