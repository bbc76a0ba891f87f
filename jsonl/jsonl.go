// Package jsonl writes one JSON object per line for machine consumption of
// a stream: chunk records while text arrives, a metadata record when the
// session identifies itself, then exactly one done or error record.
package jsonl

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/strandhq/strand"
)

// Record is the line-oriented output envelope. Type is one of chunk,
// metadata, done, error.
type Record struct {
	Type        string `json:"type"`
	Role        string `json:"role,omitempty"`
	Content     string `json:"content,omitempty"`
	ThreadID    string `json:"thread_id,omitempty"`
	AssistantID string `json:"assistant_id,omitempty"`
	Code        string `json:"code,omitempty"`
	Message     string `json:"message,omitempty"`
	Recoverable bool   `json:"recoverable,omitempty"`
}

// Writer emits records to an underlying writer, one JSON object per line.
type Writer struct {
	enc *json.Encoder
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Event writes the records for one decoded stream event. Values snapshots
// and unknown events produce no output: snapshots restate text already
// emitted as chunks, and unknown tags have no stable record shape.
func (w *Writer) Event(evt strand.Event) error {
	switch e := evt.(type) {
	case strand.MessagesEvent:
		for _, chunk := range e.Chunks {
			text := chunk.Text()
			if text == "" {
				continue
			}
			rec := Record{Type: "chunk", Role: chunk.Type, Content: text}
			if err := w.enc.Encode(rec); err != nil {
				return err
			}
		}
	case strand.MetadataEvent:
		return w.enc.Encode(Record{
			Type:        "metadata",
			ThreadID:    e.ThreadID,
			AssistantID: e.AssistantID,
		})
	}
	return nil
}

// Done writes the terminal success record.
func (w *Writer) Done() error {
	return w.enc.Encode(Record{Type: "done"})
}

// Error writes the terminal error record.
func (w *Writer) Error(c strand.Classification) error {
	return w.enc.Encode(Record{
		Type:        "error",
		Code:        string(c.Code),
		Message:     c.Message,
		Recoverable: c.Recoverable,
	})
}

// Consume drains the stream into w and returns the process exit code:
// 0 on success, otherwise the classifier's code for the failure. A
// backend-reported error event ends consumption with its classified code.
func Consume(w io.Writer, s strand.Stream) int {
	defer s.Close()
	jw := NewWriter(w)

	for {
		evt, err := s.Next()
		if err == io.EOF {
			jw.Done()
			return 0
		}
		if err != nil {
			c := strand.Classify(err)
			jw.Error(c)
			return c.ExitCode
		}
		if e, ok := evt.(strand.ErrorEvent); ok {
			c := strand.Classify(errors.New(e.Message))
			jw.Error(c)
			return c.ExitCode
		}
		if err := jw.Event(evt); err != nil {
			// stdout is gone; nothing left to report to
			return 1
		}
	}
}
