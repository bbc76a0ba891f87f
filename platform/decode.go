package platform

import (
	"encoding/json"
	"strings"

	"github.com/strandhq/strand"
)

// doneMarker terminates a distributed stream.
const doneMarker = "[DONE]"

// decodeData converts one SSE data payload into an event. ok is false when
// the payload should be skipped: malformed JSON, a wrong-shape tuple, or a
// shape that only exists in the other mode. Skipping favors stream liveness
// over per-event fidelity; decodeData never fails.
func decodeData(payload string, distributed bool) (strand.Event, bool) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, false
	}

	if distributed {
		if payload == doneMarker {
			return strand.DoneEvent{}, true
		}
		// Worker streams report failures as a bare object: {"error": "<msg>"}.
		// This is a different wire shape than the synchronous error event.
		if strings.HasPrefix(payload, "{") {
			var body struct {
				Error *string `json:"error"`
			}
			if err := json.Unmarshal([]byte(payload), &body); err == nil && body.Error != nil {
				return strand.ErrorEvent{Message: *body.Error}, true
			}
			return nil, false
		}
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &tuple); err != nil || len(tuple) != 2 {
		return nil, false
	}
	var tag string
	if err := json.Unmarshal(tuple[0], &tag); err != nil {
		return nil, false
	}

	switch tag {
	case "messages":
		chunks, ok := decodeChunks(tuple[1])
		if !ok {
			return nil, false
		}
		return strand.MessagesEvent{Chunks: chunks}, true

	case "values":
		var snap strand.StateSnapshot
		if err := json.Unmarshal(tuple[1], &snap); err != nil {
			return nil, false
		}
		return strand.ValuesEvent{Snapshot: snap}, true

	case "error":
		var body struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(tuple[1], &body); err != nil {
			return nil, false
		}
		return strand.ErrorEvent{Message: body.Message}, true

	case "metadata":
		var body struct {
			ThreadID    string `json:"thread_id"`
			AssistantID string `json:"assistant_id"`
			ProjectID   string `json:"project_id"`
		}
		if err := json.Unmarshal(tuple[1], &body); err != nil {
			return nil, false
		}
		return strand.MetadataEvent{
			ThreadID:    body.ThreadID,
			AssistantID: body.AssistantID,
			ProjectID:   body.ProjectID,
		}, true

	case "done":
		// Worker streams may signal completion as a tagged event instead of
		// the bare marker line.
		if distributed {
			return strand.DoneEvent{}, true
		}
		return strand.UnknownEvent{Tag: tag, Payload: tuple[1]}, true

	default:
		// Unknown tags pass through opaquely rather than being dropped.
		return strand.UnknownEvent{Tag: tag, Payload: tuple[1]}, true
	}
}

// decodeChunks accepts either a list of chunks or a single chunk object; the
// backend emits both.
func decodeChunks(raw json.RawMessage) ([]strand.MessageChunk, bool) {
	var chunks []strand.MessageChunk
	if err := json.Unmarshal(raw, &chunks); err == nil {
		return chunks, true
	}
	var one strand.MessageChunk
	if err := json.Unmarshal(raw, &one); err == nil {
		return []strand.MessageChunk{one}, true
	}
	return nil, false
}

// cutData extracts the payload from one SSE line. ok is false for blank
// lines, keep-alive comments (leading ':'), and non-data fields.
func cutData(line string) (string, bool) {
	if line == "" || strings.HasPrefix(line, ":") {
		return "", false
	}
	rest, found := strings.CutPrefix(line, "data:")
	if !found {
		return "", false
	}
	return strings.TrimPrefix(rest, " "), true
}
