package platform

import (
	"encoding/json"
	"fmt"
	"io"
)

// maxThreadIDLen bounds the thread identifier in a distributed handshake.
const maxThreadIDLen = 256

// distributedResponse is the HTTP 202 handshake body. It is consumed once,
// immediately used to open the thread-scoped stream, then discarded.
type distributedResponse struct {
	ThreadID    string `json:"thread_id"`
	Distributed bool   `json:"distributed"`
}

// isDistributedResponse reports whether the handshake body is well formed:
// distributed must be true and thread_id a string of 1 to 256 characters.
func isDistributedResponse(dr distributedResponse) bool {
	return dr.Distributed && len(dr.ThreadID) >= 1 && len(dr.ThreadID) <= maxThreadIDLen
}

// parseDistributedResponse reads and validates a 202 handshake body.
func parseDistributedResponse(r io.Reader) (distributedResponse, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return distributedResponse{}, fmt.Errorf("read handshake body: %w", err)
	}
	var dr distributedResponse
	if err := json.Unmarshal(data, &dr); err != nil {
		return distributedResponse{}, fmt.Errorf("malformed distributed response: %w", err)
	}
	if !isDistributedResponse(dr) {
		return distributedResponse{}, fmt.Errorf("malformed distributed response: distributed=%v, thread_id length %d", dr.Distributed, len(dr.ThreadID))
	}
	return dr, nil
}
