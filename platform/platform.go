// Package platform implements [strand.Streamer] against the hosted
// conversational-AI platform's streaming API.
//
// One turn is one POST to the stream endpoint. An HTTP 200 response carries
// the SSE event stream inline (synchronous mode). An HTTP 202 response is a
// handshake: the backend deferred the turn to a worker and the client must
// follow up with a GET on the thread-scoped stream endpoint (distributed
// mode). Both modes surface the same pull-based [strand.Stream]; the mode is
// invisible to consumers.
package platform

import "time"

const (
	defaultBaseURL        = "https://api.strand.sh"
	defaultConnectTimeout = 30 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	streamPath     = "/llm/stream"
	assistantsPath = "/assistants"

	apiKeyHeader = "x-api-key"
)

// apiRequest is the JSON body sent to the stream endpoint.
type apiRequest struct {
	Input    apiInput     `json:"input"`
	Model    string       `json:"model,omitempty"`
	Tools    []string     `json:"tools,omitempty"`
	Metadata *apiMetadata `json:"metadata,omitempty"`
}

type apiInput struct {
	Messages []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiMetadata struct {
	AssistantID string `json:"assistant_id,omitempty"`
	ThreadID    string `json:"thread_id,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
}

// apiErrorResponse is the JSON body of a non-2xx response. The backend uses
// detail or error interchangeably depending on the failing layer.
type apiErrorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}
