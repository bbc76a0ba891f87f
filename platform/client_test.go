package platform_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandhq/strand"
	"github.com/strandhq/strand/platform"
)

// sseHandler writes each data line as one SSE event, flushing between them.
func sseHandler(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "data: %s\n\n", line)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func collectEvents(t *testing.T, s strand.Stream) []strand.Event {
	t.Helper()
	var events []strand.Event
	for {
		evt, err := s.Next()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, evt)
	}
}

func userRequest(content string) strand.Request {
	return strand.Request{
		Messages: []strand.Message{{Role: strand.RoleUser, Content: content}},
	}
}

func TestStream_Synchronous(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/llm/stream", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		var body struct {
			Input struct {
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			} `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Input.Messages, 1)
		assert.Equal(t, "user", body.Input.Messages[0].Role)
		assert.Equal(t, "Hi", body.Input.Messages[0].Content)

		sseHandler(
			`["messages", {"content": "Hi there"}]`,
			`["values", {"messages": [{"type": "ai", "content": "Hi there"}]}]`,
		)(w, r)
	}))
	t.Cleanup(srv.Close)

	client := platform.New("test-key", platform.WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), userRequest("Hi"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	events := collectEvents(t, s)
	require.Len(t, events, 2)

	msgs, ok := events[0].(strand.MessagesEvent)
	require.True(t, ok)
	require.Len(t, msgs.Chunks, 1)
	assert.Equal(t, "Hi there", msgs.Chunks[0].Text())

	vals, ok := events[1].(strand.ValuesEvent)
	require.True(t, ok)
	require.Len(t, vals.Snapshot.Messages, 1)

	assert.Equal(t, strand.StreamStateComplete, s.State())
}

func TestStream_SkipsMalformedAndKeepAliveLines(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, ": keep-alive\n")
		io.WriteString(w, "data: not json at all\n\n")
		io.WriteString(w, "data: [\"messages\", {\"content\": \"ok\"}]\n\n")
	}))
	t.Cleanup(srv.Close)

	client := platform.New("k", platform.WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), userRequest("x"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	events := collectEvents(t, s)
	require.Len(t, events, 1)
	assert.IsType(t, strand.MessagesEvent{}, events[0])
}

func TestStream_Distributed(t *testing.T) {
	t.Parallel()

	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/llm/stream", r.URL.Path)
			w.WriteHeader(http.StatusAccepted)
			io.WriteString(w, `{"thread_id": "t-1", "distributed": true}`)
		case http.MethodGet:
			gets.Add(1)
			assert.Equal(t, "/threads/t-1/stream", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
			sseHandler(
				`["messages", {"content": "queued result"}]`,
				`[DONE]`,
			)(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	client := platform.New("test-key", platform.WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), userRequest("Hi"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	events := collectEvents(t, s)

	// The done marker terminates the stream without surfacing downstream.
	require.Len(t, events, 1)
	msgs, ok := events[0].(strand.MessagesEvent)
	require.True(t, ok)
	assert.Equal(t, "queued result", msgs.Chunks[0].Text())

	assert.Equal(t, int32(1), gets.Load())
	assert.Equal(t, strand.StreamStateComplete, s.State())
}

func TestStream_DistributedEncodesThreadID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusAccepted)
			io.WriteString(w, `{"thread_id": "t/1 x", "distributed": true}`)
			return
		}
		assert.Equal(t, "/threads/t%2F1%20x/stream", r.URL.EscapedPath())
		sseHandler(`[DONE]`)(w, r)
	}))
	t.Cleanup(srv.Close)

	client := platform.New("k", platform.WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), userRequest("x"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	assert.Empty(t, collectEvents(t, s))
}

func TestStream_DistributedWorkerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusAccepted)
			io.WriteString(w, `{"thread_id": "t-1", "distributed": true}`)
			return
		}
		sseHandler(`{"error": "worker crashed"}`, `[DONE]`)(w, r)
	}))
	t.Cleanup(srv.Close)

	client := platform.New("k", platform.WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), userRequest("x"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	events := collectEvents(t, s)
	require.Len(t, events, 1)
	assert.Equal(t, strand.ErrorEvent{Message: "worker crashed"}, events[0])
}

func TestStream_AuthFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail": "bad key"}`)
	}))
	t.Cleanup(srv.Close)

	client := platform.New("bad", platform.WithBaseURL(srv.URL))
	_, err := client.Stream(context.Background(), userRequest("Hi"))
	require.Error(t, err)

	var apiErr *strand.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "bad key", apiErr.Message)

	cl := strand.Classify(err)
	assert.Equal(t, strand.CodeAuthFailed, cl.Code)
	assert.Equal(t, 2, cl.ExitCode)
}

func TestStream_MalformedHandshakeSkipsSecondConnection(t *testing.T) {
	t.Parallel()

	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		io.WriteString(w, "not json")
	}))
	t.Cleanup(srv.Close)

	client := platform.New("k", platform.WithBaseURL(srv.URL))
	_, err := client.Stream(context.Background(), userRequest("Hi"))
	require.Error(t, err)

	var dErr *strand.DistributedError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, strand.PhaseHandshake, dErr.Phase)
	assert.Contains(t, err.Error(), "malformed distributed response")
	assert.Equal(t, int32(0), gets.Load())
}

func TestStream_DistributedSecondConnectionRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusAccepted)
			io.WriteString(w, `{"thread_id": "t-1", "distributed": true}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error": "worker pool exhausted"}`)
	}))
	t.Cleanup(srv.Close)

	client := platform.New("k", platform.WithBaseURL(srv.URL))
	_, err := client.Stream(context.Background(), userRequest("Hi"))
	require.Error(t, err)

	var dErr *strand.DistributedError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, strand.PhaseStreaming, dErr.Phase)

	cl := strand.Classify(err)
	assert.Equal(t, strand.CodeServerError, cl.Code)
	assert.Equal(t, 5, cl.ExitCode)
}

func TestStream_IdleTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusAccepted)
			io.WriteString(w, `{"thread_id": "t-1", "distributed": true}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "data: [\"messages\", {\"content\": \"first\"}]\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Stall until the client gives up.
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	client := platform.New("k",
		platform.WithBaseURL(srv.URL),
		platform.WithIdleTimeout(50*time.Millisecond),
	)
	s, err := client.Stream(context.Background(), userRequest("Hi"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	evt, err := s.Next()
	require.NoError(t, err)
	assert.IsType(t, strand.MessagesEvent{}, evt)

	_, err = s.Next()
	require.Error(t, err)

	var dErr *strand.DistributedError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, strand.PhaseStreaming, dErr.Phase)
	assert.Contains(t, err.Error(), "idle timeout")

	cl := strand.Classify(err)
	assert.Equal(t, strand.CodeTimeout, cl.Code)
	assert.Equal(t, 4, cl.ExitCode)
	assert.Equal(t, strand.StreamStateError, s.State())
}

func TestStream_ConnectionTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	client := platform.New("k",
		platform.WithBaseURL(srv.URL),
		platform.WithConnectTimeout(30*time.Millisecond),
	)
	_, err := client.Stream(context.Background(), userRequest("Hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection timeout")

	cl := strand.Classify(err)
	assert.Equal(t, strand.CodeTimeout, cl.Code)
}

func TestStream_CancellationMidStream(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "data: [\"messages\", {\"content\": \"first\"}]\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	client := platform.New("k", platform.WithBaseURL(srv.URL))
	s, err := client.Stream(ctx, userRequest("Hi"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.Next()
	require.NoError(t, err)

	cancel()
	_, err = s.Next()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, strand.StreamStateError, s.State())
}

func TestStream_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(sseHandler(`["messages", {"content": "hi"}]`))
	t.Cleanup(srv.Close)

	client := platform.New("k", platform.WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), userRequest("Hi"))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, strand.StreamStateClosed, s.State())

	_, err = s.Next()
	assert.ErrorIs(t, err, strand.ErrStreamClosed)
}

func TestStream_ValidatesRequest(t *testing.T) {
	t.Parallel()

	client := platform.New("k")
	_, err := client.Stream(context.Background(), strand.Request{})
	assert.ErrorIs(t, err, strand.ErrValidation)
}

func TestStream_ErrorBodyArrivingAfterHeaders(t *testing.T) {
	t.Parallel()

	// The error body may land in a later chunk than the headers; it must
	// still be read in full before the request is torn down.
	delayedError := func(status int) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
			time.Sleep(150 * time.Millisecond)
			io.WriteString(w, `{"detail": "bad key"}`)
		}
	}

	t.Run("initial connection", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(delayedError(http.StatusUnauthorized))
		t.Cleanup(srv.Close)

		client := platform.New("bad", platform.WithBaseURL(srv.URL))
		_, err := client.Stream(context.Background(), userRequest("Hi"))
		require.Error(t, err)

		var apiErr *strand.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "bad key", apiErr.Message)
	})

	t.Run("distributed second connection", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusAccepted)
				io.WriteString(w, `{"thread_id": "t-1", "distributed": true}`)
				return
			}
			delayedError(http.StatusServiceUnavailable)(w, r)
		}))
		t.Cleanup(srv.Close)

		client := platform.New("k", platform.WithBaseURL(srv.URL))
		_, err := client.Stream(context.Background(), userRequest("Hi"))
		require.Error(t, err)

		var apiErr *strand.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "bad key", apiErr.Message)
	})
}

func TestStream_ErrorBodyFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail field", `{"detail": "quota exceeded"}`, "quota exceeded"},
		{"error field", `{"error": "too many requests"}`, "too many requests"},
		{"unparseable body falls back to status line", "<html>", "429"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				io.WriteString(w, tt.body)
			}))
			t.Cleanup(srv.Close)

			client := platform.New("k", platform.WithBaseURL(srv.URL))
			_, err := client.Stream(context.Background(), userRequest("x"))
			require.Error(t, err)

			var apiErr *strand.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Contains(t, apiErr.Message, tt.want)
			assert.Equal(t, strand.CodeRateLimited, strand.Classify(err).Code)
		})
	}
}
