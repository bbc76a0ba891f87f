package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/strandhq/strand"
)

// Interface compliance check.
var _ strand.Streamer = (*Client)(nil)

// Client talks to the platform's streaming and assistants APIs.
type Client struct {
	apiKey         string
	baseURL        string
	httpClient     *http.Client
	connectTimeout time.Duration
	idleTimeout    time.Duration
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest and
// for self-hosted deployments.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithConnectTimeout bounds time-to-first-response-headers on each
// connection the client opens.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) { c.connectTimeout = d }
}

// WithIdleTimeout bounds the gap between chunks on a distributed stream.
// Zero disables the idle timer.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Client) { c.idleTimeout = d }
}

// New creates a new platform [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:         apiKey,
		baseURL:        defaultBaseURL,
		httpClient:     http.DefaultClient,
		connectTimeout: defaultConnectTimeout,
		idleTimeout:    defaultIdleTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream issues one streaming turn and returns a [strand.Stream] of decoded
// events. An HTTP 200 response streams inline; an HTTP 202 response is a
// distributed handshake followed by a second GET connection. Either way the
// returned stream behaves identically.
func (c *Client) Stream(ctx context.Context, req strand.Request) (strand.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("platform: %w", err)
	}

	resp, cancel, err := c.open(ctx, http.MethodPost, c.baseURL+streamPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return newStream(ctx, resp.Body, modeSync, 0, cancel), nil

	case http.StatusAccepted:
		dr, perr := parseDistributedResponse(resp.Body)
		resp.Body.Close()
		cancel()
		if perr != nil {
			return nil, &strand.DistributedError{Phase: strand.PhaseHandshake, Err: perr}
		}
		return c.followDistributed(ctx, dr)

	default:
		// Read the error body before releasing the request context; cancel
		// would abort an in-flight body read.
		err := parseHTTPError(resp)
		resp.Body.Close()
		cancel()
		return nil, err
	}
}

// followDistributed opens the thread-scoped stream named by a handshake.
func (c *Client) followDistributed(ctx context.Context, dr distributedResponse) (strand.Stream, error) {
	// A cancellation issued during the handshake aborts here rather than
	// silently opening the second connection.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	streamURL := c.baseURL + "/threads/" + url.PathEscape(dr.ThreadID) + "/stream"
	resp, cancel, err := c.open(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, &strand.DistributedError{Phase: strand.PhaseStreaming, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		perr := parseHTTPError(resp)
		resp.Body.Close()
		cancel()
		return nil, &strand.DistributedError{Phase: strand.PhaseStreaming, Err: perr}
	}
	return newStream(ctx, resp.Body, modeDistributed, c.idleTimeout, cancel), nil
}

// open issues one request with the connection timeout applied. The returned
// cancel aborts the response body; the caller owns it for the body's
// lifetime.
func (c *Client) open(ctx context.Context, method, u string, body io.Reader) (*http.Response, context.CancelFunc, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(reqCtx, method, u, body)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("platform: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// The connection timeout covers dial, TLS, and initial response headers.
	// Reads from the body afterwards are bounded by the idle timer instead.
	timer := time.AfterFunc(c.connectTimeout, cancel)
	resp, err := c.httpClient.Do(req)
	timedOut := !timer.Stop()
	if err != nil {
		cancel()
		if timedOut && ctx.Err() == nil {
			return nil, nil, fmt.Errorf("platform: connection timeout after %s: %w", c.connectTimeout, err)
		}
		return nil, nil, fmt.Errorf("platform: %w", err)
	}
	if timedOut && ctx.Err() == nil {
		// The timer can fire in the gap between Do returning and Stop. The
		// request context is already cancelled, so body reads would fail
		// with an unlabeled error; report the timeout here instead.
		resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("platform: connection timeout after %s", c.connectTimeout)
	}
	return resp, cancel, nil
}

func buildRequest(req strand.Request) apiRequest {
	msgs := make([]apiMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = apiMessage{Role: string(m.Role), Content: m.Content}
	}
	out := apiRequest{
		Input: apiInput{Messages: msgs},
		Model: req.Model,
		Tools: req.Tools,
	}
	if md := req.Metadata; md != (strand.Metadata{}) {
		out.Metadata = &apiMetadata{
			AssistantID: md.AssistantID,
			ThreadID:    md.ThreadID,
			ProjectID:   md.ProjectID,
		}
	}
	return out
}

// parseHTTPError turns a non-success response into an [strand.APIError],
// preferring the body's detail field, then error, then the status line.
func parseHTTPError(resp *http.Response) error {
	apiErr := &strand.APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}
	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return apiErr
	}
	switch {
	case parsed.Detail != "":
		apiErr.Message = parsed.Detail
	case parsed.Error != "":
		apiErr.Message = parsed.Error
	}
	return apiErr
}
