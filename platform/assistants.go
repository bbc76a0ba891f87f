package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/strandhq/strand"
)

// AssistantSpec is the input to CreateAssistant.
type AssistantSpec struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Model       string   `json:"model,omitempty"`
	Tools       []string `json:"tools,omitempty"`
}

// ListAssistants returns all assistants visible to the API key.
func (c *Client) ListAssistants(ctx context.Context) ([]strand.Assistant, error) {
	var out []strand.Assistant
	if err := c.doJSON(ctx, http.MethodGet, assistantsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAssistant fetches one assistant by id.
func (c *Client) GetAssistant(ctx context.Context, id string) (strand.Assistant, error) {
	var out strand.Assistant
	err := c.doJSON(ctx, http.MethodGet, assistantsPath+"/"+url.PathEscape(id), nil, &out)
	return out, err
}

// CreateAssistant registers a new assistant and returns it with its
// backend-assigned id.
func (c *Client) CreateAssistant(ctx context.Context, spec AssistantSpec) (strand.Assistant, error) {
	var out strand.Assistant
	err := c.doJSON(ctx, http.MethodPost, assistantsPath, spec, &out)
	return out, err
}

// doJSON issues one plain REST call. These endpoints share the stream
// endpoints' error envelope but not their timeout discipline; the caller's
// context is the only deadline.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("platform: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseHTTPError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("platform: decode response: %w", err)
	}
	return nil
}
