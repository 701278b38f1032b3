// Package engine talks to the external spreadsheet-backed scoring endpoint.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"diagnosis-api/internal/common/errors"
	"diagnosis-api/internal/common/metrics"
)

// Client posts diagnosis payloads to the engine and classifies its replies.
// The deadline is explicit: the engine is a script runtime that has been
// observed to hang, and a request must not hang with it.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured reports whether an endpoint URL is set. When false, Submit must
// not be called; handlers short-circuit with a configuration error.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Submit forwards the payload as JSON and returns the parsed reply object.
// Classification of failures:
//   - network-level failure          -> TRANSPORT_ERROR
//   - non-2xx reply                  -> UPSTREAM_HTTP_ERROR
//   - body not starting '{' or '['   -> UPSTREAM_FORMAT_ERROR (error page sniff)
//   - body failing to parse as JSON  -> UPSTREAM_FORMAT_ERROR
//
// The returned error is always a *errors.StandardError; its Message is a
// log-side summary, user-facing text is chosen by the handler. The reply is
// returned undecoded beyond JSON parsing: the handler passes it through to
// the client verbatim, and an array body is as valid as an object.
func (c *Client) Submit(ctx context.Context, payload interface{}) (interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewTransportError("failed to encode payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, errors.NewTransportError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamCalls.WithLabelValues("transport_error").Inc()
		return nil, errors.NewTransportError("engine unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamCalls.WithLabelValues("transport_error").Inc()
		return nil, errors.NewTransportError("failed to read engine reply", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.UpstreamCalls.WithLabelValues("http_error").Inc()
		return nil, errors.NewUpstreamHTTPError(resp.StatusCode, "engine returned HTTP error")
	}

	// The engine returns an HTML error page instead of JSON when its script
	// entry point is missing or not deployed. Sniff before parsing.
	text := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[") {
		metrics.UpstreamCalls.WithLabelValues("format_error").Inc()
		return nil, errors.NewUpstreamFormatError("response is not JSON", "invalid upstream response")
	}

	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		metrics.UpstreamCalls.WithLabelValues("format_error").Inc()
		return nil, errors.NewUpstreamFormatError(fmt.Sprintf("invalid JSON: %v", err), "malformed upstream response")
	}

	metrics.UpstreamCalls.WithLabelValues("success").Inc()
	return data, nil
}
