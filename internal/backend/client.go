// Package backend is the HTTP client for the analysis backend.
//
// The backend converts source code into a code property graph (POST /convert/)
// and answers graph queries (POST /cypher). Every failure is reported as one of
// two sentinel errors so callers can tell a broken backend (ErrTransport) from
// a broken payload (ErrMalformedResponse). A successful query that matched
// nothing is not an error; see QueryResult.Empty.
//
// Client is safe for concurrent use.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrTransport covers unreachable backends and non-success status codes
	ErrTransport = errors.New("backend transport failure")
	// ErrMalformedResponse covers bodies that cannot be decoded
	ErrMalformedResponse = errors.New("malformed backend response")
)

// DefaultTimeout bounds a single backend request. Conversions run the full
// analysis pipeline, so it is generous.
const DefaultTimeout = 5 * time.Minute

// maxErrorBody caps how much of an error body ends up in an error message
const maxErrorBody = 512

// Client talks to one analysis backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the backend at baseURL. A zero timeout uses
// DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

type cypherRequest struct {
	Query string `json:"query"`
}

// Query runs a cypher query and decodes the graph it returns
func (c *Client) Query(ctx context.Context, cypher string) (*QueryResult, error) {
	body, err := json.Marshal(cypherRequest{Query: cypher})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	raw, err := c.do(ctx, "cypher", http.MethodPost, "/cypher", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	result, err := decodeQueryResult(raw)
	if err != nil {
		observe("cypher", outcomeMalformed, 0)
		return nil, err
	}
	return result, nil
}

// Convert submits source code for analysis as the multipart form field "code"
func (c *Client) Convert(ctx context.Context, code string) (*ConvertResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("code", code); err != nil {
		return nil, fmt.Errorf("write form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	raw, err := c.do(ctx, "convert", http.MethodPost, "/convert/", w.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	var result ConvertResult
	if err := decodeJSON(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DataStatus asks whether the backend currently holds any graph data
func (c *Client) DataStatus(ctx context.Context) (*DataStatus, error) {
	raw, err := c.do(ctx, "data_status", http.MethodGet, "/data-status", "", nil)
	if err != nil {
		return nil, err
	}
	var status DataStatus
	if err := decodeJSON(raw, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RemoteConfig fetches the addresses the backend advertises
func (c *Client) RemoteConfig(ctx context.Context) (*RemoteConfig, error) {
	raw, err := c.do(ctx, "config", http.MethodGet, "/config", "", nil)
	if err != nil {
		return nil, err
	}
	var cfg RemoteConfig
	if err := decodeJSON(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Health calls the backend's health endpoint
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	raw, err := c.do(ctx, "health", http.MethodGet, "/", "", nil)
	if err != nil {
		return nil, err
	}
	var health HealthStatus
	if err := decodeJSON(raw, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// do executes one request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, endpoint, method, path, contentType string, body io.Reader) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(endpoint, outcomeTransport, time.Since(start))
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		observe(endpoint, outcomeTransport, time.Since(start))
		return nil, fmt.Errorf("%w: read %s: %v", ErrTransport, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observe(endpoint, outcomeTransport, time.Since(start))
		return nil, fmt.Errorf("%w: %s %s returned %d: %s", ErrTransport, method, path, resp.StatusCode, errorDetail(raw))
	}

	observe(endpoint, outcomeOK, time.Since(start))
	return raw, nil
}

func decodeJSON(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// errorDetail extracts the "detail" message of an error body, falling back
// to the truncated raw body
func errorDetail(raw []byte) string {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", body.Detail)
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}
