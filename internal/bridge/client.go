package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"prop-strategy-builder/internal/logger"
	"prop-strategy-builder/internal/types"
)

// Client talks to a running bridge, either as the operator (State, QueueCommand)
// or in place of an EA (Send).
type Client struct {
	httpClient *http.Client
	baseURL    string
	retry      *RetryConfig
}

// ClientOption configures the bridge client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetry retries failed requests with exponential backoff
func WithRetry(cfg *RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// NewClient creates a client for the bridge at baseURL, e.g. "http://127.0.0.1:8080".
// A bare host:port gets an http:// prefix.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     5 * time.Second,
	}
}

// Send posts payload to endpoint and decodes the bridge's reply. A reply with
// success=false is returned as an error carrying the bridge's message.
func (c *Client) Send(ctx context.Context, endpoint string, payload any) (*types.EAResponse, error) {
	if c.retry == nil {
		return c.do(ctx, http.MethodPost, endpoint, payload)
	}

	var lastErr error
	wait := c.retry.InitialWait
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		resp, err := c.do(ctx, http.MethodPost, endpoint, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		logger.Warn(ctx, "Bridge request failed, retrying", "attempt", attempt, "endpoint", endpoint, "error", err)

		if attempt < c.retry.MaxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
			if wait > c.retry.MaxWait {
				wait = c.retry.MaxWait
			}
		}
	}
	return nil, fmt.Errorf("all %d attempts failed: %w", c.retry.MaxAttempts, lastErr)
}

// State fetches the bridge's view of the EA.
func (c *Client) State(ctx context.Context) (*State, error) {
	resp, err := c.do(ctx, http.MethodGet, EndpointState, nil)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, err
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	return &st, nil
}

// QueueCommand queues an EA command and returns its id.
func (c *Client) QueueCommand(ctx context.Context, action string, params map[string]any) (string, error) {
	resp, err := c.Send(ctx, EndpointCommands, map[string]any{"action": action, "parameters": params})
	if err != nil {
		return "", err
	}
	id, _ := resp.Data["id"].(string)
	return id, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) (*types.EAResponse, error) {
	ctx, span := logger.StartSpan(ctx, "bridge."+method+" "+endpoint)
	defer span.End()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	logger.Debug(ctx, "Bridge response",
		"method", method,
		"url", url,
		"status", httpResp.StatusCode,
		"duration", time.Since(start),
		"bodySize", len(raw))

	if httpResp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(raw))
	}

	var resp types.EAResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if !resp.Success {
		return &resp, fmt.Errorf("bridge: %s", resp.Message)
	}
	return &resp, nil
}
