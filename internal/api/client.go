// Package api provides the HTTP client for the content site backend:
// token issuance, registration, profile fetch, page telemetry, and the
// content endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default client settings.
const (
	DefaultTimeout = 15 * time.Second

	// BeaconTimeout bounds the teardown-safe send; it must be short enough
	// to not stall shutdown noticeably.
	BeaconTimeout = 3 * time.Second
)

// Client is an HTTP client for the backend API. All requests read the bearer
// token from the credential guard at call time; requests are single-attempt
// (no retries) and failures surface to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      *CredentialGuard
	logger     *slog.Logger
}

// NewClient creates a backend API client. creds may be shared with the
// session manager; if nil, a detached guard is used (always anonymous until
// set).
func NewClient(baseURL string, creds *CredentialGuard, logger *slog.Logger) *Client {
	if creds == nil {
		creds = &CredentialGuard{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		creds:      creds,
		logger:     logger.With("component", "api-client"),
	}
}

// requestID generates a unique request identifier for log correlation.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// do executes a single HTTP request with the bearer token (when held) and a
// request ID attached. The caller owns the response body.
func (c *Client) do(ctx context.Context, method, path string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", requestID())

	// Bearer token is read at call time, never cached.
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("HTTP request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	c.logger.Debug("HTTP response", "method", method, "path", path, "status", resp.StatusCode)
	return resp, nil
}

// postJSON sends a JSON body and returns the response.
func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(data))
}

// postForm sends a form-encoded body and returns the response.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
}

// decodeJSON decodes a JSON body into dest.
func decodeJSON(r io.Reader, dest any) error {
	if err := json.NewDecoder(r).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// getJSON performs a GET and decodes a 200 response into dest.
func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return decodeJSON(resp.Body, dest)
}
