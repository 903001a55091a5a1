// Package rest is the HTTP plumbing shared by the carrier adapters. Each
// adapter composes a Client with its own base URL and authorization hook;
// there is no retry here. Rate and booking calls are single attempts bounded
// by the caller's context, and retry policy belongs to the layer above.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/parcelworks/parcelworks-backend/internal/platform/ctxutil"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

// Authorize mutates an outbound request with carrier-specific credentials.
type Authorize func(req *http.Request)

type Client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	authorize  Authorize
}

func NewClient(log *logger.Logger, baseURL string, timeout time.Duration, authorize Authorize) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		log:        log,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		authorize:  authorize,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// HTTPError is a non-2xx response from a carrier API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 2000 {
		msg = msg[:2000] + "..."
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// PostJSON sends payload as JSON and decodes the response body into out.
func (c *Client) PostJSON(ctx context.Context, path string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(raw), out)
}

// GetJSON fetches path and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("rest client not initialized")
	}
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authorize != nil {
		c.authorize(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
