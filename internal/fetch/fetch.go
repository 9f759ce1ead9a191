// Package fetch provides the HTTP plumbing shared by the provider clients:
// JSON request/response round trips and raw media downloads.
package fetch

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

	"github.com/jonathan/reel-studio/internal/retry"
)

// DefaultTimeout is the default HTTP request timeout for API calls.
const DefaultTimeout = 60 * time.Second

// DownloadTimeout bounds media downloads, which can be large.
const DownloadTimeout = 5 * time.Minute

// MaxDownloadBytes caps a single media download.
const MaxDownloadBytes = 512 << 20

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "reel-studio/1.0"

// Error represents an error during an HTTP exchange.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client issues requests with a fixed set of headers (API keys, content negotiation).
type Client struct {
	HTTP    *http.Client
	Headers map[string]string
}

// NewClient returns a Client with the given timeout and default headers.
func NewClient(timeout time.Duration, headers map[string]string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		Headers: headers,
	}
}

// Do sends a request. A non-nil payload is JSON-encoded. Non-2xx responses are
// returned together with an *Error wrapping a *retry.StatusError.
func (c *Client) Do(ctx context.Context, method, urlStr string, payload any) (*Response, error) {
	if _, err := parseURL(urlStr); err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{URL: urlStr, Message: "failed to encode request body", Cause: err}
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}
	if len(bodyBytes) > MaxDownloadBytes {
		return nil, &Error{URL: urlStr, Message: fmt.Sprintf("response exceeds %d bytes", MaxDownloadBytes)}
	}

	result := &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        bodyBytes,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
			Cause:   &retry.StatusError{StatusCode: resp.StatusCode, Body: truncate(string(bodyBytes), 512)},
		}
	}
	return result, nil
}

// JSON sends a request and decodes a 2xx response body into out.
func (c *Client) JSON(ctx context.Context, method, urlStr string, payload, out any) (*Response, error) {
	resp, err := c.Do(ctx, method, urlStr, payload)
	if err != nil {
		return resp, err
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return resp, &Error{URL: urlStr, Message: "failed to decode response", Cause: err}
		}
	}
	return resp, nil
}

// Download retrieves the raw bytes at urlStr without any API headers.
func Download(ctx context.Context, urlStr string) (*Response, error) {
	client := &Client{HTTP: &http.Client{Timeout: DownloadTimeout}}
	resp, err := client.Do(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return resp, err
	}
	if len(resp.Body) == 0 {
		return resp, &Error{URL: urlStr, Message: "empty response body"}
	}
	return resp, nil
}

func parseURL(urlStr string) (*url.URL, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}
	return parsed, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
