package httpclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FormContentType is the content type used for Slack Web API form posts
const FormContentType = "application/x-www-form-urlencoded"

// Config holds HTTP client configuration
type Config struct {
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
	SkipTLSVerify   bool
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
		SkipTLSVerify:   false,
	}
}

// StatusError is returned by DecodeJSON for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Client wraps http.Client with convenient methods. It is safe for concurrent use and
// all requests share one connection pool.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

// New creates a new HTTP client with the given configuration
func New(cfg Config) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.SkipTLSVerify},
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		timeout: cfg.Timeout,
	}
}

// Do executes HTTP request with context
// Note: http.Client.Timeout handles the overall timeout including body read.
// We don't add context timeout here as it would cancel before body is fully read.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.http.Do(req)
}

// NewFormRequest builds a POST request with a form-encoded body. Extra headers are set
// after the content type.
func NewFormRequest(ctx context.Context, rawURL string, form url.Values, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}

	req.Header.Set("Content-Type", FormContentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// DecodeJSON decodes JSON response body into the provided target.
// Non-2xx responses yield a *StatusError.
func (c *Client) DecodeJSON(resp *http.Response, target any) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}

	return nil
}

// Standard returns the underlying *http.Client for libraries that take one directly
func (c *Client) Standard() *http.Client {
	return c.http
}

// Close closes idle connections
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}
