package slackapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmylchreest/go-slackpurge/internal/errs"
	"github.com/jmylchreest/go-slackpurge/pkg/httpclient"
)

// DefaultBaseURL is the Slack Web API root
const DefaultBaseURL = "https://slack.com/api"

// Client talks to the Slack Web API files endpoints on behalf of one workspace token
type Client struct {
	baseURL string
	token   string
	agent   string
	http    *httpclient.Client
	logger  *slog.Logger
}

// ClientConfig holds configuration for creating a Client
type ClientConfig struct {
	Name         string
	BaseURL      string
	Token        string
	UserAgent    string
	Timeout      time.Duration
	MaxIdleConns int
	SkipTLS      bool
	Logger       *slog.Logger
}

// NewClient creates a new Slack API client
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	httpCfg := httpclient.DefaultConfig()
	if cfg.Timeout > 0 {
		httpCfg.Timeout = cfg.Timeout
	}
	if cfg.MaxIdleConns > 0 {
		httpCfg.MaxIdleConns = cfg.MaxIdleConns
	}
	httpCfg.SkipTLSVerify = cfg.SkipTLS

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		agent:   cfg.UserAgent,
		http:    httpclient.New(httpCfg),
		logger:  logger.With("service", "slack", "workspace", cfg.Name),
	}
}

// methodURL constructs a full API URL from a Web API method name
func (c *Client) methodURL(method string) string {
	return c.baseURL + "/" + strings.TrimLeft(method, "/")
}

// call posts form to a Web API method and decodes the JSON reply into result.
// Transport failures, including a body read cut short by a deadline or a dropped
// connection, come back coded as network errors; undecodable bodies as parse errors. Non-2xx statuses are returned as a bare *httpclient.StatusError so each
// method can classify them.
func (c *Client) call(ctx context.Context, method string, form url.Values, result any) error {
	req, err := httpclient.NewFormRequest(ctx, c.methodURL(method), form, c.headers(nil))
	if err != nil {
		return errs.Wrap(errs.CodeInvalidArgument, method, err)
	}
	return c.send(ctx, method, req, result)
}

func (c *Client) send(ctx context.Context, method string, req *http.Request, result any) error {
	c.logger.DebugContext(ctx, "API request",
		"method", method,
		"url", req.URL.String())

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return errs.Wrap(errs.CodeNetwork, method, err)
	}

	if err := c.http.DecodeJSON(resp, result); err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			c.logger.ErrorContext(ctx, "API error response",
				"method", method,
				"status", statusErr.StatusCode,
				"body", statusErr.Body)
			return statusErr
		}
		if interrupted(ctx, err) {
			return errs.Wrap(errs.CodeNetwork, method, err)
		}
		return errs.Wrap(errs.CodeParse, method, err)
	}

	return nil
}

// interrupted reports whether a body read failed because the transfer was cut short
// rather than because the body itself was malformed.
func interrupted(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// headers adds the client-wide headers to extra
func (c *Client) headers(extra map[string]string) map[string]string {
	h := make(map[string]string, len(extra)+1)
	if c.agent != "" {
		h["User-Agent"] = c.agent
	}
	for k, v := range extra {
		h[k] = v
	}
	return h
}

// Close closes the underlying HTTP client connections
func (c *Client) Close() {
	c.http.Close()
}
