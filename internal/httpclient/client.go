// Package httpclient provides the shared HTTP client used for every outbound
// call: reverse geocoding, the classifier endpoint and the REST record store.
// Each request gets a deadline, a User-Agent and, when configured, a bearer
// credential.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/logger"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests if not specified.
	DefaultTimeout = 30 * time.Second

	defaultMaxIdleConns        = 50
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
	defaultTLSHandshakeTimeout = 10 * time.Second
	defaultDialTimeout         = 15 * time.Second
	defaultDialKeepAlive       = 30 * time.Second

	defaultUserAgent = "birdeye/1.0"

	// RequestIDHeader carries the trace id of the calling session.
	RequestIDHeader = "X-Request-Id"

	// maxErrorBody bounds how much of a failed response body is kept for error messages
	maxErrorBody = 1024
)

// Client wraps http.Client with deadline enforcement and header injection.
// Safe for concurrent use.
type Client struct {
	client         *http.Client
	defaultTimeout time.Duration
	userAgent      string
	bearerToken    string
	extraHeaders   http.Header
}

// Config holds configuration for creating an HTTP client.
type Config struct {
	// DefaultTimeout is the timeout applied if request context has no deadline
	DefaultTimeout time.Duration

	// UserAgent is added to all requests
	UserAgent string

	// BearerToken, when set, is sent as "Authorization: Bearer <token>"
	BearerToken string

	// Headers are added to every request that does not already carry them
	Headers map[string]string

	// Transport overrides the tuned default transport (tests, proxies)
	Transport http.RoundTripper
}

func defaultConfig() Config {
	return Config{
		DefaultTimeout: DefaultTimeout,
		UserAgent:      defaultUserAgent,
	}
}

// New creates a new HTTP client. A nil cfg uses the default timeout and
// user agent; the caller's config is never mutated.
func New(cfg *Config) *Client {
	c := defaultConfig()
	if cfg != nil {
		c = *cfg
		if c.DefaultTimeout <= 0 {
			c.DefaultTimeout = DefaultTimeout
		}
		if c.UserAgent == "" {
			c.UserAgent = defaultUserAgent
		}
	}

	transport := c.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   defaultDialTimeout,
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        defaultMaxIdleConns,
			MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
			IdleConnTimeout:     defaultIdleConnTimeout,
			TLSHandshakeTimeout: defaultTLSHandshakeTimeout,
		}
	}

	headers := make(http.Header, len(c.Headers))
	for k, v := range c.Headers {
		headers.Set(k, v)
	}

	return &Client{
		client:         &http.Client{Transport: transport},
		defaultTimeout: c.DefaultTimeout,
		userAgent:      c.UserAgent,
		bearerToken:    c.BearerToken,
		extraHeaders:   headers,
	}
}

// Timeout returns the per-request default deadline.
func (c *Client) Timeout() time.Duration {
	return c.defaultTimeout
}

// Do executes an HTTP request. If ctx has no deadline, the default timeout
// is applied. The response body must be closed by the caller if err is nil.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.NewStd("nil request")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.defaultTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.defaultTimeout)
	}
	req = req.WithContext(ctx)

	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get("Authorization") == "" && c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	for k, v := range c.extraHeaders {
		if req.Header.Get(k) == "" && len(v) > 0 {
			req.Header.Set(k, v[0])
		}
	}

	// upstream logs can be matched to the session
	if id := logger.TraceIDFromContext(ctx); id != "" && req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}
	if cancel != nil {
		// The deadline must outlive Do so the caller can read the body.
		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	}
	return resp, nil
}

// cancelOnClose releases the request context once the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// Get performs a GET request with context.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, url, "", nil)
}

// Post performs a POST request with context. Body handling:
// nil → http.NoBody, io.Reader → as is, []byte/string → wrapped, anything
// else is marshalled to JSON.
func (c *Client) Post(ctx context.Context, url, contentType string, body any) (*http.Response, error) {
	return c.Request(ctx, http.MethodPost, url, contentType, body)
}

// Delete performs a DELETE request with context.
func (c *Client) Delete(ctx context.Context, url string) (*http.Response, error) {
	return c.Request(ctx, http.MethodDelete, url, "", nil)
}

// Request builds and executes a request for an arbitrary method.
func (c *Client) Request(ctx context.Context, method, url, contentType string, body any) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var bodyReader io.Reader = http.NoBody
	var shouldSetJSON bool

	if body != nil {
		switch v := body.(type) {
		case io.Reader:
			bodyReader = v
		case []byte:
			bodyReader = bytes.NewReader(v)
		case string:
			bodyReader = strings.NewReader(v)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal body: %w", err)
			}
			bodyReader = bytes.NewReader(data)
			shouldSetJSON = true
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	} else if shouldSetJSON {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.Do(ctx, req)
}

// StatusError describes a non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// CheckResponse turns a non-2xx response into an enhanced error carrying a
// *StatusError. The body is drained and closed in that case. 404 maps to
// the not-found category, everything else to http-request.
func CheckResponse(resp *http.Response, component string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(snippet)),
	}
	if resp.Request != nil {
		statusErr.Method = resp.Request.Method
		statusErr.URL = resp.Request.URL.Redacted()
	}

	category := errors.CategoryHTTP
	if resp.StatusCode == http.StatusNotFound {
		category = errors.CategoryNotFound
	}
	return errors.New(statusErr).
		Component(component).
		Category(category).
		Context("status_code", resp.StatusCode).
		Build()
}

// Close closes idle connections in the connection pool.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
