// Package api is the small JSON-over-HTTP client shared by the data source
// and the providers without an SDK.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"sector-insights/internal/logger"
	"sector-insights/internal/trace"
)

// MaxBodyBytes caps how much of a response body is read
const MaxBodyBytes = 8 << 20

// Client sends requests relative to a base URL with a fixed set of headers
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    http.Header
	limiter    *rate.Limiter
	verbose    bool
}

// ClientOption configures the API client
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithBaseURL sets the URL every request path is appended to
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithLogging logs every request and response at debug level
func WithLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.verbose = enabled
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLimiter makes every attempt wait for a token first
func WithLimiter(l *rate.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one call. Path is relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Body   any
	Query  url.Values
	ctx    context.Context
}

// Response is a fully read response with a status below 400
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Query:  make(url.Values),
		ctx:    context.Background(),
	}
}

func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// WithBody sets a value sent as JSON
func (r *Request) WithBody(body any) *Request {
	r.Body = body
	return r
}

func (r *Request) WithQuery(key, value string) *Request {
	r.Query.Add(key, value)
	return r
}

// URL returns the absolute URL the request goes to
func (c *Client) URL(req *Request) string {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

// Do sends req once. A status of 400 or above yields *HTTPError, and a
// response larger than MaxBodyBytes is an error.
func (c *Client) Do(req *Request) (*Response, error) {
	ctx := req.ctx
	fullURL := c.URL(req)

	ctx, span := trace.StartSpan(ctx, "http."+req.Method)
	defer span.End()
	span.SetAttributes(attribute.String("http.url", c.baseURL+req.Path))

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, Permanent(fmt.Errorf("rate limiter: %w", err))
		}
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, Permanent(fmt.Errorf("failed to marshal request body: %w", err))
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
	}
	httpReq.Header = c.headers.Clone()
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > MaxBodyBytes {
		return nil, Permanent(errors.New("response body exceeds size limit"))
	}

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))
	if c.verbose {
		logger.Debug(ctx, "HTTP exchange",
			"method", req.Method,
			"path", req.Path,
			"status", httpResp.StatusCode,
			"duration", time.Since(start),
			"bytes", len(data))
	}

	if httpResp.StatusCode >= 400 {
		return nil, &HTTPError{
			Method:     req.Method,
			URL:        c.baseURL + req.Path,
			StatusCode: httpResp.StatusCode,
			Body:       string(data),
		}
	}
	return &Response{StatusCode: httpResp.StatusCode, Body: data, Headers: httpResp.Header}, nil
}

// Post sends body as JSON to path
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(NewRequest(http.MethodPost, path).WithContext(ctx).WithBody(body))
}

// ParseJSON decodes the body into v
func (r *Response) ParseJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// DoWithRetry sends req until it succeeds or config gives up. Every attempt
// waits on the limiter, so retries are throttled like first tries.
func (c *Client) DoWithRetry(req *Request, config *RetryConfig) (*Response, error) {
	var resp *Response
	err := Retry(req.ctx, config, func(int) error {
		r, err := c.Do(req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
