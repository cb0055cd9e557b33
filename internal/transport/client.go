package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Defaults applied by NewClient.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxBodySize = 5 * 1024 * 1024
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

	contentTypeForm = "application/x-www-form-urlencoded"
)

// Request describes one HTTP exchange.
type Request struct {
	// Method defaults to GET.
	Method string

	// URL is the absolute target URL.
	URL string

	// Header is sent as is. A Cookie entry carries the session.
	Header http.Header

	// Form, when set, is sent as an application/x-www-form-urlencoded body.
	Form url.Values

	// Timeout overrides the client's per-request timeout when positive.
	Timeout time.Duration
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Fetcher performs HTTP requests. Fetch returns nil on any failure.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) *Response
}

// Client is the Fetcher backed by net/http.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent sent when the request carries none.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMaxBodySize limits how many bytes of a response body are accepted.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithLogger sets the logger for failed requests.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient wraps httpClient. A nil httpClient uses a plain client without
// proxy; see NewHTTPClient.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{
		httpClient:  httpClient,
		userAgent:   DefaultUserAgent,
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs req. It returns nil when the request cannot be built or sent,
// when the status code is not 2xx, or when the body cannot be read in full.
func (c *Client) Fetch(ctx context.Context, req *Request) *Response {
	if req == nil {
		return nil
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		c.logger.Debug("request failed",
			"method", methodOf(req),
			"url", redactQuery(req.URL),
			"error", err,
		)
		return nil
	}
	return resp
}

func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, methodOf(req), req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if req.Form != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentTypeForm)
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize)) //nolint:errcheck
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > c.maxBodySize {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, c.maxBodySize)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}

// CookieValue returns the first Set-Cookie entry named name as a "name=value"
// pair, ready to be sent back in a Cookie header. It returns "" when absent.
func CookieValue(header http.Header, name string) string {
	if header == nil {
		return ""
	}
	resp := http.Response{Header: header}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name && cookie.Value != "" {
			return cookie.Name + "=" + cookie.Value
		}
	}
	return ""
}

func methodOf(req *Request) string {
	if req.Method == "" {
		return http.MethodGet
	}
	return req.Method
}

// redactQuery drops the query string, which may carry lookup tokens.
func redactQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}
