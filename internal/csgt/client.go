package csgt

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/nao1215/phatnguoi/internal/model"
	"github.com/nao1215/phatnguoi/internal/ocr"
	"github.com/nao1215/phatnguoi/internal/retry"
	"github.com/nao1215/phatnguoi/internal/transport"
)

// Service endpoints and fixed request values.
const (
	DefaultCaptchaURL   = "https://kiemtraphatnguoi.vn/lib/captcha/captcha.class.php"
	DefaultQueryURL     = "https://www.csgt.vn/?mod=contact&task=tracuu_post&ajax"
	DefaultResultPrefix = "https://www.csgt.vn"

	// DefaultClientIP is the placeholder the query form expects in ipClient.
	DefaultClientIP = "9.9.9.91"

	// SessionCookie is the cookie that binds a CAPTCHA to the query.
	SessionCookie = "PHPSESSID"

	// resultURLField is the JSON field of the query reply holding the result URL.
	resultURLField = "href"
)

// Endpoints are the service URLs. They can be overridden for mirrors and tests.
type Endpoints struct {
	CaptchaURL   string `yaml:"captcha_url"`
	QueryURL     string `yaml:"query_url"`
	ResultPrefix string `yaml:"result_prefix"`
}

// DefaultEndpoints returns the production endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		CaptchaURL:   DefaultCaptchaURL,
		QueryURL:     DefaultQueryURL,
		ResultPrefix: DefaultResultPrefix,
	}
}

// withDefaults fills empty fields from DefaultEndpoints.
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	if e.CaptchaURL == "" {
		e.CaptchaURL = d.CaptchaURL
	}
	if e.QueryURL == "" {
		e.QueryURL = d.QueryURL
	}
	if e.ResultPrefix == "" {
		e.ResultPrefix = d.ResultPrefix
	}
	return e
}

// Client runs the lookup stages against the service.
// It holds no per-lookup state and is safe for concurrent use.
type Client struct {
	fetcher    transport.Fetcher
	recognizer ocr.Recognizer
	endpoints  Endpoints

	clientIP      string
	captchaWidth  int
	captchaHeight int

	maxAttempts int
	retryDelay  time.Duration

	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoints overrides the service URLs. Empty fields keep their defaults.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) {
		c.endpoints = e.withDefaults()
	}
}

// WithClientIP sets the ipClient form value.
func WithClientIP(ip string) Option {
	return func(c *Client) {
		if ip != "" {
			c.clientIP = ip
		}
	}
}

// WithCaptchaSize sets the canvas CAPTCHAs are resized to before OCR.
func WithCaptchaSize(width, height int) Option {
	return func(c *Client) {
		if width > 0 && height > 0 {
			c.captchaWidth = width
			c.captchaHeight = height
		}
	}
}

// WithMaxAttempts sets the attempt budget of every stage.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the pause between attempts of a stage.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a Client using fetcher for HTTP and recognizer for OCR.
func New(fetcher transport.Fetcher, recognizer ocr.Recognizer, opts ...Option) *Client {
	c := &Client{
		fetcher:       fetcher,
		recognizer:    recognizer,
		endpoints:     DefaultEndpoints(),
		clientIP:      DefaultClientIP,
		captchaWidth:  ocr.DefaultWidth,
		captchaHeight: ocr.DefaultHeight,
		maxAttempts:   retry.DefaultMaxAttempts,
		retryDelay:    retry.DefaultDelay,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoints returns the endpoints in use.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

func (c *Client) retryOptions(name string) []retry.Option {
	return []retry.Option{
		retry.WithName(name),
		retry.WithMaxAttempts(c.maxAttempts),
		retry.WithDelay(c.retryDelay),
		retry.WithLogger(c.logger),
	}
}

// ResolveCaptcha fetches one CAPTCHA and reads it. The returned attempt may
// still be unusable; see model.CaptchaAttempt.Usable.
func (c *Client) ResolveCaptcha(ctx context.Context) (model.CaptchaAttempt, error) {
	resp := c.fetcher.Fetch(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    c.endpoints.CaptchaURL,
	})
	if resp == nil {
		return model.CaptchaAttempt{}, fmt.Errorf("fetch captcha: %w", ErrNoResponse)
	}
	if len(resp.Body) == 0 {
		return model.CaptchaAttempt{}, ErrEmptyCaptcha
	}

	sessionID := transport.CookieValue(resp.Header, SessionCookie)

	img, err := ocr.Resize(resp.Body, c.captchaWidth, c.captchaHeight)
	if err != nil {
		return model.CaptchaAttempt{}, fmt.Errorf("prepare captcha: %w", err)
	}

	text, err := c.recognizer.Recognize(ctx, img)
	if err != nil {
		return model.CaptchaAttempt{}, fmt.Errorf("recognize captcha: %w", err)
	}

	attempt := model.CaptchaAttempt{
		SessionID: sessionID,
		Text:      model.CleanCaptcha(text),
	}
	c.logger.Debug("captcha read", "phpsessid", attempt.SessionID, "text", attempt.Text)
	return attempt, nil
}

// ResolveCaptchaWithRetry runs ResolveCaptcha until it yields a usable attempt.
// Every attempt fetches a new image and session.
func (c *Client) ResolveCaptchaWithRetry(ctx context.Context) retry.Outcome[model.CaptchaAttempt] {
	return retry.Do(ctx, c.ResolveCaptcha, validateCaptcha, c.retryOptions("captcha")...)
}

func validateCaptcha(a model.CaptchaAttempt) error {
	if a.SessionID == "" {
		return ErrNoSession
	}
	if !model.IsValidCaptcha(a.Text) {
		return fmt.Errorf("%w: got %q", ErrInvalidCaptcha, a.Text)
	}
	return nil
}

// SubmitQuery solves a fresh CAPTCHA and posts the lookup form. The
// returned outcome carries the session the CAPTCHA was solved in.
func (c *Client) SubmitQuery(ctx context.Context, plate string, vehicleType model.VehicleType) (model.QueryOutcome, error) {
	captcha := c.ResolveCaptchaWithRetry(ctx)
	attempt, ok := captcha.Value()
	if !ok {
		return model.QueryOutcome{}, fmt.Errorf("%w: %w", ErrCaptchaUnsolved, captcha.Err())
	}

	form := url.Values{}
	form.Set("BienKS", plate)
	form.Set("Xe", string(vehicleType))
	form.Set("captcha", attempt.Text)
	form.Set("ipClient", c.clientIP)
	form.Set("cUrl", "1")

	resp := c.fetcher.Fetch(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    c.endpoints.QueryURL,
		Header: http.Header{
			"Cookie":       {attempt.SessionID},
			"Content-Type": {"application/x-www-form-urlencoded"},
		},
		Form: form,
	})
	if resp == nil {
		return model.QueryOutcome{}, fmt.Errorf("submit query: %w", ErrNoResponse)
	}

	outcome := model.QueryOutcome{
		ResultURL: gjson.GetBytes(resp.Body, resultURLField).String(),
		SessionID: attempt.SessionID,
	}
	c.logger.Debug("query submitted", "plate", plate, "result_url", outcome.ResultURL, "cookie", outcome.SessionID)
	return outcome, nil
}

// SubmitQueryWithRetry runs SubmitQuery until it yields a result URL on the
// result host together with a session.
func (c *Client) SubmitQueryWithRetry(ctx context.Context, plate string, vehicleType model.VehicleType) retry.Outcome[model.QueryOutcome] {
	prefix := c.endpoints.ResultPrefix
	return retry.Do(ctx,
		func(ctx context.Context) (model.QueryOutcome, error) {
			return c.SubmitQuery(ctx, plate, vehicleType)
		},
		func(q model.QueryOutcome) error {
			if q.SessionID == "" {
				return ErrNoSession
			}
			if !q.Usable(prefix) {
				return ErrInvalidResultURL
			}
			return nil
		},
		c.retryOptions("query")...,
	)
}

// ParseResult fetches the result page with the session cookie and parses it.
// A failed fetch is a retryable outcome, not an error.
func (c *Client) ParseResult(ctx context.Context, resultURL, sessionID string) (model.ParseOutcome, error) {
	if resultURL == "" {
		return model.ParseOutcome{}, ErrEmptyResultURL
	}

	req := &transport.Request{
		Method: http.MethodGet,
		URL:    resultURL,
	}
	if sessionID != "" {
		req.Header = http.Header{"Cookie": {sessionID}}
	}

	resp := c.fetcher.Fetch(ctx, req)
	if resp == nil {
		return model.ParseOutcome{Retryable: true, Records: []model.ViolationRecord{}}, nil
	}
	return ParseResultPage(resp.Body), nil
}

// ParseResultWithRetry runs ParseResult until the outcome is final.
func (c *Client) ParseResultWithRetry(ctx context.Context, resultURL, sessionID string) retry.Outcome[model.ParseOutcome] {
	return retry.Do(ctx,
		func(ctx context.Context) (model.ParseOutcome, error) {
			return c.ParseResult(ctx, resultURL, sessionID)
		},
		func(p model.ParseOutcome) error {
			if p.Retryable {
				return ErrResultNotReady
			}
			return nil
		},
		c.retryOptions("result")...,
	)
}
