// Package tesseract provides an ocr.Recognizer backed by Tesseract through
// gosseract. It requires libtesseract and the "eng" trained data at runtime.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/nao1215/phatnguoi/internal/ocr"
)

// captchaWhitelist restricts recognition to the characters CAPTCHAs use.
const captchaWhitelist = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Engine recognizes CAPTCHA text with Tesseract.
type Engine struct {
	clientFactory func() *gosseract.Client
	languages     []string
	whitelist     string
	pageSegMode   gosseract.PageSegMode
}

var _ ocr.Recognizer = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages sets the Tesseract languages. Default is "eng".
func WithLanguages(langs ...string) Option {
	return func(e *Engine) {
		if len(langs) > 0 {
			e.languages = langs
		}
	}
}

// WithWhitelist sets the characters Tesseract may output. Empty disables it.
func WithWhitelist(chars string) Option {
	return func(e *Engine) {
		e.whitelist = chars
	}
}

// New returns an Engine tuned for single-line alphanumeric CAPTCHAs.
func New(opts ...Option) *Engine {
	e := &Engine{
		clientFactory: gosseract.NewClient,
		languages:     []string{"eng"},
		whitelist:     captchaWhitelist,
		pageSegMode:   gosseract.PSM_SINGLE_LINE,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name.
func (e *Engine) Name() string { return "tesseract" }

// Recognize implements ocr.Recognizer. Each call uses its own client, so an
// Engine is safe for concurrent use.
func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ocr.ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(e.pageSegMode); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if e.whitelist != "" {
		if err := c.SetWhitelist(e.whitelist); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
