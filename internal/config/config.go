package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/phatnguoi/internal/csgt"
	"github.com/nao1215/phatnguoi/internal/model"
	"github.com/nao1215/phatnguoi/internal/ocr"
	"github.com/nao1215/phatnguoi/internal/transport"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "phatnguoi"

	// DefaultTimeout bounds every single HTTP request.
	DefaultTimeout = transport.DefaultTimeout

	// DefaultOCRTimeout bounds one CAPTCHA recognition. Tesseract is slow
	// on the first call while it loads its language data.
	DefaultOCRTimeout = 30 * time.Second

	// DefaultMaxAttempts is the number of tries per lookup stage.
	DefaultMaxAttempts = 5

	// DefaultRetryDelay is the pause between two tries of a stage.
	DefaultRetryDelay = 1 * time.Second

	// DefaultBatchSize is the number of plates looked up concurrently.
	// The service rate-limits aggressively, so this stays small.
	DefaultBatchSize = 4

	// DefaultCaptchaWidth and DefaultCaptchaHeight are the size the CAPTCHA
	// is scaled to before recognition.
	DefaultCaptchaWidth  = ocr.DefaultWidth
	DefaultCaptchaHeight = ocr.DefaultHeight

	// DefaultClientIP is the value sent in the ipClient form field.
	DefaultClientIP = csgt.DefaultClientIP

	// DefaultUserAgent is a desktop browser; the service rejects obvious bots.
	DefaultUserAgent = transport.DefaultUserAgent

	// DefaultMaxBodySize limits the response body size read per request.
	DefaultMaxBodySize = transport.DefaultMaxBodySize

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds all configuration options for phatnguoi.
// It is populated from the config file and CLI flags and passed down
// explicitly rather than kept in global state.
type Config struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// OCRTimeout bounds one CAPTCHA recognition. Zero disables the bound.
	OCRTimeout time.Duration

	// MaxAttempts is the number of tries per lookup stage.
	MaxAttempts int

	// RetryDelay is the pause between tries.
	RetryDelay time.Duration

	// BatchSize is the number of concurrent lookups.
	BatchSize int

	// CaptchaWidth and CaptchaHeight are the CAPTCHA resize target.
	CaptchaWidth  int
	CaptchaHeight int

	// ClientIP is sent as ipClient with the query.
	ClientIP string

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes. Zero uses the default.
	MaxBodySize int64

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes requests through it.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for Tor to bootstrap.
	TorStartupTimeout time.Duration

	// Endpoints are the service URLs. Empty fields use the production values.
	Endpoints csgt.Endpoints

	// DBDir is the directory of the history database.
	DBDir string

	// SaveToDB stores every lookup in the history database.
	SaveToDB bool

	// JSONReport writes the response envelope instead of the text report.
	JSONReport bool

	// MarkdownReport writes a Markdown report instead of the text report.
	MarkdownReport bool

	// ReportFile writes the report to this path instead of stdout.
	ReportFile string

	// LogFile additionally writes logs to a rotating file.
	LogFile string

	// LogFormat is LogFormatText or LogFormatJSON.
	LogFormat string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the configuration file to load. When empty,
	// .phatnguoi is searched in the current and then the home directory.
	ConfigFilePath string

	// Targets are the vehicles to look up.
	Targets []model.Target
}

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		OCRTimeout:        DefaultOCRTimeout,
		MaxAttempts:       DefaultMaxAttempts,
		RetryDelay:        DefaultRetryDelay,
		BatchSize:         DefaultBatchSize,
		CaptchaWidth:      DefaultCaptchaWidth,
		CaptchaHeight:     DefaultCaptchaHeight,
		ClientIP:          DefaultClientIP,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		TorStartupTimeout: DefaultTorStartupTimeout,
		Endpoints:         csgt.DefaultEndpoints(),
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
		LogFormat:         LogFormatText,
	}
}

// XDGDataDir returns the XDG data directory for phatnguoi.
// On Linux: ~/.local/share/phatnguoi
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for phatnguoi.
// On Linux: ~/.config/phatnguoi
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.ValidateSettings()
}

// ValidateSettings checks everything except the target list. Commands that
// do not perform lookups use it directly.
func (c *Config) ValidateSettings() error {
	switch {
	case c.Timeout <= 0:
		return ErrInvalidTimeout
	case c.OCRTimeout < 0:
		return ErrInvalidOCRTimeout
	case c.MaxAttempts < 1:
		return ErrInvalidMaxAttempts
	case c.RetryDelay < 0:
		return ErrInvalidRetryDelay
	case c.BatchSize <= 0:
		return ErrInvalidBatchSize
	case c.CaptchaWidth <= 0 || c.CaptchaHeight <= 0:
		return ErrInvalidCaptchaSize
	case c.JSONReport && c.MarkdownReport:
		return ErrConflictingReportFormats
	case c.UseTor && c.ProxyAddress != "":
		return ErrConflictingProxy
	case c.ProxyAddress != "" && !transport.IsValidProxyAddress(c.ProxyAddress):
		return ErrInvalidProxyAddress
	case c.UseTor && c.TorStartupTimeout <= 0:
		return ErrInvalidTorStartupTimeout
	case c.MaxBodySize < 0:
		return ErrInvalidMaxBodySize
	case c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON:
		return ErrInvalidLogFormat
	}
	return nil
}
