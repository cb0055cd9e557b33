package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrNoTarget is returned when no plate was given on the command line
	// and the configuration file lists no vehicles.
	ErrNoTarget = errors.New("no target specified: provide a plate or list vehicles in the config file")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidOCRTimeout is returned when the OCR timeout is negative.
	// Zero disables the OCR deadline.
	ErrInvalidOCRTimeout = errors.New("invalid OCR timeout: must be non-negative")

	// ErrInvalidMaxAttempts is returned when fewer than one attempt per stage is configured.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be at least 1")

	// ErrInvalidRetryDelay is returned when the delay between attempts is negative.
	ErrInvalidRetryDelay = errors.New("invalid retry delay: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidCaptchaSize is returned when the CAPTCHA resize target is not positive.
	ErrInvalidCaptchaSize = errors.New("invalid captcha size: width and height must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingProxy is returned when both --proxy and --tor are specified.
	ErrConflictingProxy = errors.New("conflicting proxy settings: --proxy and --tor cannot be used together")

	// ErrInvalidProxyAddress is returned when the proxy is not a host:port pair.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")

	// ErrInvalidTorStartupTimeout is returned when --tor is set with a non-positive startup timeout.
	ErrInvalidTorStartupTimeout = errors.New("invalid tor startup timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Zero selects the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidLogFormat is returned when the log format is neither text nor json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
