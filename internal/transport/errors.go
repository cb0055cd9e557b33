package transport

import "errors"

var (
	// ErrInvalidProxyAddress is returned when the proxy address is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrUnexpectedStatus is logged when the server answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrBodyTooLarge is logged when a response body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")
)
