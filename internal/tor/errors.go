package tor

import "errors"

// Proxy errors.
var (
	// ErrProxyNotSOCKS5 is returned when the proxy address answers but does
	// not speak SOCKS5 without authentication.
	ErrProxyNotSOCKS5 = errors.New("proxy is not a SOCKS5 proxy accepting unauthenticated clients")

	// ErrProxyCannotConnect is returned when no TCP connection to the proxy
	// could be made.
	ErrProxyCannotConnect = errors.New("cannot connect to proxy")

	// ErrProxyTimeout is returned when the proxy did not answer in time.
	ErrProxyTimeout = errors.New("timeout connecting to proxy")

	// ErrTargetUnreachable is returned when the proxy works but refused or
	// failed to connect to the lookup host.
	ErrTargetUnreachable = errors.New("proxy cannot reach the lookup host")

	// ErrNotRunning is returned when the embedded Tor daemon is used before Start.
	ErrNotRunning = errors.New("embedded Tor daemon is not running")
)

// ProxyStatus is the result of CheckProxy.
type ProxyStatus int

const (
	// ProxyStatusOK indicates the proxy connected to the lookup host.
	ProxyStatusOK ProxyStatus = iota

	// ProxyStatusWrongType indicates something answered that is not an
	// unauthenticated SOCKS5 proxy.
	ProxyStatusWrongType

	// ProxyStatusCannotConnect indicates the proxy port is closed.
	ProxyStatusCannotConnect

	// ProxyStatusTimeout indicates the proxy did not answer in time.
	ProxyStatusTimeout

	// ProxyStatusTargetUnreachable indicates the proxy answered the CONNECT
	// request with a failure code.
	ProxyStatusTargetUnreachable
)

// String returns a human-readable description of the proxy status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusWrongType:
		return "wrong type (not SOCKS5)"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	case ProxyStatusTargetUnreachable:
		return "lookup host unreachable"
	default:
		return "unknown"
	}
}

// Error returns the appropriate error for this status, or nil if OK.
func (s ProxyStatus) Error() error {
	switch s {
	case ProxyStatusOK:
		return nil
	case ProxyStatusWrongType:
		return ErrProxyNotSOCKS5
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	case ProxyStatusTargetUnreachable:
		return ErrTargetUnreachable
	default:
		return errors.New("unknown proxy status")
	}
}
