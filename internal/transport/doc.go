// Package transport is the HTTP capability used by the lookup stages.
//
// A Fetcher performs one GET or POST and returns nil on any failure:
// network errors, timeouts, oversized bodies and non-2xx status codes all
// collapse into the same signal. Callers treat nil as "attempt failed" and
// leave recovery to the retry orchestrator.
//
// NewHTTPClient builds the underlying *http.Client, optionally routing every
// connection through a SOCKS5 proxy such as a local Tor daemon.
package transport
