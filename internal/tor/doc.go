// Package tor routes lookups through Tor or another SOCKS5 proxy.
//
// The lookup service rate-limits by source address. EmbeddedTor starts a
// private Tor daemon through tornago so that lookups can leave through the
// Tor network without any local setup, and CheckProxy verifies before a run
// that a SOCKS5 proxy is answering and can reach the service host.
package tor
