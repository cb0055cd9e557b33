package tor

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/nao1215/phatnguoi/internal/transport"
)

// checkProxyTimeout bounds the whole handshake. Tor may need a few seconds
// to build a circuit for the CONNECT step.
const checkProxyTimeout = 15 * time.Second

// SOCKS5 protocol constants
const (
	socks5Version         = 0x05
	socks5AuthNone        = 0x00
	socks5CmdConnect      = 0x01
	socks5AddrTypeDomain  = 0x03
	socks5ReplySucceeded  = 0x00
	socks5ConnectRespSize = 4
)

// CheckProxy performs a SOCKS5 handshake with the proxy at proxyAddress and
// asks it to CONNECT to target ("host:port"). It sends no application data,
// so the service never sees a request.
func CheckProxy(ctx context.Context, proxyAddress, target string) ProxyStatus {
	if !transport.IsValidProxyAddress(proxyAddress) {
		return ProxyStatusCannotConnect
	}
	host, portStr, err := net.SplitHostPort(target)
	if err != nil || host == "" || len(host) > 255 {
		return ProxyStatusTargetUnreachable
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return ProxyStatusTargetUnreachable
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", proxyAddress)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return ProxyStatusCannotConnect
	}

	// Greeting: offer "no authentication" only.
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}
	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		return readFailure(err)
	}
	if authResp[0] != socks5Version || authResp[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}

	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrTypeDomain, byte(len(host))}
	req = append(req, host...)
	req = append(req, byte(port>>8), byte(port&0xFF))
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	connectResp := make([]byte, socks5ConnectRespSize)
	if _, err := io.ReadFull(conn, connectResp); err != nil {
		return readFailure(err)
	}
	if connectResp[0] != socks5Version {
		return ProxyStatusWrongType
	}
	if connectResp[1] != socks5ReplySucceeded {
		return ProxyStatusTargetUnreachable
	}
	return ProxyStatusOK
}

// TargetFromURL returns the "host:port" CheckProxy should CONNECT to for a
// service URL, defaulting the port from the scheme.
func TargetFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", errors.New("url has no host: " + rawURL)
	}
	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

func readFailure(err error) ProxyStatus {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return ProxyStatusTimeout
	}
	return ProxyStatusWrongType
}
