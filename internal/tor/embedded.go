package tor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/tornago"

	"github.com/nao1215/phatnguoi/internal/transport"
)

// DefaultStartupTimeout is the maximum time to wait for Tor to bootstrap.
const DefaultStartupTimeout = 3 * time.Minute

// EmbeddedTor manages a private Tor daemon using tornago.
//
// Starting takes up to a few minutes while Tor downloads directory
// information and builds its first circuits.
type EmbeddedTor struct {
	process *tornago.TorProcess

	// socksAddr and controlAddr are set after a successful Start.
	socksAddr   string
	controlAddr string

	startupTimeout time.Duration
	logger         *slog.Logger
}

// EmbeddedTorOption configures an EmbeddedTor instance.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		if timeout > 0 {
			e.startupTimeout = timeout
		}
	}
}

// WithLogger sets the logger for daemon lifecycle events.
func WithLogger(logger *slog.Logger) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEmbeddedTor creates a new embedded Tor manager.
// Call Start to actually launch the daemon.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{
		startupTimeout: DefaultStartupTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the daemon and blocks until it has bootstrapped or the
// startup timeout expires. If ctx is cancelled meanwhile, the daemon is
// stopped and ctx.Err() returned.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	// ":0" lets the OS pick free ports.
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	e.logger.Info("starting embedded Tor", "timeout", e.startupTimeout)
	started := time.Now()

	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	select {
	case <-ctx.Done():
		_ = process.Stop() //nolint:errcheck // Best effort cleanup
		return ctx.Err()
	default:
	}

	e.process = process
	e.socksAddr = process.SocksAddr()
	e.controlAddr = process.ControlAddr()

	e.logger.Info("embedded Tor ready", "socks", e.socksAddr, "elapsed", time.Since(started).Round(time.Second))
	return nil
}

// Stop shuts the daemon down. It is safe to call on an unstarted instance
// and more than once.
func (e *EmbeddedTor) Stop() error {
	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	e.socksAddr = ""
	e.controlAddr = ""
	return err
}

// SocksAddr returns the SOCKS5 address of the running daemon ("host:port"),
// or "" when it is not running.
func (e *EmbeddedTor) SocksAddr() string {
	return e.socksAddr
}

// ControlAddr returns the control port address of the running daemon.
func (e *EmbeddedTor) ControlAddr() string {
	return e.controlAddr
}

// IsRunning returns true if the daemon is currently running.
func (e *EmbeddedTor) IsRunning() bool {
	return e.process != nil
}

// HTTPClient returns an HTTP client that sends every request through the
// daemon.
func (e *EmbeddedTor) HTTPClient(timeout time.Duration) (*http.Client, error) {
	if !e.IsRunning() {
		return nil, ErrNotRunning
	}
	return transport.NewHTTPClient(timeout, e.socksAddr)
}
