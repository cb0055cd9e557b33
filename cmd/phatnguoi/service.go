package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nao1215/phatnguoi/internal/config"
	"github.com/nao1215/phatnguoi/internal/csgt"
	"github.com/nao1215/phatnguoi/internal/log"
	"github.com/nao1215/phatnguoi/internal/ocr"
	"github.com/nao1215/phatnguoi/internal/pipeline"
	"github.com/nao1215/phatnguoi/internal/tor"
	"github.com/nao1215/phatnguoi/internal/transport"
)

// setupLogger returns the redacting logger for a run in the configured
// format. With a log file, logs go to both stderr and the rotated file.
func setupLogger(stderr io.Writer, cfg *config.Config) (*slog.Logger, func(), error) {
	newLogger := log.NewSecureLogger
	if cfg.LogFormat == config.LogFormatJSON {
		newLogger = log.NewSecureJSONLogger
	}

	if cfg.LogFile == "" {
		return newLogger(stderr, cfg.Verbose), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o750); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file := log.NewRotatingFile(cfg.LogFile)
	logger := newLogger(io.MultiWriter(stderr, file), cfg.Verbose)
	return logger, func() { _ = file.Close() }, nil
}

// newHTTPClient builds the HTTP client for the configured route: embedded
// Tor, an external SOCKS5 proxy, or a direct connection. The returned
// cleanup function must always be called.
func newHTTPClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) (*http.Client, func(), error) {
	noop := func() {}

	switch {
	case cfg.UseTor:
		fmt.Fprintln(stderr, "Starting embedded Tor daemon, this may take a while...")
		daemon := tor.NewEmbeddedTor(
			tor.WithStartupTimeout(cfg.TorStartupTimeout),
			tor.WithLogger(logger),
		)
		if err := daemon.Start(ctx); err != nil {
			return nil, noop, fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		stop := func() {
			if err := daemon.Stop(); err != nil {
				logger.Warn("failed to stop embedded Tor", "error", err)
			}
		}
		if err := preflightProxy(ctx, cfg, daemon.SocksAddr(), logger); err != nil {
			stop()
			return nil, noop, err
		}
		client, err := daemon.HTTPClient(cfg.Timeout)
		if err != nil {
			stop()
			return nil, noop, err
		}
		return client, stop, nil

	case cfg.ProxyAddress != "":
		if err := preflightProxy(ctx, cfg, cfg.ProxyAddress, logger); err != nil {
			return nil, noop, err
		}
		client, err := transport.NewHTTPClient(cfg.Timeout, cfg.ProxyAddress)
		if err != nil {
			return nil, noop, err
		}
		return client, noop, nil

	default:
		client, err := transport.NewHTTPClient(cfg.Timeout, "")
		if err != nil {
			return nil, noop, err
		}
		return client, noop, nil
	}
}

// preflightProxy makes sure the proxy is a SOCKS5 proxy that can reach the
// lookup service before any plate is submitted.
func preflightProxy(ctx context.Context, cfg *config.Config, proxyAddress string, logger *slog.Logger) error {
	endpoints := cfg.Endpoints
	if endpoints.QueryURL == "" {
		endpoints.QueryURL = csgt.DefaultQueryURL
	}
	target, err := tor.TargetFromURL(endpoints.QueryURL)
	if err != nil {
		return err
	}

	logger.Info("checking proxy", "proxy", proxyAddress, "target", target)
	status := tor.CheckProxy(ctx, proxyAddress, target)
	if err := status.Error(); err != nil {
		return fmt.Errorf("proxy %s: %w", proxyAddress, err)
	}
	return nil
}

// newChecker wires the transport, lookup client and pipeline together.
func newChecker(httpClient *http.Client, recognizer ocr.Recognizer, cfg *config.Config, logger *slog.Logger) *pipeline.Checker {
	fetcher := transport.NewClient(httpClient,
		transport.WithUserAgent(cfg.UserAgent),
		transport.WithTimeout(cfg.Timeout),
		transport.WithMaxBodySize(cfg.MaxBodySize),
		transport.WithLogger(logger),
	)

	service := csgt.New(fetcher, recognizer,
		csgt.WithEndpoints(cfg.Endpoints),
		csgt.WithClientIP(cfg.ClientIP),
		csgt.WithCaptchaSize(cfg.CaptchaWidth, cfg.CaptchaHeight),
		csgt.WithMaxAttempts(cfg.MaxAttempts),
		csgt.WithRetryDelay(cfg.RetryDelay),
		csgt.WithLogger(logger),
	)

	return pipeline.NewChecker(service, pipeline.WithCheckerLogger(logger))
}

// openReportOutput returns the report destination: the named file, created
// along with its directories, or stdout when path is empty.
func openReportOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
