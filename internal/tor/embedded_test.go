package tor

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestNewEmbeddedTor(t *testing.T) {
	t.Parallel()

	t.Run("creates with default timeout", func(t *testing.T) {
		t.Parallel()

		embedded := NewEmbeddedTor()
		if embedded.startupTimeout != DefaultStartupTimeout {
			t.Errorf("expected default timeout %v, got %v", DefaultStartupTimeout, embedded.startupTimeout)
		}
		if embedded.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies options", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.DiscardHandler)
		embedded := NewEmbeddedTor(WithStartupTimeout(5*time.Minute), WithLogger(logger))
		if embedded.startupTimeout != 5*time.Minute {
			t.Errorf("expected timeout 5m, got %v", embedded.startupTimeout)
		}
		if embedded.logger != logger {
			t.Error("logger option not applied")
		}
	})

	t.Run("ignores non-positive timeout and nil logger", func(t *testing.T) {
		t.Parallel()

		embedded := NewEmbeddedTor(WithStartupTimeout(0), WithLogger(nil))
		if embedded.startupTimeout != DefaultStartupTimeout {
			t.Errorf("expected default timeout, got %v", embedded.startupTimeout)
		}
		if embedded.logger == nil {
			t.Error("nil logger must be ignored")
		}
	})
}

func TestEmbeddedTorBeforeStart(t *testing.T) {
	t.Parallel()

	embedded := NewEmbeddedTor()

	if embedded.SocksAddr() != "" || embedded.ControlAddr() != "" {
		t.Error("expected empty addresses before start")
	}
	if embedded.IsRunning() {
		t.Error("expected IsRunning to be false before start")
	}
	if err := embedded.Stop(); err != nil {
		t.Errorf("expected no error stopping unstarted instance, got %v", err)
	}
	if _, err := embedded.HTTPClient(10 * time.Second); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning, got %v", err)
	}
}
