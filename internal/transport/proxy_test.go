package transport

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

// TestIsValidProxyAddress tests proxy address validation.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    bool
	}{
		{"127.0.0.1:9050", true},
		{"localhost:9150", true},
		{"[::1]:9050", true},
		{"127.0.0.1", false},
		{":9050", false},
		{"127.0.0.1:", false},
		{"127.0.0.1:0", false},
		{"127.0.0.1:65536", false},
		{"127.0.0.1:abc", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()

			if got := IsValidProxyAddress(tt.address); got != tt.want {
				t.Errorf("IsValidProxyAddress(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

// TestNewHTTPClient tests client construction with and without a proxy.
func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("direct", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(5*time.Second, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Timeout != 5*time.Second {
			t.Errorf("unexpected timeout %v", client.Timeout)
		}
		tr, ok := client.Transport.(*http.Transport)
		if !ok {
			t.Fatalf("unexpected transport %T", client.Transport)
		}
		if tr.DialContext != nil {
			t.Error("expected default dialer without proxy")
		}
	})

	t.Run("socks5", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(time.Second, "127.0.0.1:9050")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tr, ok := client.Transport.(*http.Transport)
		if !ok {
			t.Fatalf("unexpected transport %T", client.Transport)
		}
		if tr.DialContext == nil {
			t.Error("expected SOCKS5 dialer")
		}
		if tr.Proxy != nil {
			t.Error("expected environment proxy to be disabled")
		}
	})

	t.Run("invalid proxy", func(t *testing.T) {
		t.Parallel()

		_, err := NewHTTPClient(time.Second, "not-an-address")
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}
