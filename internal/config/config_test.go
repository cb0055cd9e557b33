package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/phatnguoi/internal/csgt"
	"github.com/nao1215/phatnguoi/internal/model"
)

// TestNewConfig pins the defaults so that changing one is a deliberate act.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Timeout", cfg.Timeout, 10 * time.Second},
		{"OCRTimeout", cfg.OCRTimeout, 30 * time.Second},
		{"MaxAttempts", cfg.MaxAttempts, 5},
		{"RetryDelay", cfg.RetryDelay, time.Second},
		{"BatchSize", cfg.BatchSize, 4},
		{"CaptchaWidth", cfg.CaptchaWidth, 300},
		{"CaptchaHeight", cfg.CaptchaHeight, 66},
		{"ClientIP", cfg.ClientIP, "9.9.9.91"},
		{"MaxBodySize", cfg.MaxBodySize, int64(5 * 1024 * 1024)},
		{"TorStartupTimeout", cfg.TorStartupTimeout, 3 * time.Minute},
		{"UseTor", cfg.UseTor, false},
		{"SaveToDB", cfg.SaveToDB, true},
		{"LogFormat", cfg.LogFormat, LogFormatText},
		{"Endpoints", cfg.Endpoints, csgt.DefaultEndpoints()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("default %s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	t.Run("UserAgent looks like a browser", func(t *testing.T) {
		t.Parallel()
		if !strings.HasPrefix(cfg.UserAgent, "Mozilla/5.0") {
			t.Errorf("unexpected UserAgent %q", cfg.UserAgent)
		}
	})

	t.Run("DBDir is the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("DBDir = %q, want %q", cfg.DBDir, XDGDataDir())
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []model.Target{{Plate: "30A12345"}}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid config", func(*Config) {}, nil},
		{"multiple targets", func(c *Config) { c.Targets = append(c.Targets, model.Target{Plate: "29B112345"}) }, nil},
		{"no targets", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"zero OCR timeout disables it", func(c *Config) { c.OCRTimeout = 0 }, nil},
		{"negative OCR timeout", func(c *Config) { c.OCRTimeout = -time.Second }, ErrInvalidOCRTimeout},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"single attempt", func(c *Config) { c.MaxAttempts = 1 }, nil},
		{"zero delay", func(c *Config) { c.RetryDelay = 0 }, nil},
		{"negative delay", func(c *Config) { c.RetryDelay = -time.Millisecond }, ErrInvalidRetryDelay},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"zero captcha width", func(c *Config) { c.CaptchaWidth = 0 }, ErrInvalidCaptchaSize},
		{"negative captcha height", func(c *Config) { c.CaptchaHeight = -1 }, ErrInvalidCaptchaSize},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"json only", func(c *Config) { c.JSONReport = true }, nil},
		{"proxy and tor", func(c *Config) { c.ProxyAddress, c.UseTor = "127.0.0.1:9050", true }, ErrConflictingProxy},
		{"valid proxy", func(c *Config) { c.ProxyAddress = "127.0.0.1:1080" }, nil},
		{"proxy without port", func(c *Config) { c.ProxyAddress = "127.0.0.1" }, ErrInvalidProxyAddress},
		{"tor with zero startup timeout", func(c *Config) { c.UseTor, c.TorStartupTimeout = true, 0 }, ErrInvalidTorStartupTimeout},
		{"zero startup timeout without tor", func(c *Config) { c.TorStartupTimeout = 0 }, nil},
		{"negative max body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateSettingsIgnoresTargets(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if err := cfg.ValidateSettings(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{"data": XDGDataDir(), "config": XDGConfigDir()} {
		if dir == "" {
			t.Errorf("expected non-empty XDG %s dir", name)
		}
		if !strings.HasSuffix(dir, AppName) {
			t.Errorf("XDG %s dir %q should end with %q", name, dir, AppName)
		}
	}
}
