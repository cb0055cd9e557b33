package config

import (
	"fmt"
	"time"

	"github.com/nao1215/phatnguoi/internal/csgt"
	"github.com/nao1215/phatnguoi/internal/model"
)

// File represents the structure of the .phatnguoi configuration file.
type File struct {
	// Settings override the built-in defaults. CLI flags override them in turn.
	Settings Settings `yaml:"settings,omitempty"`

	// Vehicles are checked when no plate is given on the command line.
	Vehicles []Vehicle `yaml:"vehicles,omitempty"`
}

// Settings are the tunables of the configuration file. Zero values mean
// "keep the default".
type Settings struct {
	Timeout     time.Duration  `yaml:"timeout,omitempty"`
	OCRTimeout  time.Duration  `yaml:"ocr_timeout,omitempty"`
	MaxAttempts int            `yaml:"max_attempts,omitempty"`
	RetryDelay  time.Duration  `yaml:"retry_delay,omitempty"`
	BatchSize   int            `yaml:"batch_size,omitempty"`
	ClientIP    string         `yaml:"client_ip,omitempty"`
	UserAgent   string         `yaml:"user_agent,omitempty"`
	Proxy       string         `yaml:"proxy,omitempty"`
	Tor         bool           `yaml:"tor,omitempty"`
	DBDir       string         `yaml:"db_dir,omitempty"`
	Endpoints   csgt.Endpoints `yaml:"endpoints,omitempty"`
}

// Vehicle is one entry of the vehicles list.
type Vehicle struct {
	// Plate in any common spelling, e.g. "30A-123.45".
	Plate string `yaml:"plate"`

	// Type is a vehicle type name or code. Empty infers it from the plate.
	Type string `yaml:"type,omitempty"`

	// Label is a free-form name shown in reports.
	Label string `yaml:"label,omitempty"`
}

// Target converts the entry into a lookup target.
func (v Vehicle) Target() (model.Target, error) {
	if model.NormalizePlate(v.Plate) == "" {
		return model.Target{}, fmt.Errorf("%w: %q", model.ErrEmptyPlate, v.Plate)
	}
	vt, err := model.ParseVehicleType(v.Type)
	if err != nil {
		return model.Target{}, fmt.Errorf("vehicle %q: %w", v.Plate, err)
	}
	return model.Target{Plate: v.Plate, VehicleType: vt, Label: v.Label}, nil
}

// Targets converts every vehicle entry. It fails on the first invalid entry.
func (f *File) Targets() ([]model.Target, error) {
	targets := make([]model.Target, 0, len(f.Vehicles))
	for _, v := range f.Vehicles {
		t, err := v.Target()
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// Apply copies every non-zero setting into cfg.
func (f *File) Apply(cfg *Config) {
	s := f.Settings
	if s.Timeout != 0 {
		cfg.Timeout = s.Timeout
	}
	if s.OCRTimeout != 0 {
		cfg.OCRTimeout = s.OCRTimeout
	}
	if s.MaxAttempts != 0 {
		cfg.MaxAttempts = s.MaxAttempts
	}
	if s.RetryDelay != 0 {
		cfg.RetryDelay = s.RetryDelay
	}
	if s.BatchSize != 0 {
		cfg.BatchSize = s.BatchSize
	}
	if s.ClientIP != "" {
		cfg.ClientIP = s.ClientIP
	}
	if s.UserAgent != "" {
		cfg.UserAgent = s.UserAgent
	}
	if s.Proxy != "" {
		cfg.ProxyAddress = s.Proxy
	}
	if s.Tor {
		cfg.UseTor = true
	}
	if s.DBDir != "" {
		cfg.DBDir = s.DBDir
	}
	if s.Endpoints.CaptchaURL != "" {
		cfg.Endpoints.CaptchaURL = s.Endpoints.CaptchaURL
	}
	if s.Endpoints.QueryURL != "" {
		cfg.Endpoints.QueryURL = s.Endpoints.QueryURL
	}
	if s.Endpoints.ResultPrefix != "" {
		cfg.Endpoints.ResultPrefix = s.Endpoints.ResultPrefix
	}
}
