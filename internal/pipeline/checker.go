package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/phatnguoi/internal/model"
)

// Checker looks up fines for a vehicle.
type Checker struct {
	service Service
	logger  *slog.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithCheckerLogger sets the logger used by the checker and its pipelines.
func WithCheckerLogger(logger *slog.Logger) CheckerOption {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChecker returns a Checker backed by service.
func NewChecker(service Service, opts ...CheckerOption) *Checker {
	c := &Checker{
		service: service,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckFines looks up plate and returns the response envelope. vehicleType
// is a code or a name accepted by model.ParseVehicleType; when empty it is
// inferred from the plate. Unrecognized values are sent to the service as is.
func (c *Checker) CheckFines(ctx context.Context, plate, vehicleType string) model.ResponseEnvelope {
	vt, err := model.ParseVehicleType(vehicleType)
	if err != nil {
		c.logger.Warn("unrecognized vehicle type, sending as is",
			"vehicle_type", vehicleType,
		)
		vt = model.VehicleType(strings.TrimSpace(vehicleType))
	}
	return c.Check(ctx, model.Target{Plate: plate, VehicleType: vt}).Envelope
}

// Check runs a full lookup for target and returns it with its envelope set.
func (c *Checker) Check(ctx context.Context, target model.Target) *model.Lookup {
	plate, vt := target.Resolve()
	lookup := model.NewLookup(plate, vt)
	lookup.Label = target.Label

	p := New(WithLogger(c.logger))
	p.AddSteps(
		NewQueryStep(c.service),
		NewParseStep(c.service, c.logger),
	)

	c.logger.Info("checking fines",
		"lookup_id", lookup.ID,
		"plate", lookup.Plate,
		"vehicle_type", lookup.VehicleType.String(),
		"steps", p.StepNames(),
	)

	err := p.Execute(ctx, lookup)
	lookup.FinishedAt = time.Now()
	lookup.Envelope = envelopeFor(lookup, err)

	c.logger.Info("check finished",
		"lookup_id", lookup.ID,
		"plate", lookup.Plate,
		"message", lookup.Envelope.Message,
		"violations", len(lookup.Envelope.Data),
		"elapsed", lookup.Duration(),
	)
	return lookup
}

// envelopeFor maps the pipeline result to the response envelope.
func envelopeFor(lookup *model.Lookup, err error) model.ResponseEnvelope {
	switch {
	case err == nil && lookup.Parse != nil:
		return model.NewOKEnvelope(lookup.Parse.Records)
	case errors.Is(err, ErrNoResultURL):
		return model.NewErrorEnvelope(model.MessageNoFinesURL)
	case errors.Is(err, ErrNoSession):
		return model.NewErrorEnvelope(model.MessageNoSessionID)
	case errors.Is(err, ErrNoFinesData):
		return model.NewErrorEnvelope(model.MessageNoFinesData)
	case lookup.Query.ResultURL == "":
		// Cancelled before a result URL was obtained.
		return model.NewErrorEnvelope(model.MessageNoFinesURL)
	default:
		return model.NewErrorEnvelope(model.MessageNoFinesData)
	}
}
