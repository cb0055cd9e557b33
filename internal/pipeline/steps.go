package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/phatnguoi/internal/model"
	"github.com/nao1215/phatnguoi/internal/retry"
)

// Service is the lookup service, implemented by *csgt.Client.
type Service interface {
	SubmitQueryWithRetry(ctx context.Context, plate string, vehicleType model.VehicleType) retry.Outcome[model.QueryOutcome]
	ParseResultWithRetry(ctx context.Context, resultURL, sessionID string) retry.Outcome[model.ParseOutcome]
}

// QueryStep obtains the result URL and session for lookup.Plate.
type QueryStep struct {
	service Service
}

// NewQueryStep creates a QueryStep.
func NewQueryStep(service Service) *QueryStep {
	return &QueryStep{service: service}
}

// Name returns the step name.
func (s *QueryStep) Name() string {
	return "query"
}

// Do submits the query and stores the outcome in lookup.Query, even when
// the retry budget ran out.
func (s *QueryStep) Do(ctx context.Context, lookup *model.Lookup) error {
	outcome := s.service.SubmitQueryWithRetry(ctx, lookup.Plate, lookup.VehicleType)
	q := outcome.Last.Value
	lookup.Query = q

	if outcome.Accepted {
		return nil
	}
	// A rejected outcome that carries a session was rejected for its URL.
	if q.ResultURL == "" || q.SessionID != "" {
		lookup.Query.ResultURL = ""
		return fmt.Errorf("%w: %w", ErrNoResultURL, outcome.Err())
	}
	return fmt.Errorf("%w: %w", ErrNoSession, outcome.Err())
}

// ParseStep fetches and parses the result page found by QueryStep.
type ParseStep struct {
	service Service
	logger  *slog.Logger
}

// NewParseStep creates a ParseStep.
func NewParseStep(service Service, logger *slog.Logger) *ParseStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStep{service: service, logger: logger}
}

// Name returns the step name.
func (s *ParseStep) Name() string {
	return "parse"
}

// Do stores the accepted parse outcome in lookup.Parse. A page that never
// reached a final state is an error, not an empty result.
func (s *ParseStep) Do(ctx context.Context, lookup *model.Lookup) error {
	outcome := s.service.ParseResultWithRetry(ctx, lookup.Query.ResultURL, lookup.Query.SessionID)
	if !outcome.Accepted {
		msg := "result page never reached a final state"
		if !outcome.HasValue() {
			msg = "result page could not be requested"
		}
		s.logger.Warn(msg,
			"lookup_id", lookup.ID,
			"plate", lookup.Plate,
			"attempts", outcome.Attempts,
			"error", outcome.Err(),
		)
		return fmt.Errorf("%w: %w", ErrNoFinesData, outcome.Err())
	}

	parsed := outcome.Last.Value
	if parsed.Records == nil {
		parsed.Records = []model.ViolationRecord{}
	}
	lookup.Parse = &parsed
	return nil
}
