package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QueryOutcome is what the query endpoint hands back for a plate.
type QueryOutcome struct {
	// ResultURL is the page holding the violations for the plate.
	ResultURL string

	// SessionID is the cookie pair the result page must be fetched with.
	SessionID string
}

// Usable reports whether the outcome can be followed: a session exists and
// the URL points at the expected result host.
func (q QueryOutcome) Usable(resultPrefix string) bool {
	return q.SessionID != "" && q.ResultURL != "" && strings.HasPrefix(q.ResultURL, resultPrefix)
}

// ParseOutcome is the interpretation of one result page fetch.
type ParseOutcome struct {
	// Retryable is true when the page was not in a final shape yet
	// (missing container, empty fetch, partial markup).
	Retryable bool

	// Records holds the parsed violations. Empty with Retryable false means
	// the service confirmed there is nothing on record.
	Records []ViolationRecord
}

// Lookup tracks one plate through the pipeline.
type Lookup struct {
	// ID uniquely identifies the run in logs and in the history database.
	ID string `json:"id"`

	// Plate is the normalized plate.
	Plate string `json:"plate"`

	// VehicleType is the code the query was submitted with.
	VehicleType VehicleType `json:"vehicleType"`

	// Label is an optional owner-defined name for the vehicle.
	Label string `json:"label,omitempty"`

	// StartedAt and FinishedAt bracket the run.
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// Query is filled by the query step.
	Query QueryOutcome `json:"-"`

	// Parse is filled by the parse step; nil when no outcome was produced.
	Parse *ParseOutcome `json:"-"`

	// Envelope is the final result of the run.
	Envelope ResponseEnvelope `json:"envelope"`
}

// NewLookup creates a Lookup with a fresh ID for an already normalized plate.
func NewLookup(plate string, vehicleType VehicleType) *Lookup {
	return &Lookup{
		ID:          uuid.NewString(),
		Plate:       plate,
		VehicleType: vehicleType,
		StartedAt:   time.Now(),
		Envelope:    NewErrorEnvelope(MessageNoFinesURL),
	}
}

// Duration returns how long the run took, or zero if it has not finished.
func (l *Lookup) Duration() time.Duration {
	if l.FinishedAt.IsZero() {
		return 0
	}
	return l.FinishedAt.Sub(l.StartedAt)
}
