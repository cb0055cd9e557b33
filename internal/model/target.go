package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPlate is returned when a plate has no alphanumeric character.
var ErrEmptyPlate = errors.New("empty plate")

// Target is one vehicle to look up.
type Target struct {
	// Plate as entered by the user; it is normalized before the lookup.
	Plate string

	// VehicleType may be empty, in which case it is inferred from the plate.
	VehicleType VehicleType

	// Label is a free-form name such as "family car".
	Label string
}

// ParseTarget parses "plate" or "plate:type", where type is anything
// ParseVehicleType accepts.
func ParseTarget(s string) (Target, error) {
	plate, kind, _ := strings.Cut(strings.TrimSpace(s), ":")
	if NormalizePlate(plate) == "" {
		return Target{}, fmt.Errorf("%w: %q", ErrEmptyPlate, s)
	}
	vt, err := ParseVehicleType(kind)
	if err != nil {
		return Target{}, fmt.Errorf("target %q: %w", s, err)
	}
	return Target{Plate: plate, VehicleType: vt}, nil
}

// Resolve returns the normalized plate and the vehicle type to query,
// inferring the type when it is not set.
func (t Target) Resolve() (string, VehicleType) {
	plate := NormalizePlate(t.Plate)
	if t.VehicleType == "" {
		return plate, InferVehicleType(plate)
	}
	return plate, t.VehicleType
}

// String returns the target in ParseTarget form.
func (t Target) String() string {
	if t.VehicleType == "" {
		return t.Plate
	}
	return t.Plate + ":" + string(t.VehicleType)
}
