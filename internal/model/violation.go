package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ViolationRecord is one traffic violation parsed from the result page.
// Fields the page did not provide stay empty and are omitted from JSON.
type ViolationRecord struct {
	Plate         string   `json:"plate,omitempty"`
	PlateColor    string   `json:"plateColor,omitempty"`
	VehicleType   string   `json:"vehicleType,omitempty"`
	ViolationTime string   `json:"violationTime,omitempty"`
	Location      string   `json:"location,omitempty"`
	ViolationType string   `json:"violationType,omitempty"`
	Status        string   `json:"status,omitempty"`
	DetectingUnit string   `json:"detectingUnit,omitempty"`
	ResolvingUnit []string `json:"resolvingUnit,omitempty"`
}

// ViolationField describes one fixed position in a result block sequence.
type ViolationField struct {
	// Key is the JSON name of the field.
	Key string

	// Label is the English column title used in reports.
	Label string

	get func(*ViolationRecord) *string
}

// ViolationFields is the ordered table mapping the position of a label/value
// block inside a record fragment to the field it fills. Blocks beyond the end
// of this table are collected into ResolvingUnit.
var ViolationFields = []ViolationField{
	{Key: "plate", Label: "Plate", get: func(r *ViolationRecord) *string { return &r.Plate }},
	{Key: "plateColor", Label: "Plate color", get: func(r *ViolationRecord) *string { return &r.PlateColor }},
	{Key: "vehicleType", Label: "Vehicle type", get: func(r *ViolationRecord) *string { return &r.VehicleType }},
	{Key: "violationTime", Label: "Time", get: func(r *ViolationRecord) *string { return &r.ViolationTime }},
	{Key: "location", Label: "Location", get: func(r *ViolationRecord) *string { return &r.Location }},
	{Key: "violationType", Label: "Violation", get: func(r *ViolationRecord) *string { return &r.ViolationType }},
	{Key: "status", Label: "Status", get: func(r *ViolationRecord) *string { return &r.Status }},
	{Key: "detectingUnit", Label: "Detected by", get: func(r *ViolationRecord) *string { return &r.DetectingUnit }},
}

// SetField stores value at the given table position. It returns false when
// the position is past the fixed fields, leaving the record untouched.
func (r *ViolationRecord) SetField(position int, value string) bool {
	if position < 0 || position >= len(ViolationFields) {
		return false
	}
	*ViolationFields[position].get(r) = value
	return true
}

// Field returns the value stored under a JSON key, or "" for unknown keys.
func (r *ViolationRecord) Field(key string) string {
	for _, f := range ViolationFields {
		if f.Key == key {
			return *f.get(r)
		}
	}
	return ""
}

// IsEmpty reports whether no field at all has been filled.
func (r *ViolationRecord) IsEmpty() bool {
	for _, f := range ViolationFields {
		if *f.get(r) != "" {
			return false
		}
	}
	return len(r.ResolvingUnit) == 0
}

// Fingerprint identifies the violation across lookups. Status and resolving
// units are excluded so that a paid fine keeps the same fingerprint.
func (r *ViolationRecord) Fingerprint() string {
	key := strings.Join([]string{
		strings.ToUpper(NormalizePlate(r.Plate)),
		r.ViolationTime,
		r.Location,
		r.ViolationType,
	}, "\x1f")
	sum := sha3.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}
