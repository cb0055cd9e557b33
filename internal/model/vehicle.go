package model

import (
	"errors"
	"strings"
)

// ErrUnknownVehicleType is returned when a vehicle type name or code is not recognized.
var ErrUnknownVehicleType = errors.New("unknown vehicle type: use car, motorbike, ebike or 1, 2, 3")

// VehicleType is the vehicle category code sent to the lookup service.
type VehicleType string

const (
	// VehicleTypeCar is the code for four-wheeled vehicles.
	VehicleTypeCar VehicleType = "1"
	// VehicleTypeMotorbike is the code for two-wheeled vehicles.
	VehicleTypeMotorbike VehicleType = "2"
	// VehicleTypeElectricBicycle is the code for electric bicycles.
	VehicleTypeElectricBicycle VehicleType = "3"
)

// carPlateLength is the normalized plate length that identifies a car
// (e.g. 30A12345). Motorbike plates such as 29B112345 are longer.
const carPlateLength = 8

// vehicleTypeAliases maps accepted names to codes.
var vehicleTypeAliases = map[string]VehicleType{
	"1":               VehicleTypeCar,
	"car":             VehicleTypeCar,
	"oto":             VehicleTypeCar,
	"2":               VehicleTypeMotorbike,
	"motorbike":       VehicleTypeMotorbike,
	"motorcycle":      VehicleTypeMotorbike,
	"xemay":           VehicleTypeMotorbike,
	"3":               VehicleTypeElectricBicycle,
	"ebike":           VehicleTypeElectricBicycle,
	"electricbicycle": VehicleTypeElectricBicycle,
	"xedapdien":       VehicleTypeElectricBicycle,
}

// String returns a human-readable name for the vehicle type.
func (v VehicleType) String() string {
	switch v {
	case VehicleTypeCar:
		return "car"
	case VehicleTypeMotorbike:
		return "motorbike"
	case VehicleTypeElectricBicycle:
		return "electric bicycle"
	default:
		return unknownStr
	}
}

// IsValid reports whether v is one of the codes the service accepts.
func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleTypeCar, VehicleTypeMotorbike, VehicleTypeElectricBicycle:
		return true
	default:
		return false
	}
}

// ParseVehicleType converts a code ("1") or a name ("car") into a VehicleType.
// An empty string yields an empty VehicleType and no error, which callers
// treat as "infer from the plate".
func ParseVehicleType(s string) (VehicleType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", nil
	}
	key = strings.NewReplacer("-", "", "_", "", " ", "", "ô", "o", "đ", "d", "á", "a", "ạ", "a", "ệ", "e").Replace(key)
	if v, ok := vehicleTypeAliases[key]; ok {
		return v, nil
	}
	return "", ErrUnknownVehicleType
}

// NormalizePlate strips every character that is not an ASCII letter or digit.
// Relative order and case are preserved: "30A-123.45" becomes "30A12345".
func NormalizePlate(plate string) string {
	var sb strings.Builder
	sb.Grow(len(plate))
	for _, c := range plate {
		if isASCIIAlphanumeric(c) {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// InferVehicleType guesses the vehicle type from the plate. Plates that are
// eight characters long after normalization belong to cars; everything else
// is treated as a motorbike.
func InferVehicleType(plate string) VehicleType {
	if len(NormalizePlate(plate)) == carPlateLength {
		return VehicleTypeCar
	}
	return VehicleTypeMotorbike
}

// isASCIIAlphanumeric reports whether c is in [A-Za-z0-9].
func isASCIIAlphanumeric(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// unknownStr is the string representation for unknown values.
const unknownStr = "unknown"
