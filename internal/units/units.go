// Package units provides shared constants and conversions for the angular
// and linear channels of the kinematics engine.
//
// Convention for the whole processing chain: angles are degrees, angular
// rates deg/s, positions millimetres, linear rates mm/s. Quaternion math is
// done in radians internally; conversion happens exactly once, at resolver
// output. Threshold comparisons downstream rely on this convention.
package units

import "math"

// Angle unit names accepted in configuration.
const (
	Degrees = "deg"
	Radians = "rad"
)

// Length unit names accepted in configuration.
const (
	Millimetres = "mm"
	Metres      = "m"
)

// ValidAngleUnits contains all valid angle unit values.
var ValidAngleUnits = []string{Degrees, Radians}

// ValidLengthUnits contains all valid length unit values.
var ValidLengthUnits = []string{Millimetres, Metres}

// IsValidAngleUnit checks if the given unit is a recognised angle unit.
func IsValidAngleUnit(unit string) bool {
	for _, u := range ValidAngleUnits {
		if unit == u {
			return true
		}
	}
	return false
}

// IsValidLengthUnit checks if the given unit is a recognised length unit.
func IsValidLengthUnit(unit string) bool {
	for _, u := range ValidLengthUnits {
		if unit == u {
			return true
		}
	}
	return false
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return rad * 180 / math.Pi }

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }

// ToMillimetres converts a length in the given unit to millimetres.
// Unknown units are passed through unchanged.
func ToMillimetres(v float64, unit string) float64 {
	switch unit {
	case Metres:
		return v * 1000
	case Millimetres:
		return v
	default:
		return v
	}
}

// ToDegrees converts an angle in the given unit to degrees.
// Unknown units are passed through unchanged.
func ToDegrees(v float64, unit string) float64 {
	switch unit {
	case Radians:
		return RadToDeg(v)
	case Degrees:
		return v
	default:
		return v
	}
}
