// Package units provides shared constants and conversions between the
// instrument's native units and the units the QC core expects. The core
// works in cm/s, degrees and raw instrument centimetres; converting
// decoded records into those units is the reader adapter's job, never
// the core's.
package units

// Speed unit constants for report output.
const (
	CMPS  = "cmps"
	MPS   = "mps"
	KNOTS = "knots"
)

// ValidSpeedUnits contains all valid output speed units.
var ValidSpeedUnits = []string{CMPS, MPS, KNOTS}

// IsValidSpeedUnit checks if the given unit is a valid output unit.
func IsValidSpeedUnit(unit string) bool {
	for _, valid := range ValidSpeedUnits {
		if unit == valid {
			return true
		}
	}
	return false
}

// ConvertSpeed converts a speed from cm/s (the core's working unit) to
// the target output unit.
func ConvertSpeed(speedCMPS float64, targetUnit string) float64 {
	switch targetUnit {
	case MPS:
		return speedCMPS / 100
	case KNOTS:
		return speedCMPS * 0.0194384449
	default:
		return speedCMPS
	}
}

// MMPerSecToCMPerSec converts the instrument's native mm/s velocities
// to cm/s.
func MMPerSecToCMPerSec(v float64) float64 { return v / 10 }

// MPerSecToCMPerSec converts m/s velocities (as produced by some
// decoder toolchains) to cm/s.
func MPerSecToCMPerSec(v float64) float64 { return v * 100 }

// CentidegreesToDegrees converts the variable leader's raw hundredths
// of a degree (pitch, roll, heading) to degrees.
func CentidegreesToDegrees(v float64) float64 { return v / 100 }

// DecimetresToCentimetres converts the variable leader's transducer
// depth (decimetres) to the centimetres the bottom tracker expects.
func DecimetresToCentimetres(v float64) float64 { return v * 10 }
