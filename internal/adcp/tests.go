package adcp

import (
	"fmt"
	"math"
)

// This file holds the QARTOD test battery: pure classification
// functions operating on plain arrays and scalars. Numbering follows
// the IOOS "Manual for Real-Time Quality Control of In-Situ Current
// Observations". Each function is stateless and safe for concurrent
// use; the session layer is responsible for windowing inputs to the
// sidelobe-free bins.

// BatteryFlagTest is QARTOD test #1 (strongly recommended). Profilers
// of this class do not report battery state in their data files, so the
// test cannot be performed.
func BatteryFlagTest() Flag { return FlagNoTest }

// ChecksumTest is QARTOD test #2 (required). Ensembles with a failed
// checksum are dropped by the upstream decoder and never reach QC, so
// any ensemble under test has already passed.
func ChecksumTest() Flag { return FlagGood }

// BITTest checks the instrument's built-in-test status digit. Not an
// official QARTOD test.
func BITTest(bitResult string) Flag {
	if bitResult == "0" {
		return FlagGood
	}
	return FlagBad
}

// OrientationTest is QARTOD test #3 (required): pitch and roll must
// both be strictly inside their limits, in degrees.
func OrientationTest(pitch, roll, maxPitch, maxRoll float64) Flag {
	if math.Abs(pitch) < maxPitch && math.Abs(roll) < maxRoll {
		return FlagGood
	}
	return FlagBad
}

// SoundSpeedTest is QARTOD test #4 (required): the reported speed of
// sound must lie inside [min, max] m/s, boundaries inclusive.
func SoundSpeedTest(soundSpeed, min, max float64) Flag {
	if soundSpeed >= min && soundSpeed <= max {
		return FlagGood
	}
	return FlagBad
}

// NoiseFloorTest is QARTOD test #5 (strongly recommended). Noise floor
// data is not available on this instrument class.
func NoiseFloorTest() Flag { return FlagNoTest }

// SignalStrengthTest is QARTOD test #6 (strongly recommended). Signal
// strength data is not available on this instrument class.
func SignalStrengthTest() Flag { return FlagNoTest }

// SignalToNoiseTest is QARTOD test #7 (strongly recommended). SNR data
// is not available on this instrument class.
func SignalToNoiseTest() Flag { return FlagNoTest }

// CorrelationMagnitudeTest is QARTOD test #8 (strongly recommended).
// Per bin, each beam's correlation is graded against the good and
// suspect tolerances: all beams good flags the bin good, at least three
// beams good-or-suspect flags it suspect, anything less flags it bad.
func CorrelationMagnitudeTest(correlation [][]int, goodTolerance, suspectTolerance int) []Flag {
	flags := make([]Flag, 0, len(correlation))
	for _, bin := range correlation {
		good, suspect := 0, 0
		for _, beam := range bin {
			switch {
			case beam >= goodTolerance:
				good++
			case beam >= suspectTolerance:
				suspect++
			}
		}
		switch {
		case good == len(bin):
			flags = append(flags, FlagGood)
		case good+suspect >= 3:
			flags = append(flags, FlagSuspect)
		default:
			flags = append(flags, FlagBad)
		}
	}
	return flags
}

// PercentGoodTest is QARTOD test #9 (required). The per-bin sum of the
// one-beam-bad and all-beams-good counters decides the flag: sums at or
// above percentGood are good, at or below percentBad are bad, anything
// between is suspect. The two counter arrays must be index-aligned.
func PercentGoodTest(oneBadPercent, allGoodPercent []int, percentGood, percentBad int) ([]Flag, error) {
	if len(oneBadPercent) != len(allGoodPercent) {
		return nil, fmt.Errorf("percent_good: one_bad has %d bins, all_good has %d",
			len(oneBadPercent), len(allGoodPercent))
	}
	flags := make([]Flag, 0, len(oneBadPercent))
	for i := range oneBadPercent {
		sum := oneBadPercent[i] + allGoodPercent[i]
		switch {
		case sum >= percentGood:
			flags = append(flags, FlagGood)
		case sum <= percentBad:
			flags = append(flags, FlagBad)
		default:
			flags = append(flags, FlagSuspect)
		}
	}
	return flags, nil
}

// CurrentSpeedTest is QARTOD test #10 (required): speeds above maxSpeed
// cm/s are bad.
func CurrentSpeedTest(currentSpeed []float64, maxSpeed float64) []Flag {
	flags := make([]Flag, 0, len(currentSpeed))
	for _, speed := range currentSpeed {
		if speed <= maxSpeed {
			flags = append(flags, FlagGood)
		} else {
			flags = append(flags, FlagBad)
		}
	}
	return flags
}

// CurrentDirectionTest is QARTOD test #11 (required). Negative
// directions are normalised by adding 360 once; the result is bad only
// above 360 degrees.
//
// Note the bad branch is unreachable for already-normalised input: a
// value above 360 on arrival is never reduced, and the +360 correction
// only applies to negative values. This matches the long-deployed
// behaviour and is kept deliberately.
func CurrentDirectionTest(currentDirection []float64) []Flag {
	flags := make([]Flag, 0, len(currentDirection))
	for _, direction := range currentDirection {
		if direction < 0 {
			direction += 360
		}
		if direction <= 360 {
			flags = append(flags, FlagGood)
		} else {
			flags = append(flags, FlagBad)
		}
	}
	return flags
}

// HorizontalVelocityTest is QARTOD test #12 (required): a bin is bad if
// either velocity component exceeds its limit in magnitude. The u and v
// arrays must be index-aligned.
func HorizontalVelocityTest(u, v []float64, maxU, maxV float64) ([]Flag, error) {
	if len(u) != len(v) {
		return nil, fmt.Errorf("horizontal_velocity: u has %d bins, v has %d", len(u), len(v))
	}
	flags := make([]Flag, 0, len(u))
	for i := range u {
		if math.Abs(u[i]) > maxU || math.Abs(v[i]) > maxV {
			flags = append(flags, FlagBad)
		} else {
			flags = append(flags, FlagGood)
		}
	}
	return flags, nil
}

// VerticalVelocityTest is QARTOD test #13 (strongly recommended):
// vertical velocities within ±maxW cm/s are good, boundary inclusive.
func VerticalVelocityTest(w []float64, maxW float64) []Flag {
	flags := make([]Flag, 0, len(w))
	for _, vel := range w {
		if math.Abs(vel) <= maxW {
			flags = append(flags, FlagGood)
		} else {
			flags = append(flags, FlagBad)
		}
	}
	return flags
}

// ErrorVelocityTest is QARTOD test #14 (required): error velocities
// below suspectLimit are good, below badLimit are suspect, and anything
// at or above badLimit is bad.
func ErrorVelocityTest(errorVelocities []float64, suspectLimit, badLimit float64) []Flag {
	flags := make([]Flag, 0, len(errorVelocities))
	for _, ev := range errorVelocities {
		switch {
		case ev < suspectLimit:
			flags = append(flags, FlagGood)
		case ev < badLimit:
			flags = append(flags, FlagSuspect)
		default:
			flags = append(flags, FlagBad)
		}
	}
	return flags
}

// StuckSensorTest is QARTOD test #15 (strongly recommended). It needs
// the historical sample sequence, which puts it outside real-time
// scope: real-time tests treat the current sample as if it were the
// only one.
func StuckSensorTest() Flag { return FlagNoTest }

// EchoIntensityTest is QARTOD test #16 (required). A differential test:
// the first bin has no predecessor and is flagged good synthetically.
// For each subsequent bin pair, beams whose intensity fails to drop by
// at least tolerance counts are tallied; zero such beams is good, one
// is suspect, two or more is bad. Empty input yields an empty sequence.
func EchoIntensityTest(echoIntensities [][]int, tolerance int) []Flag {
	if len(echoIntensities) == 0 {
		return []Flag{}
	}
	flags := make([]Flag, 0, len(echoIntensities))
	flags = append(flags, FlagGood)
	for i := 1; i < len(echoIntensities); i++ {
		prev, curr := echoIntensities[i-1], echoIntensities[i]
		count := 0
		for beam := range prev {
			if prev[beam]-curr[beam] < tolerance {
				count++
			}
		}
		switch {
		case count == 0:
			flags = append(flags, FlagGood)
		case count == 1:
			flags = append(flags, FlagSuspect)
		default:
			flags = append(flags, FlagBad)
		}
	}
	return flags
}

// RangeDropOffTest is QARTOD test #17 (strongly recommended): a bin
// with two or more beams below the drop-off limit has fallen into the
// instrument noise floor and is bad.
func RangeDropOffTest(echoIntensities [][]int, dropOffLimit int) []Flag {
	flags := make([]Flag, 0, len(echoIntensities))
	for _, bin := range echoIntensities {
		count := 0
		for _, beam := range bin {
			if beam < dropOffLimit {
				count++
			}
		}
		if count >= 2 {
			flags = append(flags, FlagBad)
		} else {
			flags = append(flags, FlagGood)
		}
	}
	return flags
}

// CurrentSpeedGradientTest is QARTOD test #18 (strongly recommended).
// A differential test over the speed profile: the first bin is flagged
// good synthetically, subsequent bins are good while the bin-to-bin
// speed change stays within tolerance. Empty input yields an empty
// sequence.
func CurrentSpeedGradientTest(currentSpeed []float64, tolerance float64) []Flag {
	if len(currentSpeed) == 0 {
		return []Flag{}
	}
	flags := make([]Flag, 0, len(currentSpeed))
	flags = append(flags, FlagGood)
	for i := 1; i < len(currentSpeed); i++ {
		if math.Abs(currentSpeed[i]-currentSpeed[i-1]) <= tolerance {
			flags = append(flags, FlagGood)
		} else {
			flags = append(flags, FlagBad)
		}
	}
	return flags
}
