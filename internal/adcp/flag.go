package adcp

import "fmt"

// Flag is the quality category assigned to a measurement by a QC test.
//
// Good, Suspect and Bad form an ordered severity scale. NoTest and
// MissingData are sentinel categories outside that scale: NoTest marks
// tests the instrument class cannot support, MissingData marks values
// that never arrived. Historical deployments used two incompatible
// numeric encodings (a 3-level and a 5-level one); both are available
// as explicit projections and never redefine this type.
type Flag uint8

const (
	// FlagGood indicates the measurement passed the test.
	FlagGood Flag = iota
	// FlagSuspect indicates the measurement is questionable but usable.
	FlagSuspect
	// FlagBad indicates the measurement failed the test.
	FlagBad
	// FlagNoTest indicates the test cannot be performed on this
	// instrument class.
	FlagNoTest
	// FlagMissingData indicates the input value was absent.
	FlagMissingData
)

// String returns the canonical lowercase name of the flag.
func (f Flag) String() string {
	switch f {
	case FlagGood:
		return "good"
	case FlagSuspect:
		return "suspect"
	case FlagBad:
		return "bad"
	case FlagNoTest:
		return "no_test"
	case FlagMissingData:
		return "missing_data"
	default:
		return fmt.Sprintf("flag(%d)", uint8(f))
	}
}

// Graded reports whether the flag sits on the good/suspect/bad severity
// scale. NoTest and MissingData are not graded and must never be
// compared by severity.
func (f Flag) Graded() bool {
	return f == FlagGood || f == FlagSuspect || f == FlagBad
}

// Worse reports whether f is strictly more severe than other. Both
// flags must be graded; ungraded flags always compare false.
func (f Flag) Worse(other Flag) bool {
	if !f.Graded() || !other.Graded() {
		return false
	}
	return f > other
}

// WorstOf returns the most severe graded flag in the sequence. Ungraded
// flags are skipped. An empty or all-ungraded sequence yields NoTest.
func WorstOf(flags []Flag) Flag {
	worst := FlagNoTest
	for _, f := range flags {
		if !f.Graded() {
			continue
		}
		if worst == FlagNoTest || f.Worse(worst) {
			worst = f
		}
	}
	return worst
}

// QARTODCode projects the flag onto the 5-level QARTOD numeric encoding
// used by the legacy ingestion pipeline (good=1, no_test=2, suspect=3,
// bad=4, missing_data=9).
func (f Flag) QARTODCode() int {
	switch f {
	case FlagGood:
		return 1
	case FlagNoTest:
		return 2
	case FlagSuspect:
		return 3
	case FlagBad:
		return 4
	default:
		return 9
	}
}

// CoarseCode projects the flag onto the legacy 3-level encoding
// (good=1, suspect=2, bad=3). NoTest and MissingData have no coarse
// representation and project to 0.
func (f Flag) CoarseCode() int {
	switch f {
	case FlagGood:
		return 1
	case FlagSuspect:
		return 2
	case FlagBad:
		return 3
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler so flags serialise as
// their names in JSON reports rather than bare integers.
func (f Flag) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Flag) UnmarshalText(text []byte) error {
	switch string(text) {
	case "good":
		*f = FlagGood
	case "suspect":
		*f = FlagSuspect
	case "bad":
		*f = FlagBad
	case "no_test":
		*f = FlagNoTest
	case "missing_data":
		*f = FlagMissingData
	default:
		return fmt.Errorf("unknown flag %q", string(text))
	}
	return nil
}
