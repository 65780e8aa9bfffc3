package adcp

import "fmt"

// Thresholds collects every overridable limit used by the test battery.
// Deployments tune regional limits (e.g. a different current-speed
// ceiling) by passing a modified copy into the session; the defaults
// come from the TRDI setup spreadsheet for the West Florida Shelf
// moorings and the QARTOD currents manual.
type Thresholds struct {
	// Orientation test limits in degrees.
	MaxPitch float64 `json:"max_pitch"`
	MaxRoll  float64 `json:"max_roll"`

	// Sound speed window in m/s.
	SoundSpeedMin float64 `json:"sound_speed_min"`
	SoundSpeedMax float64 `json:"sound_speed_max"`

	// Correlation magnitude limits in raw counts.
	CorrelationGood    int `json:"correlation_good"`
	CorrelationSuspect int `json:"correlation_suspect"`

	// Percent-good boundaries. Sums at or above PercentGoodMin are
	// good, sums at or below PercentBadMax are bad.
	PercentGoodMin int `json:"percent_good_min"`
	PercentBadMax  int `json:"percent_bad_max"`

	// Velocity limits in cm/s.
	MaxCurrentSpeed  float64 `json:"max_current_speed"`
	MaxUVelocity     float64 `json:"max_u_velocity"`
	MaxVVelocity     float64 `json:"max_v_velocity"`
	MaxWVelocity     float64 `json:"max_w_velocity"`
	SuspectErrVel    float64 `json:"suspect_error_velocity"`
	BadErrVel        float64 `json:"bad_error_velocity"`
	SpeedGradientMax float64 `json:"speed_gradient_max"`

	// Echo intensity limits in raw counts.
	EchoIntensityTolerance int `json:"echo_intensity_tolerance"`
	RangeDropOffLimit      int `json:"range_drop_off_limit"`

	// Bottom tracker jump tolerance in raw counts.
	BottomTolerance int `json:"bottom_tolerance"`
}

// DefaultThresholds returns the stock limits from §4 of the QARTOD
// currents manual and the instrument setup spreadsheet.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxPitch:               20,
		MaxRoll:                20,
		SoundSpeedMin:          1400,
		SoundSpeedMax:          1600,
		CorrelationGood:        115,
		CorrelationSuspect:     64,
		PercentGoodMin:         21,
		PercentBadMax:          17,
		MaxCurrentSpeed:        150,
		MaxUVelocity:           150,
		MaxVVelocity:           150,
		MaxWVelocity:           15,
		SuspectErrVel:          2.6,
		BadErrVel:              5.2,
		SpeedGradientMax:       6,
		EchoIntensityTolerance: 2,
		RangeDropOffLimit:      60,
		BottomTolerance:        30,
	}
}

// Validate rejects physically inconsistent threshold sets. Every error
// names the offending parameters.
func (t Thresholds) Validate() error {
	if t.MaxPitch <= 0 {
		return fmt.Errorf("max_pitch must be positive, got %g", t.MaxPitch)
	}
	if t.MaxRoll <= 0 {
		return fmt.Errorf("max_roll must be positive, got %g", t.MaxRoll)
	}
	if t.SoundSpeedMin >= t.SoundSpeedMax {
		return fmt.Errorf("sound_speed_min (%g) must be below sound_speed_max (%g)",
			t.SoundSpeedMin, t.SoundSpeedMax)
	}
	if t.CorrelationGood < t.CorrelationSuspect {
		return fmt.Errorf("correlation_good (%d) must not be below correlation_suspect (%d)",
			t.CorrelationGood, t.CorrelationSuspect)
	}
	if t.PercentGoodMin < t.PercentBadMax {
		return fmt.Errorf("percent_good_min (%d) must not be below percent_bad_max (%d)",
			t.PercentGoodMin, t.PercentBadMax)
	}
	if t.MaxCurrentSpeed <= 0 {
		return fmt.Errorf("max_current_speed must be positive, got %g", t.MaxCurrentSpeed)
	}
	if t.MaxUVelocity <= 0 || t.MaxVVelocity <= 0 {
		return fmt.Errorf("max_u_velocity (%g) and max_v_velocity (%g) must be positive",
			t.MaxUVelocity, t.MaxVVelocity)
	}
	if t.MaxWVelocity <= 0 {
		return fmt.Errorf("max_w_velocity must be positive, got %g", t.MaxWVelocity)
	}
	if t.SuspectErrVel > t.BadErrVel {
		return fmt.Errorf("suspect_error_velocity (%g) must not exceed bad_error_velocity (%g)",
			t.SuspectErrVel, t.BadErrVel)
	}
	if t.SpeedGradientMax < 0 {
		return fmt.Errorf("speed_gradient_max must be non-negative, got %g", t.SpeedGradientMax)
	}
	if t.BottomTolerance <= 0 {
		return fmt.Errorf("bottom_tolerance must be positive, got %d", t.BottomTolerance)
	}
	return nil
}
