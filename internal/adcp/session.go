package adcp

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoEnsembles is returned when a session is constructed with an
// empty sequence.
var ErrNoEnsembles = errors.New("session requires at least one ensemble")

// Session binds an ordered sequence of ensembles to a transducer depth
// and a threshold set, and runs the QARTOD battery over them.
// Single-ensemble callers pass a length-1 sequence.
//
// Construction derives current speed and direction from the raw
// velocity components and computes BottomStats once per ensemble; both
// are cached for the session's lifetime. Accessors window their inputs
// to [0, LastGoodCounter) and delegate to the pure test functions, so
// bins at or beyond the sidelobe boundary are excluded outright, never
// merely down-weighted. Accessors never mutate session state and are
// safe for concurrent use.
type Session struct {
	ensembles       []*Ensemble
	transducerDepth float64
	thresholds      Thresholds

	bottom    []BottomStats
	speed     [][]float64
	direction [][]float64
}

// NewSession validates the thresholds and every ensemble, then derives
// the cached per-ensemble state. A nil thresholds pointer selects the
// defaults. transducerDepth is in raw instrument centimetres.
func NewSession(ensembles []*Ensemble, transducerDepth float64, thresholds *Thresholds) (*Session, error) {
	if len(ensembles) == 0 {
		return nil, ErrNoEnsembles
	}

	th := DefaultThresholds()
	if thresholds != nil {
		th = *thresholds
	}
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	s := &Session{
		ensembles:       ensembles,
		transducerDepth: transducerDepth,
		thresholds:      th,
		bottom:          make([]BottomStats, len(ensembles)),
		speed:           make([][]float64, len(ensembles)),
		direction:       make([][]float64, len(ensembles)),
	}
	for i, e := range ensembles {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		s.speed[i], s.direction[i] = deriveSpeedDirection(e)
		s.bottom[i] = ComputeBottomStats(e, transducerDepth, th.BottomTolerance)
	}
	return s, nil
}

// deriveSpeedDirection computes per-bin current speed (magnitude of the
// horizontal velocity vector, cm/s) and direction (degrees, atan2 of
// east over north so that 0° is north).
func deriveSpeedDirection(e *Ensemble) (speed, direction []float64) {
	speed = make([]float64, len(e.Bins))
	direction = make([]float64, len(e.Bins))
	for i, bin := range e.Bins {
		speed[i] = math.Hypot(bin.U, bin.V)
		direction[i] = math.Atan2(bin.U, bin.V) * 180 / math.Pi
	}
	return speed, direction
}

// Len returns the number of ensembles in the session.
func (s *Session) Len() int { return len(s.ensembles) }

// Ensemble returns the i-th ensemble.
func (s *Session) Ensemble(i int) *Ensemble { return s.ensembles[i] }

// BottomStats returns the cached bottom statistics for the i-th
// ensemble.
func (s *Session) BottomStats(i int) BottomStats { return s.bottom[i] }

// Thresholds returns the threshold set the session was built with.
func (s *Session) Thresholds() Thresholds { return s.thresholds }

// window returns the exclusive windowed bin bound for the i-th
// ensemble, clamped to [0, bin count].
func (s *Session) window(i int) int {
	return clampWindow(s.bottom[i].LastGoodCounter, len(s.ensembles[i].Bins))
}

// BatteryFlags runs QARTOD test #1 for every ensemble.
func (s *Session) BatteryFlags() []Flag {
	return s.scalarFlags(func(*Ensemble) Flag { return BatteryFlagTest() })
}

// ChecksumFlags runs QARTOD test #2 for every ensemble.
func (s *Session) ChecksumFlags() []Flag {
	return s.scalarFlags(func(*Ensemble) Flag { return ChecksumTest() })
}

// BITFlags checks each ensemble's built-in-test status digit.
func (s *Session) BITFlags() []Flag {
	return s.scalarFlags(func(e *Ensemble) Flag { return BITTest(e.BITResult) })
}

// OrientationFlags runs QARTOD test #3 for every ensemble.
func (s *Session) OrientationFlags() []Flag {
	return s.scalarFlags(func(e *Ensemble) Flag {
		return OrientationTest(e.Pitch, e.Roll, s.thresholds.MaxPitch, s.thresholds.MaxRoll)
	})
}

// SoundSpeedFlags runs QARTOD test #4 for every ensemble.
func (s *Session) SoundSpeedFlags() []Flag {
	return s.scalarFlags(func(e *Ensemble) Flag {
		return SoundSpeedTest(e.SoundSpeed, s.thresholds.SoundSpeedMin, s.thresholds.SoundSpeedMax)
	})
}

// NoiseFloorFlags runs QARTOD test #5 for every ensemble.
func (s *Session) NoiseFloorFlags() []Flag {
	return s.scalarFlags(func(*Ensemble) Flag { return NoiseFloorTest() })
}

// SignalStrengthFlags runs QARTOD test #6 for every ensemble.
func (s *Session) SignalStrengthFlags() []Flag {
	return s.scalarFlags(func(*Ensemble) Flag { return SignalStrengthTest() })
}

// SignalToNoiseFlags runs QARTOD test #7 for every ensemble.
func (s *Session) SignalToNoiseFlags() []Flag {
	return s.scalarFlags(func(*Ensemble) Flag { return SignalToNoiseTest() })
}

// StuckSensorFlags runs QARTOD test #15 for every ensemble.
func (s *Session) StuckSensorFlags() []Flag {
	return s.scalarFlags(func(*Ensemble) Flag { return StuckSensorTest() })
}

// CorrelationMagnitudeFlags runs QARTOD test #8 over the windowed bins
// of every ensemble.
func (s *Session) CorrelationMagnitudeFlags() [][]Flag {
	out := make([][]Flag, len(s.ensembles))
	for i, e := range s.ensembles {
		out[i] = CorrelationMagnitudeTest(e.correlations(s.window(i)),
			s.thresholds.CorrelationGood, s.thresholds.CorrelationSuspect)
	}
	return out
}

// PercentGoodFlags runs QARTOD test #9 over the windowed bins of every
// ensemble, summing the one-beam-bad and all-beams-good counters.
func (s *Session) PercentGoodFlags() ([][]Flag, error) {
	out := make([][]Flag, len(s.ensembles))
	for i, e := range s.ensembles {
		n := s.window(i)
		oneBad := make([]int, n)
		allGood := make([]int, n)
		for b := 0; b < n; b++ {
			oneBad[b] = e.Bins[b].PercentGood[2]
			allGood[b] = e.Bins[b].PercentGood[3]
		}
		flags, err := PercentGoodTest(oneBad, allGood,
			s.thresholds.PercentGoodMin, s.thresholds.PercentBadMax)
		if err != nil {
			return nil, fmt.Errorf("ensemble %d: %w", e.Number, err)
		}
		out[i] = flags
	}
	return out, nil
}

// CurrentSpeedFlags runs QARTOD test #10 over the windowed derived
// speed profile of every ensemble.
func (s *Session) CurrentSpeedFlags() [][]Flag {
	out := make([][]Flag, len(s.ensembles))
	for i := range s.ensembles {
		out[i] = CurrentSpeedTest(s.speed[i][:s.window(i)], s.thresholds.MaxCurrentSpeed)
	}
	return out
}

// CurrentDirectionFlags runs QARTOD test #11 over the windowed derived
// direction profile of every ensemble.
func (s *Session) CurrentDirectionFlags() [][]Flag {
	out := make([][]Flag, len(s.ensembles))
	for i := range s.ensembles {
		out[i] = CurrentDirectionTest(s.direction[i][:s.window(i)])
	}
	return out
}

// HorizontalVelocityFlags runs QARTOD test #12 over the windowed bins
// of every ensemble.
func (s *Session) HorizontalVelocityFlags() ([][]Flag, error) {
	out := make([][]Flag, len(s.ensembles))
	for i, e := range s.ensembles {
		n := s.window(i)
		u := make([]float64, n)
		v := make([]float64, n)
		for b := 0; b < n; b++ {
			u[b] = e.Bins[b].U
			v[b] = e.Bins[b].V
		}
		flags, err := HorizontalVelocityTest(u, v, s.thresholds.MaxUVelocity, s.thresholds.MaxVVelocity)
		if err != nil {
			return nil, fmt.Errorf("ensemble %d: %w", e.Number, err)
		}
		out[i] = flags
	}
	return out, nil
}

// VerticalVelocityFlags runs QARTOD test #13 over the windowed bins of
// every ensemble.
func (s *Session) VerticalVelocityFlags() [][]Flag {
	out := make([][]Flag, len(s.ensembles))
	for i, e := range s.ensembles {
		n := s.window(i)
		w := make([]float64, n)
		for b := 0; b < n; b++ {
			w[b] = e.Bins[b].W
		}
		out[i] = VerticalVelocityTest(w, s.thresholds.MaxWVelocity)
	}
	return out
}

// ErrorVelocityFlags runs QARTOD test #14 over the windowed bins of
// every ensemble.
func (s *Session) ErrorVelocityFlags() [][]Flag {
	out := make([][]Flag, len(s.ensembles))
	for i, e := range s.ensembles {
		n := s.window(i)
		ev := make([]float64, n)
		for b := 0; b < n; b++ {
			ev[b] = e.Bins[b].ErrVel
		}
		out[i] = ErrorVelocityTest(ev, s.thresholds.SuspectErrVel, s.thresholds.BadErrVel)
	}
	return out
}

// EchoIntensityFlags runs QARTOD test #16 over the windowed bins of
// every ensemble.
func (s *Session) EchoIntensityFlags() [][]Flag {
	out := make([][]Flag, len(s.ensembles))
	for i, e := range s.ensembles {
		out[i] = EchoIntensityTest(e.echoIntensities(s.window(i)), s.thresholds.EchoIntensityTolerance)
	}
	return out
}

// RangeDropOffFlags runs QARTOD test #17 over the windowed bins of
// every ensemble.
func (s *Session) RangeDropOffFlags() [][]Flag {
	out := make([][]Flag, len(s.ensembles))
	for i, e := range s.ensembles {
		out[i] = RangeDropOffTest(e.echoIntensities(s.window(i)), s.thresholds.RangeDropOffLimit)
	}
	return out
}

// CurrentSpeedGradientFlags runs QARTOD test #18 over the windowed
// derived speed profile of every ensemble.
func (s *Session) CurrentSpeedGradientFlags() [][]Flag {
	out := make([][]Flag, len(s.ensembles))
	for i := range s.ensembles {
		out[i] = CurrentSpeedGradientTest(s.speed[i][:s.window(i)], s.thresholds.SpeedGradientMax)
	}
	return out
}

// CurrentSpeed returns the i-th ensemble's full derived speed profile
// in cm/s, unwindowed.
func (s *Session) CurrentSpeed(i int) []float64 { return s.speed[i] }

// CurrentDirection returns the i-th ensemble's full derived direction
// profile in degrees, unwindowed.
func (s *Session) CurrentDirection(i int) []float64 { return s.direction[i] }

// scalarFlags maps a scalar test across the ensemble sequence.
func (s *Session) scalarFlags(test func(*Ensemble) Flag) []Flag {
	out := make([]Flag, len(s.ensembles))
	for i, e := range s.ensembles {
		out[i] = test(e)
	}
	return out
}
