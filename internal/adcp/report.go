package adcp

import (
	"fmt"
	"time"
)

// TestID is the stable identifier a test's results are keyed by in
// reports and persisted runs.
type TestID string

// Test identifiers, in QARTOD numbering order where one exists.
const (
	TestBatteryFlag          TestID = "battery_flag"
	TestChecksum             TestID = "checksum"
	TestBIT                  TestID = "bit"
	TestOrientation          TestID = "orientation"
	TestSoundSpeed           TestID = "sound_speed"
	TestNoiseFloor           TestID = "noise_floor"
	TestSignalStrength       TestID = "signal_strength"
	TestSignalToNoise        TestID = "signal_to_noise"
	TestCorrelationMagnitude TestID = "correlation_magnitude"
	TestPercentGood          TestID = "percent_good"
	TestCurrentSpeed         TestID = "current_speed"
	TestCurrentDirection     TestID = "current_direction"
	TestHorizontalVelocity   TestID = "horizontal_velocity"
	TestVerticalVelocity     TestID = "vertical_velocity"
	TestErrorVelocity        TestID = "error_velocity"
	TestStuckSensor          TestID = "stuck_sensor"
	TestEchoIntensity        TestID = "echo_intensity"
	TestRangeDropOff         TestID = "range_drop_off"
	TestSpeedGradient        TestID = "current_speed_gradient"
)

// ScalarTestIDs lists the tests that produce one flag per ensemble.
var ScalarTestIDs = []TestID{
	TestBatteryFlag, TestChecksum, TestBIT, TestOrientation,
	TestSoundSpeed, TestNoiseFloor, TestSignalStrength,
	TestSignalToNoise, TestStuckSensor,
}

// BinnedTestIDs lists the tests that produce one flag per windowed bin.
var BinnedTestIDs = []TestID{
	TestCorrelationMagnitude, TestPercentGood, TestCurrentSpeed,
	TestCurrentDirection, TestHorizontalVelocity, TestVerticalVelocity,
	TestErrorVelocity, TestEchoIntensity, TestRangeDropOff,
	TestSpeedGradient,
}

// EnsembleReport is the full battery output for one ensemble: the
// cached bottom statistics plus every test's flags keyed by TestID.
// Error carries a per-ensemble failure in batch mode so one broken
// ensemble never aborts the rest of a deployment.
type EnsembleReport struct {
	EnsembleNumber int       `json:"ensemble_number"`
	Timestamp      time.Time `json:"timestamp,omitzero"`

	Bottom BottomStats       `json:"bottom_stats"`
	Scalar map[TestID]Flag   `json:"scalar_flags,omitempty"`
	Binned map[TestID][]Flag `json:"binned_flags,omitempty"`

	// Speed is the derived current-speed profile over the windowed
	// bins, index-aligned with the binned flag outputs.
	Speed []float64 `json:"current_speed_cms,omitempty"`

	Error string `json:"error,omitempty"`
}

// WorstBinFlag returns the most severe graded flag across all binned
// tests for the given windowed bin index, or NoTest when the bin is
// outside every test's output.
func (r *EnsembleReport) WorstBinFlag(bin int) Flag {
	worst := FlagNoTest
	for _, flags := range r.Binned {
		if bin >= len(flags) {
			continue
		}
		f := flags[bin]
		if !f.Graded() {
			continue
		}
		if worst == FlagNoTest || f.Worse(worst) {
			worst = f
		}
	}
	return worst
}

// RunAll executes the complete battery against the i-th ensemble and
// assembles its report.
func (s *Session) RunAll(i int) (*EnsembleReport, error) {
	if i < 0 || i >= len(s.ensembles) {
		return nil, fmt.Errorf("ensemble index %d out of range [0,%d)", i, len(s.ensembles))
	}
	e := s.ensembles[i]

	report := &EnsembleReport{
		EnsembleNumber: e.Number,
		Timestamp:      e.Timestamp,
		Bottom:         s.bottom[i],
		Scalar: map[TestID]Flag{
			TestBatteryFlag:    BatteryFlagTest(),
			TestChecksum:       ChecksumTest(),
			TestBIT:            BITTest(e.BITResult),
			TestOrientation:    OrientationTest(e.Pitch, e.Roll, s.thresholds.MaxPitch, s.thresholds.MaxRoll),
			TestSoundSpeed:     SoundSpeedTest(e.SoundSpeed, s.thresholds.SoundSpeedMin, s.thresholds.SoundSpeedMax),
			TestNoiseFloor:     NoiseFloorTest(),
			TestSignalStrength: SignalStrengthTest(),
			TestSignalToNoise:  SignalToNoiseTest(),
			TestStuckSensor:    StuckSensorTest(),
		},
		Binned: make(map[TestID][]Flag, len(BinnedTestIDs)),
	}

	n := s.window(i)
	report.Binned[TestCorrelationMagnitude] = CorrelationMagnitudeTest(
		e.correlations(n), s.thresholds.CorrelationGood, s.thresholds.CorrelationSuspect)

	oneBad := make([]int, n)
	allGood := make([]int, n)
	u := make([]float64, n)
	v := make([]float64, n)
	w := make([]float64, n)
	ev := make([]float64, n)
	for b := 0; b < n; b++ {
		oneBad[b] = e.Bins[b].PercentGood[2]
		allGood[b] = e.Bins[b].PercentGood[3]
		u[b] = e.Bins[b].U
		v[b] = e.Bins[b].V
		w[b] = e.Bins[b].W
		ev[b] = e.Bins[b].ErrVel
	}

	pgFlags, err := PercentGoodTest(oneBad, allGood, s.thresholds.PercentGoodMin, s.thresholds.PercentBadMax)
	if err != nil {
		return nil, fmt.Errorf("ensemble %d: %w", e.Number, err)
	}
	report.Binned[TestPercentGood] = pgFlags

	hvFlags, err := HorizontalVelocityTest(u, v, s.thresholds.MaxUVelocity, s.thresholds.MaxVVelocity)
	if err != nil {
		return nil, fmt.Errorf("ensemble %d: %w", e.Number, err)
	}
	report.Binned[TestHorizontalVelocity] = hvFlags

	report.Binned[TestCurrentSpeed] = CurrentSpeedTest(s.speed[i][:n], s.thresholds.MaxCurrentSpeed)
	report.Binned[TestCurrentDirection] = CurrentDirectionTest(s.direction[i][:n])
	report.Binned[TestVerticalVelocity] = VerticalVelocityTest(w, s.thresholds.MaxWVelocity)
	report.Binned[TestErrorVelocity] = ErrorVelocityTest(ev, s.thresholds.SuspectErrVel, s.thresholds.BadErrVel)
	report.Binned[TestEchoIntensity] = EchoIntensityTest(e.echoIntensities(n), s.thresholds.EchoIntensityTolerance)
	report.Binned[TestRangeDropOff] = RangeDropOffTest(e.echoIntensities(n), s.thresholds.RangeDropOffLimit)
	report.Binned[TestSpeedGradient] = CurrentSpeedGradientTest(s.speed[i][:n], s.thresholds.SpeedGradientMax)
	report.Speed = append([]float64(nil), s.speed[i][:n]...)

	return report, nil
}

// RunReports executes the complete battery against every ensemble in
// the session, in order.
func (s *Session) RunReports() ([]*EnsembleReport, error) {
	reports := make([]*EnsembleReport, len(s.ensembles))
	for i := range s.ensembles {
		r, err := s.RunAll(i)
		if err != nil {
			return nil, err
		}
		reports[i] = r
	}
	return reports, nil
}
