package adcp

import (
	"fmt"
	"time"
)

// PercentGoodFields is the number of percent-good counters a profiler
// reports per depth cell. For a four-beam instrument in earth
// coordinates they are: three-beam solutions, transformations rejected,
// more-than-one-beam bad, and all-four-beams good.
const PercentGoodFields = 4

// BinData holds one depth cell's readings. Velocities are in cm/s after
// adapter-side unit conversion; correlation and echo intensity are raw
// instrument counts; the percent-good counters are percentages.
type BinData struct {
	U      float64 `json:"u"`
	V      float64 `json:"v"`
	W      float64 `json:"w"`
	ErrVel float64 `json:"error_velocity"`

	Correlation   []int                  `json:"correlation"`
	EchoIntensity []int                  `json:"echo_intensity"`
	PercentGood   [PercentGoodFields]int `json:"percent_good"`
}

// Ensemble is the canonical representation of one complete multi-beam,
// multi-bin sample from a current profiler. It is constructed once from
// a decoded instrument record and never mutated; all QC reads it
// concurrently without locking.
type Ensemble struct {
	Number    int       `json:"ensemble_number"`
	Timestamp time.Time `json:"timestamp"`

	// Geometry and configuration. Distances are raw instrument
	// centimetres; the bottom tracker converts to metres.
	BeamCount       int     `json:"beam_count"`
	BeamAngle       float64 `json:"beam_angle_deg"`
	Bin1Distance    float64 `json:"bin_1_distance_cm"`
	DepthCellLength float64 `json:"depth_cell_length_cm"`

	// Attitude and environment scalars.
	Pitch           float64 `json:"pitch_deg"`
	Roll            float64 `json:"roll_deg"`
	SoundSpeed      float64 `json:"sound_speed_ms"`
	BITResult       string  `json:"bit_result"`
	TransducerDepth float64 `json:"transducer_depth_cm"`

	Bins []BinData `json:"bins"`
}

// Validate checks the structural invariants of the ensemble: a positive
// beam count and, for every bin, correlation and echo-intensity arrays
// of exactly BeamCount entries. Violations identify the offending field
// and bin; sibling arrays are never silently truncated to the shortest.
func (e *Ensemble) Validate() error {
	if e.BeamCount <= 0 {
		return fmt.Errorf("ensemble %d: beam_count must be positive, got %d", e.Number, e.BeamCount)
	}
	for i, bin := range e.Bins {
		if got := len(bin.Correlation); got != e.BeamCount {
			return fmt.Errorf("ensemble %d bin %d: correlation has %d beams, want %d",
				e.Number, i, got, e.BeamCount)
		}
		if got := len(bin.EchoIntensity); got != e.BeamCount {
			return fmt.Errorf("ensemble %d bin %d: echo_intensity has %d beams, want %d",
				e.Number, i, got, e.BeamCount)
		}
	}
	return nil
}

// BinCount returns the number of depth cells in the ensemble.
func (e *Ensemble) BinCount() int { return len(e.Bins) }

// echoIntensities returns the per-bin per-beam echo intensity matrix
// for the first n bins. n is clamped to the available bin count.
func (e *Ensemble) echoIntensities(n int) [][]int {
	n = clampWindow(n, len(e.Bins))
	out := make([][]int, n)
	for i := 0; i < n; i++ {
		out[i] = e.Bins[i].EchoIntensity
	}
	return out
}

// correlations returns the per-bin per-beam correlation matrix for the
// first n bins.
func (e *Ensemble) correlations(n int) [][]int {
	n = clampWindow(n, len(e.Bins))
	out := make([][]int, n)
	for i := 0; i < n; i++ {
		out[i] = e.Bins[i].Correlation
	}
	return out
}

// clampWindow bounds a window size to [0, limit].
func clampWindow(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}
