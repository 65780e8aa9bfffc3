// Package testutil provides shared test fixtures for the QC packages.
//
// The helpers build synthetic ensembles with controllable echo
// profiles, so bottom-tracking and windowing behaviour can be exercised
// without instrument data files.
package testutil

import (
	"time"

	"github.com/coastal-data/currents.report/internal/adcp"
)

// FlatEnsemble builds a four-beam ensemble with the given number of
// bins, uniform echo intensity, full correlation and percent-good
// counters, and calm velocities. Geometry matches a typical 20-degree
// workhorse deployment: bin 1 at 176 cm, 100 cm cells.
func FlatEnsemble(bins int) *adcp.Ensemble {
	e := &adcp.Ensemble{
		Number:          1,
		Timestamp:       time.Date(2014, 7, 8, 12, 0, 0, 0, time.UTC),
		BeamCount:       4,
		BeamAngle:       20,
		Bin1Distance:    176,
		DepthCellLength: 100,
		Pitch:           1.5,
		Roll:            -0.5,
		SoundSpeed:      1510,
		BITResult:       "0",
		Bins:            make([]adcp.BinData, bins),
	}
	for i := range e.Bins {
		e.Bins[i] = adcp.BinData{
			U:             10,
			V:             10,
			W:             1,
			ErrVel:        1,
			Correlation:   []int{120, 120, 120, 120},
			EchoIntensity: []int{130, 130, 130, 130},
			PercentGood:   [adcp.PercentGoodFields]int{0, 0, 5, 90},
		}
	}
	return e
}

// EnsembleWithJump builds on FlatEnsemble and injects an
// echo-intensity jump of the given size on every beam between
// jumpAfterBin and the next bin, simulating the seabed return.
func EnsembleWithJump(bins, jumpAfterBin, jumpSize int) *adcp.Ensemble {
	e := FlatEnsemble(bins)
	for i := jumpAfterBin; i < bins; i++ {
		base := e.Bins[i].EchoIntensity[0] + jumpSize
		e.Bins[i].EchoIntensity = []int{base, base, base, base}
	}
	return e
}
