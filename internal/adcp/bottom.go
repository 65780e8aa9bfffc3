package adcp

import "math"

// BottomStats locates the seabed (or a comparably strong reflector) in
// one ensemble's echo-intensity profile and derives the window of bins
// that are free of sidelobe contamination. It is computed once per
// ensemble at session construction and cached; every windowed test
// reads bins strictly below LastGoodCounter.
type BottomStats struct {
	// BottomBin is the count of bins integrated before the first
	// echo-intensity jump on two or more beams.
	BottomBin int `json:"bottom_bin"`
	// RangeToBottom is the slant range to the detected reflector in
	// metres, including the transducer depth offset.
	RangeToBottom float64 `json:"range_to_bottom_m"`
	// SideLobeStart is the bin index where seabed sidelobe returns
	// begin to contaminate the water-column data.
	SideLobeStart int `json:"side_lobe_start"`
	// LastGoodBin is the last bin unaffected by sidelobe returns.
	LastGoodBin int `json:"last_good_bin"`
	// LastGoodCounter is the exclusive slice bound for windowed tests,
	// clamped to a minimum of 0.
	LastGoodCounter int `json:"last_good_counter"`
}

// Usable reports whether the ensemble has any bins inside the
// sidelobe-free window. When false, every windowed test yields an empty
// flag sequence.
func (b BottomStats) Usable() bool { return b.LastGoodCounter > 0 }

// ComputeBottomStats scans adjacent bin pairs from the transducer
// outward. For each pair it counts beams whose absolute echo-intensity
// difference exceeds tolerance; fewer than two exceeding beams means no
// reflector yet and the scan advances, two or more means the bottom (or
// a strong mid-column reflector) has been reached and the scan stops.
// transducerDepth is in raw instrument centimetres, matching the
// ensemble's Bin1Distance.
//
// If no jump is found the whole profile is in range and BottomBin equals
// the bin count. With fewer than two bins there are no pairs to compare
// and BottomBin degenerates to 1.
func ComputeBottomStats(e *Ensemble, transducerDepth float64, tolerance int) BottomStats {
	bottomBin := 1
	for i := 1; i < len(e.Bins); i++ {
		prev, curr := e.Bins[i-1].EchoIntensity, e.Bins[i].EchoIntensity
		exceeding := 0
		for beam := range prev {
			diff := curr[beam] - prev[beam]
			if diff < 0 {
				diff = -diff
			}
			if diff > tolerance {
				exceeding++
			}
		}
		if exceeding >= 2 {
			break
		}
		bottomBin++
	}

	bin1DistanceM := (e.Bin1Distance + transducerDepth) / 100
	rangeToBottom := float64(bottomBin)*(e.DepthCellLength/100) + bin1DistanceM
	sideLobeStart := int(math.Floor(math.Cos(e.BeamAngle*math.Pi/180) * rangeToBottom))
	lastGoodBin := sideLobeStart - 1

	// A jump at bin 1 would drive the counter negative; downstream
	// windows require a floor at 0.
	lastGoodCounter := lastGoodBin - 1
	if lastGoodCounter < 0 {
		lastGoodCounter = 0
	}

	return BottomStats{
		BottomBin:       bottomBin,
		RangeToBottom:   rangeToBottom,
		SideLobeStart:   sideLobeStart,
		LastGoodBin:     lastGoodBin,
		LastGoodCounter: lastGoodCounter,
	}
}
