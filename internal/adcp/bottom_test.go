package adcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// testEnsemble builds a four-beam ensemble with the given echo
// intensity per bin (applied to all beams).
func testEnsemble(echo []int) *Ensemble {
	e := &Ensemble{
		Number:          7,
		BeamCount:       4,
		BeamAngle:       20,
		Bin1Distance:    176,
		DepthCellLength: 100,
		BITResult:       "0",
		SoundSpeed:      1500,
		Bins:            make([]BinData, len(echo)),
	}
	for i, v := range echo {
		e.Bins[i] = BinData{
			Correlation:   []int{120, 120, 120, 120},
			EchoIntensity: []int{v, v, v, v},
			PercentGood:   [PercentGoodFields]int{0, 0, 5, 90},
		}
	}
	return e
}

func TestComputeBottomStatsNoJump(t *testing.T) {
	t.Parallel()

	// Flat profile: every bin is in range.
	e := testEnsemble([]int{130, 130, 130, 130, 130})
	stats := ComputeBottomStats(e, 1040, 30)
	assert.Equal(t, 5, stats.BottomBin)
	assert.True(t, stats.Usable())
}

func TestComputeBottomStatsJumpDetected(t *testing.T) {
	t.Parallel()

	// 25 bins, flat through bin 20, then a 40-count jump on all beams.
	echo := make([]int, 25)
	for i := range echo {
		echo[i] = 130
		if i >= 20 {
			echo[i] = 170
		}
	}
	e := testEnsemble(echo)
	stats := ComputeBottomStats(e, 1040, 30)
	assert.Equal(t, 20, stats.BottomBin)

	// Geometry: (176+1040)/100 = 12.16 m to bin 1, 20 cells of 1 m.
	assert.InDelta(t, 32.16, stats.RangeToBottom, 1e-9)
	assert.Equal(t, 30, stats.SideLobeStart) // floor(cos(20°) * 32.16)
	assert.Equal(t, 29, stats.LastGoodBin)
	assert.Equal(t, 28, stats.LastGoodCounter)
}

func TestComputeBottomStatsScanIsMonotonic(t *testing.T) {
	t.Parallel()

	// A strong reflector mid-column stops the scan; bins past it never
	// extend the bottom bin again even though the profile flattens out.
	echo := []int{130, 130, 130, 200, 130, 130, 130, 130}
	e := testEnsemble(echo)
	stats := ComputeBottomStats(e, 1040, 30)
	assert.Equal(t, 3, stats.BottomBin)

	// Growing the profile below the reflector cannot move the bottom.
	longer := testEnsemble(append(echo, 130, 130, 130))
	assert.Equal(t, stats.BottomBin, ComputeBottomStats(longer, 1040, 30).BottomBin)
}

func TestComputeBottomStatsRequiresTwoBeams(t *testing.T) {
	t.Parallel()

	// A jump on a single beam is noise, not the seabed.
	e := testEnsemble([]int{130, 130, 130, 130})
	e.Bins[2].EchoIntensity = []int{200, 130, 130, 130}
	stats := ComputeBottomStats(e, 1040, 30)
	assert.Equal(t, 4, stats.BottomBin)

	// The same jump on two beams stops the scan.
	e.Bins[2].EchoIntensity = []int{200, 200, 130, 130}
	stats = ComputeBottomStats(e, 1040, 30)
	assert.Equal(t, 2, stats.BottomBin)
}

func TestComputeBottomStatsDegenerateProfiles(t *testing.T) {
	t.Parallel()

	t.Run("single bin", func(t *testing.T) {
		t.Parallel()
		stats := ComputeBottomStats(testEnsemble([]int{130}), 0, 30)
		assert.Equal(t, 1, stats.BottomBin)
	})

	t.Run("no bins", func(t *testing.T) {
		t.Parallel()
		stats := ComputeBottomStats(testEnsemble(nil), 0, 30)
		assert.Equal(t, 1, stats.BottomBin)
	})

	t.Run("counter clamped to zero", func(t *testing.T) {
		t.Parallel()
		// Shallow geometry pushes the sidelobe boundary to bin 1; the
		// counter must clamp at 0 instead of going negative.
		e := testEnsemble([]int{130, 170, 170})
		e.Bin1Distance = 0
		e.DepthCellLength = 50
		stats := ComputeBottomStats(e, 0, 30)
		assert.Equal(t, 1, stats.BottomBin)
		assert.GreaterOrEqual(t, stats.LastGoodCounter, 0)
		assert.False(t, stats.Usable())
	})
}
