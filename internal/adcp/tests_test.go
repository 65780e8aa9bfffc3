package adcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarTests(t *testing.T) {
	t.Parallel()

	t.Run("not performable", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, FlagNoTest, BatteryFlagTest())
		assert.Equal(t, FlagNoTest, NoiseFloorTest())
		assert.Equal(t, FlagNoTest, SignalStrengthTest())
		assert.Equal(t, FlagNoTest, SignalToNoiseTest())
		assert.Equal(t, FlagNoTest, StuckSensorTest())
	})

	t.Run("checksum", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, FlagGood, ChecksumTest())
	})

	t.Run("bit", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, FlagGood, BITTest("0"))
		assert.Equal(t, FlagBad, BITTest("1"))
		assert.Equal(t, FlagBad, BITTest(""))
	})
}

func TestOrientationTest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		pitch, roll float64
		want        Flag
	}{
		{"level", 0, 0, FlagGood},
		{"within limits", 19.9, -19.9, FlagGood},
		{"pitch at limit", 20, 0, FlagBad},
		{"roll at limit", 0, -20, FlagBad},
		{"pitch exceeded", 25, 0, FlagBad},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, OrientationTest(tc.pitch, tc.roll, 20, 20))
		})
	}
}

func TestSoundSpeedTest(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FlagGood, SoundSpeedTest(1500, 1400, 1600))
	assert.Equal(t, FlagGood, SoundSpeedTest(1400, 1400, 1600))
	assert.Equal(t, FlagGood, SoundSpeedTest(1600, 1400, 1600))
	assert.Equal(t, FlagBad, SoundSpeedTest(1399.9, 1400, 1600))
	assert.Equal(t, FlagBad, SoundSpeedTest(1600.1, 1400, 1600))
}

func TestCorrelationMagnitudeTest(t *testing.T) {
	t.Parallel()

	correlation := [][]int{
		{120, 120, 120, 120}, // all beams good
		{120, 120, 70, 70},   // two good, two suspect
		{120, 120, 120, 10},  // three good, one below suspect
		{10, 10, 10, 10},     // nothing usable
		{115, 115, 115, 115}, // good boundary is inclusive
		{64, 64, 64, 64},     // suspect boundary is inclusive
	}
	want := []Flag{FlagGood, FlagSuspect, FlagSuspect, FlagBad, FlagGood, FlagSuspect}
	assert.Equal(t, want, CorrelationMagnitudeTest(correlation, 115, 64))

	// Classification is pure: rerunning the same input cannot drift.
	assert.Equal(t, want, CorrelationMagnitudeTest(correlation, 115, 64))
}

func TestPercentGoodTest(t *testing.T) {
	t.Parallel()

	// Sums of 21, 17 and 19 straddle the default thresholds.
	flags, err := PercentGoodTest([]int{5, 5, 5}, []int{16, 12, 14}, 21, 17)
	require.NoError(t, err)
	assert.Equal(t, []Flag{FlagGood, FlagBad, FlagSuspect}, flags)

	_, err = PercentGoodTest([]int{5, 5}, []int{16}, 21, 17)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "percent_good")
}

func TestCurrentSpeedTest(t *testing.T) {
	t.Parallel()

	flags := CurrentSpeedTest([]float64{0, 150, 150.1, 400}, 150)
	assert.Equal(t, []Flag{FlagGood, FlagGood, FlagBad, FlagBad}, flags)
}

func TestCurrentDirectionTest(t *testing.T) {
	t.Parallel()

	t.Run("negative directions wrap once", func(t *testing.T) {
		t.Parallel()
		flags := CurrentDirectionTest([]float64{-10, -180, 0, 350})
		assert.Equal(t, []Flag{FlagGood, FlagGood, FlagGood, FlagGood}, flags)
	})

	t.Run("above full circle", func(t *testing.T) {
		t.Parallel()
		flags := CurrentDirectionTest([]float64{400})
		assert.Equal(t, []Flag{FlagBad}, flags)
	})

	t.Run("deeply negative stays bad", func(t *testing.T) {
		t.Parallel()
		// A single +360 correction leaves -370 at -10, which the final
		// comparison still accepts. See the note on CurrentDirectionTest.
		flags := CurrentDirectionTest([]float64{-370})
		assert.Equal(t, []Flag{FlagGood}, flags)
	})
}

func TestHorizontalVelocityTest(t *testing.T) {
	t.Parallel()

	u := []float64{10, -151, 10, 150}
	v := []float64{10, 10, 151, -150}
	flags, err := HorizontalVelocityTest(u, v, 150, 150)
	require.NoError(t, err)
	assert.Equal(t, []Flag{FlagGood, FlagBad, FlagBad, FlagGood}, flags)

	_, err = HorizontalVelocityTest(u, v[:2], 150, 150)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "horizontal_velocity")
}

func TestVerticalVelocityTest(t *testing.T) {
	t.Parallel()

	flags := VerticalVelocityTest([]float64{0, 15, -15, 16, -16}, 15)
	assert.Equal(t, []Flag{FlagGood, FlagGood, FlagGood, FlagBad, FlagBad}, flags)
}

func TestErrorVelocityTest(t *testing.T) {
	t.Parallel()

	flags := ErrorVelocityTest([]float64{0, 2.5, 2.6, 5.1, 5.2, 10}, 2.6, 5.2)
	assert.Equal(t, []Flag{FlagGood, FlagGood, FlagSuspect, FlagSuspect, FlagBad, FlagBad}, flags)
}

func TestEchoIntensityTest(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, EchoIntensityTest([][]int{}, 2))
	})

	t.Run("leading bin is good", func(t *testing.T) {
		t.Parallel()
		flags := EchoIntensityTest([][]int{{130, 130, 130, 130}}, 2)
		assert.Equal(t, []Flag{FlagGood}, flags)
	})

	t.Run("failed drops counted per beam", func(t *testing.T) {
		t.Parallel()
		echo := [][]int{
			{130, 130, 130, 130},
			{128, 127, 126, 125}, // every beam drops by >= 2
			{126, 125, 126, 123}, // beam 2 holds steady
			{124, 123, 126, 122}, // beams 2 and 3 fail to drop
		}
		flags := EchoIntensityTest(echo, 2)
		assert.Equal(t, []Flag{FlagGood, FlagGood, FlagSuspect, FlagBad}, flags)
	})
}

func TestRangeDropOffTest(t *testing.T) {
	t.Parallel()

	echo := [][]int{
		{130, 130, 130, 130},
		{59, 130, 130, 130}, // one weak beam is tolerated
		{59, 59, 130, 130},  // two weak beams is the noise floor
		{60, 60, 60, 60},    // the limit itself is still in range
	}
	flags := RangeDropOffTest(echo, 60)
	assert.Equal(t, []Flag{FlagGood, FlagGood, FlagBad, FlagGood}, flags)
}

func TestCurrentSpeedGradientTest(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, CurrentSpeedGradientTest(nil, 6))
	})

	t.Run("gradient limit inclusive", func(t *testing.T) {
		t.Parallel()
		flags := CurrentSpeedGradientTest([]float64{10, 16, 10, 17}, 6)
		assert.Equal(t, []Flag{FlagGood, FlagGood, FlagGood, FlagBad}, flags)
	})
}
