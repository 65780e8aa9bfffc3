package adcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsReport(num int) *EnsembleReport {
	return &EnsembleReport{
		EnsembleNumber: num,
		Bottom: BottomStats{
			BottomBin:       20,
			LastGoodBin:     29,
			LastGoodCounter: 28,
		},
		Scalar: map[TestID]Flag{
			TestOrientation: FlagGood,
			TestSoundSpeed:  FlagGood,
		},
		Binned: map[TestID][]Flag{
			TestCurrentSpeed:  {FlagGood, FlagGood, FlagBad},
			TestEchoIntensity: {FlagGood, FlagSuspect, FlagGood},
		},
		Speed: []float64{10, 20, 300},
	}
}

func TestComputeRunStatisticsEmpty(t *testing.T) {
	t.Parallel()

	stats := ComputeRunStatistics(nil)
	assert.Equal(t, 0, stats.EnsembleCount)
	assert.Empty(t, stats.FlagCounts)
}

func TestComputeRunStatistics(t *testing.T) {
	t.Parallel()

	reports := []*EnsembleReport{
		statsReport(1),
		statsReport(2),
		{EnsembleNumber: 3, Error: "beam count mismatch"},
	}
	stats := ComputeRunStatistics(reports)

	assert.Equal(t, 3, stats.EnsembleCount)
	assert.Equal(t, 1, stats.FailedCount)
	assert.Equal(t, 0, stats.UnusableEnsembles)

	// Per report: 4 good, 1 suspect, 1 bad across the binned tests,
	// plus 2 good scalar flags.
	assert.Equal(t, 12, stats.FlagCounts[FlagGood.String()])
	assert.Equal(t, 2, stats.FlagCounts[FlagSuspect.String()])
	assert.Equal(t, 2, stats.FlagCounts[FlagBad.String()])

	// Ratios span the 12 graded binned flags only.
	assert.InDelta(t, 8.0/12, stats.GoodRatio, 1e-9)
	assert.InDelta(t, 2.0/12, stats.SuspectRatio, 1e-9)
	assert.InDelta(t, 2.0/12, stats.BadRatio, 1e-9)
	assert.InDelta(t, 2.0/6, stats.PerTestBad[TestCurrentSpeed], 1e-9)
	assert.InDelta(t, 0, stats.PerTestBad[TestEchoIntensity], 1e-9)

	// Speed metrics use only the bins whose current-speed flag is good.
	assert.InDelta(t, 15, stats.MeanGoodSpeed, 1e-9)
	assert.Greater(t, stats.StdDevGoodSpeed, 0.0)

	// Failed ensembles are excluded from the bottom coverage averages.
	assert.InDelta(t, 20, stats.AvgBottomBin, 1e-9)
	assert.InDelta(t, 28, stats.AvgLastGoodBins, 1e-9)
}

func TestRunStatisticsJSONRoundTrip(t *testing.T) {
	t.Parallel()

	stats := ComputeRunStatistics([]*EnsembleReport{statsReport(1)})
	jsonStr, err := stats.ToJSON()
	require.NoError(t, err)

	parsed, err := ParseRunStatistics(jsonStr)
	require.NoError(t, err)
	assert.Equal(t, stats, parsed)

	_, err = ParseRunStatistics("{not json")
	require.Error(t, err)
}
