package adcp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coastal-data/currents.report/internal/adcp"
	"github.com/coastal-data/currents.report/internal/testutil"
)

func TestRunAll(t *testing.T) {
	t.Parallel()

	e := testutil.EnsembleWithJump(35, 20, 40)
	s, err := adcp.NewSession([]*adcp.Ensemble{e}, 1040, nil)
	require.NoError(t, err)

	report, err := s.RunAll(0)
	require.NoError(t, err)

	assert.Equal(t, e.Number, report.EnsembleNumber)
	assert.Equal(t, e.Timestamp, report.Timestamp)
	assert.Equal(t, s.BottomStats(0), report.Bottom)
	assert.Empty(t, report.Error)

	// Every test in the battery appears exactly once.
	require.Len(t, report.Scalar, len(adcp.ScalarTestIDs))
	for _, id := range adcp.ScalarTestIDs {
		assert.Contains(t, report.Scalar, id)
	}
	require.Len(t, report.Binned, len(adcp.BinnedTestIDs))
	for _, id := range adcp.BinnedTestIDs {
		assert.Len(t, report.Binned[id], 28, "test %s", id)
	}
	assert.Len(t, report.Speed, 28)

	assert.Equal(t, adcp.FlagGood, report.Scalar[adcp.TestOrientation])
	assert.Equal(t, adcp.FlagNoTest, report.Scalar[adcp.TestBatteryFlag])
	for _, f := range report.Binned[adcp.TestCurrentSpeed] {
		assert.Equal(t, adcp.FlagGood, f)
	}
}

func TestRunAllIndexOutOfRange(t *testing.T) {
	t.Parallel()

	s, err := adcp.NewSession([]*adcp.Ensemble{testutil.FlatEnsemble(5)}, 1040, nil)
	require.NoError(t, err)

	_, err = s.RunAll(1)
	require.Error(t, err)
	_, err = s.RunAll(-1)
	require.Error(t, err)
}

func TestRunReports(t *testing.T) {
	t.Parallel()

	ensembles := []*adcp.Ensemble{
		testutil.FlatEnsemble(25),
		testutil.EnsembleWithJump(25, 20, 40),
	}
	ensembles[1].Number = 2

	s, err := adcp.NewSession(ensembles, 1040, nil)
	require.NoError(t, err)

	reports, err := s.RunReports()
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, 1, reports[0].EnsembleNumber)
	assert.Equal(t, 2, reports[1].EnsembleNumber)
}

func TestWorstBinFlag(t *testing.T) {
	t.Parallel()

	report := &adcp.EnsembleReport{
		Binned: map[adcp.TestID][]adcp.Flag{
			adcp.TestCurrentSpeed:  {adcp.FlagGood, adcp.FlagGood, adcp.FlagSuspect},
			adcp.TestEchoIntensity: {adcp.FlagGood, adcp.FlagBad},
		},
	}

	assert.Equal(t, adcp.FlagGood, report.WorstBinFlag(0))
	assert.Equal(t, adcp.FlagBad, report.WorstBinFlag(1))
	assert.Equal(t, adcp.FlagSuspect, report.WorstBinFlag(2))
	assert.Equal(t, adcp.FlagNoTest, report.WorstBinFlag(5))
}
