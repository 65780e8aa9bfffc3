package adcp

import (
	"encoding/json"

	"gonum.org/v1/gonum/stat"
)

// RunStatistics holds aggregate statistics for one QC run over a
// deployment's ensemble sequence. It is JSON-serialisable for database
// storage alongside the per-ensemble reports.
type RunStatistics struct {
	EnsembleCount int `json:"ensemble_count"`
	FailedCount   int `json:"failed_count"`

	// Flag distribution across every binned test output.
	FlagCounts   map[string]int     `json:"flag_counts"`
	GoodRatio    float64            `json:"good_ratio"`
	SuspectRatio float64            `json:"suspect_ratio"`
	BadRatio     float64            `json:"bad_ratio"`
	PerTestBad   map[TestID]float64 `json:"per_test_bad_ratio"`

	// Speed over bins whose current-speed flag is good, cm/s.
	MeanGoodSpeed   float64 `json:"mean_good_speed_cms"`
	StdDevGoodSpeed float64 `json:"stddev_good_speed_cms"`

	// Bottom-tracking coverage.
	AvgBottomBin      float64 `json:"avg_bottom_bin"`
	AvgLastGoodBins   float64 `json:"avg_last_good_bins"`
	UnusableEnsembles int     `json:"unusable_ensembles"`
}

// ComputeRunStatistics aggregates a batch of reports. Speed metrics use
// each report's windowed speed profile, which RunAll populates.
func ComputeRunStatistics(reports []*EnsembleReport) *RunStatistics {
	stats := &RunStatistics{
		EnsembleCount: len(reports),
		FlagCounts:    make(map[string]int),
		PerTestBad:    make(map[TestID]float64),
	}
	if len(reports) == 0 {
		return stats
	}

	var graded, good, suspect, bad int
	perTestTotal := make(map[TestID]int)
	perTestBad := make(map[TestID]int)
	var goodSpeeds []float64
	var bottomBins, lastGood int

	for _, report := range reports {
		if report == nil {
			continue
		}
		if report.Error != "" {
			stats.FailedCount++
			continue
		}

		bottomBins += report.Bottom.BottomBin
		lastGood += report.Bottom.LastGoodCounter
		if !report.Bottom.Usable() {
			stats.UnusableEnsembles++
		}

		for id, flags := range report.Binned {
			for bin, f := range flags {
				stats.FlagCounts[f.String()]++
				perTestTotal[id]++
				if f.Graded() {
					graded++
					switch f {
					case FlagGood:
						good++
					case FlagSuspect:
						suspect++
					case FlagBad:
						bad++
						perTestBad[id]++
					}
				}
				if id == TestCurrentSpeed && f == FlagGood && bin < len(report.Speed) {
					goodSpeeds = append(goodSpeeds, report.Speed[bin])
				}
			}
		}
		for _, f := range report.Scalar {
			stats.FlagCounts[f.String()]++
		}
	}

	if graded > 0 {
		stats.GoodRatio = float64(good) / float64(graded)
		stats.SuspectRatio = float64(suspect) / float64(graded)
		stats.BadRatio = float64(bad) / float64(graded)
	}
	for id, total := range perTestTotal {
		if total > 0 {
			stats.PerTestBad[id] = float64(perTestBad[id]) / float64(total)
		}
	}

	if len(goodSpeeds) > 0 {
		stats.MeanGoodSpeed = stat.Mean(goodSpeeds, nil)
		if len(goodSpeeds) > 1 {
			stats.StdDevGoodSpeed = stat.StdDev(goodSpeeds, nil)
		}
	}

	succeeded := stats.EnsembleCount - stats.FailedCount
	if succeeded > 0 {
		stats.AvgBottomBin = float64(bottomBins) / float64(succeeded)
		stats.AvgLastGoodBins = float64(lastGood) / float64(succeeded)
	}

	return stats
}

// ToJSON serialises the statistics for database storage.
func (rs *RunStatistics) ToJSON() (string, error) {
	data, err := json.Marshal(rs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseRunStatistics deserialises statistics stored by ToJSON.
func ParseRunStatistics(jsonStr string) (*RunStatistics, error) {
	var stats RunStatistics
	if err := json.Unmarshal([]byte(jsonStr), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
