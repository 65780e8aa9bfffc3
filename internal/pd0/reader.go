// Package pd0 adapts decoded profiler ensemble records to the QC
// core's data model.
//
// Decoding the instrument's raw binary stream is an upstream concern.
// This package consumes the decoder's JSON output, one record or an
// array of records in the instrument's native units, and performs the
// unit conversion the core expects (velocities to cm/s, attitude to
// degrees, transducer depth to centimetres).
package pd0

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/coastal-data/currents.report/internal/adcp"
	"github.com/coastal-data/currents.report/internal/units"
)

// BinRecord is one depth cell as emitted by the decoder: velocities in
// mm/s (u, v, w, error), correlation and echo intensity in raw counts,
// percent-good counters as percentages.
type BinRecord struct {
	Velocity      [4]float64 `json:"velocity_mmps"`
	Correlation   []int      `json:"correlation"`
	EchoIntensity []int      `json:"echo_intensity"`
	PercentGood   [4]int     `json:"percent_good"`
}

// Record is one decoded ensemble in native instrument units.
type Record struct {
	EnsembleNumber  int         `json:"ensemble_number"`
	Timestamp       time.Time   `json:"timestamp"`
	BeamCount       int         `json:"beam_count"`
	BeamAngle       float64     `json:"beam_angle_deg"`
	Bin1Distance    float64     `json:"bin_1_distance_cm"`
	DepthCellLength float64     `json:"depth_cell_length_cm"`
	Pitch           float64     `json:"pitch_centideg"`
	Roll            float64     `json:"roll_centideg"`
	SoundSpeed      float64     `json:"sound_speed_ms"`
	BITResult       string      `json:"bit_result"`
	TransducerDepth float64     `json:"transducer_depth_dm"`
	Bins            []BinRecord `json:"bins"`
}

// Convert maps a decoded record onto the core's ensemble model,
// applying native-to-core unit conversions. The returned ensemble is
// validated.
func Convert(rec *Record) (*adcp.Ensemble, error) {
	e := &adcp.Ensemble{
		Number:          rec.EnsembleNumber,
		Timestamp:       rec.Timestamp,
		BeamCount:       rec.BeamCount,
		BeamAngle:       rec.BeamAngle,
		Bin1Distance:    rec.Bin1Distance,
		DepthCellLength: rec.DepthCellLength,
		Pitch:           units.CentidegreesToDegrees(rec.Pitch),
		Roll:            units.CentidegreesToDegrees(rec.Roll),
		SoundSpeed:      rec.SoundSpeed,
		BITResult:       rec.BITResult,
		TransducerDepth: units.DecimetresToCentimetres(rec.TransducerDepth),
		Bins:            make([]adcp.BinData, len(rec.Bins)),
	}
	for i, bin := range rec.Bins {
		e.Bins[i] = adcp.BinData{
			U:             units.MMPerSecToCMPerSec(bin.Velocity[0]),
			V:             units.MMPerSecToCMPerSec(bin.Velocity[1]),
			W:             units.MMPerSecToCMPerSec(bin.Velocity[2]),
			ErrVel:        units.MMPerSecToCMPerSec(bin.Velocity[3]),
			Correlation:   bin.Correlation,
			EchoIntensity: bin.EchoIntensity,
			PercentGood:   bin.PercentGood,
		}
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// ReadFile loads decoded ensemble records from a JSON file holding
// either a single record object or an array of records, and converts
// them to core ensembles in file order.
func ReadFile(path string) ([]*adcp.Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ensemble file: %w", err)
	}

	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		// Fall back to a single record object.
		var rec Record
		if objErr := json.Unmarshal(data, &rec); objErr != nil {
			return nil, fmt.Errorf("parsing ensemble file %s: %w", path, err)
		}
		records = []*Record{&rec}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ensemble file %s contains no records", path)
	}

	ensembles := make([]*adcp.Ensemble, 0, len(records))
	for i, rec := range records {
		e, err := Convert(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		ensembles = append(ensembles, e)
	}
	return ensembles, nil
}
