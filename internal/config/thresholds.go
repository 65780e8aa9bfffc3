// Package config loads deployment-specific QC threshold overrides from
// JSON. Fields omitted from the file keep the stock QARTOD defaults, so
// partial configs are safe; a site that only needs a different
// current-speed ceiling overrides one key.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coastal-data/currents.report/internal/adcp"
)

// ThresholdConfig mirrors adcp.Thresholds with pointer fields so that
// absent keys are distinguishable from explicit zeroes.
type ThresholdConfig struct {
	MaxPitch *float64 `json:"max_pitch,omitempty"`
	MaxRoll  *float64 `json:"max_roll,omitempty"`

	SoundSpeedMin *float64 `json:"sound_speed_min,omitempty"`
	SoundSpeedMax *float64 `json:"sound_speed_max,omitempty"`

	CorrelationGood    *int `json:"correlation_good,omitempty"`
	CorrelationSuspect *int `json:"correlation_suspect,omitempty"`

	PercentGoodMin *int `json:"percent_good_min,omitempty"`
	PercentBadMax  *int `json:"percent_bad_max,omitempty"`

	MaxCurrentSpeed  *float64 `json:"max_current_speed,omitempty"`
	MaxUVelocity     *float64 `json:"max_u_velocity,omitempty"`
	MaxVVelocity     *float64 `json:"max_v_velocity,omitempty"`
	MaxWVelocity     *float64 `json:"max_w_velocity,omitempty"`
	SuspectErrVel    *float64 `json:"suspect_error_velocity,omitempty"`
	BadErrVel        *float64 `json:"bad_error_velocity,omitempty"`
	SpeedGradientMax *float64 `json:"speed_gradient_max,omitempty"`

	EchoIntensityTolerance *int `json:"echo_intensity_tolerance,omitempty"`
	RangeDropOffLimit      *int `json:"range_drop_off_limit,omitempty"`

	BottomTolerance *int `json:"bottom_tolerance,omitempty"`
}

// maxFileSize bounds threshold config files; anything larger is not a
// plausible override set.
const maxFileSize = 1 * 1024 * 1024

// Load reads a ThresholdConfig from a JSON file and resolves it against
// the defaults. The resolved set is validated before being returned.
func Load(path string) (adcp.Thresholds, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return adcp.Thresholds{}, err
	}
	return cfg.Resolve()
}

// LoadConfig reads a ThresholdConfig from a JSON file without resolving
// it, for callers that merge several override layers.
func LoadConfig(path string) (*ThresholdConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ThresholdConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return cfg, nil
}

// Resolve overlays the set fields onto adcp.DefaultThresholds and
// validates the result, so a config file cannot produce a physically
// inconsistent threshold set.
func (c *ThresholdConfig) Resolve() (adcp.Thresholds, error) {
	th := adcp.DefaultThresholds()
	if c == nil {
		return th, nil
	}

	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setFloat(&th.MaxPitch, c.MaxPitch)
	setFloat(&th.MaxRoll, c.MaxRoll)
	setFloat(&th.SoundSpeedMin, c.SoundSpeedMin)
	setFloat(&th.SoundSpeedMax, c.SoundSpeedMax)
	setInt(&th.CorrelationGood, c.CorrelationGood)
	setInt(&th.CorrelationSuspect, c.CorrelationSuspect)
	setInt(&th.PercentGoodMin, c.PercentGoodMin)
	setInt(&th.PercentBadMax, c.PercentBadMax)
	setFloat(&th.MaxCurrentSpeed, c.MaxCurrentSpeed)
	setFloat(&th.MaxUVelocity, c.MaxUVelocity)
	setFloat(&th.MaxVVelocity, c.MaxVVelocity)
	setFloat(&th.MaxWVelocity, c.MaxWVelocity)
	setFloat(&th.SuspectErrVel, c.SuspectErrVel)
	setFloat(&th.BadErrVel, c.BadErrVel)
	setFloat(&th.SpeedGradientMax, c.SpeedGradientMax)
	setInt(&th.EchoIntensityTolerance, c.EchoIntensityTolerance)
	setInt(&th.RangeDropOffLimit, c.RangeDropOffLimit)
	setInt(&th.BottomTolerance, c.BottomTolerance)

	if err := th.Validate(); err != nil {
		return adcp.Thresholds{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return th, nil
}
