package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coastal-data/currents.report/internal/adcp"
)

func TestResolveNilConfig(t *testing.T) {
	var cfg *ThresholdConfig
	th, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() on nil config: %v", err)
	}
	if th.MaxCurrentSpeed != 150 {
		t.Errorf("MaxCurrentSpeed = %g, want default 150", th.MaxCurrentSpeed)
	}
	if th.CorrelationGood != 115 || th.CorrelationSuspect != 64 {
		t.Errorf("correlation defaults = %d/%d, want 115/64",
			th.CorrelationGood, th.CorrelationSuspect)
	}
}

func TestLoadEmptyConfigKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(configPath, []byte(`{}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	th, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if diff := cmp.Diff(adcp.DefaultThresholds(), th); diff != "" {
		t.Errorf("resolved thresholds differ from defaults (-want +got):\n%s", diff)
	}
}

func TestLoadPartialOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "site.json")

	// Only the regional speed ceiling is overridden; everything else
	// keeps defaults.
	testJSON := `{
  "max_current_speed": 250,
  "range_drop_off_limit": 30
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	th, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if th.MaxCurrentSpeed != 250 {
		t.Errorf("MaxCurrentSpeed = %g, want 250", th.MaxCurrentSpeed)
	}
	if th.RangeDropOffLimit != 30 {
		t.Errorf("RangeDropOffLimit = %d, want 30", th.RangeDropOffLimit)
	}
	if th.MaxWVelocity != 15 {
		t.Errorf("MaxWVelocity = %g, want default 15", th.MaxWVelocity)
	}
}

func TestLoadRejectsInconsistentConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.json")

	// good below suspect is physically inconsistent.
	testJSON := `{
  "correlation_good": 50,
  "correlation_suspect": 64
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Load() should reject correlation_good < correlation_suspect")
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	if _, err := Load("thresholds.yaml"); err == nil {
		t.Fatal("Load() should reject non-.json files")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}
