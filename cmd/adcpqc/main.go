// Package main provides the adcpqc command: it reads decoded profiler
// ensemble records, runs the QARTOD battery against them, and prints
// bottom statistics plus selected flags. Optionally the full run is
// persisted to a SQLite QC database.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/coastal-data/currents.report/internal/adcp"
	"github.com/coastal-data/currents.report/internal/adcp/qcdb"
	"github.com/coastal-data/currents.report/internal/config"
	"github.com/coastal-data/currents.report/internal/pd0"
	"github.com/coastal-data/currents.report/internal/units"
	"github.com/coastal-data/currents.report/internal/version"
)

// Config holds the command configuration.
type Config struct {
	InputFile       string
	ConfigFile      string
	DBPath          string
	TransducerDepth float64
	Workers         int
	SpeedUnit       string
	OutputJSON      bool
	ShowVersion     bool
}

func main() {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Println("adcpqc", version.String())
		return
	}
	if cfg.InputFile == "" {
		fmt.Fprintln(os.Stderr, "adcpqc: -input is required")
		flag.Usage()
		os.Exit(2)
	}
	if !units.IsValidSpeedUnit(cfg.SpeedUnit) {
		log.Fatalf("invalid -speed-unit %q (valid: %v)", cfg.SpeedUnit, units.ValidSpeedUnits)
	}

	thresholds := adcp.DefaultThresholds()
	if cfg.ConfigFile != "" {
		var err error
		thresholds, err = config.Load(cfg.ConfigFile)
		if err != nil {
			log.Fatalf("loading thresholds: %v", err)
		}
	}

	ensembles, err := pd0.ReadFile(cfg.InputFile)
	if err != nil {
		log.Fatalf("loading ensembles: %v", err)
	}

	// The record's own transducer depth applies unless overridden.
	depth := cfg.TransducerDepth
	if depth == 0 {
		depth = ensembles[0].TransducerDepth
	}

	startedAt := time.Now()
	reports := adcp.RunBatch(ensembles, depth, &thresholds, cfg.Workers)
	stats := adcp.ComputeRunStatistics(reports)

	if cfg.OutputJSON {
		out := struct {
			Reports    []*adcp.EnsembleReport `json:"reports"`
			Statistics *adcp.RunStatistics    `json:"statistics"`
		}{reports, stats}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("encoding report: %v", err)
		}
	} else {
		printSummary(reports, stats, cfg.SpeedUnit)
	}

	if cfg.DBPath != "" {
		if err := persistRun(cfg, depth, thresholds, reports, stats, startedAt); err != nil {
			log.Fatalf("persisting run: %v", err)
		}
	}
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.InputFile, "input", "", "Path to decoded ensemble JSON file (required)")
	flag.StringVar(&cfg.ConfigFile, "config", "", "Path to threshold overrides JSON file")
	flag.StringVar(&cfg.DBPath, "db", "", "Path to QC SQLite database (omit to skip persistence)")
	flag.Float64Var(&cfg.TransducerDepth, "transducer-depth", 0, "Transducer depth in cm (0 uses the record's value)")
	flag.IntVar(&cfg.Workers, "workers", 0, "Batch worker count (0 uses GOMAXPROCS)")
	flag.StringVar(&cfg.SpeedUnit, "speed-unit", units.CMPS, "Output speed unit (cmps, mps, knots)")
	flag.BoolVar(&cfg.OutputJSON, "json", false, "Emit full reports as JSON")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")
	flag.Parse()
	return cfg
}

func printSummary(reports []*adcp.EnsembleReport, stats *adcp.RunStatistics, speedUnit string) {
	for _, report := range reports {
		if report.Error != "" {
			fmt.Printf("ensemble %d: REJECTED: %s\n", report.EnsembleNumber, report.Error)
			continue
		}
		b := report.Bottom
		fmt.Printf("ensemble %d: bottom_bin=%d range_to_bottom=%.2fm side_lobe_start=%d last_good_bin=%d last_good_counter=%d\n",
			report.EnsembleNumber, b.BottomBin, b.RangeToBottom, b.SideLobeStart, b.LastGoodBin, b.LastGoodCounter)
		fmt.Printf("  orientation=%s sound_speed=%s bit=%s\n",
			report.Scalar[adcp.TestOrientation],
			report.Scalar[adcp.TestSoundSpeed],
			report.Scalar[adcp.TestBIT])
		fmt.Printf("  echo_intensity=%v\n", report.Binned[adcp.TestEchoIntensity])
		fmt.Printf("  current_speed=%v\n", report.Binned[adcp.TestCurrentSpeed])
	}

	fmt.Printf("run: %d ensembles (%d failed), good=%.1f%% suspect=%.1f%% bad=%.1f%%\n",
		stats.EnsembleCount, stats.FailedCount,
		stats.GoodRatio*100, stats.SuspectRatio*100, stats.BadRatio*100)
	if stats.MeanGoodSpeed > 0 {
		fmt.Printf("mean good speed: %.2f %s\n",
			units.ConvertSpeed(stats.MeanGoodSpeed, speedUnit), speedUnit)
	}
}

func persistRun(cfg Config, depth float64, thresholds adcp.Thresholds,
	reports []*adcp.EnsembleReport, stats *adcp.RunStatistics, startedAt time.Time) error {

	db, err := qcdb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	thresholdsJSON, err := json.Marshal(thresholds)
	if err != nil {
		return err
	}
	statsJSON, err := stats.ToJSON()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	if err := db.InsertRun(qcdb.Run{
		RunID:           runID,
		Source:          cfg.InputFile,
		TransducerDepth: depth,
		Thresholds:      thresholdsJSON,
		EnsembleCount:   len(reports),
		StartedAt:       startedAt,
	}); err != nil {
		return err
	}
	if err := db.InsertReports(runID, reports); err != nil {
		return err
	}
	if err := db.CompleteRun(runID, time.Now(), json.RawMessage(statsJSON), ""); err != nil {
		return err
	}

	fmt.Printf("persisted run %s to %s\n", runID, cfg.DBPath)
	return nil
}
