// Package qcdb persists QC runs and per-ensemble reports to SQLite.
//
// The core mandates no persisted format; this store is the repository's
// own ingestion surface, keyed by run IDs so a deployment's QC output
// can be re-examined after the fact. Flags are stored as JSON keyed by
// stable test IDs, bottom statistics as plain columns for querying.
package qcdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/coastal-data/currents.report/internal/adcp"
	"github.com/coastal-data/currents.report/internal/monitoring"
)

var logf = monitoring.Prefixed("qcdb")

// DB wraps the SQLite handle for QC persistence.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the QC database at path and
// ensures the base schema exists. Schema evolution beyond the base
// tables is handled by the migrations in migrations/; see MigrateUp.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS qc_runs (
			run_id            TEXT PRIMARY KEY,
			source            TEXT,
			transducer_depth  DOUBLE,
			thresholds_json   TEXT,
			statistics_json   TEXT,
			ensemble_count    BIGINT,
			error             TEXT,
			started_at        TIMESTAMP,
			completed_at      TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS qc_reports (
			run_id            TEXT NOT NULL,
			ensemble_number   BIGINT,
			ensemble_time     TIMESTAMP,
			bottom_bin        BIGINT,
			range_to_bottom_m DOUBLE,
			side_lobe_start   BIGINT,
			last_good_bin     BIGINT,
			last_good_counter BIGINT,
			scalar_flags_json TEXT,
			binned_flags_json TEXT,
			error             TEXT,
			FOREIGN KEY(run_id) REFERENCES qc_runs(run_id)
		);
		CREATE INDEX IF NOT EXISTS idx_qc_reports_run ON qc_reports(run_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising qc schema: %w", err)
	}

	return &DB{db}, nil
}

// Run is one persisted QC execution over an ensemble sequence.
type Run struct {
	RunID           string          `json:"run_id"`
	Source          string          `json:"source"`
	TransducerDepth float64         `json:"transducer_depth_cm"`
	Thresholds      json.RawMessage `json:"thresholds,omitempty"`
	Statistics      json.RawMessage `json:"statistics,omitempty"`
	EnsembleCount   int             `json:"ensemble_count"`
	Error           string          `json:"error,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// InsertRun records a run when QC starts.
func (db *DB) InsertRun(run Run) error {
	query := `
		INSERT INTO qc_runs (
			run_id, source, transducer_depth, thresholds_json,
			ensemble_count, started_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	err := retryOnBusy(func() error {
		_, err := db.Exec(query,
			run.RunID,
			nullStr(run.Source),
			run.TransducerDepth,
			nullJSON(run.Thresholds),
			run.EnsembleCount,
			run.StartedAt.UTC().Format(time.RFC3339),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.RunID, err)
	}
	return nil
}

// CompleteRun stores a run's aggregate statistics (or failure) once the
// battery has finished.
func (db *DB) CompleteRun(runID string, completedAt time.Time, statistics json.RawMessage, errMsg string) error {
	query := `
		UPDATE qc_runs
		SET statistics_json = ?, error = ?, completed_at = ?
		WHERE run_id = ?
	`
	err := retryOnBusy(func() error {
		_, err := db.Exec(query,
			nullJSON(statistics),
			nullStr(errMsg),
			completedAt.UTC().Format(time.RFC3339),
			runID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("completing run %s: %w", runID, err)
	}
	return nil
}

// InsertReport persists one ensemble's battery output under a run.
func (db *DB) InsertReport(runID string, report *adcp.EnsembleReport) error {
	scalarJSON, err := json.Marshal(report.Scalar)
	if err != nil {
		return fmt.Errorf("marshalling scalar flags for ensemble %d: %w", report.EnsembleNumber, err)
	}
	binnedJSON, err := json.Marshal(report.Binned)
	if err != nil {
		return fmt.Errorf("marshalling binned flags for ensemble %d: %w", report.EnsembleNumber, err)
	}

	query := `
		INSERT INTO qc_reports (
			run_id, ensemble_number, ensemble_time,
			bottom_bin, range_to_bottom_m, side_lobe_start,
			last_good_bin, last_good_counter,
			scalar_flags_json, binned_flags_json, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err = retryOnBusy(func() error {
		_, err := db.Exec(query,
			runID,
			report.EnsembleNumber,
			report.Timestamp.UTC().Format(time.RFC3339),
			report.Bottom.BottomBin,
			report.Bottom.RangeToBottom,
			report.Bottom.SideLobeStart,
			report.Bottom.LastGoodBin,
			report.Bottom.LastGoodCounter,
			string(scalarJSON),
			string(binnedJSON),
			nullStr(report.Error),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting report for ensemble %d: %w", report.EnsembleNumber, err)
	}
	return nil
}

// InsertReports persists a batch of reports in one transaction.
func (db *DB) InsertReports(runID string, reports []*adcp.EnsembleReport) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning report transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO qc_reports (
			run_id, ensemble_number, ensemble_time,
			bottom_bin, range_to_bottom_m, side_lobe_start,
			last_good_bin, last_good_counter,
			scalar_flags_json, binned_flags_json, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing report insert: %w", err)
	}
	defer stmt.Close()

	for _, report := range reports {
		scalarJSON, err := json.Marshal(report.Scalar)
		if err != nil {
			return fmt.Errorf("marshalling scalar flags for ensemble %d: %w", report.EnsembleNumber, err)
		}
		binnedJSON, err := json.Marshal(report.Binned)
		if err != nil {
			return fmt.Errorf("marshalling binned flags for ensemble %d: %w", report.EnsembleNumber, err)
		}
		_, err = stmt.Exec(
			runID,
			report.EnsembleNumber,
			report.Timestamp.UTC().Format(time.RFC3339),
			report.Bottom.BottomBin,
			report.Bottom.RangeToBottom,
			report.Bottom.SideLobeStart,
			report.Bottom.LastGoodBin,
			report.Bottom.LastGoodCounter,
			string(scalarJSON),
			string(binnedJSON),
			nullStr(report.Error),
		)
		if err != nil {
			return fmt.Errorf("inserting report for ensemble %d: %w", report.EnsembleNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %d reports: %w", len(reports), err)
	}
	logf("run %s: inserted %d reports", runID, len(reports))
	return nil
}

// GetRun returns one run by ID.
func (db *DB) GetRun(runID string) (*Run, error) {
	row := db.QueryRow(`
		SELECT run_id, source, transducer_depth, thresholds_json,
		       statistics_json, ensemble_count, error, started_at, completed_at
		FROM qc_runs WHERE run_id = ?
	`, runID)

	var run Run
	var source, thresholds, statistics, errMsg, completedAt sql.NullString
	var startedAt string
	if err := row.Scan(&run.RunID, &source, &run.TransducerDepth, &thresholds,
		&statistics, &run.EnsembleCount, &errMsg, &startedAt, &completedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}

	run.Source = source.String
	run.Error = errMsg.String
	if thresholds.Valid {
		run.Thresholds = json.RawMessage(thresholds.String)
	}
	if statistics.Valid {
		run.Statistics = json.RawMessage(statistics.String)
	}
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
			run.CompletedAt = &t
		}
	}
	return &run, nil
}

// ReportRecord is one persisted per-ensemble report row.
type ReportRecord struct {
	RunID          string                      `json:"run_id"`
	EnsembleNumber int                         `json:"ensemble_number"`
	EnsembleTime   time.Time                   `json:"ensemble_time"`
	Bottom         adcp.BottomStats            `json:"bottom_stats"`
	Scalar         map[adcp.TestID]adcp.Flag   `json:"scalar_flags,omitempty"`
	Binned         map[adcp.TestID][]adcp.Flag `json:"binned_flags,omitempty"`
	Error          string                      `json:"error,omitempty"`
}

// ListReports returns every report under a run, ordered by ensemble
// number.
func (db *DB) ListReports(runID string) ([]*ReportRecord, error) {
	rows, err := db.Query(`
		SELECT run_id, ensemble_number, ensemble_time,
		       bottom_bin, range_to_bottom_m, side_lobe_start,
		       last_good_bin, last_good_counter,
		       scalar_flags_json, binned_flags_json, error
		FROM qc_reports
		WHERE run_id = ?
		ORDER BY ensemble_number ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying reports for run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []*ReportRecord
	for rows.Next() {
		var rec ReportRecord
		var ensembleTime string
		var scalarJSON, binnedJSON, errMsg sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.EnsembleNumber, &ensembleTime,
			&rec.Bottom.BottomBin, &rec.Bottom.RangeToBottom, &rec.Bottom.SideLobeStart,
			&rec.Bottom.LastGoodBin, &rec.Bottom.LastGoodCounter,
			&scalarJSON, &binnedJSON, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, ensembleTime); err == nil {
			rec.EnsembleTime = t
		}
		if scalarJSON.Valid && scalarJSON.String != "" {
			if err := json.Unmarshal([]byte(scalarJSON.String), &rec.Scalar); err != nil {
				return nil, fmt.Errorf("parsing scalar flags for ensemble %d: %w", rec.EnsembleNumber, err)
			}
		}
		if binnedJSON.Valid && binnedJSON.String != "" {
			if err := json.Unmarshal([]byte(binnedJSON.String), &rec.Binned); err != nil {
				return nil, fmt.Errorf("parsing binned flags for ensemble %d: %w", rec.EnsembleNumber, err)
			}
		}
		rec.Error = errMsg.String
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// retryOnBusy retries a write when SQLite reports the database busy or
// locked, with a short linear backoff. Concurrent batch workers and a
// reader sharing one file hit this under WAL checkpointing.
func retryOnBusy(fn func() error) error {
	const maxRetries = 5
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return err
}

// isSQLiteBusy reports whether err is a SQLITE_BUSY/locked condition.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// nullStr maps empty strings to NULL.
func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullJSON maps empty JSON payloads to NULL.
func nullJSON(data json.RawMessage) *string {
	if len(data) == 0 {
		return nil
	}
	s := string(data)
	return &s
}
