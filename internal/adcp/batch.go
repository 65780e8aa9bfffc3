package adcp

import (
	"runtime"
	"sync"

	"github.com/coastal-data/currents.report/internal/monitoring"
)

// RunBatch maps the full QC battery across an ensemble sequence with a
// bounded worker pool. Ensembles are independent, so no ordering or
// synchronisation is guaranteed between them while running; results are
// returned index-aligned with the input. workers <= 0 selects
// GOMAXPROCS.
//
// A single ensemble's failure (validation or otherwise) is recorded in
// its report's Error field and never aborts the remaining ensembles.
func RunBatch(ensembles []*Ensemble, transducerDepth float64, thresholds *Thresholds, workers int) []*EnsembleReport {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(ensembles) {
		workers = len(ensembles)
	}

	reports := make([]*EnsembleReport, len(ensembles))
	jobs := make(chan int, len(ensembles))
	for i := range ensembles {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				reports[i] = runOne(ensembles[i], transducerDepth, thresholds)
			}
		}()
	}
	wg.Wait()

	return reports
}

// runOne runs the battery for a single ensemble, converting any failure
// into an error-bearing report.
func runOne(e *Ensemble, transducerDepth float64, thresholds *Thresholds) *EnsembleReport {
	session, err := NewSession([]*Ensemble{e}, transducerDepth, thresholds)
	if err != nil {
		monitoring.Logf("adcp: ensemble %d rejected: %v", e.Number, err)
		return &EnsembleReport{
			EnsembleNumber: e.Number,
			Timestamp:      e.Timestamp,
			Error:          err.Error(),
		}
	}
	report, err := session.RunAll(0)
	if err != nil {
		monitoring.Logf("adcp: ensemble %d failed: %v", e.Number, err)
		return &EnsembleReport{
			EnsembleNumber: e.Number,
			Timestamp:      e.Timestamp,
			Error:          err.Error(),
		}
	}
	return report
}
