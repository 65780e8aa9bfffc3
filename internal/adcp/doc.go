// Package adcp classifies acoustic Doppler current profiler ensembles
// into QARTOD quality categories for real-time ingestion.
//
// The package is organised as a small pipeline. An Ensemble is the
// immutable per-sample data model (beam × bin readings plus attitude
// and environment scalars). ComputeBottomStats locates the seabed from
// echo-intensity gradients and beam geometry and derives the
// sidelobe-free bin window. The test battery (tests.go) is a set of
// pure classification functions over plain arrays and thresholds. A
// Session binds ensembles, transducer depth and a Thresholds set,
// caches the derived state, and windows every test to the usable bins.
// RunBatch fans the battery out over a deployment with a worker pool,
// and ComputeRunStatistics aggregates the results.
//
// Everything here evaluates one sample in isolation: QARTOD real-time
// tests deliberately exclude cross-ensemble history.
package adcp
