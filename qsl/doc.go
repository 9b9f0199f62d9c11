// Package qsl defines the contract between a benchmark load generator and a
// sample library: a fixed, indexable set of dataset samples that can be
// brought in and out of memory on demand, plus a resettable accuracy metric
// fed by system-under-test responses.
//
// A load generator drives the lifecycle: it loads a working set of samples,
// hands the loaded indices to the system under test, routes each response
// into UpdateAccuracyMetric, and reads the formatted metric back for
// reporting. Load and unload calls are phase boundaries issued by a single
// controlling goroutine; metric updates may arrive concurrently from many
// worker goroutines.
package qsl
