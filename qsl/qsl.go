package qsl

import (
	"context"
	"errors"
)

// SampleIndex identifies one sample within a library. Valid values are in
// [0, TotalSampleCount).
type SampleIndex uint64

var (
	// ErrInvalidIndex reports an index outside [0, TotalSampleCount).
	ErrInvalidIndex = errors.New("qsl: invalid sample index")

	// ErrAlreadyLoaded reports a load of an index that is already resident.
	ErrAlreadyLoaded = errors.New("qsl: sample already loaded")

	// ErrNotLoaded reports an unload of an index that is not resident.
	ErrNotLoaded = errors.New("qsl: sample not loaded")

	// ErrNotAccumulating reports a metric update before the first reset.
	ErrNotAccumulating = errors.New("qsl: accuracy metric not reset")
)

// SampleLibrary is the dataset provider contract.
//
// Name, TotalSampleCount and PerformanceSampleCount are fixed for the life
// of the library. LoadSamplesToRam and UnloadSamplesFromRam are blocking
// phase-boundary calls issued by one controlling goroutine; the load
// generator never loads a currently loaded sample and never unloads a
// currently unloaded one. UpdateAccuracyMetric may be called concurrently
// from many goroutines; the response buffer is borrowed for the duration of
// the call only and must not be retained.
type SampleLibrary interface {
	// Name returns a stable human-readable identifier for reporting.
	Name() string

	// TotalSampleCount returns the fixed number of samples in the library.
	TotalSampleCount() int

	// PerformanceSampleCount returns the number of samples guaranteed to be
	// concurrently resident within the memory budget. It is always at most
	// TotalSampleCount.
	PerformanceSampleCount() int

	// LoadSamplesToRam makes every listed index resident and servable.
	// It may block on storage or decode latency.
	LoadSamplesToRam(ctx context.Context, indices []SampleIndex) error

	// UnloadSamplesFromRam releases every listed index and its memory.
	UnloadSamplesFromRam(ctx context.Context, indices []SampleIndex) error

	// ResetAccuracyMetric starts a new accuracy verification cycle.
	ResetAccuracyMetric()

	// UpdateAccuracyMetric folds one system-under-test response into the
	// accuracy metric. The response buffer is valid only until the call
	// returns.
	UpdateAccuracyMetric(index SampleIndex, response []byte) error

	// GetAccuracyMetric returns the metric over all updates since the last
	// reset. Before any update it returns the metric's identity value.
	GetAccuracyMetric() float64

	// HumanReadableAccuracyMetric formats a metric value with units and
	// rounding. It is pure: it neither reads nor mutates accumulator state.
	HumanReadableAccuracyMetric(v float64) string
}
