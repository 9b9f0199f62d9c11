// Package dataset provides concrete sample libraries: a classification
// dataset over preprocessed payload blobs and a GSM8K-style question set.
// Both satisfy qsl.SampleLibrary by composing a loaded-set tracker, an
// accuracy accumulator, and a payload fetch path.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stellarlinkco/qslib/accuracy"
	"github.com/stellarlinkco/qslib/qsl"
)

const defaultLoadConcurrency = 4

type fetchFunc func(ctx context.Context, i qsl.SampleIndex) ([]byte, error)

// library carries the resident-set plumbing shared by all datasets: which
// indices are loaded, their in-RAM payloads, and the accuracy state.
type library struct {
	name        string
	total       int
	perf        int
	concurrency int
	fetch       fetchFunc

	tracker *qsl.Tracker
	acc     *accuracy.Accumulator

	mu       sync.RWMutex
	payloads map[qsl.SampleIndex][]byte
}

func newLibrary(name string, total, perf, concurrency int, fetch fetchFunc, judge accuracy.Judge) (*library, error) {
	if name == "" {
		return nil, errors.New("dataset: empty name")
	}
	if total <= 0 {
		return nil, fmt.Errorf("dataset: %s: no samples", name)
	}
	if fetch == nil {
		return nil, fmt.Errorf("dataset: %s: nil fetch", name)
	}
	if perf <= 0 || perf > total {
		perf = total
	}
	if concurrency <= 0 {
		concurrency = defaultLoadConcurrency
	}

	tracker, err := qsl.NewTracker(total)
	if err != nil {
		return nil, err
	}
	acc, err := accuracy.NewAccumulator(total, judge)
	if err != nil {
		return nil, err
	}

	return &library{
		name:        name,
		total:       total,
		perf:        perf,
		concurrency: concurrency,
		fetch:       fetch,
		tracker:     tracker,
		acc:         acc,
		payloads:    make(map[qsl.SampleIndex][]byte),
	}, nil
}

func (l *library) Name() string { return l.name }

func (l *library) TotalSampleCount() int { return l.total }

func (l *library) PerformanceSampleCount() int { return l.perf }

// LoadSamplesToRam fetches every listed payload and makes it resident.
// Fetches run concurrently; on any failure the loaded set is rolled back and
// no payload becomes visible.
func (l *library) LoadSamplesToRam(ctx context.Context, indices []qsl.SampleIndex) error {
	if l == nil {
		return errors.New("dataset: nil library")
	}
	if ctx == nil {
		return errors.New("dataset: nil context")
	}

	if err := l.tracker.Load(indices); err != nil {
		return err
	}

	fetched := make([][]byte, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for slot, idx := range indices {
		slot, idx := slot, idx
		g.Go(func() error {
			b, err := l.fetch(gctx, idx)
			if err != nil {
				return fmt.Errorf("dataset: %s: load sample %d: %w", l.name, idx, err)
			}
			fetched[slot] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if uerr := l.tracker.Unload(indices); uerr != nil {
			return errors.Join(err, uerr)
		}
		return err
	}

	l.mu.Lock()
	for slot, idx := range indices {
		l.payloads[idx] = fetched[slot]
	}
	l.mu.Unlock()
	return nil
}

// UnloadSamplesFromRam drops every listed payload and frees its memory.
func (l *library) UnloadSamplesFromRam(ctx context.Context, indices []qsl.SampleIndex) error {
	if l == nil {
		return errors.New("dataset: nil library")
	}
	if ctx == nil {
		return errors.New("dataset: nil context")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := l.tracker.Unload(indices); err != nil {
		return err
	}

	l.mu.Lock()
	for _, idx := range indices {
		delete(l.payloads, idx)
	}
	l.mu.Unlock()
	return nil
}

// Sample returns the resident payload for index i to hand to the system
// under test. The slice is owned by the library and must not be modified;
// it stays valid until the index is unloaded.
func (l *library) Sample(i qsl.SampleIndex) ([]byte, error) {
	if l == nil {
		return nil, errors.New("dataset: nil library")
	}
	if uint64(i) >= uint64(l.total) {
		return nil, fmt.Errorf("%w: %d (total %d)", qsl.ErrInvalidIndex, i, l.total)
	}

	l.mu.RLock()
	b, ok := l.payloads[i]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", qsl.ErrNotLoaded, i)
	}
	return b, nil
}

// LoadedCount returns the number of resident samples.
func (l *library) LoadedCount() int {
	if l == nil {
		return 0
	}
	return l.tracker.LoadedCount()
}

func (l *library) ResetAccuracyMetric() {
	if l == nil {
		return
	}
	l.acc.Reset()
}

func (l *library) UpdateAccuracyMetric(index qsl.SampleIndex, response []byte) error {
	if l == nil {
		return errors.New("dataset: nil library")
	}
	return l.acc.Update(index, response)
}

func (l *library) GetAccuracyMetric() float64 {
	if l == nil {
		return 0
	}
	return l.acc.Value()
}

func (l *library) HumanReadableAccuracyMetric(v float64) string {
	return accuracy.Format(v)
}

// Observations returns the number of metric updates since the last reset.
func (l *library) Observations() int {
	if l == nil {
		return 0
	}
	return l.acc.Observations()
}
