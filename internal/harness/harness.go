// Package harness drives an accuracy pass: it sweeps the sample domain in
// working sets of PerformanceSampleCount, issues loaded samples to the
// system under test from concurrent workers, and routes every response into
// the library's accuracy metric.
package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stellarlinkco/qslib/qsl"
	"github.com/stellarlinkco/qslib/sut"
)

// Library is the sample library as the harness sees it: the full contract
// plus access to resident payloads so they can be handed to the system
// under test.
type Library interface {
	qsl.SampleLibrary
	Sample(i qsl.SampleIndex) ([]byte, error)
}

// Result summarizes one accuracy run.
type Result struct {
	Dataset            string
	System             string
	StartedAt          time.Time
	FinishedAt         time.Time
	TotalSamples       int
	PerformanceSamples int
	Observations       int
	InferenceErrors    int
	Metric             float64
	Formatted          string
}

// Runner executes accuracy runs. Load, unload, and reset happen on the
// calling goroutine at phase boundaries; only metric updates run
// concurrently.
type Runner struct {
	Library     Library
	System      sut.System
	Concurrency int
	Logger      *slog.Logger
}

// Run performs one full accuracy pass over the whole sample domain.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r == nil {
		return nil, errors.New("harness: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("harness: nil context")
	}
	if r.Library == nil {
		return nil, errors.New("harness: nil library")
	}
	if r.System == nil {
		return nil, errors.New("harness: nil system under test")
	}

	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	total := r.Library.TotalSampleCount()
	perf := r.Library.PerformanceSampleCount()
	if total <= 0 {
		return nil, errors.New("harness: empty library")
	}
	if perf <= 0 || perf > total {
		return nil, fmt.Errorf("harness: performance sample count %d out of range (total %d)", perf, total)
	}

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	out := &Result{
		Dataset:            r.Library.Name(),
		System:             r.System.Name(),
		StartedAt:          time.Now().UTC(),
		TotalSamples:       total,
		PerformanceSamples: perf,
	}

	r.Library.ResetAccuracyMetric()

	var inferenceErrors int
	for lo := 0; lo < total; lo += perf {
		hi := lo + perf
		if hi > total {
			hi = total
		}
		indices := make([]qsl.SampleIndex, 0, hi-lo)
		for i := lo; i < hi; i++ {
			indices = append(indices, qsl.SampleIndex(i))
		}

		log.Debug("loading working set", "from", lo, "to", hi-1, "size", len(indices))
		if err := r.Library.LoadSamplesToRam(ctx, indices); err != nil {
			return out, fmt.Errorf("harness: load working set [%d,%d): %w", lo, hi, err)
		}

		errs, err := r.queryWorkingSet(ctx, indices, concurrency, log)
		inferenceErrors += errs
		if uerr := r.Library.UnloadSamplesFromRam(ctx, indices); uerr != nil && err == nil {
			err = fmt.Errorf("harness: unload working set [%d,%d): %w", lo, hi, uerr)
		}
		if err != nil {
			return out, err
		}
	}

	out.FinishedAt = time.Now().UTC()
	out.Observations = total
	out.InferenceErrors = inferenceErrors
	out.Metric = r.Library.GetAccuracyMetric()
	out.Formatted = r.Library.HumanReadableAccuracyMetric(out.Metric)
	return out, nil
}

// queryWorkingSet fans the loaded indices out to concurrent workers. An
// inference failure counts the sample as incorrect rather than aborting the
// run; only contract violations and context cancellation stop the pass.
func (r *Runner) queryWorkingSet(ctx context.Context, indices []qsl.SampleIndex, concurrency int, log *slog.Logger) (int, error) {
	var inferenceErrors int
	results := make([]error, len(indices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for slot, idx := range indices {
		slot, idx := slot, idx
		g.Go(func() error {
			sample, err := r.Library.Sample(idx)
			if err != nil {
				return fmt.Errorf("harness: sample %d: %w", idx, err)
			}

			response, err := r.System.Infer(gctx, idx, sample)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				results[slot] = err
				response = nil
			}
			if err := r.Library.UpdateAccuracyMetric(idx, response); err != nil {
				return fmt.Errorf("harness: update sample %d: %w", idx, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for slot, err := range results {
		if err != nil {
			inferenceErrors++
			log.Warn("inference failed, counted as incorrect", "sample", indices[slot], "error", err)
		}
	}
	return inferenceErrors, nil
}
