package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/qslib/internal/config"
	"github.com/stellarlinkco/qslib/internal/harness"
	"github.com/stellarlinkco/qslib/internal/store"
)

func newRunCmd(st *cliState) *cobra.Command {
	var (
		concurrency int
		noSave      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one accuracy pass over the configured dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.loadConfig()
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Harness.Concurrency = concurrency
			}

			ctx := cmd.Context()
			if cfg.Harness.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Harness.Timeout)
				defer cancel()
			}

			lib, err := buildLibrary(ctx, cfg)
			if err != nil {
				return err
			}
			system, err := buildSystem(cfg, lib)
			if err != nil {
				return err
			}

			st.log.Info("starting accuracy run",
				"dataset", lib.Name(),
				"system", system.Name(),
				"total_samples", lib.TotalSampleCount(),
				"performance_samples", lib.PerformanceSampleCount(),
				"concurrency", cfg.Harness.Concurrency,
			)

			runner := &harness.Runner{
				Library:     lib,
				System:      system,
				Concurrency: cfg.Harness.Concurrency,
				Logger:      st.log,
			}
			res, err := runner.Run(ctx)
			if err != nil {
				return err
			}

			st.log.Info("accuracy run finished",
				"metric", res.Formatted,
				"observations", res.Observations,
				"inference_errors", res.InferenceErrors,
				"duration", res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: %s\n", system.Name(), lib.Name(), res.Formatted)

			if noSave {
				return nil
			}
			return saveRun(cmd.Context(), cfg, res)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "override worker concurrency")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "skip persisting the run")
	return cmd
}

func saveRun(ctx context.Context, cfg *config.Config, res *harness.Result) error {
	id, err := newRunID()
	if err != nil {
		return err
	}

	db, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.SaveRun(ctx, &store.RunRecord{
		ID:                 id,
		Dataset:            res.Dataset,
		System:             res.System,
		StartedAt:          res.StartedAt,
		FinishedAt:         res.FinishedAt,
		TotalSamples:       res.TotalSamples,
		PerformanceSamples: res.PerformanceSamples,
		Observations:       res.Observations,
		Failures:           res.InferenceErrors,
		Metric:             res.Metric,
		Formatted:          res.Formatted,
	})
}

func newRunID() (string, error) {
	var buf [8]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("run_%s_%x", time.Now().UTC().Format("20060102T150405Z"), buf), nil
}
