package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stellarlinkco/qslib/dataset"
	"github.com/stellarlinkco/qslib/internal/config"
	"github.com/stellarlinkco/qslib/internal/harness"
	"github.com/stellarlinkco/qslib/qsl"
	"github.com/stellarlinkco/qslib/source"
	"github.com/stellarlinkco/qslib/sut"
)

func buildLibrary(ctx context.Context, cfg *config.Config) (harness.Library, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Dataset.Kind)) {
	case "gsm8k":
		return dataset.NewGSM8K(ctx, cfg.Dataset.Path, dataset.GSM8KOptions{
			SampleSize:             cfg.Dataset.SampleSize,
			PerformanceSampleCount: cfg.Dataset.PerformanceSampleCount,
			Concurrency:            cfg.Dataset.LoadConcurrency,
		})
	case "classification":
		m, err := dataset.LoadManifest(cfg.Dataset.Path)
		if err != nil {
			return nil, err
		}
		src, err := buildSource(cfg.Dataset.Source)
		if err != nil {
			return nil, err
		}
		return dataset.NewClassification(m, src, dataset.ClassificationOptions{
			PerformanceSampleCount: cfg.Dataset.PerformanceSampleCount,
			Concurrency:            cfg.Dataset.LoadConcurrency,
			ArgMax:                 cfg.Dataset.ArgMax,
			Offset:                 cfg.Dataset.Offset,
		})
	default:
		return nil, fmt.Errorf("unknown dataset kind %q", cfg.Dataset.Kind)
	}
}

func buildSource(cfg config.SourceConfig) (source.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", "dir":
		return source.NewDir(cfg.Root)
	case "minio":
		client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return source.NewMinio(client, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// buildSystem builds the system under test. The "replay" provider answers
// from the library's own ground truth and gives a deterministic self-test
// run.
func buildSystem(cfg *config.Config, lib harness.Library) (sut.System, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.SUT.Provider))
	if provider == "replay" {
		truth, err := groundTruthResponses(lib)
		if err != nil {
			return nil, err
		}
		return sut.NewReplay("replay", truth, 0), nil
	}

	return sut.New(sut.Options{
		Provider:    cfg.SUT.Provider,
		APIKey:      cfg.SUT.APIKey,
		BaseURL:     cfg.SUT.BaseURL,
		Model:       cfg.SUT.Model,
		System:      cfg.SUT.System,
		MaxTokens:   cfg.SUT.MaxTokens,
		Temperature: cfg.SUT.Temperature,
	})
}

type groundTruther interface {
	GroundTruthResponse(i qsl.SampleIndex) ([]byte, error)
}

func groundTruthResponses(lib harness.Library) (map[qsl.SampleIndex][]byte, error) {
	gt, ok := lib.(groundTruther)
	if !ok {
		return nil, fmt.Errorf("replay provider does not support dataset %q", lib.Name())
	}

	out := make(map[qsl.SampleIndex][]byte, lib.TotalSampleCount())
	for i := 0; i < lib.TotalSampleCount(); i++ {
		b, err := gt.GroundTruthResponse(qsl.SampleIndex(i))
		if err != nil {
			return nil, err
		}
		out[qsl.SampleIndex(i)] = b
	}
	return out, nil
}
