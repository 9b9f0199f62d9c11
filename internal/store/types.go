// Package store persists accuracy benchmark runs.
package store

import (
	"context"
	"time"
)

// RunRecord summarizes one accuracy run of a sample library against a
// system under test.
type RunRecord struct {
	ID                 string
	Dataset            string
	System             string
	StartedAt          time.Time
	FinishedAt         time.Time
	TotalSamples       int
	PerformanceSamples int
	Observations       int
	Failures           int
	Metric             float64
	Formatted          string
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Dataset string
	System  string
	Limit   int
}

// Store defines persistence for run records.
type Store interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
	Close() error
}
