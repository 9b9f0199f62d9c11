package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stellarlinkco/qslib/internal/config"
)

func testRun(id, dataset, system string, metric float64, finished time.Time) *RunRecord {
	return &RunRecord{
		ID:                 id,
		Dataset:            dataset,
		System:             system,
		StartedAt:          finished.Add(-time.Minute),
		FinishedAt:         finished,
		TotalSamples:       1024,
		PerformanceSamples: 128,
		Observations:       1024,
		Failures:           3,
		Metric:             metric,
		Formatted:          "76.543%",
	}
}

func TestSQLiteStoreSaveGet(t *testing.T) {
	t.Parallel()

	st, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	in := testRun("run-1", "gsm8k", "replay", 0.76543, now)

	if err := st.SaveRun(ctx, in); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := st.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Dataset != "gsm8k" || got.System != "replay" || got.Metric != 0.76543 {
		t.Fatalf("GetRun: got %+v", got)
	}
	if got.Formatted != "76.543%" || got.Observations != 1024 || got.Failures != 3 {
		t.Fatalf("GetRun: got %+v", got)
	}
	if !got.FinishedAt.Equal(now) {
		t.Fatalf("FinishedAt: got %v, want %v", got.FinishedAt, now)
	}

	{
		_, err := st.GetRun(ctx, "missing")
		if !errors.Is(err, ErrRunNotFound) {
			t.Fatalf("GetRun(missing): got %v, want ErrRunNotFound", err)
		}
	}
	{
		if err := st.SaveRun(ctx, &RunRecord{}); err == nil {
			t.Fatalf("SaveRun without id: expected error")
		}
	}
}

func TestSQLiteStoreListRuns(t *testing.T) {
	t.Parallel()

	st, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)
	runs := []*RunRecord{
		testRun("run-1", "gsm8k", "replay", 0.5, base.Add(1*time.Minute)),
		testRun("run-2", "gsm8k", "openai", 0.7, base.Add(2*time.Minute)),
		testRun("run-3", "imagenet-val", "replay", 0.9, base.Add(3*time.Minute)),
	}
	for _, r := range runs {
		if err := st.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun(%s): %v", r.ID, err)
		}
	}

	{
		got, err := st.ListRuns(ctx, RunFilter{})
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		if len(got) != 3 || got[0].ID != "run-3" || got[2].ID != "run-1" {
			t.Fatalf("ListRuns order: got %v", ids(got))
		}
	}
	{
		got, err := st.ListRuns(ctx, RunFilter{Dataset: "gsm8k"})
		if err != nil {
			t.Fatalf("ListRuns(dataset): %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("ListRuns(dataset): got %v", ids(got))
		}
	}
	{
		got, err := st.ListRuns(ctx, RunFilter{Dataset: "gsm8k", System: "openai"})
		if err != nil {
			t.Fatalf("ListRuns(dataset+system): %v", err)
		}
		if len(got) != 1 || got[0].ID != "run-2" {
			t.Fatalf("ListRuns(dataset+system): got %v", ids(got))
		}
	}
	{
		got, err := st.ListRuns(ctx, RunFilter{Limit: 1})
		if err != nil {
			t.Fatalf("ListRuns(limit): %v", err)
		}
		if len(got) != 1 || got[0].ID != "run-3" {
			t.Fatalf("ListRuns(limit): got %v", ids(got))
		}
	}
}

func ids(runs []*RunRecord) []string {
	out := make([]string, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.ID)
	}
	return out
}

func TestOpen(t *testing.T) {
	t.Parallel()

	{
		st, err := Open(&config.Config{Storage: config.Storage{Type: "memory"}})
		if err != nil {
			t.Fatalf("Open(memory): %v", err)
		}
		_ = st.Close()
	}
	{
		path := filepath.Join(t.TempDir(), "nested", "runs.db")
		st, err := Open(&config.Config{Storage: config.Storage{Type: "sqlite", Path: path}})
		if err != nil {
			t.Fatalf("Open(sqlite): %v", err)
		}
		_ = st.Close()
	}
	{
		if _, err := Open(&config.Config{Storage: config.Storage{Type: "bolt"}}); err == nil {
			t.Fatalf("Open(bolt): expected error")
		}
		if _, err := Open(nil); err == nil {
			t.Fatalf("Open(nil): expected error")
		}
	}
}
