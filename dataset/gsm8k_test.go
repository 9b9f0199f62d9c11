package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stellarlinkco/qslib/qsl"
)

func TestGSM8KFallbackSample(t *testing.T) {
	t.Parallel()

	g, err := NewGSM8K(context.Background(), "", GSM8KOptions{})
	if err != nil {
		t.Fatalf("NewGSM8K: %v", err)
	}
	if g.Name() != "gsm8k" {
		t.Fatalf("Name: got %q", g.Name())
	}
	if g.TotalSampleCount() == 0 {
		t.Fatalf("fallback sample set is empty")
	}
}

func TestGSM8KLoadJSONL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gsm8k.jsonl")
	body := `{"id":"q1","question":"What is 2+2?","answer":"It is #### 4"}
{"id":"q2","question":"What is 10-3?","answer":"#### 7"}
{"question":"","answer":"ignored"}
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write jsonl: %v", err)
	}

	g, err := NewGSM8K(context.Background(), path, GSM8KOptions{})
	if err != nil {
		t.Fatalf("NewGSM8K: %v", err)
	}
	if got := g.TotalSampleCount(); got != 2 {
		t.Fatalf("TotalSampleCount: got %d, want 2", got)
	}

	q, err := g.QuestionAt(1)
	if err != nil {
		t.Fatalf("QuestionAt(1): %v", err)
	}
	if q.ID != "q2" || q.Answer != "7" {
		t.Fatalf("QuestionAt(1): got %+v", q)
	}
}

func TestGSM8KSampleSize(t *testing.T) {
	t.Parallel()

	qs := []Question{
		{ID: "a", Question: "qa", Answer: "1"},
		{ID: "b", Question: "qb", Answer: "2"},
		{ID: "c", Question: "qc", Answer: "3"},
	}
	g, err := NewGSM8KFromQuestions(qs, GSM8KOptions{SampleSize: 2})
	if err != nil {
		t.Fatalf("NewGSM8KFromQuestions: %v", err)
	}
	if got := g.TotalSampleCount(); got != 2 {
		t.Fatalf("TotalSampleCount: got %d, want 2", got)
	}
}

func TestGSM8KJudge(t *testing.T) {
	t.Parallel()

	qs := []Question{{ID: "a", Question: "What is 6*7?", Answer: "42"}}
	g, err := NewGSM8KFromQuestions(qs, GSM8KOptions{})
	if err != nil {
		t.Fatalf("NewGSM8KFromQuestions: %v", err)
	}

	cases := []struct {
		response string
		want     float64
	}{
		{"The answer is 42.", 1},
		{"42", 1},
		{"I believe it is 1,042 minus 1,000, so 42", 1},
		{"The answer is 41.", 0},
	}
	for _, c := range cases {
		got, err := g.judge(0, []byte(c.response))
		if err != nil {
			t.Fatalf("judge(%q): %v", c.response, err)
		}
		if got != c.want {
			t.Fatalf("judge(%q): got %v, want %v", c.response, got, c.want)
		}
	}

	if _, err := g.judge(0, []byte("no numbers here")); err == nil {
		t.Fatalf("numberless response: expected error")
	}
}

func TestGSM8KLifecycle(t *testing.T) {
	t.Parallel()

	qs := []Question{
		{ID: "a", Question: "What is 2+2?", Answer: "4"},
		{ID: "b", Question: "What is 3+3?", Answer: "6"},
	}
	g, err := NewGSM8KFromQuestions(qs, GSM8KOptions{})
	if err != nil {
		t.Fatalf("NewGSM8KFromQuestions: %v", err)
	}

	ctx := context.Background()
	if err := g.LoadSamplesToRam(ctx, []qsl.SampleIndex{0, 1}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, err := g.Sample(0)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if string(b) != "What is 2+2?" {
		t.Fatalf("Sample: got %q", b)
	}

	g.ResetAccuracyMetric()
	if err := g.UpdateAccuracyMetric(0, []byte("4")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := g.UpdateAccuracyMetric(1, []byte("7")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := g.GetAccuracyMetric(); got != 0.5 {
		t.Fatalf("metric: got %v, want 0.5", got)
	}

	if err := g.UnloadSamplesFromRam(ctx, []qsl.SampleIndex{0, 1}); err != nil {
		t.Fatalf("Unload: %v", err)
	}
}
