package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/stellarlinkco/qslib/qsl"
)

// GSM8KOptions tune a GSM8K library.
type GSM8KOptions struct {
	// SampleSize keeps only the first N questions when positive.
	SampleSize int

	// PerformanceSampleCount caps the guaranteed working set.
	PerformanceSampleCount int

	// Concurrency bounds parallel payload materialization during load.
	Concurrency int
}

// Question is one GSM8K problem with its expected numeric answer.
type Question struct {
	ID       string
	Question string
	Answer   string
}

type gsm8kRow struct {
	ID       string `json:"id,omitempty"`
	TaskID   string `json:"task_id,omitempty"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GSM8K is a sample library of grade-school math word problems. Sample
// payloads are the UTF-8 question text; responses are UTF-8 model output,
// judged by extracting the last number and comparing it to the expected
// answer.
type GSM8K struct {
	*library
	questions []Question
}

// NewGSM8K loads questions from a JSONL file (or a directory of JSONL
// files). A missing path falls back to a small built-in sample set.
func NewGSM8K(ctx context.Context, path string, opts GSM8KOptions) (*GSM8K, error) {
	if ctx == nil {
		return nil, errors.New("dataset: nil context")
	}

	questions, err := loadGSM8KQuestions(ctx, path)
	if err != nil {
		return nil, err
	}
	questions = takeFirstN(questions, opts.SampleSize)
	if len(questions) == 0 {
		return nil, errors.New("dataset: gsm8k: no questions")
	}
	return newGSM8K(questions, opts)
}

// NewGSM8KFromQuestions builds a library from an in-memory question set.
func NewGSM8KFromQuestions(questions []Question, opts GSM8KOptions) (*GSM8K, error) {
	questions = takeFirstN(questions, opts.SampleSize)
	return newGSM8K(questions, opts)
}

func newGSM8K(questions []Question, opts GSM8KOptions) (*GSM8K, error) {
	qs := make([]Question, len(questions))
	copy(qs, questions)

	g := &GSM8K{questions: qs}

	fetch := func(ctx context.Context, i qsl.SampleIndex) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []byte(qs[i].Question), nil
	}
	lib, err := newLibrary("gsm8k", len(qs), opts.PerformanceSampleCount, opts.Concurrency, fetch, g.judge)
	if err != nil {
		return nil, err
	}
	g.library = lib
	return g, nil
}

func loadGSM8KQuestions(ctx context.Context, path string) ([]Question, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return defaultGSM8KSample(), nil
	}

	rows, err := readJSONL[gsm8kRow](ctx, path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultGSM8KSample(), nil
		}
		return nil, fmt.Errorf("dataset: gsm8k: load %q: %w", path, err)
	}

	out := make([]Question, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := strings.TrimSpace(row.Question)
		if text == "" {
			continue
		}

		id := strings.TrimSpace(row.ID)
		if id == "" {
			id = strings.TrimSpace(row.TaskID)
		}
		if id == "" {
			id = fmt.Sprintf("gsm8k-%d", i+1)
		}

		out = append(out, Question{
			ID:       id,
			Question: text,
			Answer:   extractExpectedNumber(row.Answer),
		})
	}
	if len(out) == 0 {
		return defaultGSM8KSample(), nil
	}
	return out, nil
}

// QuestionAt returns the question for index i.
func (g *GSM8K) QuestionAt(i qsl.SampleIndex) (Question, error) {
	if g == nil {
		return Question{}, errors.New("dataset: nil gsm8k")
	}
	if uint64(i) >= uint64(len(g.questions)) {
		return Question{}, fmt.Errorf("%w: %d (total %d)", qsl.ErrInvalidIndex, i, len(g.questions))
	}
	return g.questions[i], nil
}

// GroundTruthResponse returns the expected answer text for index i, for
// ground-truth replay runs.
func (g *GSM8K) GroundTruthResponse(i qsl.SampleIndex) ([]byte, error) {
	q, err := g.QuestionAt(i)
	if err != nil {
		return nil, err
	}
	return []byte(q.Answer), nil
}

func (g *GSM8K) judge(i qsl.SampleIndex, response []byte) (float64, error) {
	expected, ok := parseFloat(g.questions[i].Answer)
	if !ok {
		return 0, fmt.Errorf("dataset: gsm8k: invalid expected number %q", g.questions[i].Answer)
	}

	gotStr, ok := extractLastNumber(string(response))
	if !ok {
		return 0, errors.New("dataset: gsm8k: no number in response")
	}
	got, ok := parseFloat(gotStr)
	if !ok {
		return 0, fmt.Errorf("dataset: gsm8k: invalid predicted number %q", gotStr)
	}

	if almostEqual(expected, got) {
		return 1, nil
	}
	return 0, nil
}

func extractExpectedNumber(answer string) string {
	s := strings.TrimSpace(answer)
	if idx := strings.LastIndex(s, "####"); idx >= 0 {
		s = strings.TrimSpace(s[idx+4:])
	}
	if n, ok := extractLastNumber(s); ok {
		return n
	}
	return s
}

func defaultGSM8KSample() []Question {
	return []Question{
		{
			ID:       "gsm8k-sample-1",
			Question: "If you have 3 apples and buy 2 more, how many apples do you have?",
			Answer:   "5",
		},
		{
			ID:       "gsm8k-sample-2",
			Question: "A box has 12 candies. You eat 5. How many are left?",
			Answer:   "7",
		},
		{
			ID:       "gsm8k-sample-3",
			Question: "John has $10 and buys 3 items that each cost $2. How much money does he have left?",
			Answer:   "4",
		},
	}
}
