package sut

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stellarlinkco/qslib/qsl"
)

// Replay is a deterministic offline system under test: it answers each index
// with a canned response. Replaying the ground truth gives a known-perfect
// accuracy run, which makes it useful for harness tests and demos.
type Replay struct {
	name      string
	responses map[qsl.SampleIndex][]byte
	delay     time.Duration
}

// NewReplay creates a replay system over canned responses. delay, when
// positive, simulates per-query inference latency.
func NewReplay(name string, responses map[qsl.SampleIndex][]byte, delay time.Duration) *Replay {
	if name == "" {
		name = "replay"
	}
	cp := make(map[qsl.SampleIndex][]byte, len(responses))
	for k, v := range responses {
		b := make([]byte, len(v))
		copy(b, v)
		cp[k] = b
	}
	return &Replay{name: name, responses: cp, delay: delay}
}

func (r *Replay) Name() string {
	if r == nil {
		return "replay"
	}
	return r.name
}

// Infer returns the canned response for index.
func (r *Replay) Infer(ctx context.Context, index qsl.SampleIndex, sample []byte) ([]byte, error) {
	if r == nil {
		return nil, errors.New("sut: nil replay")
	}
	if ctx == nil {
		return nil, errors.New("sut: nil context")
	}

	if r.delay > 0 {
		t := time.NewTimer(r.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, ok := r.responses[index]
	if !ok {
		return nil, fmt.Errorf("sut: replay: no response for sample %d", index)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
