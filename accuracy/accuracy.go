// Package accuracy implements a thread-safe, resettable accuracy accumulator
// and the metric formatter used by sample libraries.
package accuracy

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/stellarlinkco/qslib/qsl"
)

// Judge scores one system-under-test response against the ground truth for
// the given index. The score is in [0, 1]. The response buffer is borrowed
// for the duration of the call and must not be retained.
type Judge func(index qsl.SampleIndex, response []byte) (float64, error)

// Accumulator aggregates per-sample correctness scores into a scalar metric.
//
// The accumulator starts idle; Reset clears it to the identity value and
// begins an accumulation pass. Update may be called concurrently from many
// goroutines and folds scores with commutative atomic additions, so the
// metric is independent of call order and thread interleaving.
//
// Duplicate updates for the same index within one pass double-count: every
// Update call is one observation.
type Accumulator struct {
	total int
	judge Judge

	accumulating atomic.Bool
	count        atomic.Uint64
	sumBits      atomic.Uint64 // float64 bits of the score sum
	failures     atomic.Uint64
}

// NewAccumulator creates an idle accumulator over the domain [0, total).
func NewAccumulator(total int, judge Judge) (*Accumulator, error) {
	if total <= 0 {
		return nil, fmt.Errorf("accuracy: total %d: must be positive", total)
	}
	if judge == nil {
		return nil, errors.New("accuracy: nil judge")
	}
	return &Accumulator{total: total, judge: judge}, nil
}

// Reset clears the accumulator to its identity value and starts a new pass.
// Repeated resets with no intervening updates are equivalent to one.
func (a *Accumulator) Reset() {
	if a == nil {
		return
	}
	a.count.Store(0)
	a.sumBits.Store(0)
	a.failures.Store(0)
	a.accumulating.Store(true)
}

// Update folds the response for one sample into the metric.
//
// An out-of-domain index returns qsl.ErrInvalidIndex; an update before the
// first Reset returns qsl.ErrNotAccumulating. A judge failure on a valid
// index does not abort the pass: the sample counts as one incorrect
// observation and Update returns nil.
func (a *Accumulator) Update(index qsl.SampleIndex, response []byte) error {
	if a == nil {
		return errors.New("accuracy: nil accumulator")
	}
	if !a.accumulating.Load() {
		return qsl.ErrNotAccumulating
	}
	if uint64(index) >= uint64(a.total) {
		return fmt.Errorf("%w: %d (total %d)", qsl.ErrInvalidIndex, index, a.total)
	}

	score, err := a.judge(index, response)
	if err != nil {
		a.failures.Add(1)
		score = 0
	}
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}

	a.addScore(score)
	a.count.Add(1)
	return nil
}

func (a *Accumulator) addScore(s float64) {
	for {
		old := a.sumBits.Load()
		next := math.Float64bits(math.Float64frombits(old) + s)
		if a.sumBits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Value returns the mean score over all updates since the last reset, or
// 0.0 when there have been none. It is a pure read and may run concurrently
// with updates, yielding the partial metric at that point.
func (a *Accumulator) Value() float64 {
	if a == nil {
		return 0
	}
	n := a.count.Load()
	if n == 0 {
		return 0
	}
	return math.Float64frombits(a.sumBits.Load()) / float64(n)
}

// Observations returns the number of updates since the last reset.
func (a *Accumulator) Observations() int {
	if a == nil {
		return 0
	}
	return int(a.count.Load())
}

// Failures returns how many updates were absorbed as judge failures since
// the last reset. Each one counted as an incorrect observation.
func (a *Accumulator) Failures() int {
	if a == nil {
		return 0
	}
	return int(a.failures.Load())
}
