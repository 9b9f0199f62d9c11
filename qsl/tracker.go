package qsl

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Tracker records which sample indices of a fixed domain are currently
// memory-resident. It validates the load/unload pairing the load generator
// guarantees: a double load or double unload is reported as an error and
// leaves the tracker unchanged.
//
// Load and Unload are phase-boundary operations and are not safe for
// concurrent use with each other or with themselves. Read methods are safe
// only relative to a quiescent tracker.
type Tracker struct {
	total  uint64
	loaded *roaring64.Bitmap
}

// NewTracker creates a tracker over the domain [0, total).
func NewTracker(total int) (*Tracker, error) {
	if total <= 0 {
		return nil, fmt.Errorf("qsl: tracker total %d: must be positive", total)
	}
	return &Tracker{
		total:  uint64(total),
		loaded: roaring64.New(),
	}, nil
}

// Load marks every listed index resident. Validation runs before any
// mutation, so a failed call leaves the loaded set untouched.
func (t *Tracker) Load(indices []SampleIndex) error {
	if t == nil || t.loaded == nil {
		return fmt.Errorf("qsl: nil tracker")
	}

	for _, i := range indices {
		if uint64(i) >= t.total {
			return fmt.Errorf("%w: %d (total %d)", ErrInvalidIndex, i, t.total)
		}
		if t.loaded.Contains(uint64(i)) {
			return fmt.Errorf("%w: %d", ErrAlreadyLoaded, i)
		}
	}
	for _, i := range indices {
		t.loaded.Add(uint64(i))
	}
	return nil
}

// Unload marks every listed index non-resident. Validation runs before any
// mutation.
func (t *Tracker) Unload(indices []SampleIndex) error {
	if t == nil || t.loaded == nil {
		return fmt.Errorf("qsl: nil tracker")
	}

	for _, i := range indices {
		if uint64(i) >= t.total {
			return fmt.Errorf("%w: %d (total %d)", ErrInvalidIndex, i, t.total)
		}
		if !t.loaded.Contains(uint64(i)) {
			return fmt.Errorf("%w: %d", ErrNotLoaded, i)
		}
	}
	for _, i := range indices {
		t.loaded.Remove(uint64(i))
	}
	return nil
}

// IsLoaded reports whether index i is currently resident.
func (t *Tracker) IsLoaded(i SampleIndex) bool {
	return t != nil && t.loaded != nil && t.loaded.Contains(uint64(i))
}

// LoadedCount returns the number of resident indices.
func (t *Tracker) LoadedCount() int {
	if t == nil || t.loaded == nil {
		return 0
	}
	return int(t.loaded.GetCardinality())
}

// Loaded returns the resident indices in ascending order.
func (t *Tracker) Loaded() []SampleIndex {
	if t == nil || t.loaded == nil {
		return nil
	}

	out := make([]SampleIndex, 0, t.loaded.GetCardinality())
	it := t.loaded.Iterator()
	for it.HasNext() {
		out = append(out, SampleIndex(it.Next()))
	}
	return out
}
