// Package source abstracts where preprocessed sample payloads live: a local
// cache directory, an in-memory map, or an S3-compatible bucket. Sample
// libraries fetch payloads through a Store when loading samples to RAM.
package source

import (
	"context"
	"os"
)

// ErrNotFound is returned when a payload does not exist.
//
// Implementations should return an error that satisfies
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// Store fetches immutable sample payloads by key. The returned slice is
// owned by the caller.
type Store interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}
