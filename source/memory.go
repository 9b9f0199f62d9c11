package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Memory is an in-memory store, useful for tests and synthetic datasets.
// The zero value is ready to use.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// Put stores a copy of data under key.
func (m *Memory) Put(key string, data []byte) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blobs == nil {
		m.blobs = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[key] = cp
}

// Fetch returns a copy of the payload stored under key.
func (m *Memory) Fetch(ctx context.Context, key string) ([]byte, error) {
	if m == nil {
		return nil, errors.New("source: nil memory store")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	b, ok := m.blobs[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("source: %q: %w", key, ErrNotFound)
	}

	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}
