package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir serves payloads from files under a root directory, e.g. the cache of
// preprocessed samples produced by a dataset preprocessing step.
type Dir struct {
	root string
}

// NewDir creates a directory-backed store rooted at root.
func NewDir(root string) (*Dir, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("source: empty dir root")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source: stat %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source: %q is not a directory", root)
	}
	return &Dir{root: root}, nil
}

// Fetch reads the payload file for key. Keys must stay inside the root.
func (d *Dir) Fetch(ctx context.Context, key string) ([]byte, error) {
	if d == nil {
		return nil, errors.New("source: nil dir store")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("source: empty key")
	}

	path := filepath.Join(d.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(d.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("source: key %q escapes root", key)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source: %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("source: read %q: %w", key, err)
	}
	return b, nil
}
