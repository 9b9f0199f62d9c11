package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDirFetch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "samples"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "samples", "0.bin"), []byte("payload-0"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}

	b, err := d.Fetch(context.Background(), "samples/0.bin")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(b) != "payload-0" {
		t.Fatalf("Fetch: got %q", b)
	}

	{
		_, err := d.Fetch(context.Background(), "samples/missing.bin")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("missing key: got %v, want ErrNotFound", err)
		}
	}
	{
		_, err := d.Fetch(context.Background(), "../outside")
		if err == nil {
			t.Fatalf("escaping key: expected error")
		}
	}
}

func TestDirRejectsBadRoot(t *testing.T) {
	t.Parallel()

	if _, err := NewDir(""); err == nil {
		t.Fatalf("empty root: expected error")
	}
	if _, err := NewDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("missing root: expected error")
	}
}

func TestMemoryFetch(t *testing.T) {
	t.Parallel()

	var m Memory
	m.Put("k", []byte("v"))

	b, err := m.Fetch(context.Background(), "k")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(b) != "v" {
		t.Fatalf("Fetch: got %q", b)
	}

	// The store must hand out copies, not aliases.
	b[0] = 'x'
	b2, err := m.Fetch(context.Background(), "k")
	if err != nil {
		t.Fatalf("Fetch again: %v", err)
	}
	if string(b2) != "v" {
		t.Fatalf("stored payload mutated: got %q", b2)
	}

	if _, err := m.Fetch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing key: got %v, want ErrNotFound", err)
	}
}

func TestFetchHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var m Memory
	m.Put("k", []byte("v"))
	if _, err := m.Fetch(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("memory: got %v, want context.Canceled", err)
	}

	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	if _, err := d.Fetch(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("dir: got %v, want context.Canceled", err)
	}
}
