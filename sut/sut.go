// Package sut holds the system-under-test boundary: anything that can turn a
// loaded sample payload into a response for the accuracy metric. It ships a
// deterministic replay system for offline runs and chat-completion backends
// for text datasets.
package sut

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/qslib/qsl"
)

// System produces a response for one loaded sample. The sample buffer is
// borrowed from the library and must not be modified or retained; the
// returned response is owned by the caller.
type System interface {
	Name() string
	Infer(ctx context.Context, index qsl.SampleIndex, sample []byte) ([]byte, error)
}

// Options select and configure a System backend.
type Options struct {
	Provider    string // "openai" or "claude"
	APIKey      string
	BaseURL     string
	Model       string
	System      string // optional system prompt
	MaxTokens   int
	Temperature float64
}

// New builds a System from options.
func New(opts Options) (System, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "openai":
		return NewOpenAI(opts), nil
	case "claude", "anthropic":
		return NewClaude(opts), nil
	case "":
		return nil, errors.New("sut: empty provider")
	default:
		return nil, fmt.Errorf("sut: unknown provider %q", opts.Provider)
	}
}
