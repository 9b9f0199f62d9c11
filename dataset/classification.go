package dataset

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stellarlinkco/qslib/qsl"
	"github.com/stellarlinkco/qslib/source"
)

// Manifest describes a classification dataset: one entry per sample, in
// index order, naming the preprocessed payload blob and its ground-truth
// label.
type Manifest struct {
	Name    string          `yaml:"name"`
	Entries []ManifestEntry `yaml:"entries"`
}

// ManifestEntry is one sample of a classification manifest.
type ManifestEntry struct {
	Key   string `yaml:"key"`
	Label int64  `yaml:"label"`
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read manifest %q: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("dataset: parse manifest %q: %w", path, err)
	}
	if strings.TrimSpace(m.Name) == "" {
		return nil, fmt.Errorf("dataset: manifest %q: missing name", path)
	}
	if len(m.Entries) == 0 {
		return nil, fmt.Errorf("dataset: manifest %q: no entries", path)
	}
	for i, e := range m.Entries {
		if strings.TrimSpace(e.Key) == "" {
			return nil, fmt.Errorf("dataset: manifest %q: entry %d: missing key", path, i)
		}
	}
	return &m, nil
}

// ClassificationOptions tune a classification library.
type ClassificationOptions struct {
	// PerformanceSampleCount caps the guaranteed working set. Zero or a value
	// above the total means the whole dataset fits.
	PerformanceSampleCount int

	// Concurrency bounds parallel payload fetches during load.
	Concurrency int

	// ArgMax interprets responses as a little-endian float32 score vector
	// and takes the highest-scoring class. When false, responses are a
	// single little-endian int64 predicted class.
	ArgMax bool

	// Offset is added to the predicted class before comparing against the
	// label, for models whose class numbering is shifted by one.
	Offset int64
}

// Classification is a sample library over preprocessed classification
// payloads (images, audio windows) with integer ground-truth labels.
// Accuracy is the fraction of responses whose predicted class matches the
// label.
type Classification struct {
	*library
	entries []ManifestEntry
	opts    ClassificationOptions
}

// NewClassification builds a classification library from a manifest, with
// payloads served by src.
func NewClassification(m *Manifest, src source.Store, opts ClassificationOptions) (*Classification, error) {
	if m == nil {
		return nil, errors.New("dataset: nil manifest")
	}
	if src == nil {
		return nil, errors.New("dataset: nil source")
	}

	entries := make([]ManifestEntry, len(m.Entries))
	copy(entries, m.Entries)

	c := &Classification{entries: entries, opts: opts}

	fetch := func(ctx context.Context, i qsl.SampleIndex) ([]byte, error) {
		return src.Fetch(ctx, entries[i].Key)
	}
	lib, err := newLibrary(m.Name, len(entries), opts.PerformanceSampleCount, opts.Concurrency, fetch, c.judge)
	if err != nil {
		return nil, err
	}
	c.library = lib
	return c, nil
}

// Label returns the ground-truth label for index i.
func (c *Classification) Label(i qsl.SampleIndex) (int64, error) {
	if c == nil {
		return 0, errors.New("dataset: nil classification")
	}
	if uint64(i) >= uint64(len(c.entries)) {
		return 0, fmt.Errorf("%w: %d (total %d)", qsl.ErrInvalidIndex, i, len(c.entries))
	}
	return c.entries[i].Label, nil
}

// GroundTruthResponse encodes the label for index i the way the judge
// expects responses, for ground-truth replay runs.
func (c *Classification) GroundTruthResponse(i qsl.SampleIndex) ([]byte, error) {
	label, err := c.Label(i)
	if err != nil {
		return nil, err
	}
	class := label - c.opts.Offset
	if class < 0 {
		return nil, fmt.Errorf("dataset: label %d with offset %d yields negative class", label, c.opts.Offset)
	}

	if !c.opts.ArgMax {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(class))
		return b, nil
	}

	// A one-hot score vector whose argmax is the expected class.
	b := make([]byte, 4*(class+1))
	binary.LittleEndian.PutUint32(b[4*class:], math.Float32bits(1.0))
	return b, nil
}

func (c *Classification) judge(i qsl.SampleIndex, response []byte) (float64, error) {
	predicted, err := c.decode(response)
	if err != nil {
		return 0, err
	}
	if predicted+c.opts.Offset == c.entries[i].Label {
		return 1, nil
	}
	return 0, nil
}

func (c *Classification) decode(response []byte) (int64, error) {
	if c.opts.ArgMax {
		return argmaxFloat32(response)
	}
	if len(response) != 8 {
		return 0, fmt.Errorf("dataset: class response: want 8 bytes, got %d", len(response))
	}
	return int64(binary.LittleEndian.Uint64(response)), nil
}

func argmaxFloat32(response []byte) (int64, error) {
	if len(response) == 0 || len(response)%4 != 0 {
		return 0, fmt.Errorf("dataset: score response: want non-empty multiple of 4 bytes, got %d", len(response))
	}

	best := int64(0)
	bestScore := float32(math.Inf(-1))
	for i := 0; i < len(response); i += 4 {
		s := math.Float32frombits(binary.LittleEndian.Uint32(response[i:]))
		if s > bestScore {
			bestScore = s
			best = int64(i / 4)
		}
	}
	return best, nil
}
