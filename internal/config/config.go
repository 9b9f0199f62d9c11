// Package config loads the qslbench harness configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/qslbench.yaml"

type Config struct {
	Dataset Dataset `yaml:"dataset"`
	SUT     SUT     `yaml:"sut"`
	Harness Harness `yaml:"harness"`
	Storage Storage `yaml:"storage"`
	Serve   Serve   `yaml:"serve"`
}

// Dataset selects and locates the sample library.
type Dataset struct {
	// Kind is "gsm8k" or "classification".
	Kind string `yaml:"kind"`

	// Path is the GSM8K JSONL file (or directory) or the classification
	// manifest YAML.
	Path string `yaml:"path,omitempty"`

	// PerformanceSampleCount caps the guaranteed working set; zero means
	// the whole dataset.
	PerformanceSampleCount int `yaml:"performance_sample_count,omitempty"`

	// SampleSize keeps only the first N samples when positive (gsm8k).
	SampleSize int `yaml:"sample_size,omitempty"`

	// LoadConcurrency bounds parallel payload fetches during load.
	LoadConcurrency int `yaml:"load_concurrency,omitempty"`

	// ArgMax and Offset configure classification response decoding.
	ArgMax bool  `yaml:"argmax,omitempty"`
	Offset int64 `yaml:"offset,omitempty"`

	Source SourceConfig `yaml:"source,omitempty"`
}

// SourceConfig selects where classification payloads live.
type SourceConfig struct {
	// Kind is "dir" (default) or "minio".
	Kind string `yaml:"kind,omitempty"`

	// Root is the payload directory for the dir source.
	Root string `yaml:"root,omitempty"`

	// MinIO settings; AccessKey and SecretKey default from
	// QSLIB_MINIO_ACCESS_KEY / QSLIB_MINIO_SECRET_KEY.
	Endpoint  string `yaml:"endpoint,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
}

// SUT configures the system under test.
type SUT struct {
	// Provider is "openai", "claude", or "replay".
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key,omitempty"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	System      string  `yaml:"system,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
}

// Harness tunes the accuracy run driver.
type Harness struct {
	Concurrency int           `yaml:"concurrency,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// Storage selects run persistence.
type Storage struct {
	Type string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
}

// Serve configures the read-only results API.
type Serve struct {
	Addr   string `yaml:"addr,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
}

// Load reads a config file and applies environment overrides. A missing file
// at the default path yields a zero config rather than an error, so commands
// that need no configuration still work.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	usingDefault := path == ""
	if usingDefault {
		path = DefaultPath
	}

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	case os.IsNotExist(err) && usingDefault:
		// Fall through to env overrides and defaults.
	default:
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	provider := strings.ToLower(strings.TrimSpace(cfg.SUT.Provider))
	if strings.TrimSpace(cfg.SUT.APIKey) == "" {
		switch provider {
		case "openai":
			cfg.SUT.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		case "claude", "anthropic":
			cfg.SUT.APIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
		}
	}

	if strings.TrimSpace(cfg.Dataset.Source.AccessKey) == "" {
		cfg.Dataset.Source.AccessKey = strings.TrimSpace(os.Getenv("QSLIB_MINIO_ACCESS_KEY"))
	}
	if strings.TrimSpace(cfg.Dataset.Source.SecretKey) == "" {
		cfg.Dataset.Source.SecretKey = strings.TrimSpace(os.Getenv("QSLIB_MINIO_SECRET_KEY"))
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Dataset.Kind) == "" {
		cfg.Dataset.Kind = "gsm8k"
	}
	if strings.TrimSpace(cfg.Dataset.Source.Kind) == "" {
		cfg.Dataset.Source.Kind = "dir"
	}
	if cfg.Harness.Concurrency <= 0 {
		cfg.Harness.Concurrency = 4
	}
	if strings.TrimSpace(cfg.Serve.Addr) == "" {
		cfg.Serve.Addr = ":8080"
	}
}
