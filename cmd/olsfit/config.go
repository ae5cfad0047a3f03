package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/format"
	"github.com/arloliu/olsagg/regression"
	"github.com/arloliu/olsagg/source"
)

// Config is the YAML configuration of olsfit. Command-line flags override it.
type Config struct {
	CSV source.CSVConfig `yaml:"csv"`

	// Workers bounds concurrently processed partitions; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`
	// Partitions re-splits the input rows by hash when positive.
	Partitions int `yaml:"partitions"`
	// Accumulation is "compensated" or "plain".
	Accumulation string `yaml:"accumulation"`
	// Compression of encoded states: none, zstd, s2 or lz4.
	Compression string `yaml:"compression"`
	// Confidence is the confidence interval level, e.g. 0.95. 0 disables intervals.
	Confidence float64 `yaml:"confidence"`
	// RankTolerance is the relative eigenvalue cutoff of the pseudo-inverse.
	RankTolerance float64 `yaml:"rank_tolerance"`
	// MemoryLimit caps state buffers in bytes; 0 means unlimited.
	MemoryLimit int64 `yaml:"memory_limit"`
	// Models lists the candidates of the analyze command.
	Models []string `yaml:"models"`
	// Names label the coefficients in reports.
	Names []string `yaml:"names"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		CSV:          source.CSVConfig{Header: true, Intercept: true},
		Accumulation: "compensated",
		Compression:  "none",
		Confidence:   0.95,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Unknown keys are errors.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", errs.ErrInvalidValue)
	}
	if c.Partitions < 0 {
		return fmt.Errorf("%w: partitions must not be negative", errs.ErrInvalidValue)
	}
	if c.Confidence < 0 || c.Confidence >= 1 {
		return fmt.Errorf("%w: confidence %v must be in [0, 1)", errs.ErrInvalidValue, c.Confidence)
	}
	if c.RankTolerance < 0 || c.RankTolerance >= 1 {
		return fmt.Errorf("%w: rank_tolerance %v must be in [0, 1)", errs.ErrInvalidValue, c.RankTolerance)
	}
	if c.MemoryLimit < 0 {
		return fmt.Errorf("%w: memory_limit must not be negative", errs.ErrInvalidValue)
	}
	if _, err := c.AccumulationType(); err != nil {
		return err
	}
	if _, err := c.CompressionType(); err != nil {
		return err
	}
	if _, err := c.ModelTypes(); err != nil {
		return err
	}

	return nil
}

// AccumulationType parses Accumulation.
func (c *Config) AccumulationType() (format.AccumulationType, error) {
	switch strings.ToLower(c.Accumulation) {
	case "", "compensated":
		return format.AccumulationCompensated, nil
	case "plain":
		return format.AccumulationPlain, nil
	default:
		return 0, fmt.Errorf("%w: accumulation %q", errs.ErrInvalidValue, c.Accumulation)
	}
}

// CompressionType parses Compression.
func (c *Config) CompressionType() (format.CompressionType, error) {
	switch strings.ToLower(c.Compression) {
	case "", "none":
		return format.CompressionNone, nil
	case "zstd":
		return format.CompressionZstd, nil
	case "s2":
		return format.CompressionS2, nil
	case "lz4":
		return format.CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("%w: compression %q", errs.ErrInvalidValue, c.Compression)
	}
}

// ModelTypes parses Models. An empty list selects every model.
func (c *Config) ModelTypes() ([]regression.ModelType, error) {
	out := make([]regression.ModelType, 0, len(c.Models))
	for _, name := range c.Models {
		mt, err := regression.ParseModelType(name)
		if err != nil {
			return nil, err
		}
		out = append(out, mt)
	}

	return out, nil
}
