// Package config assembles the application configuration from defaults,
// config files, environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/detector"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/digits"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/evaluator"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/mapper"
)

// Config is the complete configuration for the grading application.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
}

// PipelineConfig groups the per-stage tuning knobs.
type PipelineConfig struct {
	Detector  detector.Config  `mapstructure:"detector" yaml:"detector" json:"detector"`
	Mapper    mapper.Config    `mapstructure:"mapper" yaml:"mapper" json:"mapper"`
	Evaluator evaluator.Config `mapstructure:"evaluator" yaml:"evaluator" json:"evaluator"`
	Digits    digits.Config    `mapstructure:"digits" yaml:"digits" json:"digits"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	// Format selects the report encoding: "json" or "text".
	Format string `mapstructure:"format" yaml:"format" json:"format"`

	// Overlay enables writing an annotated copy of the sheet next to
	// the report.
	Overlay bool `mapstructure:"overlay" yaml:"overlay" json:"overlay"`

	// OverlayDir overrides where overlay images are written. Empty means
	// alongside the input file.
	OverlayDir string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
}

// DefaultConfig returns the configuration with all stage defaults applied.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Verbose:  false,
		Pipeline: PipelineConfig{
			Detector:  detector.DefaultConfig(),
			Mapper:    mapper.DefaultConfig(),
			Evaluator: evaluator.DefaultConfig(),
			Digits:    digits.DefaultConfig(),
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (want debug, info, warn or error)", c.LogLevel)
	}

	switch strings.ToLower(c.Output.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid output format %q (want json or text)", c.Output.Format)
	}

	d := c.Pipeline.Detector
	if d.MinCircularity <= 0 || d.MinCircularity > 1 {
		return fmt.Errorf("detector.min_circularity must be in (0, 1], got %v", d.MinCircularity)
	}
	if d.MinAreaRatio <= 0 || d.MaxAreaRatio <= d.MinAreaRatio {
		return fmt.Errorf("detector area ratios must satisfy 0 < min < max, got [%v, %v]",
			d.MinAreaRatio, d.MaxAreaRatio)
	}
	if d.DuplicateDistance < 0 {
		return fmt.Errorf("detector.duplicate_distance must not be negative, got %v", d.DuplicateDistance)
	}

	e := c.Pipeline.Evaluator
	if e.FillThreshold <= 0 || e.FillThreshold >= 1 {
		return fmt.Errorf("evaluator.fill_threshold must be in (0, 1), got %v", e.FillThreshold)
	}
	if e.MaskScale <= 0 || e.MaskScale > 1 {
		return fmt.Errorf("evaluator.mask_scale must be in (0, 1], got %v", e.MaskScale)
	}

	m := c.Pipeline.Mapper
	if m.ColumnGap <= 0 || m.RowGap <= 0 || m.ColumnBreakGap <= 0 {
		return fmt.Errorf("mapper gaps must be positive, got column=%v row=%v break=%v",
			m.ColumnGap, m.RowGap, m.ColumnBreakGap)
	}

	return nil
}
