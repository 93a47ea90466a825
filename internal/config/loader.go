package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "omr"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "OMR"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader backed by the global viper instance so that
// cobra flag bindings made in the root command are visible.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration from the search paths and environment and returns
// the validated result. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")

	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshal()
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// GetConfigFileUsed returns the path of the config file used, if any.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	l.v.AddConfigPath("/etc/omr")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "omr"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "omr"))
	}
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every knob so that AutomaticEnv can resolve it even
// when no config file exists.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("pipeline.detector.min_circularity", defaults.Pipeline.Detector.MinCircularity)
	l.v.SetDefault("pipeline.detector.min_area_ratio", defaults.Pipeline.Detector.MinAreaRatio)
	l.v.SetDefault("pipeline.detector.max_area_ratio", defaults.Pipeline.Detector.MaxAreaRatio)
	l.v.SetDefault("pipeline.detector.duplicate_distance", defaults.Pipeline.Detector.DuplicateDistance)

	l.v.SetDefault("pipeline.mapper.column_gap", defaults.Pipeline.Mapper.ColumnGap)
	l.v.SetDefault("pipeline.mapper.column_break_gap", defaults.Pipeline.Mapper.ColumnBreakGap)
	l.v.SetDefault("pipeline.mapper.break_gap_median_scale", defaults.Pipeline.Mapper.BreakGapMedianScale)
	l.v.SetDefault("pipeline.mapper.row_gap", defaults.Pipeline.Mapper.RowGap)
	l.v.SetDefault("pipeline.mapper.min_answer_candidates", defaults.Pipeline.Mapper.MinAnswerCandidates)

	l.v.SetDefault("pipeline.evaluator.fill_threshold", defaults.Pipeline.Evaluator.FillThreshold)
	l.v.SetDefault("pipeline.evaluator.mask_scale", defaults.Pipeline.Evaluator.MaskScale)

	l.v.SetDefault("pipeline.digits.search_pad", defaults.Pipeline.Digits.SearchPad)
	l.v.SetDefault("pipeline.digits.search_above", defaults.Pipeline.Digits.SearchAbove)
	l.v.SetDefault("pipeline.digits.search_bottom_margin", defaults.Pipeline.Digits.SearchBottomMargin)
	l.v.SetDefault("pipeline.digits.min_strip_width", defaults.Pipeline.Digits.MinStripWidth)
	l.v.SetDefault("pipeline.digits.min_strip_height", defaults.Pipeline.Digits.MinStripHeight)
	l.v.SetDefault("pipeline.digits.cell_min_width", defaults.Pipeline.Digits.CellMinWidth)
	l.v.SetDefault("pipeline.digits.cell_max_width", defaults.Pipeline.Digits.CellMaxWidth)
	l.v.SetDefault("pipeline.digits.min_line_height_ratio", defaults.Pipeline.Digits.MinLineHeightRatio)
	l.v.SetDefault("pipeline.digits.line_group_gap", defaults.Pipeline.Digits.LineGroupGap)
	l.v.SetDefault("pipeline.digits.min_consistent_intervals", defaults.Pipeline.Digits.MinConsistentIntervals)
	l.v.SetDefault("pipeline.digits.fallback_offset_x", defaults.Pipeline.Digits.FallbackOffsetX)
	l.v.SetDefault("pipeline.digits.inner_pad_x", defaults.Pipeline.Digits.InnerPadX)
	l.v.SetDefault("pipeline.digits.canvas_margin", defaults.Pipeline.Digits.CanvasMargin)

	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.overlay", defaults.Output.Overlay)
	l.v.SetDefault("output.overlay_dir", defaults.Output.OverlayDir)
}
