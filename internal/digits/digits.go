// Package digits segments the handwritten identity strip into per-digit
// cells and feeds them to a pluggable text-recognition backend.
//
// The default build has no concrete backend to avoid adding CGO
// dependencies implicitly. Enable the tesseract-backed recognizer with the
// build tag `tesseract`:
//
//	go build -tags=tesseract ./...
package digits

import (
	"context"
	"errors"
	"image"
)

// ErrNoBackend indicates that no recognition backend is linked into the
// build. Identity reconciliation then falls back to bubble-derived digits.
var ErrNoBackend = errors.New("digits: no recognition backend linked; build with -tags=tesseract")

// Options controls a single recognition call.
type Options struct {
	// DigitsOnly restricts recognition to the characters 0-9.
	DigitsOnly bool
}

// Backend maps a cropped single-character image to text. Implementations
// are synchronous and potentially slow; callers bound them with a context.
type Backend interface {
	Recognize(ctx context.Context, img image.Image, opts Options) (string, error)
	Close() error
}

// NewBackend returns the recognition backend selected at build time.
func NewBackend() (Backend, error) { return newDefaultBackend() }

// Cell is one digit position on the identity strip. Box is the grid cell
// in page coordinates; InkBox is the union bounding box of the detected
// stroke fragments inside it. Blank cells carry no crop and are never
// passed to recognition.
type Cell struct {
	Index  int
	Box    image.Rectangle
	InkBox image.Rectangle
	Crop   *image.Gray
	Blank  bool
}

// Strip is the segmented identity strip: the located strip rectangle plus
// one cell per declared digit, indexed strictly left to right.
type Strip struct {
	Box   image.Rectangle
	Cells []Cell
}

// Config holds the strip localization and cell refinement parameters.
type Config struct {
	// SearchPad widens the horizontal search window around the declared
	// digit columns (px).
	SearchPad int `mapstructure:"search_pad" yaml:"search_pad" json:"search_pad"`

	// SearchAbove and SearchBottomMargin bound the vertical search window
	// relative to the roll-number bubble origin (px).
	SearchAbove        int `mapstructure:"search_above" yaml:"search_above" json:"search_above"`
	SearchBottomMargin int `mapstructure:"search_bottom_margin" yaml:"search_bottom_margin" json:"search_bottom_margin"`

	// MinStripWidth and MinStripHeight reject contours too small to be the
	// strip box.
	MinStripWidth  int `mapstructure:"min_strip_width" yaml:"min_strip_width" json:"min_strip_width"`
	MinStripHeight int `mapstructure:"min_strip_height" yaml:"min_strip_height" json:"min_strip_height"`

	// CellMinWidth and CellMaxWidth bound plausible grid-line intervals.
	CellMinWidth int `mapstructure:"cell_min_width" yaml:"cell_min_width" json:"cell_min_width"`
	CellMaxWidth int `mapstructure:"cell_max_width" yaml:"cell_max_width" json:"cell_max_width"`

	// MinLineHeightRatio is the fraction of the strip height a vertical
	// ink run must span to count as a grid line.
	MinLineHeightRatio float64 `mapstructure:"min_line_height_ratio" yaml:"min_line_height_ratio" json:"min_line_height_ratio"`

	// LineGroupGap merges nearby line columns produced by thick borders.
	LineGroupGap int `mapstructure:"line_group_gap" yaml:"line_group_gap" json:"line_group_gap"`

	// MinConsistentIntervals is the number of plausible line intervals
	// required before the detected median replaces the template cell width.
	MinConsistentIntervals int `mapstructure:"min_consistent_intervals" yaml:"min_consistent_intervals" json:"min_consistent_intervals"`

	// FallbackOffsetX positions the grid when line detection fails,
	// relative to the roll-number bubble origin.
	FallbackOffsetX int `mapstructure:"fallback_offset_x" yaml:"fallback_offset_x" json:"fallback_offset_x"`

	// InnerPadX trims cell borders before stroke detection.
	InnerPadX int `mapstructure:"inner_pad_x" yaml:"inner_pad_x" json:"inner_pad_x"`

	// CanvasMargin pads the square crop handed to recognition.
	CanvasMargin int `mapstructure:"canvas_margin" yaml:"canvas_margin" json:"canvas_margin"`
}

// DefaultConfig returns the calibrated segmentation defaults.
func DefaultConfig() Config {
	return Config{
		SearchPad:              150,
		SearchAbove:            200,
		SearchBottomMargin:     30,
		MinStripWidth:          200,
		MinStripHeight:         20,
		CellMinWidth:           40,
		CellMaxWidth:           80,
		MinLineHeightRatio:     0.5,
		LineGroupGap:           10,
		MinConsistentIntervals: 4,
		FallbackOffsetX:        68,
		InnerPadX:              4,
		CanvasMargin:           10,
	}
}
