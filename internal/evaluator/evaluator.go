// Package evaluator classifies mapped bubbles as filled or empty by
// sampling ink density inside a shrunk interior disc, so the bubble's
// printed outline never counts as ink.
package evaluator

import (
	"math"
	"sort"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/mapper"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/preprocess"
)

// Config holds the mark classification parameters.
type Config struct {
	// FillThreshold is the fill ratio above which a bubble counts as
	// filled. Strictly greater-than: a ratio of exactly the threshold is
	// empty.
	FillThreshold float64 `mapstructure:"fill_threshold" yaml:"fill_threshold" json:"fill_threshold"`

	// MaskScale shrinks the sampling disc relative to the bubble radius to
	// stay inside the printed ring.
	MaskScale float64 `mapstructure:"mask_scale" yaml:"mask_scale" json:"mask_scale"`
}

// DefaultConfig returns the calibrated classification defaults.
func DefaultConfig() Config {
	return Config{
		FillThreshold: 0.35,
		MaskScale:     0.6,
	}
}

// Mark is a mapped bubble plus its classification. Filled always equals
// FillRatio > threshold for the config used.
type Mark struct {
	mapper.Bubble
	FillRatio float64
	Filled    bool
}

// Evaluate classifies a single bubble. Pure and order-independent.
func Evaluate(bin *preprocess.Binary, b mapper.Bubble, cfg Config) Mark {
	maskRadius := int(float64(b.Radius) * cfg.MaskScale)
	if maskRadius < 2 {
		maskRadius = 2
	}

	cx := int(math.Round(b.Center.X))
	cy := int(math.Round(b.Center.Y))

	inkPixels := 0
	maskPixels := 0
	r2 := float64(maskRadius) * float64(maskRadius)
	for y := cy - maskRadius; y <= cy+maskRadius; y++ {
		for x := cx - maskRadius; x <= cx+maskRadius; x++ {
			dx := float64(x - cx)
			dy := float64(y - cy)
			if dx*dx+dy*dy > r2 {
				continue
			}
			maskPixels++
			if bin.Ink(x, y) {
				inkPixels++
			}
		}
	}

	ratio := 0.0
	if maskPixels > 0 {
		ratio = float64(inkPixels) / float64(maskPixels)
	}
	return Mark{
		Bubble:    b,
		FillRatio: ratio,
		Filled:    ratio > cfg.FillThreshold,
	}
}

// EvaluateAll classifies every bubble in the layout. Bubbles are
// independent; the output preserves the mapper's (y, x) ordering.
func EvaluateAll(bin *preprocess.Binary, bubbles []mapper.Bubble, cfg Config) []Mark {
	marks := make([]Mark, len(bubbles))
	for i, b := range bubbles {
		marks[i] = Evaluate(bin, b, cfg)
	}
	sort.SliceStable(marks, func(i, j int) bool {
		if marks[i].Center.Y != marks[j].Center.Y {
			return marks[i].Center.Y < marks[j].Center.Y
		}
		return marks[i].Center.X < marks[j].Center.X
	})
	return marks
}
