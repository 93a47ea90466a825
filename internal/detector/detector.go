// Package detector finds bubble candidates on a binarized sheet: connected
// ink components are traced to closed contours, filtered by area and
// circularity against the template's expected bubble size, and deduplicated
// when concentric ring contours share a center.
package detector

import (
	"errors"
	"log/slog"
	"math"
	"sort"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/preprocess"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/utils"
)

// ErrNoCandidates indicates that no shape survived filtering, typically a
// blank scan or a miscalibrated template. The pipeline reports it as a
// calibration warning rather than aborting.
var ErrNoCandidates = errors.New("detector: no bubble candidates found")

// Config holds the shape filtering thresholds.
type Config struct {
	// MinCircularity rejects shapes with 4*pi*A/P^2 at or below this value.
	// Squares score around 0.78, clean bubbles approach 1.0.
	MinCircularity float64 `mapstructure:"min_circularity" yaml:"min_circularity" json:"min_circularity"`

	// MinAreaRatio and MaxAreaRatio bound the accepted contour area as
	// multiples of the template's expected bubble area.
	MinAreaRatio float64 `mapstructure:"min_area_ratio" yaml:"min_area_ratio" json:"min_area_ratio"`
	MaxAreaRatio float64 `mapstructure:"max_area_ratio" yaml:"max_area_ratio" json:"max_area_ratio"`

	// DuplicateDistance is the center distance in pixels under which two
	// surviving contours are considered the same bubble (inner/outer ring).
	DuplicateDistance float64 `mapstructure:"duplicate_distance" yaml:"duplicate_distance" json:"duplicate_distance"`
}

// DefaultConfig returns the calibrated filter defaults.
func DefaultConfig() Config {
	return Config{
		MinCircularity:    0.85,
		MinAreaRatio:      0.5,
		MaxAreaRatio:      5.0,
		DuplicateDistance: 10,
	}
}

// Candidate is a detected circular shape, immutable once created.
type Candidate struct {
	Center      utils.Point
	Radius      int
	Area        float64
	Perimeter   float64
	Circularity float64
}

// Detect extracts bubble candidates from the binary mask. expectedRadius is
// the template's bubble radius; it sizes the area band and is carried onto
// candidates for the evaluator's interior mask. The result is ordered by
// ascending y then ascending x so downstream clustering is deterministic.
func Detect(bin *preprocess.Binary, expectedRadius int, cfg Config) ([]Candidate, error) {
	if bin == nil || bin.W == 0 || bin.H == 0 {
		return nil, ErrNoCandidates
	}

	expectedArea := math.Pi * float64(expectedRadius) * float64(expectedRadius)
	minArea := cfg.MinAreaRatio * expectedArea
	maxArea := cfg.MaxAreaRatio * expectedArea

	comps, labels := connectedComponents(bin)

	candidates := make([]Candidate, 0, len(comps))
	for i, st := range comps {
		poly := traceContour(labels, bin.W, bin.H, i+1, st)
		if len(poly) < 3 {
			continue
		}
		area := utils.PolygonArea(poly)
		if area <= minArea || area >= maxArea {
			continue
		}
		perimeter := utils.PolygonPerimeter(poly)
		if perimeter == 0 {
			continue
		}
		circularity := 4 * math.Pi * area / (perimeter * perimeter)
		if circularity <= cfg.MinCircularity {
			continue
		}
		candidates = append(candidates, Candidate{
			Center:      utils.PolygonCentroid(poly),
			Radius:      expectedRadius,
			Area:        area,
			Perimeter:   perimeter,
			Circularity: circularity,
		})
	}

	kept := suppressDuplicates(candidates, cfg.DuplicateDistance)
	if len(kept) == 0 {
		return nil, ErrNoCandidates
	}
	if d := len(candidates) - len(kept); d > 0 {
		slog.Debug("suppressed concentric duplicates", "removed", d, "kept", len(kept))
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Center.Y != kept[j].Center.Y {
			return kept[i].Center.Y < kept[j].Center.Y
		}
		return kept[i].Center.X < kept[j].Center.X
	})
	return kept, nil
}

// suppressDuplicates collapses contours whose centers fall within dist of
// an already kept candidate. Candidates are visited best-first (highest
// circularity, ties by larger area) so the survivor of each concentric
// group is the cleanest ring.
func suppressDuplicates(cands []Candidate, dist float64) []Candidate {
	ordered := make([]Candidate, len(cands))
	copy(ordered, cands)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Circularity != ordered[j].Circularity {
			return ordered[i].Circularity > ordered[j].Circularity
		}
		return ordered[i].Area > ordered[j].Area
	})

	kept := make([]Candidate, 0, len(ordered))
	for _, c := range ordered {
		dup := false
		for _, k := range kept {
			if c.Center.Dist(k.Center) < dist {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, c)
		}
	}
	return kept
}
