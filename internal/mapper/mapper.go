// Package mapper assigns semantic labels to detected bubble candidates.
// Candidates are split into header and answer regions by the template's
// split line, clustered into columns and rows by coordinate gap analysis,
// and labeled with roll-number digits, booklet-code options, or
// question/option identifiers.
package mapper

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/detector"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/template"
)

// Region identifies the sheet zone a bubble belongs to.
type Region int

const (
	RegionRoll Region = iota
	RegionBooklet
	RegionAnswer
)

func (r Region) String() string {
	switch r {
	case RegionRoll:
		return "rollNumber"
	case RegionBooklet:
		return "testBookletCode"
	case RegionAnswer:
		return "answer"
	default:
		return "unknown"
	}
}

// Bubble is a candidate enriched with its semantic label. Labels are unique
// within a region; bubbles are never mutated after mapping.
type Bubble struct {
	detector.Candidate
	Region   Region
	ID       string
	Group    string
	Column   int
	Row      int
	Question int    // answer region only
	Value    string // digit value or option letter
}

// Layout is the mapper output: labeled bubbles plus calibration context.
type Layout struct {
	Bubbles         []Bubble
	DetectedColumns int
	Warnings        []string
}

// Config holds the gap-clustering tolerances.
type Config struct {
	// ColumnGap separates adjacent roll-number digit columns (px).
	ColumnGap float64 `mapstructure:"column_gap" yaml:"column_gap" json:"column_gap"`

	// ColumnBreakGap is the minimum x-gap declaring an answer-grid column
	// boundary (px). Intra-option gaps run around 26-40 px, column
	// separators above 60 px.
	ColumnBreakGap float64 `mapstructure:"column_break_gap" yaml:"column_break_gap" json:"column_break_gap"`

	// BreakGapMedianScale raises the effective break gap to this multiple
	// of the median intra-option gap when the sheet is printed wider than
	// the fixed threshold assumes.
	BreakGapMedianScale float64 `mapstructure:"break_gap_median_scale" yaml:"break_gap_median_scale" json:"break_gap_median_scale"`

	// RowGap separates adjacent question rows within a column (px).
	RowGap float64 `mapstructure:"row_gap" yaml:"row_gap" json:"row_gap"`

	// MinAnswerCandidates guards grid inference against near-empty pools.
	MinAnswerCandidates int `mapstructure:"min_answer_candidates" yaml:"min_answer_candidates" json:"min_answer_candidates"`
}

// DefaultConfig returns the calibrated clustering defaults.
func DefaultConfig() Config {
	return Config{
		ColumnGap:           30,
		ColumnBreakGap:      60,
		BreakGapMedianScale: 2.0,
		RowGap:              25,
		MinAnswerCandidates: 20,
	}
}

// Map labels the candidate sequence against the template's layout.
func Map(cands []detector.Candidate, tpl *template.Template, cfg Config) (*Layout, error) {
	layout := &Layout{}

	splitY := float64(tpl.HeaderSplitY)
	var header, answers []detector.Candidate
	for _, c := range cands {
		if c.Center.Y < splitY {
			header = append(header, c)
		} else {
			answers = append(answers, c)
		}
	}
	slog.Debug("region split", "split_y", tpl.HeaderSplitY, "header", len(header), "answers", len(answers))

	mapRollNumber(layout, header, tpl, cfg)
	mapBookletCode(layout, header, tpl)
	mapAnswerGrid(layout, answers, tpl, cfg)

	return layout, nil
}

// mapRollNumber clusters the left header zone into digit columns and
// assigns row-ordinal digit values.
func mapRollNumber(layout *Layout, header []detector.Candidate, tpl *template.Template, cfg Config) {
	rn := tpl.HeaderBlocks.RollNumber
	if rn == nil {
		return
	}

	pool := make([]detector.Candidate, 0, len(header))
	for _, c := range header {
		if c.Center.X < float64(tpl.RollSplitX) {
			pool = append(pool, c)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Center.X < pool[j].Center.X })

	cols := clusterByCentroid(pool, cfg.ColumnGap)
	if len(cols) != rn.Digits {
		layout.warn("roll-number zone has %d detected columns, template declares %d digits", len(cols), rn.Digits)
	}

	for colIdx, col := range cols {
		if colIdx >= rn.Digits {
			layout.dropOutliers(RegionRoll, col)
			break
		}
		sort.SliceStable(col, func(i, j int) bool { return col[i].Center.Y < col[j].Center.Y })
		for rowIdx, c := range col {
			if rowIdx >= rn.Rows {
				layout.dropOutliers(RegionRoll, col[rowIdx:])
				break
			}
			value := rn.Label(rowIdx)
			layout.Bubbles = append(layout.Bubbles, Bubble{
				Candidate: c,
				Region:    RegionRoll,
				ID:        fmt.Sprintf("roll_col%d_val%s", colIdx, value),
				Group:     "rollNumber",
				Column:    colIdx,
				Row:       rowIdx,
				Value:     value,
			})
		}
	}
}

// mapBookletCode labels the right header zone left-to-right against the
// declared option list.
func mapBookletCode(layout *Layout, header []detector.Candidate, tpl *template.Template) {
	tb := tpl.HeaderBlocks.TestBookletCode
	if tb == nil {
		return
	}

	pool := make([]detector.Candidate, 0, len(header))
	for _, c := range header {
		if c.Center.X >= float64(tpl.RollSplitX) {
			pool = append(pool, c)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Center.X < pool[j].Center.X })

	for i, c := range pool {
		if i >= len(tb.Options) {
			layout.dropOutliers(RegionBooklet, pool[i:])
			break
		}
		opt := tb.Options[i]
		layout.Bubbles = append(layout.Bubbles, Bubble{
			Candidate: c,
			Region:    RegionBooklet,
			ID:        "testBooklet_" + opt,
			Group:     "testBookletCode",
			Column:    i,
			Value:     opt,
		})
	}
}

// mapAnswerGrid infers the question-column structure from horizontal gaps
// rather than assuming the template's block count, then clusters each
// column into question rows.
func mapAnswerGrid(layout *Layout, pool []detector.Candidate, tpl *template.Template, cfg Config) {
	if len(pool) < cfg.MinAnswerCandidates {
		if len(pool) > 0 {
			layout.warn("answer region has only %d candidates, skipping grid inference", len(pool))
		}
		return
	}

	sorted := make([]detector.Candidate, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Center.X < sorted[j].Center.X })

	breakGap := columnBreakGap(sorted, cfg)
	cols := clusterByGap(sorted, breakGap, func(c detector.Candidate) float64 { return c.Center.X })
	layout.DetectedColumns = len(cols)

	blocks := tpl.SortedFieldBlocks()
	if len(blocks) > 0 && len(cols) != len(blocks) {
		layout.warn("detected %d answer columns, template declares %d field blocks", len(cols), len(blocks))
	}

	for colIdx, col := range cols {
		var block template.FieldBlock
		var group string
		if colIdx < len(blocks) {
			block = blocks[colIdx].Block
			group = blocks[colIdx].Name
		} else {
			group = fmt.Sprintf("col%d", colIdx+1)
		}
		opts := tpl.BlockOptions(block)

		sort.SliceStable(col, func(i, j int) bool { return col[i].Center.Y < col[j].Center.Y })
		rows := clusterByGap(col, cfg.RowGap, func(c detector.Candidate) float64 { return c.Center.Y })

		for rowIdx, row := range rows {
			sort.SliceStable(row, func(i, j int) bool { return row[i].Center.X < row[j].Center.X })
			question := rowIdx*len(cols) + colIdx + 1
			for optIdx, c := range row {
				if optIdx >= opts {
					layout.dropOutliers(RegionAnswer, row[optIdx:])
					break
				}
				value := template.OptionLabel(optIdx)
				layout.Bubbles = append(layout.Bubbles, Bubble{
					Candidate: c,
					Region:    RegionAnswer,
					ID:        fmt.Sprintf("q%d_%s", question, value),
					Group:     group,
					Column:    colIdx,
					Row:       rowIdx,
					Question:  question,
					Value:     value,
				})
			}
		}
	}
}

// columnBreakGap derives the effective column separator threshold: the
// configured floor, raised to a multiple of the median intra-option gap
// when the print spacing is wider than the floor assumes.
func columnBreakGap(sorted []detector.Candidate, cfg Config) float64 {
	var intra []float64
	for i := 1; i < len(sorted); i++ {
		g := sorted[i].Center.X - sorted[i-1].Center.X
		if g > 1 && g <= cfg.ColumnBreakGap {
			intra = append(intra, g)
		}
	}
	threshold := cfg.ColumnBreakGap
	if len(intra) > 0 {
		sort.Float64s(intra)
		scaled := cfg.BreakGapMedianScale * intra[len(intra)/2]
		if scaled > threshold {
			threshold = scaled
		}
	}
	return threshold
}

// clusterByCentroid groups an x-sorted sequence into columns: a candidate
// joins the current column while its x-distance from the column's running
// centroid stays within tolerance, else a new column starts.
func clusterByCentroid(sorted []detector.Candidate, tolerance float64) [][]detector.Candidate {
	if len(sorted) == 0 {
		return nil
	}
	var clusters [][]detector.Candidate
	current := []detector.Candidate{sorted[0]}
	sum := sorted[0].Center.X
	for i := 1; i < len(sorted); i++ {
		centroid := sum / float64(len(current))
		if sorted[i].Center.X-centroid > tolerance {
			clusters = append(clusters, current)
			current = nil
			sum = 0
		}
		current = append(current, sorted[i])
		sum += sorted[i].Center.X
	}
	clusters = append(clusters, current)
	return clusters
}

// clusterByGap groups a coordinate-sorted sequence into clusters, starting
// a new cluster whenever the gap to the previous element exceeds maxGap.
func clusterByGap(sorted []detector.Candidate, maxGap float64, coord func(detector.Candidate) float64) [][]detector.Candidate {
	if len(sorted) == 0 {
		return nil
	}
	var clusters [][]detector.Candidate
	current := []detector.Candidate{sorted[0]}
	for i := 1; i < len(sorted); i++ {
		if coord(sorted[i])-coord(sorted[i-1]) > maxGap {
			clusters = append(clusters, current)
			current = nil
		}
		current = append(current, sorted[i])
	}
	clusters = append(clusters, current)
	return clusters
}

func (l *Layout) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.Warnings = append(l.Warnings, msg)
	slog.Warn(msg)
}

// dropOutliers logs candidates that exceed a cluster's declared capacity.
// They are never merged into a neighboring cluster.
func (l *Layout) dropOutliers(region Region, dropped []detector.Candidate) {
	if len(dropped) == 0 {
		return
	}
	for _, c := range dropped {
		slog.Warn("dropping unassignable bubble candidate",
			"region", region.String(), "x", c.Center.X, "y", c.Center.Y)
	}
	l.warn("%s: dropped %d unassignable bubble candidate(s)", region.String(), len(dropped))
}
