// Package template models the declarative sheet layout description: page
// geometry, bubble dimensions, the header blocks holding the roll number
// and booklet code, and the question field blocks.
package template

import (
	"fmt"
	"math"
	"sort"
)

// Default calibration values applied when the layout file omits them.
const (
	DefaultHeaderSplitY      = 900
	DefaultRollBookletSplitX = 1100
	DefaultDigitsGap         = 48
	DefaultLabelsGap         = 26
	DefaultBubblesGap        = 26
	DefaultRowsPerBlock      = 12
	DefaultOptionsCount      = 4
)

// OptionLetters is the canonical option label order for answer bubbles.
var OptionLetters = []string{"A", "B", "C", "D", "E"}

// RollBlock describes the roll-number header block: a grid of digit columns
// where each column holds one bubble per digit value.
type RollBlock struct {
	Origin    [2]int   `json:"origin" yaml:"origin"`
	Digits    int      `json:"digits" yaml:"digits"`
	Rows      int      `json:"rows" yaml:"rows"`
	DigitsGap int      `json:"digitsGap,omitempty" yaml:"digitsGap,omitempty"`
	LabelsGap int      `json:"labelsGap,omitempty" yaml:"labelsGap,omitempty"`
	Labels    []string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Label returns the digit value assigned to a row index. Row 0 is the
// topmost bubble and maps to "0" unless the template overrides labels.
func (r *RollBlock) Label(row int) string {
	if row < len(r.Labels) {
		return r.Labels[row]
	}
	return fmt.Sprintf("%d", row)
}

// BookletBlock describes the test-booklet-code header block: a single row
// of option bubbles.
type BookletBlock struct {
	Origin     [2]int   `json:"origin" yaml:"origin"`
	Options    []string `json:"options" yaml:"options"`
	BubblesGap int      `json:"bubblesGap,omitempty" yaml:"bubblesGap,omitempty"`
}

// FieldBlock describes one question column on the answer grid.
type FieldBlock struct {
	Origin        [2]int `json:"origin" yaml:"origin"`
	QuestionRange string `json:"questionRange,omitempty" yaml:"questionRange,omitempty"`
	Rows          int    `json:"rows,omitempty" yaml:"rows,omitempty"`
	BubblesGap    int    `json:"bubblesGap,omitempty" yaml:"bubblesGap,omitempty"`
	LabelsGap     int    `json:"labelsGap,omitempty" yaml:"labelsGap,omitempty"`
	OptionsCount  int    `json:"optionsCount,omitempty" yaml:"optionsCount,omitempty"`
}

// FieldDefaults supplies fallback geometry for field blocks.
type FieldDefaults struct {
	BubblesGap   int `json:"bubblesGap,omitempty" yaml:"bubblesGap,omitempty"`
	LabelsGap    int `json:"labelsGap,omitempty" yaml:"labelsGap,omitempty"`
	RowsPerBlock int `json:"rowsPerBlock,omitempty" yaml:"rowsPerBlock,omitempty"`
	OptionsCount int `json:"optionsCount,omitempty" yaml:"optionsCount,omitempty"`
}

// HeaderBlocks groups the identity-carrying blocks at the top of the sheet.
type HeaderBlocks struct {
	RollNumber      *RollBlock    `json:"rollNumber,omitempty" yaml:"rollNumber,omitempty"`
	TestBookletCode *BookletBlock `json:"testBookletCode,omitempty" yaml:"testBookletCode,omitempty"`
}

// BubbleStyle carries per-sheet mark classification tuning. A zero
// FillThreshold means the evaluator keeps its configured threshold.
type BubbleStyle struct {
	FillThreshold float64 `json:"fillThreshold,omitempty" yaml:"fillThreshold,omitempty"`
}

// Template is the immutable layout description for one sheet design. It is
// loaded once and passed into every pipeline stage; stages never mutate it.
type Template struct {
	PageDimensions   [2]int                `json:"pageDimensions" yaml:"pageDimensions"`
	BubbleDimensions [2]int                `json:"bubbleDimensions" yaml:"bubbleDimensions"`
	HeaderSplitY     int                   `json:"headerSplitY,omitempty" yaml:"headerSplitY,omitempty"`
	RollSplitX       int                   `json:"rollSplitX,omitempty" yaml:"rollSplitX,omitempty"`
	BubbleStyle      BubbleStyle           `json:"bubbleStyle,omitempty" yaml:"bubbleStyle,omitempty"`
	HeaderBlocks     HeaderBlocks          `json:"headerBlocks,omitempty" yaml:"headerBlocks,omitempty"`
	FieldDefaults    FieldDefaults         `json:"fieldDefaults,omitempty" yaml:"fieldDefaults,omitempty"`
	FieldBlocks      map[string]FieldBlock `json:"fieldBlocks,omitempty" yaml:"fieldBlocks,omitempty"`
}

// ValidationError describes an invalid or incomplete layout file.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("template: invalid %s: %s", e.Field, e.Msg)
}

// Validate checks structural requirements and applies defaults for
// optional geometry.
func (t *Template) Validate() error {
	if t.PageDimensions[0] <= 0 || t.PageDimensions[1] <= 0 {
		return &ValidationError{Field: "pageDimensions", Msg: "must be positive"}
	}
	if t.BubbleDimensions[0] <= 0 || t.BubbleDimensions[1] <= 0 {
		return &ValidationError{Field: "bubbleDimensions", Msg: "must be positive"}
	}
	if t.HeaderSplitY <= 0 {
		t.HeaderSplitY = DefaultHeaderSplitY
	}
	if t.RollSplitX <= 0 {
		t.RollSplitX = DefaultRollBookletSplitX
	}
	if rn := t.HeaderBlocks.RollNumber; rn != nil {
		if rn.Digits <= 0 {
			return &ValidationError{Field: "headerBlocks.rollNumber.digits", Msg: "must be positive"}
		}
		if rn.Rows <= 0 {
			return &ValidationError{Field: "headerBlocks.rollNumber.rows", Msg: "must be positive"}
		}
		if rn.DigitsGap <= 0 {
			rn.DigitsGap = DefaultDigitsGap
		}
		if rn.LabelsGap <= 0 {
			rn.LabelsGap = DefaultLabelsGap
		}
	}
	if tb := t.HeaderBlocks.TestBookletCode; tb != nil {
		if len(tb.Options) == 0 {
			return &ValidationError{Field: "headerBlocks.testBookletCode.options", Msg: "must not be empty"}
		}
		if tb.BubblesGap <= 0 {
			tb.BubblesGap = DefaultBubblesGap
		}
	}
	if t.FieldDefaults.BubblesGap <= 0 {
		t.FieldDefaults.BubblesGap = DefaultBubblesGap
	}
	if t.FieldDefaults.LabelsGap <= 0 {
		t.FieldDefaults.LabelsGap = DefaultLabelsGap + 6
	}
	if t.FieldDefaults.RowsPerBlock <= 0 {
		t.FieldDefaults.RowsPerBlock = DefaultRowsPerBlock
	}
	if t.FieldDefaults.OptionsCount <= 0 {
		t.FieldDefaults.OptionsCount = DefaultOptionsCount
	}
	for name, fb := range t.FieldBlocks {
		if fb.Origin[0] < 0 || fb.Origin[1] < 0 {
			return &ValidationError{Field: "fieldBlocks." + name + ".origin", Msg: "must be non-negative"}
		}
	}
	return nil
}

// Radius returns the expected bubble radius in pixels.
func (t *Template) Radius() int {
	return int(math.Min(float64(t.BubbleDimensions[0]), float64(t.BubbleDimensions[1])) / 2)
}

// ExpectedArea returns the expected bubble area in pixels.
func (t *Template) ExpectedArea() float64 {
	r := float64(t.Radius())
	return math.Pi * r * r
}

// BlockRows returns the row count for a field block, falling back to the
// template defaults.
func (t *Template) BlockRows(fb FieldBlock) int {
	if fb.Rows > 0 {
		return fb.Rows
	}
	return t.FieldDefaults.RowsPerBlock
}

// BlockOptions returns the option count for a field block, falling back to
// the template defaults.
func (t *Template) BlockOptions(fb FieldBlock) int {
	if fb.OptionsCount > 0 {
		return fb.OptionsCount
	}
	return t.FieldDefaults.OptionsCount
}

// NamedBlock pairs a field block with its name for ordered iteration.
type NamedBlock struct {
	Name  string
	Block FieldBlock
}

// SortedFieldBlocks returns field blocks ordered left-to-right by origin x.
func (t *Template) SortedFieldBlocks() []NamedBlock {
	blocks := make([]NamedBlock, 0, len(t.FieldBlocks))
	for name, fb := range t.FieldBlocks {
		blocks = append(blocks, NamedBlock{Name: name, Block: fb})
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Block.Origin[0] != blocks[j].Block.Origin[0] {
			return blocks[i].Block.Origin[0] < blocks[j].Block.Origin[0]
		}
		return blocks[i].Name < blocks[j].Name
	})
	return blocks
}

// OptionLabel returns the option letter for an index, past the canonical
// letters it falls back to the numeric index.
func OptionLabel(i int) string {
	if i < len(OptionLetters) {
		return OptionLetters[i]
	}
	return fmt.Sprintf("%d", i)
}
