package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTemplate() *Template {
	return &Template{
		PageDimensions:   [2]int{2084, 2946},
		BubbleDimensions: [2]int{36, 36},
		HeaderBlocks: HeaderBlocks{
			RollNumber:      &RollBlock{Origin: [2]int{150, 300}, Digits: 6, Rows: 10},
			TestBookletCode: &BookletBlock{Origin: [2]int{1200, 300}, Options: []string{"A", "B", "C", "D"}},
		},
		FieldBlocks: map[string]FieldBlock{
			"col1": {Origin: [2]int{150, 1000}, QuestionRange: "q1..25"},
			"col2": {Origin: [2]int{600, 1000}, QuestionRange: "q26..50"},
		},
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	tpl := validTemplate()
	require.NoError(t, tpl.Validate())

	assert.Equal(t, DefaultHeaderSplitY, tpl.HeaderSplitY)
	assert.Equal(t, DefaultRollBookletSplitX, tpl.RollSplitX)
	assert.Zero(t, tpl.BubbleStyle.FillThreshold, "unset threshold stays zero for the evaluator fallback")
	assert.Equal(t, DefaultDigitsGap, tpl.HeaderBlocks.RollNumber.DigitsGap)
	assert.Equal(t, DefaultLabelsGap, tpl.HeaderBlocks.RollNumber.LabelsGap)
	assert.Equal(t, DefaultBubblesGap, tpl.HeaderBlocks.TestBookletCode.BubblesGap)
	assert.Equal(t, DefaultRowsPerBlock, tpl.FieldDefaults.RowsPerBlock)
	assert.Equal(t, DefaultOptionsCount, tpl.FieldDefaults.OptionsCount)
}

func TestValidatePreservesExplicitValues(t *testing.T) {
	tpl := validTemplate()
	tpl.HeaderSplitY = 750
	tpl.BubbleStyle.FillThreshold = 0.5
	tpl.HeaderBlocks.RollNumber.DigitsGap = 60

	require.NoError(t, tpl.Validate())
	assert.Equal(t, 750, tpl.HeaderSplitY)
	assert.InDelta(t, 0.5, tpl.BubbleStyle.FillThreshold, 1e-9)
	assert.Equal(t, 60, tpl.HeaderBlocks.RollNumber.DigitsGap)
}

func TestValidateRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Template)
	}{
		{"zero page width", func(tpl *Template) { tpl.PageDimensions[0] = 0 }},
		{"negative bubble height", func(tpl *Template) { tpl.BubbleDimensions[1] = -1 }},
		{"roll block without digits", func(tpl *Template) { tpl.HeaderBlocks.RollNumber.Digits = 0 }},
		{"roll block without rows", func(tpl *Template) { tpl.HeaderBlocks.RollNumber.Rows = 0 }},
		{"booklet block without options", func(tpl *Template) { tpl.HeaderBlocks.TestBookletCode.Options = nil }},
		{"negative field origin", func(tpl *Template) {
			tpl.FieldBlocks["col1"] = FieldBlock{Origin: [2]int{-5, 100}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := validTemplate()
			tt.mutate(tpl)
			err := tpl.Validate()
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestRadiusAndExpectedArea(t *testing.T) {
	tpl := validTemplate()
	require.NoError(t, tpl.Validate())

	assert.Equal(t, 18, tpl.Radius())
	assert.InDelta(t, 1017.87, tpl.ExpectedArea(), 0.5)

	// Non-square bubbles use the smaller dimension.
	tpl.BubbleDimensions = [2]int{40, 30}
	assert.Equal(t, 15, tpl.Radius())
}

func TestSortedFieldBlocksOrdersByOriginX(t *testing.T) {
	tpl := validTemplate()
	tpl.FieldBlocks["col0"] = FieldBlock{Origin: [2]int{50, 1000}}
	require.NoError(t, tpl.Validate())

	blocks := tpl.SortedFieldBlocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, "col0", blocks[0].Name)
	assert.Equal(t, "col1", blocks[1].Name)
	assert.Equal(t, "col2", blocks[2].Name)
}

func TestRollBlockLabel(t *testing.T) {
	rn := &RollBlock{Digits: 2, Rows: 10}
	assert.Equal(t, "0", rn.Label(0))
	assert.Equal(t, "9", rn.Label(9))

	rn.Labels = []string{"X", "Y"}
	assert.Equal(t, "X", rn.Label(0))
	assert.Equal(t, "2", rn.Label(2))
}

func TestOptionLabel(t *testing.T) {
	assert.Equal(t, "A", OptionLabel(0))
	assert.Equal(t, "E", OptionLabel(4))
	assert.Equal(t, "5", OptionLabel(5))
}

func TestBlockFallbacks(t *testing.T) {
	tpl := validTemplate()
	require.NoError(t, tpl.Validate())

	assert.Equal(t, DefaultRowsPerBlock, tpl.BlockRows(FieldBlock{}))
	assert.Equal(t, 7, tpl.BlockRows(FieldBlock{Rows: 7}))
	assert.Equal(t, DefaultOptionsCount, tpl.BlockOptions(FieldBlock{}))
	assert.Equal(t, 5, tpl.BlockOptions(FieldBlock{OptionsCount: 5}))
}
