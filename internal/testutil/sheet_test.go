package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isBlack(s *Sheet, x, y int) bool {
	r, g, b, _ := s.img.At(x, y).RGBA()
	return r == 0 && g == 0 && b == 0
}

func TestNewSheetDimensions(t *testing.T) {
	tpl := NewTemplate()
	sheet := NewSheet(tpl)

	b := sheet.Image().Bounds()
	assert.Equal(t, tpl.PageDimensions[0], b.Dx())
	assert.Equal(t, tpl.PageDimensions[1], b.Dy())
	assert.Same(t, tpl, sheet.Template())
}

func TestNewSheetDrawsRings(t *testing.T) {
	sheet := NewSheet(NewTemplate())
	r := sheet.radius()

	// Ring on the edge, white at the center, white far outside.
	cx, cy := sheet.rollCenter(0, 0)
	assert.True(t, isBlack(sheet, cx+r, cy), "ring edge should be inked")
	assert.False(t, isBlack(sheet, cx, cy), "ring center should stay white")
	assert.False(t, isBlack(sheet, cx+3*r, cy))

	cx, cy = sheet.bookletCenter(3)
	assert.True(t, isBlack(sheet, cx+r, cy))
	assert.False(t, isBlack(sheet, cx, cy))
}

func TestFillRoll(t *testing.T) {
	sheet := NewSheet(NewTemplate()).FillRoll("40715")

	// Column 0 digit 4: filled center; row 5 of the same column stays open.
	cx, cy := sheet.rollCenter(0, 4)
	assert.True(t, isBlack(sheet, cx, cy))
	cx, cy = sheet.rollCenter(0, 5)
	assert.False(t, isBlack(sheet, cx, cy))

	cx, cy = sheet.rollCenter(4, 5)
	assert.True(t, isBlack(sheet, cx, cy))
}

func TestFillAnswerRowMajorNumbering(t *testing.T) {
	tpl := NewTemplate()
	sheet := NewSheet(tpl).FillAnswer(5, "B")

	// Question 5 sits in the second block, first row; option B is the
	// second bubble.
	blocks := tpl.SortedFieldBlocks()
	require.Len(t, blocks, 3)
	cx, cy := sheet.answerCenter(blocks[1].Block, 0, 1)
	assert.True(t, isBlack(sheet, cx, cy))

	// Its neighbors stay open.
	cx, cy = sheet.answerCenter(blocks[1].Block, 0, 0)
	assert.False(t, isBlack(sheet, cx, cy))
	cx, cy = sheet.answerCenter(blocks[0].Block, 0, 1)
	assert.False(t, isBlack(sheet, cx, cy))
}

func TestDrawIdentityStrip(t *testing.T) {
	tpl := NewTemplate()
	sheet := NewSheet(tpl)
	box := sheet.DrawIdentityStrip("40715")

	rn := tpl.HeaderBlocks.RollNumber
	assert.Equal(t, rn.Origin[1]-stripAboveGap, box.Max.Y)
	assert.Equal(t, stripHeight, box.Dy())
	assert.Equal(t, rn.Digits*stripCellWidth, box.Dx())

	// Border and the first internal grid line are inked.
	assert.True(t, isBlack(sheet, box.Min.X, box.Min.Y+stripHeight/2))
	assert.True(t, isBlack(sheet, box.Min.X+stripCellWidth, box.Min.Y+stripHeight/2+5))

	// A drawn digit leaves ink somewhere inside its cell interior.
	found := false
	for y := box.Min.Y + 5; y < box.Max.Y-5 && !found; y++ {
		for x := box.Min.X + 5; x < box.Min.X+stripCellWidth-5; x++ {
			if isBlack(sheet, x, y) {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "first cell should contain digit ink")
}

func TestDrawIdentityStripBlankCells(t *testing.T) {
	sheet := NewSheet(NewTemplate())
	box := sheet.DrawIdentityStrip("4 7")

	// Second cell was left blank; its interior stays white.
	left := box.Min.X + stripCellWidth
	for y := box.Min.Y + 5; y < box.Max.Y-5; y++ {
		for x := left + 5; x < left+stripCellWidth-5; x++ {
			require.False(t, isBlack(sheet, x, y), "blank cell inked at (%d,%d)", x, y)
		}
	}
}
