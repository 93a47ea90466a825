// Package testutil generates synthetic answer sheets for tests: white pages
// with bubble rings at template coordinates, filled marks, and an identity
// strip with grid lines and printed digits.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/template"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/utils"
)

// ringThickness keeps empty bubble outlines wide enough to survive the
// blur applied during binarization.
const ringThickness = 3

// NewTemplate returns the canonical synthetic sheet layout used across the
// test suite: a 5-digit roll block, a 4-option booklet row, and three
// answer blocks of 4 rows by 4 options (48 answer bubbles, questions 1-12).
// The template is validated so all defaults are applied.
func NewTemplate() *template.Template {
	tpl := &template.Template{
		PageDimensions:   [2]int{1300, 1400},
		BubbleDimensions: [2]int{20, 20},
		HeaderBlocks: template.HeaderBlocks{
			RollNumber: &template.RollBlock{
				Origin: [2]int{200, 300},
				Digits: 5,
				Rows:   10,
			},
			TestBookletCode: &template.BookletBlock{
				Origin:  [2]int{1150, 300},
				Options: []string{"A", "B", "C", "D"},
			},
		},
		FieldBlocks: map[string]template.FieldBlock{
			"block1": {Origin: [2]int{200, 980}, QuestionRange: "q1..4", Rows: 4},
			"block2": {Origin: [2]int{550, 980}, QuestionRange: "q5..8", Rows: 4},
			"block3": {Origin: [2]int{900, 980}, QuestionRange: "q9..12", Rows: 4},
		},
	}
	if err := tpl.Validate(); err != nil {
		panic(err)
	}
	return tpl
}

// Sheet builds a synthetic scan incrementally.
type Sheet struct {
	tpl *template.Template
	img *image.RGBA
}

// NewSheet creates a white page at template dimensions with every declared
// bubble drawn as an empty ring.
func NewSheet(tpl *template.Template) *Sheet {
	img := image.NewRGBA(image.Rect(0, 0, tpl.PageDimensions[0], tpl.PageDimensions[1]))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	s := &Sheet{tpl: tpl, img: img}

	if rn := tpl.HeaderBlocks.RollNumber; rn != nil {
		for col := 0; col < rn.Digits; col++ {
			for row := 0; row < rn.Rows; row++ {
				x, y := s.rollCenter(col, row)
				s.ring(x, y)
			}
		}
	}
	if tb := tpl.HeaderBlocks.TestBookletCode; tb != nil {
		for i := range tb.Options {
			x, y := s.bookletCenter(i)
			s.ring(x, y)
		}
	}
	for _, nb := range tpl.SortedFieldBlocks() {
		rows := tpl.BlockRows(nb.Block)
		opts := tpl.BlockOptions(nb.Block)
		for row := 0; row < rows; row++ {
			for opt := 0; opt < opts; opt++ {
				x, y := s.answerCenter(nb.Block, row, opt)
				s.ring(x, y)
			}
		}
	}
	return s
}

// Image returns the rendered sheet.
func (s *Sheet) Image() image.Image { return s.img }

// Template returns the layout the sheet was drawn from.
func (s *Sheet) Template() *template.Template { return s.tpl }

func (s *Sheet) radius() int { return s.tpl.Radius() }

func (s *Sheet) ring(cx, cy int) {
	utils.DrawCircle(s.img, cx, cy, s.radius(), color.Black, ringThickness)
}

func (s *Sheet) fill(cx, cy int) {
	utils.FillCircle(s.img, cx, cy, s.radius(), color.Black)
}

func (s *Sheet) rollCenter(col, row int) (int, int) {
	rn := s.tpl.HeaderBlocks.RollNumber
	return rn.Origin[0] + col*rn.DigitsGap, rn.Origin[1] + row*rn.LabelsGap
}

func (s *Sheet) bookletCenter(opt int) (int, int) {
	tb := s.tpl.HeaderBlocks.TestBookletCode
	return tb.Origin[0] + opt*tb.BubblesGap, tb.Origin[1]
}

func (s *Sheet) answerCenter(fb template.FieldBlock, row, opt int) (int, int) {
	gap := fb.BubblesGap
	if gap <= 0 {
		gap = s.tpl.FieldDefaults.BubblesGap
	}
	rowGap := fb.LabelsGap
	if rowGap <= 0 {
		rowGap = s.tpl.FieldDefaults.LabelsGap
	}
	return fb.Origin[0] + opt*gap, fb.Origin[1] + row*rowGap
}

// FillRoll darkens one bubble per digit column for the given roll number.
// The string length must not exceed the declared digit count.
func (s *Sheet) FillRoll(roll string) *Sheet {
	for col, r := range roll {
		row, err := strconv.Atoi(string(r))
		if err != nil {
			continue
		}
		x, y := s.rollCenter(col, row)
		s.fill(x, y)
	}
	return s
}

// FillRollAt darkens a single roll bubble; used to fabricate multi-mark
// columns.
func (s *Sheet) FillRollAt(col, row int) *Sheet {
	x, y := s.rollCenter(col, row)
	s.fill(x, y)
	return s
}

// FillBooklet darkens the booklet-code option at the given index.
func (s *Sheet) FillBooklet(optIdx int) *Sheet {
	x, y := s.bookletCenter(optIdx)
	s.fill(x, y)
	return s
}

// FillAnswer darkens one option bubble of a question. Questions number
// row-major across blocks, matching the structural mapper.
func (s *Sheet) FillAnswer(question int, option string) *Sheet {
	blocks := s.tpl.SortedFieldBlocks()
	numCols := len(blocks)
	colIdx := (question - 1) % numCols
	rowIdx := (question - 1) / numCols
	optIdx := optionIndex(option)

	x, y := s.answerCenter(blocks[colIdx].Block, rowIdx, optIdx)
	s.fill(x, y)
	return s
}

// FillAnswers darkens one bubble per question from the given map.
func (s *Sheet) FillAnswers(answers map[int]string) *Sheet {
	for q, opt := range answers {
		s.FillAnswer(q, opt)
	}
	return s
}

func optionIndex(opt string) int {
	for i, letter := range template.OptionLetters {
		if letter == opt {
			return i
		}
	}
	return 0
}

// identity strip geometry relative to the roll block
const (
	stripCellWidth = 50
	stripHeight    = 60
	stripAboveGap  = 50
)

// DrawIdentityStrip draws the handwritten-digit strip above the roll
// block: a bordered box with vertical grid lines every cell width and the
// given digits printed into the leading cells. Empty positions in value
// (spaces) leave blank cells. Returns the strip rectangle.
func (s *Sheet) DrawIdentityStrip(value string) image.Rectangle {
	rn := s.tpl.HeaderBlocks.RollNumber
	digits := rn.Digits

	bottom := rn.Origin[1] - stripAboveGap
	top := bottom - stripHeight
	left := rn.Origin[0] - 60
	right := left + digits*stripCellWidth
	box := image.Rect(left, top, right, bottom)

	utils.DrawRect(s.img, box, color.Black, 2)
	for i := 1; i < digits; i++ {
		x := left + i*stripCellWidth
		vline(s.img, x, top, bottom, 2)
	}

	for i, r := range value {
		if i >= digits || r == ' ' {
			continue
		}
		cx := left + i*stripCellWidth + stripCellWidth/2
		cy := top + stripHeight/2
		s.drawDigit(string(r), cx, cy)
	}
	return box
}

// drawDigit prints one character centered at (cx, cy), double-struck with
// small offsets so the stroke is tall and thick enough to register as a
// single fragment after binarization.
func (s *Sheet) drawDigit(digit string, cx, cy int) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, digit).Ceil()

	for _, off := range []image.Point{{0, 0}, {1, 0}, {0, 2}, {1, 2}, {0, 4}, {1, 4}} {
		d := &font.Drawer{
			Dst:  s.img,
			Src:  image.NewUniform(color.Black),
			Face: face,
			Dot: fixed.P(cx-w/2+off.X,
				cy+face.Metrics().Ascent.Ceil()/2+off.Y),
		}
		d.DrawString(digit)
	}
}

func vline(img *image.RGBA, x, y1, y2, thickness int) {
	for t := 0; t < thickness; t++ {
		for y := y1; y <= y2; y++ {
			img.Set(x+t, y, color.Black)
		}
	}
}
