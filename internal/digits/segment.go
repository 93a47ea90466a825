package digits

import (
	"errors"
	"image"
	"image/color"
	"log/slog"
	"sort"

	"github.com/anthonynsimon/bild/effect"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/detector"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/preprocess"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/template"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/utils"
)

// ErrNoRollBlock indicates the template declares no roll-number block, so
// there is no identity strip to segment.
var ErrNoRollBlock = errors.New("digits: template has no roll-number block")

// Segment locates the identity strip on the page and partitions it into
// per-digit cells. src must already be resized to the template's page
// dimensions. Every declared digit position yields exactly one cell;
// positions without ink come back blank.
func Segment(src image.Image, tpl *template.Template, cfg Config) (*Strip, error) {
	rn := tpl.HeaderBlocks.RollNumber
	if rn == nil {
		return nil, ErrNoRollBlock
	}

	search := searchWindow(rn, tpl, cfg)
	stripBox, found := locateStrip(src, search, cfg)
	if !found {
		stripBox = fallbackStripBox(rn, cfg)
		slog.Warn("identity strip not found, using template-derived box", "box", stripBox)
	}

	cells := partitionCells(src, stripBox, rn, cfg)
	return &Strip{Box: stripBox, Cells: cells}, nil
}

// searchWindow derives the strip search region from the roll-number bubble
// geometry: centered over the digit columns, above the first bubble row.
func searchWindow(rn *template.RollBlock, tpl *template.Template, cfg Config) image.Rectangle {
	gridW := rn.Digits * rn.DigitsGap
	cx := rn.Origin[0] + gridW/2
	w := gridW + cfg.SearchPad

	x1 := cx - w/2
	if x1 < 0 {
		x1 = 0
	}
	y1 := rn.Origin[1] - cfg.SearchAbove
	if y1 < 0 {
		y1 = 0
	}
	y2 := rn.Origin[1] - cfg.SearchBottomMargin
	return image.Rect(x1, y1, cx+w/2, y2).Intersect(image.Rect(0, 0, tpl.PageDimensions[0], tpl.PageDimensions[1]))
}

// locateStrip binarizes the search window, closes small gaps so the strip
// border forms one component, and picks the largest wide-and-short contour.
func locateStrip(src image.Image, search image.Rectangle, cfg Config) (image.Rectangle, bool) {
	if search.Empty() {
		return image.Rectangle{}, false
	}
	bin, err := preprocess.BinarizeRegion(src, search)
	if err != nil {
		return image.Rectangle{}, false
	}
	closed := morphClose(bin, 1)

	var best image.Rectangle
	maxArea := 0
	for _, box := range detector.ComponentBoxes(closed) {
		if box.Dx() < cfg.MinStripWidth || box.Dy() < cfg.MinStripHeight {
			continue
		}
		if a := box.Dx() * box.Dy(); a > maxArea {
			maxArea = a
			best = box
		}
	}
	if maxArea == 0 {
		return image.Rectangle{}, false
	}
	return best.Add(search.Min), true
}

// fallbackStripBox derives the strip rectangle from template geometry when
// contour search fails (strip border too faint or broken).
func fallbackStripBox(rn *template.RollBlock, cfg Config) image.Rectangle {
	bottom := rn.Origin[1] - 35
	top := bottom - 60
	startX := rn.Origin[0] - cfg.FallbackOffsetX
	return image.Rect(startX, top, startX+rn.Digits*rn.DigitsGap, bottom)
}

// partitionCells splits the strip into digit cells. When enough vertical
// grid lines are detected their median interval sizes the cells, centered
// in the strip; otherwise the declared digit gap partitions from the
// template-derived left edge.
func partitionCells(src image.Image, strip image.Rectangle, rn *template.RollBlock, cfg Config) []Cell {
	bin, err := preprocess.BinarizeRegion(src, strip)
	if err != nil || bin.W == 0 {
		return blankCells(strip, rn, rn.DigitsGap, strip.Min.X)
	}

	cellW := rn.DigitsGap
	startX := rn.Origin[0] - cfg.FallbackOffsetX
	if w, ok := detectedCellWidth(bin, cfg); ok {
		cellW = w
		startX = strip.Min.X + (strip.Dx()-rn.Digits*w)/2
		slog.Debug("identity grid from detected lines", "cell_width", w)
	}

	cells := make([]Cell, 0, rn.Digits)
	for i := 0; i < rn.Digits; i++ {
		box := image.Rect(startX+i*cellW, strip.Min.Y, startX+(i+1)*cellW, strip.Max.Y)
		cells = append(cells, refineCell(src, i, box, cfg))
	}
	return cells
}

func blankCells(strip image.Rectangle, rn *template.RollBlock, cellW, startX int) []Cell {
	cells := make([]Cell, 0, rn.Digits)
	for i := 0; i < rn.Digits; i++ {
		cells = append(cells, Cell{
			Index: i,
			Box:   image.Rect(startX+i*cellW, strip.Min.Y, startX+(i+1)*cellW, strip.Max.Y),
			Blank: true,
		})
	}
	return cells
}

// detectedCellWidth scans the strip for vertical grid lines: columns whose
// longest contiguous ink run spans at least half the strip height. Nearby
// line columns (thick or double borders) are grouped, and the median of
// plausible line intervals becomes the cell width.
func detectedCellWidth(bin *preprocess.Binary, cfg Config) (int, bool) {
	minRun := int(cfg.MinLineHeightRatio * float64(bin.H))
	var lineXs []int
	for x := 0; x < bin.W; x++ {
		run, best := 0, 0
		for y := 0; y < bin.H; y++ {
			if bin.Ink(x, y) {
				run++
				if run > best {
					best = run
				}
			} else {
				run = 0
			}
		}
		if best >= minRun {
			lineXs = append(lineXs, x)
		}
	}
	if len(lineXs) == 0 {
		return 0, false
	}

	lines := groupLineCenters(lineXs, cfg.LineGroupGap)

	var intervals []int
	for i := 1; i < len(lines); i++ {
		w := lines[i] - lines[i-1]
		if w > cfg.CellMinWidth && w < cfg.CellMaxWidth {
			intervals = append(intervals, w)
		}
	}
	if len(intervals) < cfg.MinConsistentIntervals {
		return 0, false
	}
	sort.Ints(intervals)
	return intervals[len(intervals)/2], true
}

// groupLineCenters averages runs of nearby line columns into one center
// per separator.
func groupLineCenters(lineXs []int, gap int) []int {
	var centers []int
	group := []int{lineXs[0]}
	flush := func() {
		sum := 0
		for _, x := range group {
			sum += x
		}
		centers = append(centers, sum/len(group))
	}
	for _, x := range lineXs[1:] {
		if x-group[len(group)-1] < gap {
			group = append(group, x)
		} else {
			flush()
			group = []int{x}
		}
	}
	flush()
	return centers
}

// refineCell finds the stroke inside one grid cell. All valid stroke
// fragments union into a single bounding box so a digit broken into
// disjoint contours still crops as one character; the crop is centered on
// a square canvas for the recognizer.
func refineCell(src image.Image, index int, box image.Rectangle, cfg Config) Cell {
	inner := image.Rect(box.Min.X+cfg.InnerPadX, box.Min.Y, box.Max.X-cfg.InnerPadX, box.Max.Y)
	bin, err := preprocess.BinarizeRegion(src, inner)
	if err != nil || bin.W == 0 || bin.H == 0 {
		return Cell{Index: index, Box: box, Blank: true}
	}

	var union image.Rectangle
	for _, b := range detector.ComponentBoxes(bin) {
		// Reject specks, fragments of horizontal rule, and full-height
		// vertical border remnants.
		if b.Dx() < 2 || b.Dy() < 10 {
			continue
		}
		if float64(b.Dy()) > float64(bin.H)*0.95 {
			continue
		}
		union = utils.UnionRect(union, b)
	}
	if union.Empty() {
		return Cell{Index: index, Box: box, Blank: true}
	}

	crop := squareCanvas(bin, union, cfg.CanvasMargin)
	return Cell{
		Index:  index,
		Box:    box,
		InkBox: union.Add(inner.Min),
		Crop:   crop,
	}
}

// squareCanvas copies the union region onto a centered square canvas, ink
// white on black.
func squareCanvas(bin *preprocess.Binary, union image.Rectangle, margin int) *image.Gray {
	uw, uh := union.Dx(), union.Dy()
	dim := uw
	if uh > dim {
		dim = uh
	}
	dim += margin

	canvas := image.NewGray(image.Rect(0, 0, dim, dim))
	offX := (dim - uw) / 2
	offY := (dim - uh) / 2
	for y := 0; y < uh; y++ {
		for x := 0; x < uw; x++ {
			if bin.Ink(union.Min.X+x, union.Min.Y+y) {
				canvas.SetGray(offX+x, offY+y, color.Gray{Y: 255})
			}
		}
	}
	return canvas
}

// morphClose performs a morphological close (dilate then erode) on the ink
// mask to join broken border segments.
func morphClose(bin *preprocess.Binary, radius float64) *preprocess.Binary {
	gray := bin.ToGray()
	closed := effect.Erode(effect.Dilate(gray, radius), radius)
	return maskFromImage(closed)
}

// maskFromImage rebuilds an ink mask from a processed image, treating
// bright pixels as ink (the mask convention is ink white).
func maskFromImage(img image.Image) *preprocess.Binary {
	bounds := img.Bounds()
	out := preprocess.NewBinary(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			c := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			out.Set(x, y, c.Y > 127)
		}
	}
	return out
}
