package detector

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/preprocess"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/utils"
)

// stampDisc inks a filled disc of the given radius.
func stampDisc(bin *preprocess.Binary, cx, cy, r int) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				bin.Set(x, y, true)
			}
		}
	}
}

// stampRing inks an annulus, the shape an unfilled bubble leaves behind.
func stampRing(bin *preprocess.Binary, cx, cy, outer, inner int) {
	for y := cy - outer; y <= cy+outer; y++ {
		for x := cx - outer; x <= cx+outer; x++ {
			dx, dy := x-cx, y-cy
			d2 := dx*dx + dy*dy
			if d2 <= outer*outer && d2 >= inner*inner {
				bin.Set(x, y, true)
			}
		}
	}
}

func stampSquare(bin *preprocess.Binary, rect image.Rectangle) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			bin.Set(x, y, true)
		}
	}
}

func TestDetectFindsAllDiscs(t *testing.T) {
	bin := preprocess.NewBinary(400, 400)
	centers := []image.Point{{50, 50}, {150, 50}, {250, 50}, {50, 150}, {150, 150}}
	for _, c := range centers {
		stampDisc(bin, c.X, c.Y, 10)
	}

	cands, err := Detect(bin, 10, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, cands, len(centers))

	for i, c := range centers {
		assert.InDelta(t, float64(c.X), cands[i].Center.X, 1.5, "candidate %d x", i)
		assert.InDelta(t, float64(c.Y), cands[i].Center.Y, 1.5, "candidate %d y", i)
		assert.Greater(t, cands[i].Circularity, 0.85)
		assert.Equal(t, 10, cands[i].Radius)
	}
}

func TestDetectRejectsSquares(t *testing.T) {
	bin := preprocess.NewBinary(200, 200)
	stampDisc(bin, 50, 50, 10)
	// Square of comparable area; circularity ~0.78.
	stampSquare(bin, image.Rect(130, 40, 160, 70))

	cands, err := Detect(bin, 10, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.InDelta(t, 50.0, cands[0].Center.X, 1.5)
}

func TestDetectRejectsOutOfBandAreas(t *testing.T) {
	bin := preprocess.NewBinary(400, 400)
	stampDisc(bin, 60, 60, 10)  // expected size
	stampDisc(bin, 200, 60, 3)  // speck, below 0.5x band
	stampDisc(bin, 310, 80, 40) // blob, above 5x band

	cands, err := Detect(bin, 10, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.InDelta(t, 60.0, cands[0].Center.X, 1.5)
}

func TestDetectSuppressesConcentricContours(t *testing.T) {
	bin := preprocess.NewBinary(200, 200)
	// A ring and a separate dot inside it produce two nested contours
	// within the duplicate distance.
	stampRing(bin, 80, 80, 12, 10)
	stampDisc(bin, 80, 80, 8)

	cands, err := Detect(bin, 10, DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, cands, 1, "concentric contours collapse to one candidate")
	assert.InDelta(t, 80.0, cands[0].Center.X, 1.5)
}

func TestDetectOrderIsRowMajor(t *testing.T) {
	bin := preprocess.NewBinary(300, 300)
	// Stamp out of order; detection must return ascending y, then x.
	stampDisc(bin, 200, 200, 10)
	stampDisc(bin, 60, 60, 10)
	stampDisc(bin, 200, 60, 10)
	stampDisc(bin, 60, 200, 10)

	cands, err := Detect(bin, 10, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, cands, 4)

	for i := 1; i < len(cands); i++ {
		prev, cur := cands[i-1], cands[i]
		ordered := prev.Center.Y < cur.Center.Y ||
			(prev.Center.Y == cur.Center.Y && prev.Center.X <= cur.Center.X)
		assert.True(t, ordered, "candidates %d and %d out of order", i-1, i)
	}
}

func TestDetectEmptyMask(t *testing.T) {
	_, err := Detect(preprocess.NewBinary(100, 100), 10, DefaultConfig())
	require.ErrorIs(t, err, ErrNoCandidates)

	_, err = Detect(nil, 10, DefaultConfig())
	require.ErrorIs(t, err, ErrNoCandidates)
}

func TestDetectDeterministic(t *testing.T) {
	bin := preprocess.NewBinary(300, 300)
	for _, c := range []image.Point{{50, 50}, {120, 50}, {50, 120}, {120, 120}} {
		stampDisc(bin, c.X, c.Y, 10)
	}

	first, err := Detect(bin, 10, DefaultConfig())
	require.NoError(t, err)
	second, err := Detect(bin, 10, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTraceContourClosesAfterOneLap(t *testing.T) {
	bin := preprocess.NewBinary(100, 100)
	stampDisc(bin, 50, 50, 10)

	comps, labels := connectedComponents(bin)
	require.Len(t, comps, 1)

	pts := traceContour(labels, bin.W, bin.H, 1, comps[0])
	require.NotEmpty(t, pts)

	// One boundary lap of a radius-10 disc is roughly 2*pi*r pixels; a
	// trace that fails to terminate piles up orders of magnitude more.
	assert.Less(t, len(pts), 200, "contour should cover a single lap")

	area := utils.PolygonArea(pts)
	assert.InDelta(t, math.Pi*100, area, 0.2*math.Pi*100)
}

func TestComponentBoxes(t *testing.T) {
	bin := preprocess.NewBinary(100, 100)
	stampSquare(bin, image.Rect(10, 10, 20, 30))
	stampSquare(bin, image.Rect(50, 50, 80, 55))

	boxes := ComponentBoxes(bin)
	require.Len(t, boxes, 2)
	assert.Contains(t, boxes, image.Rect(10, 10, 20, 30))
	assert.Contains(t, boxes, image.Rect(50, 50, 80, 55))
}
