package preprocess

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/template"
)

func testTemplate(w, h int) *template.Template {
	tpl := &template.Template{
		PageDimensions:   [2]int{w, h},
		BubbleDimensions: [2]int{20, 20},
	}
	if err := tpl.Validate(); err != nil {
		panic(err)
	}
	return tpl
}

// whitePageWithBlackSquare draws a dark square on a white page.
func whitePageWithBlackSquare(w, h int, square image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, square, image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img
}

func TestBinarizeInvertsInk(t *testing.T) {
	square := image.Rect(40, 40, 80, 80)
	img := whitePageWithBlackSquare(200, 200, square)

	bin, err := Binarize(img, testTemplate(200, 200))
	require.NoError(t, err)
	require.Equal(t, 200, bin.W)
	require.Equal(t, 200, bin.H)

	// Dark pixels become ink, paper stays clear. Sample away from the
	// blurred edges.
	assert.True(t, bin.Ink(60, 60))
	assert.False(t, bin.Ink(10, 10))
	assert.False(t, bin.Ink(190, 190))
}

func TestBinarizeResizesToPageDimensions(t *testing.T) {
	img := whitePageWithBlackSquare(400, 400, image.Rect(80, 80, 160, 160))

	bin, err := Binarize(img, testTemplate(200, 200))
	require.NoError(t, err)
	assert.Equal(t, 200, bin.W)
	assert.Equal(t, 200, bin.H)

	// The square scales down with the page.
	assert.True(t, bin.Ink(60, 60))
	assert.False(t, bin.Ink(10, 10))
}

func TestBinarizeNilImage(t *testing.T) {
	_, err := Binarize(nil, testTemplate(100, 100))
	require.Error(t, err)
}

func TestBinarizeRegion(t *testing.T) {
	img := whitePageWithBlackSquare(300, 300, image.Rect(100, 100, 140, 140))

	bin, err := BinarizeRegion(img, image.Rect(90, 90, 150, 150))
	require.NoError(t, err)
	assert.Equal(t, 60, bin.W)
	assert.Equal(t, 60, bin.H)

	// Region coordinates are crop-local.
	assert.True(t, bin.Ink(30, 30))
	assert.False(t, bin.Ink(2, 2))
}

func TestOtsuThresholdSeparatesBimodalHistogram(t *testing.T) {
	var hist [256]int
	hist[40] = 500
	hist[200] = 500

	// Ink is every value at or below the threshold, so the dark mode must
	// land inside the ink class and the light mode outside it.
	th := otsuThreshold(hist, 1000)
	assert.GreaterOrEqual(t, th, uint8(40), "dark mode classified as ink")
	assert.Less(t, th, uint8(200), "light mode classified as background")
}

func TestOtsuThresholdUniformHistogram(t *testing.T) {
	var hist [256]int
	hist[128] = 1000

	// A single-valued image must not split into two classes arbitrarily.
	th := otsuThreshold(hist, 1000)
	assert.LessOrEqual(t, th, uint8(128))
}

func TestBinaryMaskOperations(t *testing.T) {
	b := NewBinary(10, 10)
	b.Set(3, 3, true)
	b.Set(4, 3, true)
	b.Set(-1, 0, true) // ignored
	b.Set(10, 0, true) // ignored

	assert.True(t, b.Ink(3, 3))
	assert.False(t, b.Ink(0, 0))
	assert.False(t, b.Ink(-1, 0))
	assert.Equal(t, 2, b.InkCount(image.Rect(0, 0, 10, 10)))
	assert.Equal(t, 1, b.InkCount(image.Rect(0, 0, 4, 10)))
	assert.Equal(t, 2, b.InkCount(image.Rect(-5, -5, 50, 50)), "rect is clamped")
}

func TestToGrayMatchesMask(t *testing.T) {
	b := NewBinary(6, 4)
	b.Set(2, 1, true)
	b.Set(5, 3, true)

	g := b.ToGray()
	assert.Equal(t, uint8(255), g.GrayAt(2, 1).Y)
	assert.Equal(t, uint8(255), g.GrayAt(5, 3).Y)
	assert.Equal(t, uint8(0), g.GrayAt(0, 0).Y)
}
