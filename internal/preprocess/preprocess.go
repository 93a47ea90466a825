// Package preprocess turns a raster sheet image into the binary ink mask
// the detection stages consume: resize to template dimensions, grayscale,
// Gaussian blur, Otsu inverse binarization.
package preprocess

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/template"
)

// blurSigma approximates the 5x5 Gaussian kernel used for scan denoising:
// sigma = 0.3*((ksize-1)*0.5 - 1) + 0.8 with ksize 5.
const blurSigma = 1.1

var errNilImage = errors.New("preprocess: nil input image")

// Binarize converts a raster page image into an ink mask at the template's
// page dimensions. A blank or near-uniform scan yields a degenerate mask;
// that condition surfaces downstream as zero bubble candidates and is
// reported there rather than failing here.
func Binarize(img image.Image, tpl *template.Template) (*Binary, error) {
	if img == nil {
		return nil, errNilImage
	}

	resized := imaging.Resize(img, tpl.PageDimensions[0], tpl.PageDimensions[1], imaging.Lanczos)
	gray := imaging.Grayscale(resized)
	blurred := imaging.Blur(gray, blurSigma)

	return otsuInverse(blurred), nil
}

// BinarizeRegion binarizes a crop of the source image without resizing,
// used by the digit segmenter on identity-strip regions.
func BinarizeRegion(img image.Image, region image.Rectangle) (*Binary, error) {
	if img == nil {
		return nil, errNilImage
	}
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return NewBinary(0, 0), nil
	}
	crop := imaging.Crop(img, region)
	gray := imaging.Grayscale(crop)
	return otsuInverse(gray), nil
}

// otsuInverse thresholds a grayscale NRGBA image with Otsu's method and
// inverts so that dark ink maps to true.
func otsuInverse(img *image.NRGBA) *Binary {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	values := make([]uint8, w*h)
	var hist [256]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Grayscale NRGBA has R == G == B.
			v := img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y).R
			values[y*w+x] = v
			hist[v]++
		}
	}

	t := otsuThreshold(hist, w*h)
	bin := NewBinary(w, h)
	for i, v := range values {
		bin.Pix[i] = v <= t
	}
	return bin
}

// otsuThreshold finds the intensity threshold maximizing between-class
// variance over a 256-bin histogram.
func otsuThreshold(hist [256]int, total int) uint8 {
	if total == 0 {
		return 127
	}
	var sum float64
	for v, n := range hist {
		sum += float64(v) * float64(n)
	}

	var sumB, wB float64
	var maxVar float64
	var best uint8
	for v := 0; v < 256; v++ {
		wB += float64(hist[v])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(v) * float64(hist[v])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > maxVar {
			maxVar = between
			best = uint8(v)
		}
	}
	return best
}
