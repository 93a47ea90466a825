package preprocess

import (
	"image"
	"image/color"
)

// Binary is a single-channel ink mask at page resolution. Ink pixels are
// true, paper pixels false.
type Binary struct {
	W   int
	H   int
	Pix []bool
}

// NewBinary allocates an empty mask.
func NewBinary(w, h int) *Binary {
	return &Binary{W: w, H: h, Pix: make([]bool, w*h)}
}

// Ink reports whether the pixel at (x, y) is ink. Out-of-bounds queries
// return false.
func (b *Binary) Ink(x, y int) bool {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return false
	}
	return b.Pix[y*b.W+x]
}

// Set marks the pixel at (x, y). Out-of-bounds writes are ignored.
func (b *Binary) Set(x, y int, ink bool) {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return
	}
	b.Pix[y*b.W+x] = ink
}

// InkCount returns the number of ink pixels within rect, clamped to the
// mask bounds.
func (b *Binary) InkCount(rect image.Rectangle) int {
	rect = rect.Intersect(image.Rect(0, 0, b.W, b.H))
	n := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := b.Pix[y*b.W : y*b.W+b.W]
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if row[x] {
				n++
			}
		}
	}
	return n
}

// ToGray renders the mask as a grayscale image with ink white on black,
// matching the inverse-binary convention of the thresholding step.
func (b *Binary) ToGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.W, b.H))
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			if b.Pix[y*b.W+x] {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}
