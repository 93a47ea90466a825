package digits

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"golang.org/x/text/unicode/norm"
)

// Unknown is the placeholder recorded for a digit the recognizer could not
// read (or a blank cell).
const Unknown = "?"

// recognizeTimeout bounds each recognition call so a hung backend degrades
// the identity cross-check instead of stalling the page.
const recognizeTimeout = 10 * time.Second

// upscale factor applied before recognition; small crops read poorly.
const upscale = 3

// corrections maps frequent single-character misreads of handwritten
// digits back to the intended digit.
var corrections = map[string]string{
	"|": "1", "I": "1", "l": "1", "!": "1", "]": "1",
	"A": "4", "H": "4",
	"b": "6", "G": "6",
	"g": "9", "q": "9",
	"S": "5", "s": "5", "$": "5",
	"Z": "2", "z": "2",
	"B": "8",
	"O": "0", "D": "0",
}

// Result carries the per-cell recognition outcome.
type Result struct {
	Digits   []string // one entry per cell, Unknown where unreadable
	Value    string   // digits joined in position order
	Failures int      // cells where the backend errored or timed out
}

// Recognize reads every non-blank cell of the strip through the backend.
// Each cell is tried with three stroke-weight variants (thickened,
// original, thinned), then a raw unconstrained pass with misread
// correction. Backend failures record Unknown for the cell and never abort
// the strip; a missing backend returns ErrNoBackend alongside an all-blank
// result so the caller can fall back to bubble-derived identity.
func Recognize(ctx context.Context, strip *Strip, backend Backend) (*Result, error) {
	res := &Result{Digits: make([]string, len(strip.Cells))}
	for i := range res.Digits {
		res.Digits[i] = Unknown
	}

	for i, cell := range strip.Cells {
		if cell.Blank {
			continue
		}
		digit, err := recognizeCell(ctx, cell, backend)
		if err != nil {
			if errors.Is(err, ErrNoBackend) {
				res.Value = strings.Join(res.Digits, "")
				return res, err
			}
			res.Failures++
			slog.Warn("digit recognition failed", "cell", cell.Index, "error", err)
			continue
		}
		res.Digits[i] = digit
	}

	res.Value = strings.Join(res.Digits, "")
	return res, nil
}

// recognizeCell runs the multi-pass strategy for one cell. Thickening
// helps open strokes (1, 4, 6); the original weight keeps loops from
// closing (9); thinning rescues over-inked strokes.
func recognizeCell(ctx context.Context, cell Cell, backend Backend) (string, error) {
	base := prepareBase(cell.Crop)
	variants := []image.Image{
		effect.Erode(base, 1),  // thicken dark strokes
		base,
		effect.Dilate(base, 1), // thin dark strokes
	}

	var lastErr error
	for _, v := range variants {
		txt, err := callBackend(ctx, backend, v, Options{DigitsOnly: true})
		if err != nil {
			lastErr = err
			continue
		}
		if d, ok := firstDigit(txt); ok {
			return d, nil
		}
	}
	if lastErr != nil {
		return "", lastErr
	}

	// Unconstrained pass plus misread correction; tesseract often reads
	// handwritten digits as letters or symbols.
	raw, err := callBackend(ctx, backend, base, Options{})
	if err != nil {
		return "", err
	}
	if d, ok := correctMisread(raw); ok {
		return d, nil
	}
	return Unknown, nil
}

func callBackend(ctx context.Context, backend Backend, img image.Image, opts Options) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, recognizeTimeout)
	defer cancel()
	txt, err := backend.Recognize(cctx, img, opts)
	if err != nil {
		return "", err
	}
	return sanitize(txt), nil
}

// prepareBase converts the ink-white crop into the recognizer's preferred
// shape: black strokes on white, upscaled, with a white border.
func prepareBase(crop *image.Gray) image.Image {
	inverted := imaging.Invert(crop)
	w := crop.Bounds().Dx() * upscale
	h := crop.Bounds().Dy() * upscale
	scaled := imaging.Resize(inverted, w, h, imaging.CatmullRom)

	const border = 20
	canvas := imaging.New(w+2*border, h+2*border, color.White)
	return imaging.PasteCenter(canvas, scaled)
}

// sanitize normalizes backend output: unicode NFKC fold plus whitespace
// trim.
func sanitize(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

func firstDigit(s string) (string, bool) {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return string(r), true
		}
	}
	return "", false
}

// correctMisread applies the correction table to an unconstrained read:
// exact match first, then the first character, then known multi-character
// artifacts.
func correctMisread(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	if d, ok := firstDigit(raw); ok {
		return d, true
	}
	if d, ok := corrections[raw]; ok {
		return d, true
	}
	first := string([]rune(raw)[0])
	if d, ok := corrections[first]; ok {
		return d, true
	}
	if strings.Contains(raw, "A") {
		return "4", true
	}
	return "", false
}
