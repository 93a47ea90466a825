package pipeline

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/utils"
)

var (
	filledColor = color.RGBA{R: 30, G: 80, B: 220, A: 255}
	emptyColor  = color.RGBA{R: 40, G: 170, B: 60, A: 255}
	stripColor  = color.RGBA{R: 220, G: 60, B: 40, A: 255}
	inkColor    = color.RGBA{R: 230, G: 150, B: 30, A: 255}
)

// RenderOverlay draws the detected structure onto a copy of the sheet:
// filled bubbles in blue, empty ones in green, the identity strip with its
// cell grid in red and detected digit ink boxes in orange. The sheet must
// already be at template page dimensions.
func RenderOverlay(sheet image.Image, res *Result) *image.RGBA {
	base := imaging.Clone(sheet)
	dst := image.NewRGBA(base.Bounds())
	draw.Draw(dst, dst.Bounds(), base, base.Bounds().Min, draw.Src)

	for _, m := range res.Marks {
		cx := int(m.Center.X)
		cy := int(m.Center.Y)
		r := m.Radius
		if m.Filled {
			utils.DrawCircle(dst, cx, cy, r, filledColor, 3)
		} else {
			utils.DrawCircle(dst, cx, cy, r, emptyColor, 2)
		}
	}

	if res.Strip != nil {
		utils.DrawRect(dst, res.Strip.Box, stripColor, 2)
		for _, cell := range res.Strip.Cells {
			utils.DrawRect(dst, cell.Box, stripColor, 1)
			if !cell.Blank {
				utils.DrawRect(dst, cell.InkBox, inkColor, 1)
			}
		}
	}

	return dst
}
