package utils

import (
	"image"
	"image/color"
	"math"
)

// DrawRect draws an axis-aligned rectangle outline into dst.
func DrawRect(dst *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	for t := 0; t < thickness; t++ {
		yTop := rect.Min.Y + t
		yBot := rect.Max.Y - 1 - t
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, yTop, col)
			dst.Set(x, yBot, col)
		}
	}
	for t := 0; t < thickness; t++ {
		xLeft := rect.Min.X + t
		xRight := rect.Max.X - 1 - t
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(xLeft, y, col)
			dst.Set(xRight, y, col)
		}
	}
}

// DrawCircle draws a circle outline centered at (cx, cy) into dst using the
// midpoint circle algorithm.
func DrawCircle(dst *image.RGBA, cx, cy, radius int, col color.Color, thickness int) {
	if radius < 1 {
		return
	}
	if thickness < 1 {
		thickness = 1
	}
	x, y := radius, 0
	err := 1 - radius
	for x >= y {
		plotCircleOctants(dst, cx, cy, x, y, col, thickness)
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
}

func plotCircleOctants(dst *image.RGBA, cx, cy, x, y int, col color.Color, thickness int) {
	pts := [8][2]int{
		{cx + x, cy + y}, {cx - x, cy + y},
		{cx + x, cy - y}, {cx - x, cy - y},
		{cx + y, cy + x}, {cx - y, cy + x},
		{cx + y, cy - x}, {cx - y, cy - x},
	}
	for _, p := range pts {
		drawThickPoint(dst, p[0], p[1], col, thickness)
	}
}

// FillCircle fills a disc centered at (cx, cy) into dst.
func FillCircle(dst *image.RGBA, cx, cy, radius int, col color.Color) {
	for yy := cy - radius; yy <= cy+radius; yy++ {
		for xx := cx - radius; xx <= cx+radius; xx++ {
			dx := float64(xx - cx)
			dy := float64(yy - cy)
			if math.Sqrt(dx*dx+dy*dy) <= float64(radius) && image.Pt(xx, yy).In(dst.Bounds()) {
				dst.Set(xx, yy, col)
			}
		}
	}
}

func drawThickPoint(dst *image.RGBA, x, y int, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	r := (thickness - 1) / 2
	for yy := y - r; yy <= y+r; yy++ {
		for xx := x - r; xx <= x+r; xx++ {
			if image.Pt(xx, yy).In(dst.Bounds()) {
				dst.Set(xx, yy, col)
			}
		}
	}
}
