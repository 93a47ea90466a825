package utils

import (
	"image"
	"math"
)

// Point represents a 2D point in image coordinates.
type Point struct {
	X float64
	Y float64
}

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PolygonArea returns the absolute area of a closed polygon given as a
// point sequence (shoelace formula). Points are treated as pixel centers.
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// PolygonPerimeter returns the closed perimeter length of a polygon.
func PolygonPerimeter(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	sum := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].Dist(pts[j])
	}
	return sum
}

// PolygonCentroid returns the area centroid of a closed polygon. Degenerate
// polygons fall back to the vertex mean.
func PolygonCentroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var cx, cy, a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		cross := pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
		cx += (pts[i].X + pts[j].X) * cross
		cy += (pts[i].Y + pts[j].Y) * cross
		a += cross
	}
	if math.Abs(a) < 1e-9 {
		var sx, sy float64
		for _, p := range pts {
			sx += p.X
			sy += p.Y
		}
		n := float64(len(pts))
		return Point{X: sx / n, Y: sy / n}
	}
	a /= 2
	return Point{X: cx / (6 * a), Y: cy / (6 * a)}
}

// UnionRect returns the smallest rectangle covering both inputs. Empty
// inputs are ignored.
func UnionRect(a, b image.Rectangle) image.Rectangle {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return a.Union(b)
}
