package utils

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPointDist(t *testing.T) {
	require.InDelta(t, 5.0, Point{0, 0}.Dist(Point{3, 4}), 1e-9)
	require.InDelta(t, 0.0, Point{2, 2}.Dist(Point{2, 2}), 1e-9)
}

func TestPolygonArea(t *testing.T) {
	tests := []struct {
		name     string
		points   []Point
		expected float64
	}{
		{
			name:     "unit square",
			points:   []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
			expected: 1.0,
		},
		{
			name:     "triangle",
			points:   []Point{{0, 0}, {4, 0}, {0, 3}},
			expected: 6.0,
		},
		{
			name:     "clockwise square keeps positive area",
			points:   []Point{{0, 0}, {0, 2}, {2, 2}, {2, 0}},
			expected: 4.0,
		},
		{
			name:     "degenerate line",
			points:   []Point{{0, 0}, {5, 0}},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.expected, PolygonArea(tt.points), 1e-9)
		})
	}
}

func TestPolygonPerimeter(t *testing.T) {
	square := []Point{{0, 0}, {3, 0}, {3, 3}, {0, 3}}
	require.InDelta(t, 12.0, PolygonPerimeter(square), 1e-9)

	require.Zero(t, PolygonPerimeter(nil))
	require.Zero(t, PolygonPerimeter([]Point{{1, 1}}))
}

func TestCircularityOfRegularPolygons(t *testing.T) {
	// 4*pi*A/P^2 approaches 1 as the polygon approaches a circle.
	circularity := func(pts []Point) float64 {
		p := PolygonPerimeter(pts)
		return 4 * math.Pi * PolygonArea(pts) / (p * p)
	}

	ngon := func(n int, r float64) []Point {
		pts := make([]Point, 0, n)
		for i := 0; i < n; i++ {
			a := 2 * math.Pi * float64(i) / float64(n)
			pts = append(pts, Point{r * math.Cos(a), r * math.Sin(a)})
		}
		return pts
	}

	square := circularity(ngon(4, 10))
	octagon := circularity(ngon(8, 10))
	many := circularity(ngon(64, 10))

	require.Less(t, square, octagon)
	require.Less(t, octagon, many)
	require.Greater(t, many, 0.99)
	require.Less(t, square, 0.85)
}

func TestPolygonCentroid(t *testing.T) {
	square := []Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	c := PolygonCentroid(square)
	require.InDelta(t, 1.0, c.X, 1e-9)
	require.InDelta(t, 1.0, c.Y, 1e-9)

	// Degenerate polygon falls back to the vertex mean.
	line := []Point{{0, 0}, {4, 0}}
	c = PolygonCentroid(line)
	require.InDelta(t, 2.0, c.X, 1e-9)
	require.InDelta(t, 0.0, c.Y, 1e-9)
}

func TestUnionRect(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)
	b := image.Rect(5, 5, 20, 15)
	require.Equal(t, image.Rect(0, 0, 20, 15), UnionRect(a, b))

	// Union with an empty rect returns the other operand.
	require.Equal(t, a, UnionRect(a, image.Rectangle{}))
	require.Equal(t, a, UnionRect(image.Rectangle{}, a))
}
