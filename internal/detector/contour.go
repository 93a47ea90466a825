package detector

import "github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/utils"

// traceContour extracts the boundary polygon of a labeled component using
// Moore-Neighbor tracing, restricted to the component's AABB. Returned
// points are pixel-center coordinates with collinear runs collapsed.
func traceContour(labels []int, w, h, label int, st compStats) []utils.Point {
	if label <= 0 || len(labels) != w*h {
		return nil
	}

	sx, sy := startingBoundaryPixel(labels, w, h, label, st)
	if sx == -1 {
		return nil
	}

	pts := make([]utils.Point, 0, 64)
	addPoint := func(x, y int) {
		p := utils.Point{X: float64(x), Y: float64(y)}
		n := len(pts)
		if n >= 2 {
			a := pts[n-2]
			b := pts[n-1]
			// Drop b if a, b, p are collinear.
			cross := (b.X-a.X)*(p.Y-b.Y) - (b.Y-a.Y)*(p.X-b.X)
			if cross == 0 {
				pts = pts[:n-1]
			}
		}
		pts = append(pts, p)
	}

	cx, cy := sx, sy
	bx, by := sx-1, sy // backtrack starts to the left of the start pixel
	addPoint(cx, cy)

	// The trace stops when it re-enters the start pixel and is about to
	// repeat its first move, closing exactly one boundary lap.
	var firstNx, firstNy int
	haveFirst := false
	maxSteps := w*h*4 + 8

	for steps := 0; steps < maxSteps; steps++ {
		nx, ny, nbx, nby, found := nextBoundaryPixel(labels, w, h, label, cx, cy, bx, by)
		if !found {
			break
		}
		if !haveFirst {
			firstNx, firstNy = nx, ny
			haveFirst = true
		} else if cx == sx && cy == sy && nx == firstNx && ny == firstNy {
			break
		}
		bx, by = nbx, nby
		cx, cy = nx, ny

		if len(pts) == 0 || pts[len(pts)-1].X != float64(cx) || pts[len(pts)-1].Y != float64(cy) {
			addPoint(cx, cy)
		}
	}

	if len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// startingBoundaryPixel finds the first boundary pixel of the component.
func startingBoundaryPixel(labels []int, w, h, label int, st compStats) (int, int) {
	for y := st.minY; y <= st.maxY; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			if isBoundaryPixel(labels, w, h, label, x, y) {
				return x, y
			}
		}
	}
	for y := st.minY; y <= st.maxY; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			if isLabelPixel(labels, w, h, label, x, y) {
				return x, y
			}
		}
	}
	return -1, -1
}

func isBoundaryPixel(labels []int, w, h, label, x, y int) bool {
	if !isLabelPixel(labels, w, h, label, x, y) {
		return false
	}
	return !isLabelPixel(labels, w, h, label, x+1, y) ||
		!isLabelPixel(labels, w, h, label, x-1, y) ||
		!isLabelPixel(labels, w, h, label, x, y+1) ||
		!isLabelPixel(labels, w, h, label, x, y-1)
}

func isLabelPixel(labels []int, w, h, label, x, y int) bool {
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	return labels[y*w+x] == label
}

// nextBoundaryPixel scans the Moore neighborhood clockwise from the
// backtrack position for the next component pixel. The returned backtrack
// is the last non-component neighbor examined before the hit, so the next
// scan resumes outside the boundary.
func nextBoundaryPixel(labels []int, w, h, label, cx, cy, bx, by int) (int, int, int, int, bool) {
	// 8-neighborhood clockwise order: E, SE, S, SW, W, NW, N, NE
	ndx := [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	ndy := [8]int{0, 1, 1, 1, 0, -1, -1, -1}

	dirIndex := func(dx, dy int) int {
		for i := 0; i < 8; i++ {
			if ndx[i] == dx && ndy[i] == dy {
				return i
			}
		}
		return 0
	}
	start := (dirIndex(bx-cx, by-cy) + 1) % 8

	px, py := bx, by
	for k := 0; k < 8; k++ {
		i := (start + k) % 8
		tx, ty := cx+ndx[i], cy+ndy[i]
		if isLabelPixel(labels, w, h, label, tx, ty) {
			return tx, ty, px, py, true
		}
		px, py = tx, ty
	}
	return 0, 0, px, py, false
}
