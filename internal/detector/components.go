package detector

import (
	"container/list"
	"image"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/preprocess"
)

// compStats holds per-component pixel statistics gathered during labeling.
type compStats struct {
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
}

// connectedComponents finds 4-connected ink components in the mask and
// returns per-component stats plus the label map (labels start at 1).
func connectedComponents(bin *preprocess.Binary) ([]compStats, []int) {
	w, h := bin.W, bin.H
	visited := make([]bool, w*h)
	labels := make([]int, w*h)
	var comps []compStats
	label := 1

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if bin.Pix[idx] && !visited[idx] {
				st := componentBFS(bin, visited, labels, x, y, label)
				comps = append(comps, st)
				label++
			}
		}
	}
	return comps, labels
}

// ComponentBoxes returns the bounding box of every 4-connected ink
// component in the mask. Used by the digit segmenter for strip and stroke
// localization.
func ComponentBoxes(bin *preprocess.Binary) []image.Rectangle {
	comps, _ := connectedComponents(bin)
	boxes := make([]image.Rectangle, 0, len(comps))
	for _, st := range comps {
		if st.count == 0 {
			continue
		}
		boxes = append(boxes, image.Rect(st.minX, st.minY, st.maxX+1, st.maxY+1))
	}
	return boxes
}

// componentBFS flood-fills one component starting from a seed pixel.
func componentBFS(bin *preprocess.Binary, visited []bool, labels []int, startX, startY, label int) compStats {
	w, h := bin.W, bin.H
	startIdx := startY*w + startX

	st := compStats{minX: startX, minY: startY, maxX: startX, maxY: startY}
	q := list.New()
	q.PushBack(startIdx)
	visited[startIdx] = true
	labels[startIdx] = label

	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		ci, ok := e.Value.(int)
		if !ok {
			continue
		}
		cx, cy := ci%w, ci/w

		st.count++
		if cx < st.minX {
			st.minX = cx
		}
		if cy < st.minY {
			st.minY = cy
		}
		if cx > st.maxX {
			st.maxX = cx
		}
		if cy > st.maxY {
			st.maxY = cy
		}

		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			ni := ny*w + nx
			if bin.Pix[ni] && !visited[ni] {
				visited[ni] = true
				labels[ni] = label
				q.PushBack(ni)
			}
		}
	}
	return st
}
