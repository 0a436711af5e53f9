// Package postprocess - Heatmap keypoint extraction.
package postprocess

import (
	"gonum.org/v1/gonum/floats"
)

// Keypoint is one selected heatmap cell.
type Keypoint struct {
	Score float32
	Class int
	Row   int
	Col   int
}

// PeakMask zeroes every heatmap cell that is not the maximum of its 3x3 neighborhood.
//
// The heatmap is laid out as (classes, height, width). Cells on the border compare against
// the neighbors that exist. Ties with a neighbor keep both cells.
//
// Arguments:
//   - heat: The activated heatmap.
//   - classes, height, width: The heatmap shape.
//
// Returns:
//   - A new heatmap holding the peak scores and zeros elsewhere.
func PeakMask(heat []float32, classes, height, width int) []float32 {
	out := make([]float32, len(heat))
	plane := height * width
	for c := 0; c < classes; c++ {
		base := c * plane
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				v := heat[base+y*width+x]
				if isPeak(heat[base:base+plane], width, height, x, y, v) {
					out[base+y*width+x] = v
				}
			}
		}
	}
	return out
}

func isPeak(plane []float32, width, height, x, y int, v float32) bool {
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= height {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := x + dx
			if nx < 0 || nx >= width {
				continue
			}
			if plane[ny*width+nx] > v {
				return false
			}
		}
	}
	return true
}

// TopK selects the k highest-scoring cells of a (classes, height, width) heatmap.
//
// Selection runs in two stages: the k best cells of every class plane, then the k best of that
// pool. k is clamped to the plane size. Equal scores keep class-major, row-major order.
//
// Returns:
//   - Keypoints in descending score order, at most k of them.
func TopK(heat []float32, classes, height, width, k int) []Keypoint {
	plane := height * width
	if k <= 0 || plane == 0 || classes <= 0 {
		return nil
	}
	if k > plane {
		k = plane
	}

	pool := make([]Keypoint, 0, classes*k)
	for c := 0; c < classes; c++ {
		scores := heat[c*plane : (c+1)*plane]
		for _, idx := range argsortDesc(scores)[:k] {
			pool = append(pool, Keypoint{
				Score: scores[idx],
				Class: c,
				Row:   idx / width,
				Col:   idx % width,
			})
		}
	}

	scores := make([]float32, len(pool))
	for i, kp := range pool {
		scores[i] = kp.Score
	}
	n := k
	if n > len(pool) {
		n = len(pool)
	}

	top := make([]Keypoint, 0, n)
	for _, idx := range argsortDesc(scores)[:n] {
		top = append(top, pool[idx])
	}
	return top
}

func argsortDesc(scores []float32) []int {
	keys := make([]float64, len(scores))
	for i, s := range scores {
		keys[i] = -float64(s)
	}
	inds := make([]int, len(scores))
	floats.ArgsortStable(keys, inds)
	return inds
}
