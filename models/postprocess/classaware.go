// Package postprocess - Class-aware filtering of decoded keypoints.
package postprocess

import (
	"github.com/chewxy/math32"
)

// KeypointDetection is a keypoint with its regressed attributes gathered from the heads.
type KeypointDetection struct {
	Score float32
	Class int
	// X, Y are the sub-cell center on the heatmap grid.
	X, Y float32
	// Z is the center height normalized over the height limits.
	Z float32
	// H, W, L are metric dimensions.
	H, W, L float32
	// Im, Re encode the heading.
	Im, Re float32
}

// ClassAwareConfig defines the thresholds of the class-aware filter.
type ClassAwareConfig struct {
	NumClasses int
	// DownRatio scales heatmap-grid positions into BEV pixels.
	DownRatio float32
	// PeakThreshold must be exceeded by a keypoint score.
	PeakThreshold float32
	// ConfThreshold must be reached by a keypoint score.
	ConfThreshold float32
}

// ClassAware splits keypoints by class and keeps the confident ones.
//
// Positions are scaled into BEV pixels, the heading becomes atan2(im, re) and dimensions are
// passed through. Keypoints with a class outside [0, NumClasses) are dropped.
//
// Arguments:
//   - dets: Decoded keypoints of one batch element.
//   - config: The filter thresholds.
//
// Returns:
//   - One candidate slice per class, in class order. Each slice keeps the input order.
func ClassAware(dets []KeypointDetection, config ClassAwareConfig) [][]Candidate {
	perClass := make([][]Candidate, config.NumClasses)
	for i := range perClass {
		perClass[i] = []Candidate{}
	}

	for _, d := range dets {
		if d.Class < 0 || d.Class >= config.NumClasses {
			continue
		}
		if d.Score <= config.PeakThreshold || d.Score < config.ConfThreshold {
			continue
		}
		perClass[d.Class] = append(perClass[d.Class], NewCandidate(
			d.Class,
			d.X*config.DownRatio,
			d.Y*config.DownRatio,
			d.Z,
			d.H,
			d.W,
			d.L,
			math32.Atan2(d.Im, d.Re),
		))
	}

	return perClass
}
