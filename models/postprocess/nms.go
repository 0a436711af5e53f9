// Package postprocess - provides rotated Non-Maximum Suppression for BEV box rows.
package postprocess

import (
	"github.com/nvr-ai/go-bev/bev"
)

// NMSConfig defines parameters for rotated Non-Maximum Suppression.
type NMSConfig struct {
	IoUThreshold float32 // Rotated IoU above which a box is suppressed.
	ClassAware   bool    // If true, suppress only within the same predicted class.
	Merge        bool    // If true, the kept box becomes the objectness-weighted mean of its cluster.
}

// Result is one raw box row after class scoring.
type Result struct {
	// The rotated footprint in BEV pixels.
	Box bev.Box
	// The sine and cosine of the heading as predicted.
	Im, Re float32
	// The objectness of the row.
	Objectness float32
	// The highest class score.
	ClassConf float32
	// The argmax of the class scores.
	Class int
	// Objectness * ClassConf.
	Score float32
}

// FilterByConfidence keeps the rows whose objectness reaches the threshold.
//
// Arguments:
//   - results: Scored rows in any order.
//   - threshold: Minimum objectness.
//
// Returns:
//   - The kept rows in input order. Never longer than the input.
func FilterByConfidence(results []Result, threshold float32) []Result {
	kept := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Objectness >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

// SortByScore orders rows by descending score. Equal scores keep their input order.
func SortByScore(results []Result) []Result {
	scores := make([]float32, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}

	sorted := make([]Result, len(results))
	for i, idx := range argsortDesc(scores) {
		sorted[i] = results[idx]
	}
	return sorted
}

// ApplyRotatedNMS filters overlapping rotated boxes.
//
// The head of the pool is always kept and removed, so the loop terminates for any threshold.
// Every remaining row overlapping the head above the threshold joins its cluster and is dropped.
// With Merge set, the head's x, y, w and l become the objectness-weighted mean of the cluster,
// head included; yaw and scores stay the head's.
//
// Arguments:
//   - detections: Slice of rows sorted by descending score.
//   - config: NMS configuration.
//
// Returns:
//   - Filtered slice of rows. If no rows are provided, returns nil.
func ApplyRotatedNMS(detections []Result, config *NMSConfig) []Result {
	if len(detections) == 0 {
		return nil
	}

	pool := append([]Result(nil), detections...)
	kept := make([]Result, 0, len(pool))

	for len(pool) > 0 {
		head := pool[0]
		remaining := make([]Result, 0, len(pool)-1)

		var wsum, sx, sy, sw, sl float64
		merge := func(r Result) {
			w := float64(r.Objectness)
			wsum += w
			sx += w * r.Box.X
			sy += w * r.Box.Y
			sw += w * r.Box.W
			sl += w * r.Box.L
		}
		merge(head)

		for _, r := range pool[1:] {
			if config.ClassAware && r.Class != head.Class {
				remaining = append(remaining, r)
				continue
			}
			if bev.IoU(head.Box, r.Box) > float64(config.IoUThreshold) {
				merge(r)
				continue
			}
			remaining = append(remaining, r)
		}

		if config.Merge && wsum > 0 {
			head.Box.X = sx / wsum
			head.Box.Y = sy / wsum
			head.Box.W = sw / wsum
			head.Box.L = sl / wsum
		}

		kept = append(kept, head)
		pool = remaining
	}

	return kept
}
