// Package bev - Rotated BEV box footprints.
package bev

import (
	"math"

	clipper "github.com/ctessum/go.clipper"
)

// clipScale converts float coordinates to the integer lattice clipper works on. Four decimals
// keep sub-pixel precision while staying far from clipper's range limits.
const clipScale = 1e4

// Box is a rotated rectangle in the BEV plane.
type Box struct {
	// X, Y are the center coordinates.
	X, Y float64
	// W is the extent across the heading, L the extent along it.
	W, L float64
	// Yaw is the heading in radians.
	Yaw float64
}

// Area returns W*L.
func (b Box) Area() float64 {
	return b.W * b.L
}

// Corners returns the four footprint corners in the order front-left, rear-left, rear-right,
// front-right.
func (b Box) Corners() [4][2]float64 {
	c, s := math.Cos(b.Yaw), math.Sin(b.Yaw)
	hw, hl := b.W/2, b.L/2

	return [4][2]float64{
		{b.X - hw*c - hl*s, b.Y - hw*s + hl*c},
		{b.X - hw*c + hl*s, b.Y - hw*s - hl*c},
		{b.X + hw*c + hl*s, b.Y + hw*s - hl*c},
		{b.X + hw*c - hl*s, b.Y + hw*s + hl*c},
	}
}

func (b Box) path() clipper.Path {
	corners := b.Corners()
	path := make(clipper.Path, 0, len(corners))
	for _, pt := range corners {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(math.Round(pt[0] * clipScale)),
			Y: clipper.CInt(math.Round(pt[1] * clipScale)),
		})
	}
	return path
}

// IntersectionArea returns the exact overlap area of two rotated boxes.
//
// The footprints are clipped against each other as polygons, so any relative rotation is
// handled; the result is zero for disjoint boxes.
func IntersectionArea(a, b Box) float64 {
	if a.Area() <= 0 || b.Area() <= 0 {
		return 0
	}

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(a.path(), clipper.PtSubject, true)
	c.AddPath(b.path(), clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return 0
	}

	var area float64
	for _, p := range solution {
		area += math.Abs(clipper.Area(p))
	}
	return area / (clipScale * clipScale)
}

// IoU calculates the Intersection over Union of two rotated boxes.
//
// IoU = Area of Intersection / Area of Union, with
// Area(Union) = Area(A) + Area(B) - Area(Intersection).
//
// Arguments:
//   - a: The first box.
//   - b: The other box to compare against.
//
// Returns:
//   - float64: A value between 0.0 and 1.0. Degenerate boxes (zero area) score 0.
//
// Example Usage:
// ```go
//
//	a := Box{X: 0, Y: 0, W: 2, L: 2}
//	b := Box{X: 1, Y: 0, W: 2, L: 2}
//	iou := IoU(a, b) // intersection 2, union 6, iou 0.333333
//
// ```
func IoU(a, b Box) float64 {
	inter := IntersectionArea(a, b)
	if inter <= 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
