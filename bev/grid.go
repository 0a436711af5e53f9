// Package bev - Bird's-eye-view raster geometry.
package bev

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Range is an ordered [min, max] pair of metric bounds.
type Range [2]float64

// Min returns the lower bound.
func (r Range) Min() float64 { return r[0] }

// Max returns the upper bound.
func (r Range) Max() float64 { return r[1] }

// Span returns max - min.
func (r Range) Span() float64 { return r[1] - r[0] }

// Contains reports whether v lies inside the closed range.
func (r Range) Contains(v float64) bool { return v >= r[0] && v <= r[1] }

// Validate checks that the range is non-empty.
func (r Range) Validate() error {
	if !(r[0] < r[1]) {
		return fmt.Errorf("range [%g, %g] must satisfy min < max", r[0], r[1])
	}
	return nil
}

// Grid maps BEV raster pixels onto the metric detection volume.
//
// BEV image rows run along the world x-axis and image columns along the world y-axis, so the
// pixel->world mapping swaps the axes.
type Grid struct {
	LimX   Range `json:"lim_x" yaml:"lim_x"`
	LimY   Range `json:"lim_y" yaml:"lim_y"`
	LimZ   Range `json:"lim_z" yaml:"lim_z"`
	Width  int   `json:"bev_width" yaml:"bev_width"`
	Height int   `json:"bev_height" yaml:"bev_height"`
}

// DiscretX returns meters per pixel along the world x-axis (image rows).
func (g Grid) DiscretX() float64 {
	return g.LimX.Span() / float64(g.Height)
}

// DiscretY returns meters per pixel along the world y-axis (image columns).
func (g Grid) DiscretY() float64 {
	return g.LimY.Span() / float64(g.Width)
}

// ToWorld converts a BEV pixel position into world x/y.
//
// Arguments:
//   - xImg: The image column.
//   - yImg: The image row.
//
// Returns:
//   - x: Metric position along the world x-axis.
//   - y: Metric position along the world y-axis.
func (g Grid) ToWorld(xImg, yImg float64) (x, y float64) {
	x = yImg*g.DiscretX() + g.LimX.Min()
	y = xImg*g.DiscretY() + g.LimY.Min()
	return x, y
}

// ZFromNorm converts a height normalized over LimZ into meters.
func (g Grid) ZFromNorm(zNorm float64) float64 {
	return zNorm*g.LimZ.Span() + g.LimZ.Min()
}

// Affine returns the homogeneous 3x3 matrix taking (xImg, yImg, 1) to (x, y, 1).
func (g Grid) Affine() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, g.DiscretX(), g.LimX.Min(),
		g.DiscretY(), 0, g.LimY.Min(),
		0, 0, 1,
	})
}

// ToPixel inverts ToWorld.
//
// Arguments:
//   - x: Metric position along the world x-axis.
//   - y: Metric position along the world y-axis.
//
// Returns:
//   - xImg, yImg: The BEV pixel position.
//   - error: An error if the grid is degenerate and has no inverse.
func (g Grid) ToPixel(x, y float64) (xImg, yImg float64, err error) {
	var inv mat.Dense
	if err := inv.Inverse(g.Affine()); err != nil {
		return 0, 0, fmt.Errorf("grid has no inverse: %w", err)
	}

	var px mat.VecDense
	px.MulVec(&inv, mat.NewVecDense(3, []float64{x, y, 1}))
	return px.AtVec(0), px.AtVec(1), nil
}

// Validate checks the limits and raster size.
func (g Grid) Validate() error {
	limits := []struct {
		name string
		r    Range
	}{{"lim_x", g.LimX}, {"lim_y", g.LimY}, {"lim_z", g.LimZ}}
	for _, l := range limits {
		if err := l.r.Validate(); err != nil {
			return fmt.Errorf("%s: %w", l.name, err)
		}
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("bev raster must be positive, got %dx%d", g.Width, g.Height)
	}
	return nil
}
