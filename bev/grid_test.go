package bev

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultGrid() Grid {
	return Grid{
		LimX:   Range{0, 50},
		LimY:   Range{-25, 25},
		LimZ:   Range{-1, 3},
		Width:  608,
		Height: 608,
	}
}

// TestGridToWorld validates the swapped-axis pixel to world mapping.
func TestGridToWorld(t *testing.T) {
	g := defaultGrid()

	testCases := []struct {
		name       string
		xImg, yImg float64
		wantX      float64
		wantY      float64
	}{
		{name: "origin pixel", xImg: 0, yImg: 0, wantX: 0, wantY: -25},
		{name: "far corner", xImg: 608, yImg: 608, wantX: 50, wantY: 25},
		{name: "column 100 row 200", xImg: 100, yImg: 200, wantX: 16.447, wantY: -16.776},
		{name: "raster center", xImg: 304, yImg: 304, wantX: 25, wantY: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			x, y := g.ToWorld(tc.xImg, tc.yImg)
			assert.InDelta(t, tc.wantX, x, 1e-3, "world x")
			assert.InDelta(t, tc.wantY, y, 1e-3, "world y")
		})
	}
}

// TestGridAxesFollowRasterShape checks that rows scale with height and columns with width.
func TestGridAxesFollowRasterShape(t *testing.T) {
	g := defaultGrid()
	g.Width = 1216

	assert.InDelta(t, 50.0/608, g.DiscretX(), 1e-12)
	assert.InDelta(t, 50.0/1216, g.DiscretY(), 1e-12)

	x, y := g.ToWorld(1216, 0)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 25, y, 1e-9)
}

// TestGridZFromNorm validates height de-normalization over the z limits.
func TestGridZFromNorm(t *testing.T) {
	g := defaultGrid()

	assert.InDelta(t, -1.0, g.ZFromNorm(0), 1e-12)
	assert.InDelta(t, 1.0, g.ZFromNorm(0.5), 1e-12)
	assert.InDelta(t, 3.0, g.ZFromNorm(1), 1e-12)
}

// TestGridToPixelRoundTrip ensures ToPixel inverts ToWorld.
func TestGridToPixelRoundTrip(t *testing.T) {
	g := defaultGrid()

	for _, px := range [][2]float64{{0, 0}, {100, 200}, {607.5, 3.25}, {304, 304}} {
		x, y := g.ToWorld(px[0], px[1])
		xImg, yImg, err := g.ToPixel(x, y)
		require.NoError(t, err)
		assert.InDelta(t, px[0], xImg, 1e-6)
		assert.InDelta(t, px[1], yImg, 1e-6)
	}
}

// TestGridAffineMatchesToWorld checks the matrix form against the scalar form.
func TestGridAffineMatchesToWorld(t *testing.T) {
	g := defaultGrid()
	m := g.Affine()

	xImg, yImg := 123.0, 456.0
	x, y := g.ToWorld(xImg, yImg)

	assert.InDelta(t, x, m.At(0, 0)*xImg+m.At(0, 1)*yImg+m.At(0, 2), 1e-9)
	assert.InDelta(t, y, m.At(1, 0)*xImg+m.At(1, 1)*yImg+m.At(1, 2), 1e-9)
}

func TestGridValidate(t *testing.T) {
	require.NoError(t, defaultGrid().Validate())

	inverted := defaultGrid()
	inverted.LimY = Range{25, -25}
	err := inverted.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lim_y")

	empty := defaultGrid()
	empty.Height = 0
	require.Error(t, empty.Validate())
}

func TestRange(t *testing.T) {
	r := Range{-1, 3}
	assert.Equal(t, -1.0, r.Min())
	assert.Equal(t, 3.0, r.Max())
	assert.Equal(t, 4.0, r.Span())
	assert.True(t, r.Contains(3))
	assert.False(t, r.Contains(3.01))
	assert.Error(t, Range{2, 2}.Validate())
}
