package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeakMask(t *testing.T) {
	heat := []float32{
		0.1, 0.2, 0.1,
		0.2, 0.9, 0.3,
		0.1, 0.3, 0.1,
	}

	out := PeakMask(heat, 1, 3, 3)
	want := []float32{
		0, 0, 0,
		0, 0.9, 0,
		0, 0, 0,
	}
	assert.Equal(t, want, out)
	assert.Equal(t, float32(0.2), heat[1], "input must not be modified")
}

func TestPeakMaskKeepsTiesAndPlanes(t *testing.T) {
	heat := []float32{
		// class 0: plateau of two cells
		0.5, 0.5,
		0.1, 0.1,
		// class 1: independent plane
		0.1, 0.1,
		0.1, 0.7,
	}

	out := PeakMask(heat, 2, 2, 2)
	assert.Equal(t, []float32{0.5, 0.5, 0, 0, 0, 0, 0, 0.7}, out)
}

// TestTopK validates the two-stage selection.
func TestTopK(t *testing.T) {
	heat := []float32{
		// class 0
		0.1, 0.8,
		0.3, 0.2,
		// class 1
		0.7, 0.05,
		0.9, 0.6,
	}

	got := TopK(heat, 2, 2, 2, 3)
	want := []Keypoint{
		{Score: 0.9, Class: 1, Row: 1, Col: 0},
		{Score: 0.8, Class: 0, Row: 0, Col: 1},
		{Score: 0.7, Class: 1, Row: 0, Col: 0},
	}
	assert.Equal(t, want, got)
}

func TestTopKClampsToPlane(t *testing.T) {
	heat := []float32{0.4, 0.3, 0.2, 0.1}

	got := TopK(heat, 1, 2, 2, 40)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	assert.Nil(t, TopK(heat, 1, 2, 2, 0))
	assert.Nil(t, TopK(nil, 1, 0, 0, 4))
}
