package postprocess

import (
	"testing"

	"github.com/nvr-ai/go-bev/bev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(x, y, w, l, obj float32, class int) Result {
	return Result{
		Box:        bev.Box{X: float64(x), Y: float64(y), W: float64(w), L: float64(l)},
		Re:         1,
		Objectness: obj,
		ClassConf:  1,
		Class:      class,
		Score:      obj,
	}
}

// TestFilterByConfidence validates the inclusive objectness threshold.
func TestFilterByConfidence(t *testing.T) {
	in := []Result{
		row(0, 0, 1, 1, 0.49, 0),
		row(0, 0, 1, 1, 0.5, 0),
		row(0, 0, 1, 1, 0.9, 0),
	}

	out := FilterByConfidence(in, 0.5)
	require.Len(t, out, 2)
	assert.Equal(t, float32(0.5), out[0].Objectness)
	assert.Equal(t, float32(0.9), out[1].Objectness)
	assert.Empty(t, FilterByConfidence(nil, 0.5))
}

// TestSortByScore ensures descending order with stable ties.
func TestSortByScore(t *testing.T) {
	in := []Result{
		row(1, 0, 1, 1, 0.5, 0),
		row(2, 0, 1, 1, 0.9, 0),
		row(3, 0, 1, 1, 0.5, 0),
	}

	out := SortByScore(in)
	require.Len(t, out, 3)
	assert.Equal(t, 2.0, out[0].Box.X)
	assert.Equal(t, 1.0, out[1].Box.X)
	assert.Equal(t, 3.0, out[2].Box.X)
}

// TestApplyRotatedNMS performs table-driven checks of suppression and merging.
func TestApplyRotatedNMS(t *testing.T) {
	testCases := []struct {
		name   string
		in     []Result
		config NMSConfig
		wantX  []float64
	}{
		{
			name: "overlapping same class merges",
			// IoU 180/220
			in:     []Result{row(100, 100, 20, 10, 0.9, 1), row(102, 100, 20, 10, 0.6, 1)},
			config: NMSConfig{IoUThreshold: 0.4, ClassAware: true, Merge: true},
			wantX:  []float64{100.8},
		},
		{
			name:   "overlapping same class without merge",
			in:     []Result{row(100, 100, 20, 10, 0.9, 1), row(102, 100, 20, 10, 0.6, 1)},
			config: NMSConfig{IoUThreshold: 0.4, ClassAware: true},
			wantX:  []float64{100},
		},
		{
			name:   "overlapping different class",
			in:     []Result{row(100, 100, 20, 10, 0.9, 0), row(102, 100, 20, 10, 0.6, 2)},
			config: NMSConfig{IoUThreshold: 0.4, ClassAware: true, Merge: true},
			wantX:  []float64{100, 102},
		},
		{
			name:   "overlapping different class agnostic",
			in:     []Result{row(100, 100, 20, 10, 0.9, 0), row(102, 100, 20, 10, 0.6, 2)},
			config: NMSConfig{IoUThreshold: 0.4, Merge: true},
			wantX:  []float64{100.8},
		},
		{
			name:   "disjoint boxes",
			in:     []Result{row(100, 100, 20, 10, 0.9, 1), row(300, 300, 20, 10, 0.6, 1)},
			config: NMSConfig{IoUThreshold: 0.4, ClassAware: true, Merge: true},
			wantX:  []float64{100, 300},
		},
		{
			name:   "threshold one keeps every row",
			in:     []Result{row(100, 100, 20, 10, 0.9, 1), row(100, 100, 20, 10, 0.6, 1)},
			config: NMSConfig{IoUThreshold: 1, ClassAware: true, Merge: true},
			wantX:  []float64{100, 100},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := ApplyRotatedNMS(tc.in, &tc.config)
			require.Len(t, out, len(tc.wantX))
			assert.LessOrEqual(t, len(out), len(tc.in))
			for i, x := range tc.wantX {
				assert.InDelta(t, x, out[i].Box.X, 1e-6)
			}
		})
	}
}

func TestApplyRotatedNMSEmpty(t *testing.T) {
	assert.Nil(t, ApplyRotatedNMS(nil, &NMSConfig{IoUThreshold: 0.4}))
}

func TestApplyRotatedNMSDoesNotMutateInput(t *testing.T) {
	in := []Result{row(100, 100, 20, 10, 0.9, 1), row(102, 100, 20, 10, 0.6, 1)}
	ApplyRotatedNMS(in, &NMSConfig{IoUThreshold: 0.4, Merge: true})
	assert.Equal(t, 100.0, in[0].Box.X)
	assert.Equal(t, 102.0, in[1].Box.X)
}
