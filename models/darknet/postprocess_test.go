package darknet

import (
	"math"
	"testing"

	"github.com/nvr-ai/go-bev/models/model"
	"github.com/nvr-ai/go-bev/models/postprocess"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorgonia.org/tensor"
)

func newTestModel(t *testing.T, mutate func(p *model.DarknetParams)) *Darknet {
	t.Helper()

	cfg, err := model.BuildConfig(model.NameDarknet)
	require.NoError(t, err)
	if mutate != nil {
		p, _ := cfg.Darknet()
		mutate(&p)
		cfg.Params = p
	}

	m, err := NewModel(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return m
}

// boxOutput packs rows of (x, y, w, l, im, re, obj, c0, c1, c2) into a (batch, n, 10) output.
func boxOutput(batch int, rows ...[]float32) model.BoxOutput {
	n := len(rows) / batch
	backing := make([]float32, 0, len(rows)*10)
	for _, r := range rows {
		backing = append(backing, r...)
	}
	return model.BoxOutput{Boxes: tensor.New(tensor.WithShape(batch, n, 10), tensor.WithBacking(backing))}
}

// TestDarknetConcreteScenario validates decode and transform of a single box.
func TestDarknetConcreteScenario(t *testing.T) {
	m := newTestModel(t, nil)

	rows, err := m.Decode(boxOutput(1, []float32{100, 200, 20, 10, 0, 1, 0.9, 0.1, 0.8, 0.1}))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, postprocess.Candidate{1, 100, 200, 0, 1.5, 20, 10, 0}, rows[0])

	dets, err := m.Transform(rows)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	d := dets[0]
	assert.Equal(t, 1, d.ClassID)
	assert.InDelta(t, 16.447, d.X, 1e-3)
	assert.InDelta(t, -16.776, d.Y, 1e-3)
	assert.Equal(t, 0.0, d.Z)
	assert.InDelta(t, 1.5, d.H, 1e-6)
	assert.InDelta(t, 1.645, d.W, 1e-3)
	assert.InDelta(t, 0.822, d.L, 1e-3)
	assert.Equal(t, 0.0, d.Yaw)
}

// TestDarknetFixedFields ensures every detection reports the configured class and height.
func TestDarknetFixedFields(t *testing.T) {
	m := newTestModel(t, nil)

	out := boxOutput(1,
		[]float32{50, 50, 20, 10, 0.5, 0.5, 0.95, 0.9, 0.05, 0.05},
		[]float32{300, 100, 8, 8, -1, 0, 0.7, 0.1, 0.1, 0.8},
		[]float32{500, 500, 12, 30, 0, -1, 0.6, 0.2, 0.7, 0.1},
	)
	rows, err := m.Decode(out)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	dets, err := m.Transform(rows)
	require.NoError(t, err)
	for _, d := range dets {
		assert.Equal(t, 1, d.ClassID)
		assert.InDelta(t, 1.5, d.H, 1e-6)
		assert.Greater(t, d.W, 0.0)
		assert.Greater(t, d.L, 0.0)
		assert.True(t, d.Yaw > -math.Pi && d.Yaw <= math.Pi, "yaw %f", d.Yaw)
	}
	assert.InDelta(t, -math.Pi/2, dets[1].Yaw, 1e-6)
	assert.InDelta(t, math.Pi, math.Abs(dets[2].Yaw), 1e-6)
}

// TestDarknetYawDomain sweeps headings over [-1, 1]^2 and checks every world yaw lies in (-pi, pi].
func TestDarknetYawDomain(t *testing.T) {
	params, cfg := mustDarknetParams(t)
	steps := []float32{-1, -0.75, -0.5, -0.25, 0, 0.25, 0.5, 0.75, 1}

	for _, im := range steps {
		for _, re := range steps {
			rows := Decode([]float32{100, 200, 20, 10, im, re, 0.9, 0.1, 0.8, 0.1}, cfg.ConfThreshold, params)
			require.Len(t, rows, 1)

			dets, err := ToWorld(rows, cfg.Grid())
			require.NoError(t, err)

			yaw := dets[0].Yaw
			assert.True(t, yaw > -math.Pi && yaw <= math.Pi, "im=%g re=%g yaw=%v", im, re, yaw)
			diff := math.Remainder(yaw-math.Atan2(float64(im), float64(re)), 2*math.Pi)
			assert.InDelta(t, 0, diff, 1e-6, "im=%g re=%g", im, re)
		}
	}

	// float32 pi exceeds math.Pi and wraps to the lower end of the range.
	rows := Decode([]float32{100, 200, 20, 10, 0, -1, 0.9, 0.1, 0.8, 0.1}, cfg.ConfThreshold, params)
	dets, err := ToWorld(rows, cfg.Grid())
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, math.Abs(dets[0].Yaw), 1e-6)
	assert.Greater(t, dets[0].Yaw, -math.Pi)
}

// TestDarknetDecodeNoBoxes ensures outputs without rows decode to an empty list.
func TestDarknetDecodeNoBoxes(t *testing.T) {
	m := newTestModel(t, nil)

	out := model.BoxOutput{Boxes: tensor.New(tensor.WithShape(1, 0, 10), tensor.WithBacking([]float32{}))}
	rows, err := m.Decode(out)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

// TestDarknetDecodeFiltering covers thresholds, ordering and merging.
func TestDarknetDecodeFiltering(t *testing.T) {
	params, _ := mustDarknetParams(t)

	testCases := []struct {
		name  string
		rows  [][]float32
		wantX []float32
	}{
		{
			name: "below confidence",
			rows: [][]float32{{100, 100, 20, 10, 0, 1, 0.49, 1, 0, 0}},
		},
		{
			name:  "sorted by objectness times class score",
			rows:  [][]float32{{100, 100, 20, 10, 0, 1, 0.9, 0.5, 0, 0}, {400, 400, 20, 10, 0, 1, 0.8, 1, 0, 0}},
			wantX: []float32{400, 100},
		},
		{
			name: "overlapping same class merged",
			rows: [][]float32{
				{100, 100, 20, 10, 0, 1, 0.9, 0, 1, 0},
				{102, 100, 20, 10, 0, 1, 0.6, 0, 1, 0},
			},
			wantX: []float32{100.8},
		},
		{
			name: "overlapping different class kept",
			rows: [][]float32{
				{100, 100, 20, 10, 0, 1, 0.9, 0, 1, 0},
				{102, 100, 20, 10, 0, 1, 0.6, 1, 0, 0},
			},
			wantX: []float32{100, 102},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var data []float32
			for _, r := range tc.rows {
				data = append(data, r...)
			}

			rows := Decode(data, 0.5, params)
			require.NotNil(t, rows)
			require.Len(t, rows, len(tc.wantX))
			assert.LessOrEqual(t, len(rows), len(tc.rows))
			for i, x := range tc.wantX {
				assert.InDelta(t, x, rows[i][postprocess.ColX], 1e-4)
			}
		})
	}
}

// TestDarknetDecodeBatchOrder checks that parallel workers keep batch order.
func TestDarknetDecodeBatchOrder(t *testing.T) {
	for _, workers := range []int{0, 4} {
		m := newTestModel(t, func(p *model.DarknetParams) { p.Workers = workers })

		out := boxOutput(4,
			[]float32{10, 10, 4, 4, 0, 1, 0.9, 1, 0, 0},
			[]float32{20, 20, 4, 4, 0, 1, 0.9, 1, 0, 0},
			[]float32{30, 30, 4, 4, 0, 1, 0.1, 1, 0, 0},
			[]float32{40, 40, 4, 4, 0, 1, 0.9, 1, 0, 0},
		)
		rows, err := m.Decode(out)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, float32(10), rows[0][postprocess.ColX])
		assert.Equal(t, float32(20), rows[1][postprocess.ColX])
		assert.Equal(t, float32(40), rows[2][postprocess.ColX])
	}
}

func TestDarknetDecodeErrors(t *testing.T) {
	m := newTestModel(t, nil)

	_, err := m.Decode(model.HeadOutput{})
	assert.True(t, errors.Is(err, model.ErrMalformedCandidate))

	wrong := model.BoxOutput{Boxes: tensor.New(tensor.WithShape(1, 2, 9), tensor.Of(tensor.Float32))}
	_, err = m.Decode(wrong)
	assert.True(t, errors.Is(err, model.ErrMalformedCandidate))

	_, err = m.NewOutput(map[string]*tensor.Dense{"boxes": wrong.Boxes})
	assert.True(t, errors.Is(err, model.ErrMalformedCandidate))
}

func TestDarknetToWorldMalformed(t *testing.T) {
	m := newTestModel(t, nil)

	dets, err := m.Transform([]postprocess.Candidate{{1, 100, 200, 0, 1.5, 20, 10}})
	require.Error(t, err)
	assert.Nil(t, dets)
	assert.True(t, errors.Is(err, model.ErrMalformedCandidate))

	dets, err = m.Transform(nil)
	require.NoError(t, err)
	assert.NotNil(t, dets)
	assert.Empty(t, dets)
}

func TestNewModelRejectsResnetConfig(t *testing.T) {
	cfg, err := model.BuildConfig(model.NameResnet)
	require.NoError(t, err)

	_, err = NewModel(cfg, nil)
	assert.True(t, errors.Is(err, model.ErrConfig))
}

func mustDarknetParams(t *testing.T) (model.DarknetParams, model.Config) {
	t.Helper()
	cfg, err := model.BuildConfig(model.NameDarknet)
	require.NoError(t, err)
	p, ok := cfg.Darknet()
	require.True(t, ok)
	return p, cfg
}
