package models

import (
	"image/color"
	"testing"

	"github.com/nvr-ai/go-bev/models/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewModel validates family dispatch.
func TestNewModel(t *testing.T) {
	testCases := []struct {
		name    string
		model   model.Name
		family  model.Family
		outputs []string
	}{
		{name: "darknet", model: model.NameDarknet, family: model.FamilyDarknet, outputs: []string{"output"}},
		{
			name:    "fpn_resnet",
			model:   model.NameResnet,
			family:  model.FamilyResnet,
			outputs: []string{"hm_cen", "cen_offset", "direction", "z_coor", "dim"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := model.BuildConfig(tc.model)
			require.NoError(t, err)

			m, err := NewModel(cfg, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.family, m.Family())
			assert.Equal(t, tc.outputs, m.OutputNames())
			assert.Equal(t, "input", m.InputName())
			assert.Equal(t, cfg, m.Config())
		})
	}
}

func TestNewModelInvalidConfig(t *testing.T) {
	cfg, err := model.BuildConfig(model.NameDarknet)
	require.NoError(t, err)
	cfg.Arch = "pointpillars"

	m, err := NewModel(cfg, nil)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, model.ErrConfig))
}

func TestKITTIClasses(t *testing.T) {
	name, err := KITTIClasses.GetName(1)
	require.NoError(t, err)
	assert.Equal(t, "car", name)

	idx, err := KITTIClasses.GetIndex("cyclist")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = KITTIClasses.GetName(3)
	assert.Error(t, err)
	_, err = KITTIClasses.GetIndex("truck")
	assert.Error(t, err)
}

// TestKITTIClassColors checks the display colors: pedestrian yellow, car red, cyclist blue.
func TestKITTIClassColors(t *testing.T) {
	testCases := []struct {
		name string
		want color.RGBA
	}{
		{name: "pedestrian", want: color.RGBA{R: 255, G: 255, B: 0, A: 255}},
		{name: "car", want: color.RGBA{R: 255, G: 0, B: 0, A: 255}},
		{name: "cyclist", want: color.RGBA{R: 0, G: 0, B: 255, A: 255}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			idx, err := KITTIClasses.GetIndex(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.want, KITTIClasses.Classes[idx].Color)
		})
	}
}
