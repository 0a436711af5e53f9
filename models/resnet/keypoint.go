// Package resnet - Keypoint gathering over the head planes.
package resnet

import (
	"github.com/nvr-ai/go-bev/models/model"
	"github.com/nvr-ai/go-bev/models/postprocess"
	"gorgonia.org/tensor"
)

// headMaps holds the first batch element of every head as (channels, height, width) planes.
type headMaps struct {
	classes, height, width int

	heat      []float32
	offset    []float32
	direction []float32
	z         []float32
	dim       []float32
}

func newHeadMaps(hm, offset, direction, z, dim *tensor.Dense) (*headMaps, error) {
	shape := hm.Shape()
	m := &headMaps{classes: shape[1], height: shape[2], width: shape[3]}

	for _, h := range []struct {
		dst *[]float32
		t   *tensor.Dense
	}{
		{&m.heat, hm},
		{&m.offset, offset},
		{&m.direction, direction},
		{&m.z, z},
		{&m.dim, dim},
	} {
		data, err := model.Float32s(h.t)
		if err != nil {
			return nil, err
		}
		*h.dst = data[:h.t.Shape()[1]*m.height*m.width]
	}
	return m, nil
}

func (m *headMaps) at(plane []float32, channel, row, col int) float32 {
	return plane[(channel*m.height+row)*m.width+col]
}

// decode extracts the top k peaks and gathers their regressed attributes.
func (m *headMaps) decode(k int) []postprocess.KeypointDetection {
	peaks := postprocess.PeakMask(m.heat, m.classes, m.height, m.width)
	kps := postprocess.TopK(peaks, m.classes, m.height, m.width, k)

	dets := make([]postprocess.KeypointDetection, 0, len(kps))
	for _, kp := range kps {
		r, c := kp.Row, kp.Col
		dets = append(dets, postprocess.KeypointDetection{
			Score: kp.Score,
			Class: kp.Class,
			X:     float32(c) + m.at(m.offset, 0, r, c),
			Y:     float32(r) + m.at(m.offset, 1, r, c),
			Z:     m.at(m.z, 0, r, c),
			H:     m.at(m.dim, 0, r, c),
			W:     m.at(m.dim, 1, r, c),
			L:     m.at(m.dim, 2, r, c),
			Im:    m.at(m.direction, 0, r, c),
			Re:    m.at(m.direction, 1, r, c),
		})
	}
	return dets
}
