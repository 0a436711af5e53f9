package model

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Output is a marker interface for the raw result of one forward pass.
type Output interface {
	isOutput()
	// Batch returns the number of batch elements in the output.
	Batch() int
}

// BoxOutput is the darknet output: a float32 tensor of shape (batch, boxes, 7+classes).
type BoxOutput struct {
	Boxes *tensor.Dense
}

func (BoxOutput) isOutput() {}

// Batch returns the leading dimension of Boxes.
func (o BoxOutput) Batch() int {
	if o.Boxes == nil || o.Boxes.Dims() == 0 {
		return 0
	}
	return o.Boxes.Shape()[0]
}

// Validate checks the tensor rank, dtype and row width.
func (o BoxOutput) Validate(rowWidth int) error {
	if o.Boxes == nil {
		return errors.Wrap(ErrMalformedCandidate, "darknet output is nil")
	}
	if o.Boxes.Dtype() != tensor.Float32 {
		return errors.Wrapf(ErrMalformedCandidate, "darknet output dtype %v, want float32", o.Boxes.Dtype())
	}
	shape := o.Boxes.Shape()
	if len(shape) != 3 || shape[2] != rowWidth {
		return errors.Wrapf(ErrMalformedCandidate, "darknet output shape %v, want (B, N, %d)", shape, rowWidth)
	}
	return nil
}

// HeadOutput is the keypoint model output keyed by head name. Every tensor is float32 with
// shape (batch, channels, height, width).
type HeadOutput map[string]*tensor.Dense

func (HeadOutput) isOutput() {}

// Batch returns the leading dimension of the heatmap head.
func (o HeadOutput) Batch() int {
	hm, ok := o[HeadHeatmap]
	if !ok || hm == nil || hm.Dims() == 0 {
		return 0
	}
	return hm.Shape()[0]
}

// Validate checks that every head is present with the configured channels and a shared grid.
func (o HeadOutput) Validate(heads [NumHeads]Head) error {
	var batch, h, w int
	for i, head := range heads {
		t, ok := o[head.Name]
		if !ok || t == nil {
			return errors.Wrapf(ErrMalformedCandidate, "head %s missing", head.Name)
		}
		if t.Dtype() != tensor.Float32 {
			return errors.Wrapf(ErrMalformedCandidate, "head %s dtype %v, want float32", head.Name, t.Dtype())
		}
		shape := t.Shape()
		if len(shape) != 4 || shape[1] != head.Channels {
			return errors.Wrapf(ErrMalformedCandidate, "head %s shape %v, want (B, %d, H, W)",
				head.Name, shape, head.Channels)
		}
		if i == 0 {
			batch, h, w = shape[0], shape[2], shape[3]
			continue
		}
		if shape[0] != batch || shape[2] != h || shape[3] != w {
			return errors.Wrapf(ErrMalformedCandidate, "head %s shape %v does not match %s (%d, _, %d, %d)",
				head.Name, shape, heads[0].Name, batch, h, w)
		}
	}
	return nil
}

// Float32s returns the dense float32 backing of a tensor, materializing views.
func Float32s(t *tensor.Dense) ([]float32, error) {
	if t == nil {
		return nil, errors.Wrap(ErrMalformedCandidate, "tensor is nil")
	}
	if t.Dtype() != tensor.Float32 {
		return nil, errors.Wrapf(ErrMalformedCandidate, "tensor dtype %v, want float32", t.Dtype())
	}
	// Data panics on a tensor without elements.
	if t.Shape().TotalSize() == 0 {
		return []float32{}, nil
	}
	if t.IsMaterializable() {
		dense, ok := t.Materialize().(*tensor.Dense)
		if !ok {
			return nil, errors.Wrap(ErrMalformedCandidate, "tensor view cannot be materialized")
		}
		t = dense
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.Wrapf(ErrMalformedCandidate, "tensor dtype %v, want float32", t.Dtype())
	}
	return data, nil
}
