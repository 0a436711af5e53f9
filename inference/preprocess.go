package inference

import (
	"github.com/nvr-ai/go-bev/models/model"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// NewBatch packs BEV maps into a (batch, channels, height, width) float32 input tensor.
//
// Arguments:
//   - maps: One channel-major map per batch element, each channels*height*width long.
//   - channels: The number of BEV channels.
//   - height: The BEV raster height.
//   - width: The BEV raster width.
//
// Returns:
//   - *tensor.Dense: The input tensor; the maps are copied.
//   - error: ErrConfig if a dimension is not positive or a map has the wrong length.
func NewBatch(maps [][]float32, channels, height, width int) (*tensor.Dense, error) {
	if channels <= 0 || height <= 0 || width <= 0 {
		return nil, errors.Wrapf(model.ErrConfig, "invalid BEV dimensions (%d, %d, %d)", channels, height, width)
	}
	if len(maps) == 0 {
		return nil, errors.Wrap(model.ErrConfig, "empty BEV batch")
	}

	size := channels * height * width
	backing := make([]float32, 0, len(maps)*size)
	for i, m := range maps {
		if len(m) != size {
			return nil, errors.Wrapf(model.ErrConfig, "BEV map %d has %d values, want %d", i, len(m), size)
		}
		backing = append(backing, m...)
	}
	return tensor.New(tensor.WithShape(len(maps), channels, height, width), tensor.WithBacking(backing)), nil
}

// zeroBatch returns a batch of blank BEV maps at the grid resolution.
func zeroBatch(cfg model.Config, channels int) *tensor.Dense {
	batch := max(1, cfg.BatchSize())
	return tensor.New(
		tensor.WithShape(batch, channels, cfg.BEVHeight, cfg.BEVWidth),
		tensor.WithBacking(make([]float32, batch*channels*cfg.BEVHeight*cfg.BEVWidth)),
	)
}
