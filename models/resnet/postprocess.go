// Package resnet - postprocess keypoint model outputs.
package resnet

import (
	"github.com/nvr-ai/go-bev/bev"
	"github.com/nvr-ai/go-bev/models/model"
	"github.com/nvr-ai/go-bev/models/postprocess"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Decode turns the head tensors into candidate rows.
//
// Only the first batch element is decoded. Rows are emitted class by class for the selected
// classes.
//
// Arguments:
//   - out: A HeadOutput holding every head.
//
// Returns:
//   - Candidate rows; empty, not nil, when no keypoint passes the thresholds.
//   - error: ErrMalformedCandidate if the output is not a valid HeadOutput.
func (m *Resnet) Decode(out model.Output) ([]postprocess.Candidate, error) {
	heads, ok := out.(model.HeadOutput)
	if !ok {
		return nil, errors.Wrapf(model.ErrMalformedCandidate, "fpn_resnet cannot decode %T", out)
	}
	if err := heads.Validate(m.params.Heads); err != nil {
		return nil, err
	}
	if b := heads.Batch(); b > 1 {
		m.logger.Debug("decoding first batch element only", zap.Int("batch", b))
	}

	if heads[model.HeadHeatmap].Shape().TotalSize() == 0 {
		return []postprocess.Candidate{}, nil
	}

	hm, err := Sigmoid(heads[model.HeadHeatmap])
	if err != nil {
		return nil, errors.Wrap(err, model.HeadHeatmap)
	}
	offset, err := Sigmoid(heads[model.HeadOffset])
	if err != nil {
		return nil, errors.Wrap(err, model.HeadOffset)
	}

	maps, err := newHeadMaps(hm, offset, heads[model.HeadDirection], heads[model.HeadZ], heads[model.HeadDim])
	if err != nil {
		return nil, err
	}

	dets := maps.decode(m.params.TopK)
	perClass := postprocess.ClassAware(dets, postprocess.ClassAwareConfig{
		NumClasses:    m.params.NumClasses,
		DownRatio:     float32(m.params.DownRatio),
		PeakThreshold: m.params.PeakThreshold,
		ConfThreshold: m.config.ConfThreshold,
	})

	rows := make([]postprocess.Candidate, 0, len(dets))
	for _, c := range m.params.EmittedClasses() {
		rows = append(rows, perClass[c]...)
	}

	m.logger.Debug("decoded keypoints",
		zap.Int("top_k", len(dets)),
		zap.Int("candidates", len(rows)),
	)
	return rows, nil
}

// Transform maps keypoint candidates into world coordinates.
//
// Positions are BEV pixels; z is de-normalized over the height limits and the metric
// dimensions pass through.
func (m *Resnet) Transform(rows []postprocess.Candidate) ([]postprocess.Detection, error) {
	return ToWorld(rows, m.config.Grid())
}

// ToWorld maps keypoint candidates into world coordinates with the given grid.
//
// Returns:
//   - The detections in row order; empty, not nil, for no rows.
//   - error: ErrMalformedCandidate if any row lacks exactly 8 fields.
func ToWorld(rows []postprocess.Candidate, grid bev.Grid) ([]postprocess.Detection, error) {
	dets := make([]postprocess.Detection, 0, len(rows))
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		x, y := grid.ToWorld(float64(row[postprocess.ColX]), float64(row[postprocess.ColY]))
		dets = append(dets, postprocess.Detection{
			ClassID: row.ClassID(),
			X:       x,
			Y:       y,
			Z:       grid.ZFromNorm(float64(row[postprocess.ColZ])),
			H:       float64(row[postprocess.ColH]),
			W:       float64(row[postprocess.ColW]),
			L:       float64(row[postprocess.ColL]),
			Yaw:     postprocess.NormalizeYaw(float64(row[postprocess.ColYaw])),
		})
	}
	return dets, nil
}
