// Package darknet - postprocess Complex-YOLO model outputs.
package darknet

import (
	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-bev/bev"
	"github.com/nvr-ai/go-bev/models/model"
	"github.com/nvr-ai/go-bev/models/postprocess"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Decode turns a box output into candidate rows.
//
// Arguments:
//   - out: A BoxOutput of shape (batch, boxes, 7+classes).
//
// Returns:
//   - Candidate rows of every batch element, concatenated in batch order.
//   - error: ErrMalformedCandidate if the output is not a valid BoxOutput.
func (m *Darknet) Decode(out model.Output) ([]postprocess.Candidate, error) {
	boxes, ok := out.(model.BoxOutput)
	if !ok {
		return nil, errors.Wrapf(model.ErrMalformedCandidate, "darknet cannot decode %T", out)
	}
	if err := boxes.Validate(m.params.RowWidth()); err != nil {
		return nil, err
	}

	shape := boxes.Boxes.Shape()
	batch, n, width := shape[0], shape[1], shape[2]
	if batch == 0 || n == 0 {
		return []postprocess.Candidate{}, nil
	}

	data, err := model.Float32s(boxes.Boxes)
	if err != nil {
		return nil, err
	}

	perImage := make([][]postprocess.Candidate, batch)
	decode := func(b int) error {
		lo, hi := b*n*width, (b+1)*n*width
		if hi > len(data) {
			return errors.Wrapf(model.ErrMalformedCandidate, "batch element %d exceeds %d values", b, len(data))
		}
		perImage[b] = Decode(data[lo:hi], m.config.ConfThreshold, m.params)
		m.logger.Debug("decoded image", zap.Int("batch_index", b), zap.Int("boxes", n),
			zap.Int("candidates", len(perImage[b])))
		return nil
	}

	if m.params.Workers > 1 && batch > 1 {
		var g errgroup.Group
		g.SetLimit(m.params.Workers)
		for b := 0; b < batch; b++ {
			b := b
			g.Go(func() error {
				return decode(b)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for b := 0; b < batch; b++ {
			if err := decode(b); err != nil {
				return nil, err
			}
		}
	}

	rows := make([]postprocess.Candidate, 0)
	for _, r := range perImage {
		rows = append(rows, r...)
	}
	return rows, nil
}

// Decode runs confidence filtering, score ordering and rotated NMS on the flat box rows of one
// image and emits one candidate per surviving box.
//
// Every candidate carries the configured class id and height and a zero z.
//
// Arguments:
//   - data: Row-major rows of x, y, w, l, im, re, obj followed by the class scores.
//   - confThreshold: Minimum objectness.
//   - params: The darknet parameters.
//
// Returns:
//   - The candidates in descending score order. Never nil.
func Decode(data []float32, confThreshold float32, params model.DarknetParams) []postprocess.Candidate {
	width := params.RowWidth()
	numRows := len(data) / width

	results := make([]postprocess.Result, 0, numRows)
	for i := 0; i < numRows; i++ {
		results = append(results, parseRow(data[i*width:(i+1)*width]))
	}

	results = postprocess.FilterByConfidence(results, confThreshold)
	results = postprocess.SortByScore(results)
	results = postprocess.ApplyRotatedNMS(results, &postprocess.NMSConfig{
		IoUThreshold: params.NMSThreshold,
		ClassAware:   true,
		Merge:        true,
	})

	rows := make([]postprocess.Candidate, 0, len(results))
	for _, r := range results {
		rows = append(rows, postprocess.NewCandidate(
			params.ClassID,
			float32(r.Box.X),
			float32(r.Box.Y),
			0,
			params.Height,
			float32(r.Box.W),
			float32(r.Box.L),
			math32.Atan2(r.Im, r.Re),
		))
	}
	return rows
}

func parseRow(row []float32) postprocess.Result {
	x, y, w, l := row[0], row[1], row[2], row[3]
	im, re, obj := row[4], row[5], row[6]

	classID := 0
	maxScore := float32(0)
	for j, score := range row[model.DarknetBoxFields:] {
		if j == 0 || score > maxScore {
			maxScore = score
			classID = j
		}
	}

	return postprocess.Result{
		Box: bev.Box{
			X:   float64(x),
			Y:   float64(y),
			W:   float64(w),
			L:   float64(l),
			Yaw: float64(math32.Atan2(im, re)),
		},
		Im:         im,
		Re:         re,
		Objectness: obj,
		ClassConf:  maxScore,
		Class:      classID,
		Score:      obj * maxScore,
	}
}

// Transform maps darknet candidates into world coordinates.
//
// Positions and dimensions are BEV pixels and are rescaled with the grid discretization; z is
// zero and h passes through.
func (m *Darknet) Transform(rows []postprocess.Candidate) ([]postprocess.Detection, error) {
	return ToWorld(rows, m.config.Grid())
}

// ToWorld maps darknet candidates into world coordinates with the given grid.
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
			Z:       0,
			H:       float64(row[postprocess.ColH]),
			W:       float64(row[postprocess.ColW]) * grid.DiscretX(),
			L:       float64(row[postprocess.ColL]) * grid.DiscretY(),
			Yaw:     postprocess.NormalizeYaw(float64(row[postprocess.ColYaw])),
		})
	}
	return dets, nil
}
