// Package postprocess - Candidate rows, final detections and the filtering primitives shared by
// the decoders.
package postprocess

import (
	"math"

	"github.com/nvr-ai/go-bev/bev"
	"github.com/nvr-ai/go-bev/models/model"
	"github.com/pkg/errors"
)

// Column indices of a Candidate row.
const (
	ColClass = iota
	ColX
	ColY
	ColZ
	ColH
	ColW
	ColL
	ColYaw

	// CandidateFields is the exact arity of a Candidate row.
	CandidateFields
)

// Candidate is one decoded detection before the world transform:
// (class_id, x_img, y_img, z_norm, h, w, l, yaw).
//
// Darknet rows carry BEV pixels for x, y, w and l. Keypoint rows carry BEV pixels for x and y,
// a z normalized over the height limits and metric dimensions.
type Candidate []float32

// NewCandidate builds a well-formed row.
func NewCandidate(classID int, x, y, z, h, w, l, yaw float32) Candidate {
	return Candidate{float32(classID), x, y, z, h, w, l, yaw}
}

// Validate checks the row arity.
func (c Candidate) Validate() error {
	if len(c) != CandidateFields {
		return errors.Wrapf(model.ErrMalformedCandidate, "candidate has %d fields, want %d", len(c), CandidateFields)
	}
	return nil
}

// ClassID returns the class column as an index.
func (c Candidate) ClassID() int { return int(c[ColClass]) }

// Detection is a final detection in world coordinates. Spatial fields are meters, Yaw is radians.
type Detection struct {
	ClassID int     `json:"class_id" yaml:"class_id"`
	X       float64 `json:"x" yaml:"x"`
	Y       float64 `json:"y" yaml:"y"`
	Z       float64 `json:"z" yaml:"z"`
	H       float64 `json:"h" yaml:"h"`
	W       float64 `json:"w" yaml:"w"`
	L       float64 `json:"l" yaml:"l"`
	Yaw     float64 `json:"yaw" yaml:"yaw"`
}

// Box returns the ground-plane footprint of the detection.
func (d Detection) Box() bev.Box {
	return bev.Box{X: d.X, Y: d.Y, W: d.W, L: d.L, Yaw: d.Yaw}
}

// Footprint returns the four world-space corners of the detection.
func (d Detection) Footprint() [4][2]float64 {
	return d.Box().Corners()
}

// NormalizeYaw wraps an angle into (-pi, pi].
func NormalizeYaw(yaw float64) float64 {
	r := math.Remainder(yaw, 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	}
	return r
}
