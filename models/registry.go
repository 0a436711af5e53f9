// Package models - registry for models.
package models

import (
	"github.com/nvr-ai/go-bev/models/darknet"
	"github.com/nvr-ai/go-bev/models/model"
	"github.com/nvr-ai/go-bev/models/postprocess"
	"github.com/nvr-ai/go-bev/models/resnet"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorgonia.org/tensor"
)

// Model decodes the raw output of one model family into world detections.
type Model interface {
	Family() model.Family
	Config() model.Config
	// InputName is the graph input fed with the BEV batch.
	InputName() string
	// OutputNames are the graph outputs NewOutput expects.
	OutputNames() []string
	// NewOutput wraps named forward-pass tensors as the family's raw output.
	NewOutput(tensors map[string]*tensor.Dense) (model.Output, error)
	// Decode turns a raw output into candidate rows.
	Decode(out model.Output) ([]postprocess.Candidate, error)
	// Transform maps candidate rows into world coordinates.
	Transform(rows []postprocess.Candidate) ([]postprocess.Detection, error)
}

var (
	_ Model = (*darknet.Darknet)(nil)
	_ Model = (*resnet.Resnet)(nil)
)

// NewModel creates the decoder for the family selected by the configuration.
//
// The configuration is validated once here; the family is chosen by matching on its
// parameters, never on the architecture string.
//
// Arguments:
//   - cfg: A configuration from model.BuildConfig or model.LoadConfig.
//   - logger: The logger for decode statistics. Nil logs nothing.
//
// Returns:
//   - Model: The family decoder.
//   - error: ErrConfig if the configuration is invalid.
//
// Example:
//
// ```go
//
//	cfg, _ := model.BuildConfig(model.NameDarknet)
//	m, err := models.NewModel(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	rows, err := m.Decode(out)
//
// ```
func NewModel(cfg model.Config, logger *zap.Logger) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Params.(type) {
	case model.DarknetParams:
		m, err := darknet.NewModel(cfg, logger)
		if err != nil {
			return nil, err
		}
		return m, nil
	case model.ResnetParams:
		m, err := resnet.NewModel(cfg, logger)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.Wrapf(model.ErrConfig, "unsupported parameters %T", cfg.Params)
	}
}
