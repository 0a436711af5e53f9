// Package darknet - Complex-YOLO model.
package darknet

import (
	"github.com/nvr-ai/go-bev/models/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorgonia.org/tensor"
)

const (
	// InputName is the BEV input of the exported graph.
	InputName = "input"
	// OutputName is the box-list output of the exported graph.
	OutputName = "output"
)

// Darknet is the instance of the Complex-YOLO model.
type Darknet struct {
	config model.Config
	params model.DarknetParams
	logger *zap.Logger
}

// NewModel creates a new model.
//
// Arguments:
//   - cfg: A darknet configuration.
//   - logger: The logger for decode statistics. Nil logs nothing.
//
// Returns:
//   - The model.
//   - error: ErrConfig if the configuration is invalid or of another family.
func NewModel(cfg model.Config, logger *zap.Logger) (*Darknet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	params, ok := cfg.Darknet()
	if !ok {
		return nil, errors.Wrapf(model.ErrConfig, "darknet model cannot use %s parameters", cfg.Family())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Darknet{
		config: cfg,
		params: params,
		logger: logger.With(zap.Stringer("family", model.FamilyDarknet)),
	}, nil
}

// Family returns FamilyDarknet.
func (m *Darknet) Family() model.Family { return model.FamilyDarknet }

// Config returns the configuration of the model.
func (m *Darknet) Config() model.Config { return m.config }

// InputName returns the name of the graph input.
func (m *Darknet) InputName() string { return InputName }

// OutputNames returns the names of the graph outputs.
func (m *Darknet) OutputNames() []string { return []string{OutputName} }

// NewOutput wraps named forward-pass tensors as a BoxOutput.
//
// Returns:
//   - model.Output: The box output.
//   - error: ErrMalformedCandidate if the output tensor is missing or has the wrong shape.
func (m *Darknet) NewOutput(tensors map[string]*tensor.Dense) (model.Output, error) {
	boxes, ok := tensors[OutputName]
	if !ok {
		return nil, errors.Wrapf(model.ErrMalformedCandidate, "darknet output %q missing", OutputName)
	}
	out := model.BoxOutput{Boxes: boxes}
	if err := out.Validate(m.params.RowWidth()); err != nil {
		return nil, err
	}
	return out, nil
}
