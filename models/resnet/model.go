// Package resnet - FPN ResNet keypoint model.
package resnet

import (
	"github.com/nvr-ai/go-bev/models/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorgonia.org/tensor"
)

// InputName is the BEV input of the exported graph.
const InputName = "input"

// Resnet is the instance of the keypoint model.
type Resnet struct {
	config model.Config
	params model.ResnetParams
	logger *zap.Logger
}

// NewModel creates a new model.
//
// Arguments:
//   - cfg: An fpn_resnet configuration.
//   - logger: The logger for decode statistics. Nil logs nothing.
//
// Returns:
//   - The model.
//   - error: ErrConfig if the configuration is invalid or of another family.
func NewModel(cfg model.Config, logger *zap.Logger) (*Resnet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	params, ok := cfg.Resnet()
	if !ok {
		return nil, errors.Wrapf(model.ErrConfig, "fpn_resnet model cannot use %s parameters", cfg.Family())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resnet{
		config: cfg,
		params: params,
		logger: logger.With(zap.Stringer("family", model.FamilyResnet)),
	}, nil
}

// Family returns FamilyResnet.
func (m *Resnet) Family() model.Family { return model.FamilyResnet }

// Config returns the configuration of the model.
func (m *Resnet) Config() model.Config { return m.config }

// InputName returns the name of the graph input.
func (m *Resnet) InputName() string { return InputName }

// OutputNames returns the head names in output order.
func (m *Resnet) OutputNames() []string {
	names := make([]string, 0, len(m.params.Heads))
	for _, h := range m.params.Heads {
		names = append(names, h.Name)
	}
	return names
}

// NewOutput wraps named forward-pass tensors as a HeadOutput.
//
// Returns:
//   - model.Output: The head output.
//   - error: ErrMalformedCandidate if a head is missing or misshaped.
func (m *Resnet) NewOutput(tensors map[string]*tensor.Dense) (model.Output, error) {
	out := make(model.HeadOutput, len(m.params.Heads))
	for _, h := range m.params.Heads {
		out[h.Name] = tensors[h.Name]
	}
	if err := out.Validate(m.params.Heads); err != nil {
		return nil, err
	}
	return out, nil
}
