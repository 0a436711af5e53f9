// Package inference - Model loading and BEV detection.
package inference

import (
	"os"

	"github.com/nvr-ai/go-bev/inference/providers"
	"github.com/nvr-ai/go-bev/models"
	"github.com/nvr-ai/go-bev/models/model"
	"github.com/nvr-ai/go-bev/models/postprocess"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorgonia.org/tensor"
)

// BEVChannels is the channel count of a BEV map: intensity, height and density.
const BEVChannels = 3

// Handle is a loaded model ready to detect objects on BEV batches.
//
// The configuration is frozen at load time. A Handle serializes nothing itself; concurrent
// Detect calls are only safe when the forwarder is.
type Handle struct {
	model     models.Model
	forwarder *profiledForwarder
	logger    *zap.Logger
}

// Option configures LoadModel.
type Option func(*loadOptions)

type loadOptions struct {
	logger       *zap.Logger
	forwarder    Forwarder
	optimization *providers.OptimizationConfig
}

// WithLogger sets the logger of the handle and its session.
func WithLogger(logger *zap.Logger) Option {
	return func(o *loadOptions) {
		o.logger = logger
	}
}

// WithForwarder replaces the ONNX Runtime session with a caller supplied forward pass.
func WithForwarder(f Forwarder) Option {
	return func(o *loadOptions) {
		o.forwarder = f
	}
}

// WithOptimization sets the ONNX Runtime session tuning.
func WithOptimization(config providers.OptimizationConfig) Option {
	return func(o *loadOptions) {
		o.optimization = &config
	}
}

// LoadModel validates the configuration, checks the weights and prepares the forward pass.
//
// Arguments:
//   - cfg: The model configuration.
//   - provider: The execution provider the session runs on. Nil selects the CPU.
//   - opts: Optional logger, forwarder and session tuning.
//
// Returns:
//   - *Handle: The loaded model; the caller must Close it.
//   - error: ErrConfig for an invalid configuration, ErrMissingWeights when the weight file is
//     absent, or the runtime error of session creation.
func LoadModel(cfg model.Config, provider providers.ExecutionProvider, opts ...Option) (*Handle, error) {
	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("model", string(cfg.Name)), zap.String("arch", string(cfg.Arch)))

	m, err := models.NewModel(cfg, logger)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.WeightsPath); err != nil {
		return nil, errors.Wrapf(model.ErrMissingWeights, "%s: %v", cfg.WeightsPath, err)
	}
	logger.Info("loading model", zap.String("weights", cfg.WeightsPath))

	forwarder := o.forwarder
	if forwarder == nil {
		session, err := providers.NewSession(provider, providers.NewSessionArgs{
			ModelPath:    cfg.ModelPath(),
			InputName:    m.InputName(),
			OutputNames:  m.OutputNames(),
			Optimization: o.optimization,
			Logger:       logger,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create session")
		}
		forwarder = sessionForwarder{session: session}
	}

	return &Handle{
		model:     m,
		forwarder: newProfiledForwarder(forwarder),
		logger:    logger,
	}, nil
}

// Config returns the configuration the handle was loaded with.
func (h *Handle) Config() model.Config {
	return h.model.Config()
}

// Detect runs the handle's model on a BEV batch.
//
// Arguments:
//   - batch: A (batch, channels, height, width) float32 tensor.
//
// Returns:
//   - The world detections; empty, not nil, when nothing survives.
//   - error: Any forward, decode or transform error. No partial result is returned.
func (h *Handle) Detect(batch *tensor.Dense) ([]postprocess.Detection, error) {
	return detect(batch, h, h.model)
}

// Detect runs a loaded model on a BEV batch, decoding with cfg.
//
// cfg may differ from the load configuration in thresholds and limits but must describe the
// same family.
//
// Arguments:
//   - batch: A (batch, channels, height, width) float32 tensor.
//   - handle: The loaded model.
//   - cfg: The decode and transform configuration.
//
// Returns:
//   - The world detections; empty, not nil, when nothing survives.
//   - error: ErrConfig for an invalid or mismatched cfg, or any pipeline error.
func Detect(batch *tensor.Dense, handle *Handle, cfg model.Config) ([]postprocess.Detection, error) {
	if handle == nil {
		return nil, errors.Wrap(model.ErrConfig, "nil model handle")
	}
	if cfg.Family() != handle.model.Family() {
		return nil, errors.Wrapf(model.ErrConfig, "config family %s does not match loaded %s",
			cfg.Family(), handle.model.Family())
	}
	m, err := models.NewModel(cfg, handle.logger)
	if err != nil {
		return nil, err
	}
	return detect(batch, handle, m)
}

func detect(batch *tensor.Dense, h *Handle, m models.Model) ([]postprocess.Detection, error) {
	if batch == nil {
		return nil, errors.Wrap(model.ErrConfig, "nil BEV batch")
	}

	tensors, err := h.forwarder.Forward(batch)
	if err != nil {
		return nil, errors.Wrap(err, "forward")
	}
	out, err := m.NewOutput(tensors)
	if err != nil {
		return nil, err
	}

	rows, err := m.Decode(out)
	if err != nil {
		return nil, err
	}
	dets, err := m.Transform(rows)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("detected",
		zap.Int("batch", out.Batch()),
		zap.Int("candidates", len(rows)),
		zap.Int("detections", len(dets)),
	)
	return dets, nil
}

// WarmUp runs the forward pass on blank BEV maps.
//
// Arguments:
//   - runs: The number of passes.
//
// Returns:
//   - error: The first forward error.
func (h *Handle) WarmUp(runs int) error {
	batch := zeroBatch(h.model.Config(), BEVChannels)
	for i := 0; i < runs; i++ {
		if _, err := h.forwarder.Forward(batch); err != nil {
			return errors.Wrapf(err, "warm up run %d", i)
		}
	}
	h.forwarder.ResetMetrics()
	return nil
}

// Metrics returns the forward pass statistics.
func (h *Handle) Metrics() Metrics {
	return h.forwarder.Metrics()
}

// Close releases the forward pass resources.
func (h *Handle) Close() error {
	return h.forwarder.Close()
}
