// Package providers - Inference sessions.
package providers

import (
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
	"gorgonia.org/tensor"
)

// envMu serializes process-wide runtime initialization.
var envMu sync.Mutex

// Session wraps a dynamic ONNX Runtime session bound to one input and a fixed set of outputs.
//
// Outputs are allocated by the runtime on every Run, so a single Session serves any batch size
// the model accepts. A Session is not safe for concurrent use.
type Session struct {
	session     *ort.DynamicAdvancedSession
	outputNames []string
	backend     ProviderBackend
	logger      *zap.Logger
}

// NewSessionArgs represents the arguments for creating a new ONNX session.
type NewSessionArgs struct {
	// The path to the ONNX model file.
	ModelPath string
	// The input node name.
	InputName string
	// The output node names, in the order they are returned.
	OutputNames []string
	// Session tuning. Nil selects DefaultOptimizationConfig.
	Optimization *OptimizationConfig
	// Nil disables logging.
	Logger *zap.Logger
}

// NewSession creates a new ONNX session.
//
// Order of operations:
//  1. Library path check: Ensures native runtime is accessible.
//  2. Environment setup: Done once per process.
//  3. Session options: Tuning and the execution provider.
//  4. Session creation: Loads the model and binds the node names.
//
// Arguments:
//   - provider: The provider for the session.
//   - args: The arguments for the session.
//
// Returns:
//   - *Session: The runnable session; the caller must Close it.
//   - error: An error if the session creation fails.
func NewSession(provider ExecutionProvider, args NewSessionArgs) (*Session, error) {
	logger := args.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if provider == nil {
		provider = NewCPUProvider(CPUOptions{})
	}

	if err := initEnvironment(); err != nil {
		return nil, err
	}

	config := DefaultOptimizationConfig()
	if args.Optimization != nil {
		config = *args.Optimization
	}
	options, err := OptimizedSessionOptions(config, provider)
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		args.ModelPath,
		[]string{args.InputName},
		args.OutputNames,
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating ORT session for %s: %w", args.ModelPath, err)
	}

	logger.Info("created onnx session",
		zap.String("model", args.ModelPath),
		zap.String("backend", string(provider.Backend())),
		zap.Strings("outputs", args.OutputNames),
	)

	return &Session{
		session:     session,
		outputNames: append([]string(nil), args.OutputNames...),
		backend:     provider.Backend(),
		logger:      logger,
	}, nil
}

func initEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	libPath := GetSharedLibPath()
	if _, err := os.Stat(libPath); err != nil {
		return fmt.Errorf("ONNX Runtime library not found at %q (set %s): %w", libPath, SharedLibPathEnv, err)
	}
	ort.SetSharedLibraryPath(libPath)

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("error initializing ORT environment: %w", err)
	}
	return nil
}

// Backend returns the execution provider the session runs on.
func (s *Session) Backend() ProviderBackend {
	return s.backend
}

// Run executes one forward pass.
//
// Arguments:
//   - input: A float32 tensor matching the model input.
//
// Returns:
//   - Every output tensor keyed by node name. The data is copied out of runtime memory.
//   - error: An error if the input is not float32 or the runtime fails.
func (s *Session) Run(input *tensor.Dense) (map[string]*tensor.Dense, error) {
	if s.session == nil {
		return nil, errors.New("session is closed")
	}
	data, ok := input.Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("input dtype %v, want float32", input.Dtype())
	}

	dims := make([]int64, 0, input.Dims())
	for _, d := range input.Shape() {
		dims = append(dims, int64(d))
	}
	in, err := ort.NewTensor(ort.NewShape(dims...), data)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}
	defer in.Destroy()

	outputs := make([]ort.Value, len(s.outputNames))
	if err := s.session.Run([]ort.Value{in}, outputs); err != nil {
		destroyAll(outputs)
		return nil, fmt.Errorf("error running ORT session: %w", err)
	}
	defer destroyAll(outputs)

	result := make(map[string]*tensor.Dense, len(outputs))
	for i, v := range outputs {
		t, ok := v.(*ort.Tensor[float32])
		if !ok {
			return nil, fmt.Errorf("output %s is %T, want float32 tensor", s.outputNames[i], v)
		}
		shape := make([]int, 0, len(t.GetShape()))
		for _, d := range t.GetShape() {
			shape = append(shape, int(d))
		}
		backing := make([]float32, len(t.GetData()))
		copy(backing, t.GetData())
		result[s.outputNames[i]] = tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing))
	}

	s.logger.Debug("ran onnx session", zap.Ints("input_shape", input.Shape()), zap.Int("outputs", len(result)))
	return result, nil
}

// Close releases the native session.
func (s *Session) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	if err != nil {
		return fmt.Errorf("error destroying ORT session: %w", err)
	}
	return nil
}

func destroyAll(values []ort.Value) {
	for _, v := range values {
		if v != nil {
			v.Destroy()
		}
	}
}
