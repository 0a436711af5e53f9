// Package providers - ONNX Runtime session tuning.
package providers

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// OptimizationConfig contains the ONNX Runtime session settings applied before a provider is
// appended.
type OptimizationConfig struct {
	// GraphOptimizationLevel controls the level of graph optimization
	GraphOptimizationLevel ort.GraphOptimizationLevel `json:"graph_optimization_level" yaml:"graph_optimization_level"`

	// ExecutionMode controls sequential vs parallel execution
	ExecutionMode ort.ExecutionMode `json:"execution_mode" yaml:"execution_mode"`

	// IntraOpNumThreads sets threads for parallelizing ops. Zero lets the runtime decide.
	IntraOpNumThreads int `json:"intra_op_num_threads" yaml:"intra_op_num_threads"`

	// InterOpNumThreads sets threads for parallelizing independent ops. Zero lets the runtime decide.
	InterOpNumThreads int `json:"inter_op_num_threads" yaml:"inter_op_num_threads"`

	// EnableCPUMemArena enables the CPU memory arena.
	EnableCPUMemArena bool `json:"enable_cpu_mem_arena" yaml:"enable_cpu_mem_arena"`

	// EnableMemoryPattern enables memory pattern optimization.
	EnableMemoryPattern bool `json:"enable_memory_pattern" yaml:"enable_memory_pattern"`
}

// DefaultOptimizationConfig returns the settings used when a caller gives none.
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		GraphOptimizationLevel: ort.GraphOptimizationLevelEnableExtended,
		ExecutionMode:          ort.ExecutionModeSequential,
		IntraOpNumThreads:      max(1, runtime.NumCPU()/2),
		InterOpNumThreads:      1,
		EnableCPUMemArena:      true,
		EnableMemoryPattern:    true,
	}
}

// OptimizedSessionOptions creates session options from config and appends the provider.
//
// Arguments:
//   - config: Optimization configuration to apply.
//   - provider: The execution provider to register.
//
// Returns:
//   - *ort.SessionOptions: Configured session options; the caller must Destroy them.
//   - error: Configuration error if any.
func OptimizedSessionOptions(
	config OptimizationConfig,
	provider ExecutionProvider,
) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"graph optimization level", func() error {
			return options.SetGraphOptimizationLevel(config.GraphOptimizationLevel)
		}},
		{"execution mode", func() error { return options.SetExecutionMode(config.ExecutionMode) }},
		{"intra-op threads", func() error { return options.SetIntraOpNumThreads(config.IntraOpNumThreads) }},
		{"inter-op threads", func() error { return options.SetInterOpNumThreads(config.InterOpNumThreads) }},
		{"cpu memory arena", func() error { return options.SetCpuMemArena(config.EnableCPUMemArena) }},
		{"memory pattern", func() error { return options.SetMemPattern(config.EnableMemoryPattern) }},
		{string(provider.Backend()), func() error { return provider.Append(options) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("failed to set %s: %w", step.name, err)
		}
	}
	return options, nil
}
