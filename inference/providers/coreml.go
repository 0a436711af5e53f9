// Package providers - CoreML based execution provider.
package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	// CoreMLProviderBackend uses Apple CoreML for macOS/iOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
)

// CoreMLProvider implements the ExecutionProvider interface.
type CoreMLProvider struct {
	options CoreMLOptions
}

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// MLProgram or NeuralNetwork. Default: NeuralNetwork
	ModelFormat string `json:"modelFormat"         yaml:"modelFormat"`
	// CPUOnly, CPUAndNeuralEngine, CPUAndGPU or ALL. Default: ALL
	MLComputeUnits string `json:"mlComputeUnits"      yaml:"mlComputeUnits"`
	// Only take nodes whose inputs have static shapes.
	RequireStaticInputShapes bool `json:"requireStaticInputShapes" yaml:"requireStaticInputShapes"`
	// Directory where compiled CoreML models are cached. Default: cache disabled
	ModelCacheDirectory string `json:"modelCacheDirectory" yaml:"modelCacheDirectory"`
}

// ToMap converts the options into ONNX Runtime's CoreML provider keys. Unset fields are omitted.
func (o CoreMLOptions) ToMap() map[string]string {
	m := map[string]string{}
	if o.ModelFormat != "" {
		m["ModelFormat"] = o.ModelFormat
	}
	if o.MLComputeUnits != "" {
		m["MLComputeUnits"] = o.MLComputeUnits
	}
	if o.RequireStaticInputShapes {
		m["RequireStaticInputShapes"] = "1"
	}
	if o.ModelCacheDirectory != "" {
		m["ModelCacheDirectory"] = o.ModelCacheDirectory
	}
	return m
}

func (CoreMLOptions) isProviderOptions() {}

// Backend returns the backend of the CoreML provider.
func (p *CoreMLProvider) Backend() ProviderBackend {
	return CoreMLProviderBackend
}

// Options returns the options of the CoreML provider.
func (p *CoreMLProvider) Options() ProviderOptions {
	return p.options
}

// Append registers CoreML on the session options.
func (p *CoreMLProvider) Append(options *ort.SessionOptions) error {
	if err := options.AppendExecutionProviderCoreMLV2(p.options.ToMap()); err != nil {
		return fmt.Errorf("error enabling CoreML: %w", err)
	}
	return nil
}

// NewCoreMLProvider creates a new CoreML provider.
func NewCoreMLProvider(options CoreMLOptions) *CoreMLProvider {
	return &CoreMLProvider{
		options: options,
	}
}
