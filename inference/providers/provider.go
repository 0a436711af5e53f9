// Package providers - Provider interface for execution providers.
package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ProviderOptions is a marker interface for provider-specific config.
type ProviderOptions interface {
	isProviderOptions()
}

// ProviderBackend represents different ONNX Runtime execution providers.
type ProviderBackend string

// ExecutionProvider represents the contract that all execution providers must implement.
//
// A provider is passed explicitly to every session it should run on; there is no process-wide
// default device.
type ExecutionProvider interface {
	Backend() ProviderBackend
	Options() ProviderOptions
	// Append registers the provider on the session options.
	Append(options *ort.SessionOptions) error
}

// NewProvider creates a new provider based on the type of the options.
//
// Arguments:
//   - options: The options for the provider. Nil selects the CPU provider.
//
// Returns:
//   - ExecutionProvider: The new provider.
//   - error: An error if the options type is unsupported.
func NewProvider(options ProviderOptions) (ExecutionProvider, error) {
	switch opts := options.(type) {
	case nil:
		return NewCPUProvider(CPUOptions{}), nil
	case CPUOptions:
		return NewCPUProvider(opts), nil
	case CoreMLOptions:
		return NewCoreMLProvider(opts), nil
	case OpenVINOOptions:
		return NewOpenVINOProvider(opts), nil
	case CUDAOptions:
		return NewCUDAProvider(opts), nil
	default:
		return nil, fmt.Errorf("unsupported provider options type: %T", opts)
	}
}
