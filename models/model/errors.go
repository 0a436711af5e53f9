package model

import "github.com/pkg/errors"

var (
	// ErrConfig reports an unknown model name, an unknown architecture or an invalid field.
	ErrConfig = errors.New("invalid model configuration")
	// ErrMissingWeights reports a pretrained weight file absent at its configured path.
	ErrMissingWeights = errors.New("pretrained weights not found")
	// ErrMalformedCandidate reports a decoded row or raw tensor that breaks the decoder contract.
	ErrMalformedCandidate = errors.New("malformed candidate")
)
