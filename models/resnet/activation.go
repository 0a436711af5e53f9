// Package resnet - Head activations.
package resnet

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Sigmoid applies the logistic function elementwise through a gorgonia expression graph.
//
// Arguments:
//   - t: A float32 tensor of any shape.
//
// Returns:
//   - *tensor.Dense: A new tensor of the same shape; t is not modified.
//   - error: An error if the graph cannot be built or run.
func Sigmoid(t *tensor.Dense) (*tensor.Dense, error) {
	g := G.NewGraph()

	x := G.NewTensor(g, tensor.Float32, t.Dims(), G.WithShape(t.Shape().Clone()...), G.WithName("x"))
	y, err := G.Sigmoid(x)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build sigmoid graph")
	}
	if err := G.Let(x, t); err != nil {
		return nil, errors.Wrap(err, "failed to bind sigmoid input")
	}

	tm := G.NewTapeMachine(g)
	defer tm.Close()

	if err := tm.RunAll(); err != nil {
		return nil, errors.Wrap(err, "failed to run sigmoid graph")
	}

	out, ok := y.Value().(*tensor.Dense)
	if !ok {
		return nil, errors.Errorf("sigmoid produced %T", y.Value())
	}
	return out.Clone().(*tensor.Dense), nil
}
