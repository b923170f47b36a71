package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLP implements a multi-layered perceptron built onto a caller-owned
// computational graph. The same MLP can be applied to any number of
// input nodes on that graph with Fwd, sharing one set of weights
// between all of the resulting forward passes. This is how separate
// towers (e.g. one per input batch) share parameters.
type MLP struct {
	g          *G.ExprGraph
	layers     []*fcLayer
	numInputs  int
	numOutputs int

	learnables G.Nodes
}

// NewMLP creates a new MLP on graph g mapping features inputs to
// outputs outputs. The MLP has len(hiddenSizes) hidden layers where
// hidden layer i has hiddenSizes[i] units, a bias unit if biases[i],
// and activation activations[i]. A final linear layer with a bias unit
// and no activation maps to the output. All weights are initialized
// with init, and all weight nodes are named with the argument prefix
// so that multiple MLPs can share one graph.
func NewMLP(g *G.ExprGraph, features, outputs int, hiddenSizes []int,
	biases []bool, activations []*Activation, init G.InitWFn,
	prefix string) (*MLP, error) {
	if len(hiddenSizes) != len(activations) {
		return nil, fmt.Errorf("newmlp: invalid number of activations"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		return nil, fmt.Errorf("newmlp: invalid number of biases"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(biases))
	}

	// Final linear layer predicting the outputs
	sizes := make([]int, len(hiddenSizes), len(hiddenSizes)+1)
	copy(sizes, hiddenSizes)
	sizes = append(sizes, outputs)
	layerBiases := append(append([]bool{}, biases...), true)
	layerActivations := append(append([]*Activation{}, activations...),
		Identity())

	layers := make([]*fcLayer, len(sizes))
	learnables := make(G.Nodes, 0, 2*len(sizes))
	in := features
	for i, out := range sizes {
		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(in, out),
			G.WithName(fmt.Sprintf("%vL%dW", prefix, i)),
			G.WithInit(init),
		)
		learnables = append(learnables, weights)

		var bias *G.Node
		if layerBiases[i] {
			bias = G.NewMatrix(
				g,
				tensor.Float64,
				G.WithShape(1, out),
				G.WithName(fmt.Sprintf("%vL%dB", prefix, i)),
				G.WithInit(G.Zeroes()),
			)
			learnables = append(learnables, bias)
		}

		layers[i] = &fcLayer{
			weights: weights,
			bias:    bias,
			act:     layerActivations[i],
		}
		in = out
	}

	return &MLP{
		g:          g,
		layers:     layers,
		numInputs:  features,
		numOutputs: outputs,
		learnables: learnables,
	}, nil
}

// Fwd adds a forward pass of the MLP on the argument input node to the
// graph and returns the output node. The input must be a matrix of
// shape (batch, features).
func (m *MLP) Fwd(input *G.Node) (*G.Node, error) {
	if !input.IsMatrix() {
		return nil, fmt.Errorf("fwd: input must be a matrix")
	}
	if input.Shape()[1] != m.numInputs {
		return nil, fmt.Errorf("fwd: invalid number of features"+
			"\n\twant(%d)\n\thave(%d)", m.numInputs, input.Shape()[1])
	}

	var err error
	for _, layer := range m.layers {
		if input, err = layer.fwd(input); err != nil {
			return nil, fmt.Errorf("fwd: %v", err)
		}
	}
	return input, nil
}

// Graph returns the computational graph that the MLP was built on
func (m *MLP) Graph() *G.ExprGraph {
	return m.g
}

// Outputs returns the number of outputs that the MLP predicts
func (m *MLP) Outputs() int {
	return m.numOutputs
}

// Learnables returns the learnable nodes of the MLP in a fixed order,
// decided once at construction
func (m *MLP) Learnables() G.Nodes {
	return m.learnables
}
