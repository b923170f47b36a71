package network_test

import (
	"testing"

	G "gorgonia.org/gorgonia"

	"sfneuman.com/gotrpo/network"
)

func newTestMLP(t *testing.T) *network.MLP {
	t.Helper()
	net, err := network.NewMLP(G.NewGraph(), 2, 1, []int{3}, []bool{true},
		[]*network.Activation{network.TanH()}, G.GlorotN(1.0), "test")
	if err != nil {
		t.Fatalf("newmlp: %v", err)
	}
	return net
}

func TestNumParams(t *testing.T) {
	net := newTestMLP(t)

	// 2x3 weights + 3 biases + 3x1 weights + 1 bias
	if n := network.NumParams(net.Learnables()); n != 13 {
		t.Errorf("parameter count \n\twant(%v)\n\thave(%v)", 13, n)
	}
}

// TestFlattenRoundTrip checks that SetFlat followed by Flatten returns
// the same vector, element for element
func TestFlattenRoundTrip(t *testing.T) {
	net := newTestMLP(t)
	params := net.Learnables()

	flat := make([]float64, network.NumParams(params))
	for i := range flat {
		flat[i] = float64(i) * 0.25
	}
	if err := network.SetFlat(params, flat); err != nil {
		t.Fatalf("setflat: %v", err)
	}

	have := network.Flatten(params)
	if len(have) != len(flat) {
		t.Fatalf("flat length \n\twant(%v)\n\thave(%v)", len(flat),
			len(have))
	}
	for i := range flat {
		if have[i] != flat[i] {
			t.Errorf("element %d \n\twant(%v)\n\thave(%v)", i, flat[i],
				have[i])
		}
	}
}

func TestSetFlatLengthMismatch(t *testing.T) {
	net := newTestMLP(t)
	if err := network.SetFlat(net.Learnables(), []float64{1}); err == nil {
		t.Error("expected an error for a mismatched vector length")
	}
}

// TestSharedWeights checks that two forward passes of one MLP share the
// same parameter nodes
func TestSharedWeights(t *testing.T) {
	g := G.NewGraph()
	net, err := network.NewMLP(g, 2, 1, []int{3}, []bool{true},
		[]*network.Activation{network.TanH()}, G.GlorotN(1.0), "shared")
	if err != nil {
		t.Fatalf("newmlp: %v", err)
	}

	inputA := G.NewMatrix(g, G.Float64, G.WithShape(4, 2),
		G.WithName("a"), G.WithInit(G.Zeroes()))
	inputB := G.NewMatrix(g, G.Float64, G.WithShape(4, 2),
		G.WithName("b"), G.WithInit(G.Zeroes()))

	if _, err := net.Fwd(inputA); err != nil {
		t.Fatalf("fwd: %v", err)
	}
	if _, err := net.Fwd(inputB); err != nil {
		t.Fatalf("fwd: %v", err)
	}

	// The learnables are unchanged by adding forward passes
	if n := network.NumParams(net.Learnables()); n != 13 {
		t.Errorf("parameter count \n\twant(%v)\n\thave(%v)", 13, n)
	}
}

func TestFwdShapeMismatch(t *testing.T) {
	g := G.NewGraph()
	net, err := network.NewMLP(g, 2, 1, []int{3}, []bool{true},
		[]*network.Activation{network.TanH()}, G.GlorotN(1.0), "bad")
	if err != nil {
		t.Fatalf("newmlp: %v", err)
	}

	input := G.NewMatrix(g, G.Float64, G.WithShape(4, 5),
		G.WithName("wide"), G.WithInit(G.Zeroes()))
	if _, err := net.Fwd(input); err == nil {
		t.Error("expected an error for a mismatched feature count")
	}
}
