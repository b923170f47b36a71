package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// NumParams returns the total number of scalar parameters held by the
// argument nodes
func NumParams(params G.Nodes) int {
	n := 0
	for _, p := range params {
		n += p.Shape().TotalSize()
	}
	return n
}

// Flatten copies the values of the argument parameter nodes into a
// single flat vector. The ordering of parameters within the vector is
// the ordering of the argument nodes and the row-major layout of each
// node's value, so that Flatten followed by SetFlat round-trips
// exactly.
func Flatten(params G.Nodes) []float64 {
	flat := make([]float64, 0, NumParams(params))
	for _, p := range params {
		flat = append(flat, p.Value().Data().([]float64)...)
	}
	return flat
}

// SetFlat copies a flat parameter vector produced by Flatten back into
// the argument parameter nodes, preserving each node's shape
func SetFlat(params G.Nodes, flat []float64) error {
	if n := NumParams(params); len(flat) != n {
		return fmt.Errorf("setflat: illegal parameter vector length"+
			"\n\twant(%v)\n\thave(%v)", n, len(flat))
	}

	start := 0
	for _, p := range params {
		data := p.Value().Data().([]float64)
		copy(data, flat[start:start+len(data)])
		start += len(data)
	}
	return nil
}
