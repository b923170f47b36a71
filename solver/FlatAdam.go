// Package solver implements optimizers that operate on flat parameter
// vectors
package solver

import (
	"fmt"
	"math"

	"sfneuman.com/gotrpo/comm"
)

// FlatAdam implements the Adam optimizer over a flat parameter vector.
// Unlike graph-bound solvers, FlatAdam consumes gradients that have
// already been averaged across workers as plain vectors, which lets
// one update be applied identically on every worker. Sync broadcasts
// the root worker's parameters so that all workers start from the same
// point.
type FlatAdam struct {
	dim     int
	beta1   float64
	beta2   float64
	epsilon float64

	m []float64
	v []float64
	t float64

	transport comm.Transport
}

// NewFlatAdam returns a new FlatAdam over parameter vectors of the
// argument dimension
func NewFlatAdam(dim int, beta1, beta2, epsilon float64,
	transport comm.Transport) *FlatAdam {
	return &FlatAdam{
		dim:       dim,
		beta1:     beta1,
		beta2:     beta2,
		epsilon:   epsilon,
		m:         make([]float64, dim),
		v:         make([]float64, dim),
		transport: transport,
	}
}

// NewDefaultFlatAdam returns a new FlatAdam with the usual
// hyperparameters
func NewDefaultFlatAdam(dim int, transport comm.Transport) *FlatAdam {
	return NewFlatAdam(dim, 0.9, 0.999, 1e-8, transport)
}

// Update applies a single Adam step with the argument step size to
// theta in place. The gradient grad must already be averaged across
// workers; Update itself performs no communication, so applying the
// same averaged gradient on every worker keeps the workers' parameters
// bit-identical.
func (f *FlatAdam) Update(theta, grad []float64, stepSize float64) error {
	if len(theta) != f.dim || len(grad) != f.dim {
		return fmt.Errorf("update: illegal vector length \n\twant(%v)"+
			"\n\thave(theta %v, grad %v)", f.dim, len(theta), len(grad))
	}

	f.t++
	a := stepSize * math.Sqrt(1-math.Pow(f.beta2, f.t)) /
		(1 - math.Pow(f.beta1, f.t))
	for i := range theta {
		f.m[i] = f.beta1*f.m[i] + (1-f.beta1)*grad[i]
		f.v[i] = f.beta2*f.v[i] + (1-f.beta2)*grad[i]*grad[i]
		theta[i] -= a * f.m[i] / (math.Sqrt(f.v[i]) + f.epsilon)
	}
	return nil
}

// Sync replaces theta on every worker with the root worker's theta,
// so that optimization starts from identical parameters everywhere
func (f *FlatAdam) Sync(theta []float64, root int) error {
	if len(theta) != f.dim {
		return fmt.Errorf("sync: illegal vector length \n\twant(%v)"+
			"\n\thave(%v)", f.dim, len(theta))
	}
	return f.transport.Bcast(theta, root)
}
