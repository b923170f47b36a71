package trpo

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ConjugateGradient approximately solves Ax = b for a symmetric
// positive-definite operator A given only through matVec. Iteration
// stops after iters steps or once the squared residual falls below
// residualTol. Non-finite values are not checked here; callers validate
// the returned solution.
func ConjugateGradient(matVec func([]float64) ([]float64, error),
	b []float64, iters int, residualTol float64,
	verbose bool) ([]float64, error) {
	p := make([]float64, len(b))
	r := make([]float64, len(b))
	x := make([]float64, len(b))
	copy(p, b)
	copy(r, b)
	rdotr := floats.Dot(r, r)

	if verbose {
		fmt.Printf("%10s %10s %10s\n", "iter", "residual norm", "soln norm")
	}
	for i := 0; i < iters; i++ {
		if verbose {
			fmt.Printf("%10d %10.3g %10.3g\n", i, rdotr, floats.Norm(x, 2))
		}
		z, err := matVec(p)
		if err != nil {
			return nil, fmt.Errorf("conjugategradient: %v", err)
		}
		v := rdotr / floats.Dot(p, z)
		floats.AddScaled(x, v, p)
		floats.AddScaled(r, -v, z)
		newRdotr := floats.Dot(r, r)
		mu := newRdotr / rdotr
		for j := range p {
			p[j] = r[j] + mu*p[j]
		}
		rdotr = newRdotr
		if rdotr < residualTol {
			break
		}
	}
	if verbose {
		fmt.Printf("%10d %10.3g %10.3g\n", iters, rdotr, floats.Norm(x, 2))
	}
	return x, nil
}
