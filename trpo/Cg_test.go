package trpo_test

import (
	"math"
	"testing"

	"sfneuman.com/gotrpo/trpo"
)

// TestConjugateGradient checks that a small symmetric positive-definite
// system is solved to high accuracy within its dimension in iterations
func TestConjugateGradient(t *testing.T) {
	a := [][]float64{
		{4, 1, 0},
		{1, 3, 0},
		{0, 0, 2},
	}
	matVec := func(v []float64) ([]float64, error) {
		out := make([]float64, len(v))
		for i := range a {
			for j := range a[i] {
				out[i] += a[i][j] * v[j]
			}
		}
		return out, nil
	}

	b := []float64{1, 2, 4}
	x, err := trpo.ConjugateGradient(matVec, b, 3, 1e-16, false)
	if err != nil {
		t.Fatalf("conjugategradient: %v", err)
	}

	want := []float64{1.0 / 11.0, 7.0 / 11.0, 2.0}
	for i := range want {
		if math.Abs(x[i]-want[i]) > 1e-8 {
			t.Errorf("solution %d \n\twant(%v)\n\thave(%v)", i, want[i],
				x[i])
		}
	}
}

// TestConjugateGradientResidualStop checks that iteration stops early
// once the residual tolerance is met
func TestConjugateGradientResidualStop(t *testing.T) {
	calls := 0
	matVec := func(v []float64) ([]float64, error) {
		calls++
		out := make([]float64, len(v))
		copy(out, v)
		return out, nil
	}

	// The identity system converges on the first iteration
	b := []float64{1, 2, 3}
	x, err := trpo.ConjugateGradient(matVec, b, 10, 1e-10, false)
	if err != nil {
		t.Fatalf("conjugategradient: %v", err)
	}
	if calls != 1 {
		t.Errorf("operator calls \n\twant(%v)\n\thave(%v)", 1, calls)
	}
	for i := range b {
		if math.Abs(x[i]-b[i]) > 1e-10 {
			t.Errorf("solution %d \n\twant(%v)\n\thave(%v)", i, b[i], x[i])
		}
	}
}

// TestConjugateGradientPropagatesNonFinite checks that a divergent
// operator surfaces in the returned solution for the caller to detect
func TestConjugateGradientPropagatesNonFinite(t *testing.T) {
	matVec := func(v []float64) ([]float64, error) {
		out := make([]float64, len(v))
		for i := range out {
			out[i] = math.NaN()
		}
		return out, nil
	}

	x, err := trpo.ConjugateGradient(matVec, []float64{1, 1}, 5, 1e-10,
		false)
	if err != nil {
		t.Fatalf("conjugategradient: %v", err)
	}
	finite := true
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			finite = false
		}
	}
	if finite {
		t.Error("expected a non-finite solution from a divergent operator")
	}
}
