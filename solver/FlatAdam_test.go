package solver_test

import (
	"math"
	"testing"

	"sfneuman.com/gotrpo/comm"
	"sfneuman.com/gotrpo/solver"
)

// TestUpdate checks a single Adam step against hand-computed values
func TestUpdate(t *testing.T) {
	adam := solver.NewFlatAdam(2, 0.9, 0.999, 1e-8, comm.Local{})

	theta := []float64{0, 0}
	grad := []float64{1, -2}
	if err := adam.Update(theta, grad, 0.1); err != nil {
		t.Fatalf("update: %v", err)
	}

	// After one step the bias-corrected update is stepsize * g/|g|
	// elementwise, up to the epsilon in the denominator
	want := []float64{-0.1, 0.1}
	for i := range want {
		if math.Abs(theta[i]-want[i]) > 1e-6 {
			t.Errorf("element %d \n\twant(%v)\n\thave(%v)", i, want[i],
				theta[i])
		}
	}
}

// TestUpdateAccumulatesMoments checks that two identical steps shrink
// neither the first nor the second moment
func TestUpdateAccumulatesMoments(t *testing.T) {
	adam := solver.NewFlatAdam(1, 0.9, 0.999, 1e-8, comm.Local{})

	theta := []float64{0}
	grad := []float64{1}
	if err := adam.Update(theta, grad, 0.1); err != nil {
		t.Fatalf("update: %v", err)
	}
	after1 := theta[0]
	if err := adam.Update(theta, grad, 0.1); err != nil {
		t.Fatalf("update: %v", err)
	}

	// A constant gradient keeps pushing in the same direction
	if theta[0] >= after1 {
		t.Errorf("second step should decrease theta further"+
			"\n\thave(step1 %v, step2 %v)", after1, theta[0])
	}
}

func TestUpdateLengthMismatch(t *testing.T) {
	adam := solver.NewDefaultFlatAdam(2, comm.Local{})
	if err := adam.Update([]float64{1}, []float64{1, 2}, 0.1); err == nil {
		t.Error("expected an error for mismatched vector lengths")
	}
}

// TestSync checks that Sync replaces every worker's parameters with the
// root worker's
func TestSync(t *testing.T) {
	group := comm.NewGroup(2)
	defer group.Close()

	thetas := [][]float64{{1, 2}, {3, 4}}
	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			adam := solver.NewDefaultFlatAdam(2, group.Transport(i))
			done <- adam.Sync(thetas[i], 0)
		}(i)
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("sync: %v", err)
		}
	}

	for rank, theta := range thetas {
		if theta[0] != 1 || theta[1] != 2 {
			t.Errorf("rank %d \n\twant(%v)\n\thave(%v)", rank,
				[]float64{1, 2}, theta)
		}
	}
}
