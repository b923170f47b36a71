package rms_test

import (
	"math"
	"testing"

	"sfneuman.com/gotrpo/utils/rms"
)

func TestNew(t *testing.T) {
	r := rms.New(2)
	if r.Dims() != 2 {
		t.Errorf("dims \n\twant(%v)\n\thave(%v)", 2, r.Dims())
	}
	for i, m := range r.Mean() {
		if m != 0 {
			t.Errorf("initial mean %d \n\twant(%v)\n\thave(%v)", i, 0.0, m)
		}
	}
	for i, s := range r.Std() {
		if s != 1 {
			t.Errorf("initial std %d \n\twant(%v)\n\thave(%v)", i, 1.0, s)
		}
	}
}

// TestUpdate checks one update against hand-computed values of the
// parallel variance recursion started from the prior (mean 0, var 1,
// count 0.01)
func TestUpdate(t *testing.T) {
	r := rms.New(1)
	if err := r.Update([]float64{1, 2, 3}, 3); err != nil {
		t.Fatalf("update: %v", err)
	}

	wantMean := 2.0 * 3 / 3.01
	wantVar := (0.01 + 2.0 + 4.0*0.01*3/3.01) / 3.01
	if m := r.Mean()[0]; math.Abs(m-wantMean) > 1e-12 {
		t.Errorf("mean \n\twant(%v)\n\thave(%v)", wantMean, m)
	}
	if s := r.Std()[0]; math.Abs(s-math.Sqrt(wantVar)) > 1e-12 {
		t.Errorf("std \n\twant(%v)\n\thave(%v)", math.Sqrt(wantVar), s)
	}
	if c := r.Count(); math.Abs(c-3.01) > 1e-12 {
		t.Errorf("count \n\twant(%v)\n\thave(%v)", 3.01, c)
	}
}

// TestUpdateConverges checks that the estimates approach the sample
// moments as data accumulates
func TestUpdateConverges(t *testing.T) {
	r := rms.New(1)
	for i := 0; i < 1000; i++ {
		if err := r.Update([]float64{1, 2, 3}, 3); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	if m := r.Mean()[0]; math.Abs(m-2) > 1e-3 {
		t.Errorf("mean \n\twant(%v)\n\thave(%v)", 2.0, m)
	}
	wantStd := math.Sqrt(2.0 / 3.0)
	if s := r.Std()[0]; math.Abs(s-wantStd) > 1e-3 {
		t.Errorf("std \n\twant(%v)\n\thave(%v)", wantStd, s)
	}
}

// TestUpdateBatchedEqualsSequential checks that one large update and
// the equivalent sequence of smaller updates agree
func TestUpdateBatchedEqualsSequential(t *testing.T) {
	batched := rms.New(1)
	if err := batched.Update([]float64{1, 2, 3, 4}, 4); err != nil {
		t.Fatalf("update: %v", err)
	}

	sequential := rms.New(1)
	if err := sequential.Update([]float64{1, 2}, 2); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := sequential.Update([]float64{3, 4}, 2); err != nil {
		t.Fatalf("update: %v", err)
	}

	if math.Abs(batched.Mean()[0]-sequential.Mean()[0]) > 1e-12 {
		t.Errorf("mean \n\twant(%v)\n\thave(%v)", batched.Mean()[0],
			sequential.Mean()[0])
	}
	if math.Abs(batched.Std()[0]-sequential.Std()[0]) > 1e-12 {
		t.Errorf("std \n\twant(%v)\n\thave(%v)", batched.Std()[0],
			sequential.Std()[0])
	}
}

func TestUpdateLengthMismatch(t *testing.T) {
	r := rms.New(2)
	if err := r.Update([]float64{1, 2, 3}, 2); err == nil {
		t.Error("expected an error for a mismatched batch length")
	}
}
