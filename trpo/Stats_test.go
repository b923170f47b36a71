package trpo

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func TestStandardize(t *testing.T) {
	x := []float64{1, 2, 3}
	if err := standardize(x); err != nil {
		t.Fatalf("standardize: %v", err)
	}

	// Population standard deviation of {1, 2, 3} is sqrt(2/3)
	scale := math.Sqrt(2.0 / 3.0)
	want := []float64{-1 / scale, 0, 1 / scale}
	for i := range want {
		if math.Abs(x[i]-want[i]) > 1e-12 {
			t.Errorf("element %d \n\twant(%v)\n\thave(%v)", i, want[i], x[i])
		}
	}
}

func TestStandardizeNoSpread(t *testing.T) {
	x := []float64{2, 2, 2}
	if err := standardize(x); err == nil {
		t.Error("expected an error standardizing a constant batch")
	}
}

func TestExplainedVariance(t *testing.T) {
	y := []float64{1, 2, 3, 4}

	perfect := explainedVariance(y, y)
	if math.Abs(perfect-1) > 1e-12 {
		t.Errorf("perfect prediction \n\twant(%v)\n\thave(%v)", 1.0, perfect)
	}

	constant := explainedVariance([]float64{2.5, 2.5, 2.5, 2.5}, y)
	if math.Abs(constant) > 1e-12 {
		t.Errorf("constant prediction \n\twant(%v)\n\thave(%v)", 0.0,
			constant)
	}

	if ev := explainedVariance(y, []float64{3, 3, 3, 3}); !math.IsNaN(ev) {
		t.Errorf("constant target \n\twant(NaN)\n\thave(%v)", ev)
	}
}

func TestMinibatchIndices(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	batches := minibatchIndices(10, 3, rng)

	// The trailing partial minibatch is dropped
	if len(batches) != 3 {
		t.Fatalf("number of minibatches \n\twant(%v)\n\thave(%v)", 3,
			len(batches))
	}

	seen := make(map[int]bool)
	for _, batch := range batches {
		if len(batch) != 3 {
			t.Errorf("minibatch size \n\twant(%v)\n\thave(%v)", 3,
				len(batch))
		}
		for _, i := range batch {
			if i < 0 || i >= 10 {
				t.Errorf("index out of range: %v", i)
			}
			if seen[i] {
				t.Errorf("index %v appears twice", i)
			}
			seen[i] = true
		}
	}
}

func TestRollingBuffer(t *testing.T) {
	buf := newRollingBuffer(3)
	if !math.IsNaN(buf.mean()) {
		t.Error("mean of an empty buffer should be NaN")
	}

	buf.extend([]float64{1, 2})
	if m := buf.mean(); math.Abs(m-1.5) > 1e-12 {
		t.Errorf("mean \n\twant(%v)\n\thave(%v)", 1.5, m)
	}

	// Oldest values fall out once capacity is exceeded
	buf.extend([]float64{3, 4})
	if m := buf.mean(); math.Abs(m-3) > 1e-12 {
		t.Errorf("mean \n\twant(%v)\n\thave(%v)", 3.0, m)
	}
}
