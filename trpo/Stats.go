package trpo

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// rollingBuffer keeps the most recent capacity values appended to it
type rollingBuffer struct {
	capacity int
	data     []float64
}

func newRollingBuffer(capacity int) *rollingBuffer {
	return &rollingBuffer{capacity: capacity}
}

func (r *rollingBuffer) extend(values []float64) {
	r.data = append(r.data, values...)
	if excess := len(r.data) - r.capacity; excess > 0 {
		r.data = r.data[excess:]
	}
}

// mean returns the mean of the buffered values, or NaN when empty
func (r *rollingBuffer) mean() float64 {
	if len(r.data) == 0 {
		return math.NaN()
	}
	return stat.Mean(r.data, nil)
}

// standardize rescales x in place to zero mean and unit standard
// deviation, using the population standard deviation. A batch with no
// spread cannot be standardized and is reported as an error.
func standardize(x []float64) error {
	mean := stat.Mean(x, nil)
	variance := 0.0
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(x))
	std := math.Sqrt(variance)
	if std == 0 || math.IsNaN(std) {
		return fmt.Errorf("standardize: advantages have no spread "+
			"\n\thave(std %v)", std)
	}
	for i := range x {
		x[i] = (x[i] - mean) / std
	}
	return nil
}

// explainedVariance returns 1 - Var(y - pred) / Var(y), the fraction of
// the variance of y accounted for by pred. A constant y makes the
// measure undefined, reported as NaN.
func explainedVariance(pred, y []float64) float64 {
	varY := stat.Variance(y, nil)
	if varY == 0 {
		return math.NaN()
	}
	resid := make([]float64, len(y))
	floats.SubTo(resid, y, pred)
	return 1 - stat.Variance(resid, nil)/varY
}

// minibatchIndices returns successive index slices covering a shuffled
// permutation of [0, n) in minibatches of the argument size, dropping
// the partial trailing minibatch
func minibatchIndices(n, size int, rng *rand.Rand) [][]int {
	perm := rng.Perm(n)
	batches := make([][]int, 0, n/size)
	for start := 0; start+size <= n; start += size {
		batches = append(batches, perm[start:start+size])
	}
	return batches
}
