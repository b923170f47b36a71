// Package rms implements online estimation of the mean and variance of
// a stream of vectors
package rms

import (
	"fmt"
	"math"
)

// RunningMeanStd tracks the running mean and variance of a stream of
// fixed-dimension vectors using the parallel variance update of Chan
// et al. Estimates are updated incrementally and never reset, so they
// reflect every sample seen over the whole run.
type RunningMeanStd struct {
	mean  []float64
	var_  []float64
	count float64
}

// New returns a new RunningMeanStd over vectors of the argument
// dimension
func New(dims int) *RunningMeanStd {
	mean := make([]float64, dims)
	variance := make([]float64, dims)
	for i := range variance {
		variance[i] = 1.0
	}

	return &RunningMeanStd{
		mean:  mean,
		var_:  variance,
		count: 1e-2, // avoids division by zero before the first update
	}
}

// Dims returns the dimension of tracked vectors
func (r *RunningMeanStd) Dims() int {
	return len(r.mean)
}

// Update updates the moment estimates with a batch of n vectors,
// stored in batch in row-major order
func (r *RunningMeanStd) Update(batch []float64, n int) error {
	dims := len(r.mean)
	if len(batch) != n*dims {
		return fmt.Errorf("update: illegal batch length \n\twant(%v)"+
			"\n\thave(%v)", n*dims, len(batch))
	}
	if n == 0 {
		return nil
	}

	batchMean := make([]float64, dims)
	batchVar := make([]float64, dims)
	for i := 0; i < n; i++ {
		for j := 0; j < dims; j++ {
			batchMean[j] += batch[i*dims+j]
		}
	}
	for j := 0; j < dims; j++ {
		batchMean[j] /= float64(n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < dims; j++ {
			diff := batch[i*dims+j] - batchMean[j]
			batchVar[j] += diff * diff
		}
	}
	for j := 0; j < dims; j++ {
		batchVar[j] /= float64(n)
	}

	batchCount := float64(n)
	total := r.count + batchCount
	for j := 0; j < dims; j++ {
		delta := batchMean[j] - r.mean[j]

		m2 := r.var_[j]*r.count + batchVar[j]*batchCount +
			delta*delta*r.count*batchCount/total

		r.mean[j] += delta * batchCount / total
		r.var_[j] = m2 / total
	}
	r.count = total

	return nil
}

// Mean returns the current running mean estimate. The returned slice
// is owned by the RunningMeanStd and must not be modified.
func (r *RunningMeanStd) Mean() []float64 {
	return r.mean
}

// Std returns the current running standard deviation estimate
func (r *RunningMeanStd) Std() []float64 {
	std := make([]float64, len(r.var_))
	for i, v := range r.var_ {
		std[i] = math.Sqrt(v)
	}
	return std
}

// Count returns the effective number of samples seen
func (r *RunningMeanStd) Count() float64 {
	return r.count
}
