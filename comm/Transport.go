// Package comm implements the collective communication primitives used
// to keep parallel training workers synchronized
package comm

// Transport provides blocking collective operations over fixed-size
// numeric buffers for a group of workers running in lockstep. Every
// worker in the group must reach the same collective call before any
// worker's call returns; there is no partial or best-effort
// aggregation. A worker that never reaches the collective stalls the
// group.
type Transport interface {
	// Rank returns this worker's index within the group
	Rank() int

	// NumWorkers returns the number of workers in the group
	NumWorkers() int

	// AllReduceSum replaces x on every worker with the elementwise sum
	// of all workers' x
	AllReduceSum(x []float64) error

	// AllReduceMean replaces x on every worker with the elementwise
	// arithmetic mean of all workers' x
	AllReduceMean(x []float64) error

	// Bcast replaces x on every worker with the root worker's x
	Bcast(x []float64, root int) error

	// AllGather returns every worker's x, indexed by rank. Buffers may
	// differ in length between workers.
	AllGather(x []float64) ([][]float64, error)
}

// Local is the degenerate single-worker Transport. All collectives
// complete immediately against the worker's own buffer.
type Local struct{}

// Rank returns 0, the only rank in a single-worker group
func (Local) Rank() int {
	return 0
}

// NumWorkers returns 1
func (Local) NumWorkers() int {
	return 1
}

// AllReduceSum leaves x unchanged
func (Local) AllReduceSum(x []float64) error {
	return nil
}

// AllReduceMean leaves x unchanged
func (Local) AllReduceMean(x []float64) error {
	return nil
}

// Bcast leaves x unchanged
func (Local) Bcast(x []float64, root int) error {
	return nil
}

// AllGather returns x as the single gathered buffer
func (Local) AllGather(x []float64) ([][]float64, error) {
	gathered := make([]float64, len(x))
	copy(gathered, x)
	return [][]float64{gathered}, nil
}
