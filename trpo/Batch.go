package trpo

// Batch is one iteration's worth of policy-update data: observations,
// actions, and standardized advantages, stored row-major.
type Batch struct {
	Obs  []float64 // N*ObsDim
	Acts []float64 // N*ActDim
	Adv  []float64 // N

	N      int
	ObsDim int
	ActDim int
}

// Stride returns a new Batch holding every k-th row of b, used to
// evaluate the Fisher-vector product on a subsample of the experience
func (b *Batch) Stride(k int) *Batch {
	n := (b.N + k - 1) / k
	sub := &Batch{
		Obs:    make([]float64, 0, n*b.ObsDim),
		Acts:   make([]float64, 0, n*b.ActDim),
		Adv:    make([]float64, 0, n),
		N:      n,
		ObsDim: b.ObsDim,
		ActDim: b.ActDim,
	}
	for i := 0; i < b.N; i += k {
		sub.Obs = append(sub.Obs, b.Obs[i*b.ObsDim:(i+1)*b.ObsDim]...)
		sub.Acts = append(sub.Acts, b.Acts[i*b.ActDim:(i+1)*b.ActDim]...)
		sub.Adv = append(sub.Adv, b.Adv[i])
	}
	return sub
}
