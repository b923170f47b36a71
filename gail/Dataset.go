package gail

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Dataset holds expert demonstration transitions in memory and serves
// them as shuffled minibatches, reshuffling each time a pass over the
// data completes
type Dataset struct {
	obs    []float64
	acts   []float64
	n      int
	obsDim int
	actDim int

	rng  *rand.Rand
	perm []int
	next int
}

// NewDataset returns a Dataset over n expert transitions stored
// row-major in obs and acts
func NewDataset(obs, acts []float64, n, obsDim, actDim int,
	seed uint64) (*Dataset, error) {
	if n < 1 {
		return nil, fmt.Errorf("newdataset: dataset cannot be empty")
	}
	if len(obs) != n*obsDim || len(acts) != n*actDim {
		return nil, fmt.Errorf("newdataset: illegal data length"+
			"\n\twant(obs %v, acts %v)\n\thave(obs %v, acts %v)", n*obsDim,
			n*actDim, len(obs), len(acts))
	}

	d := &Dataset{
		obs:    obs,
		acts:   acts,
		n:      n,
		obsDim: obsDim,
		actDim: actDim,
		rng:    rand.New(rand.NewSource(seed)),
	}
	d.perm = d.rng.Perm(n)
	return d, nil
}

// Len returns the number of transitions in the dataset
func (d *Dataset) Len() int {
	return d.n
}

// NextBatch implements trpo.ExpertDataset. Batches wrap around the end
// of the data, reshuffling at each wrap.
func (d *Dataset) NextBatch(n int) (obs, acts []float64, err error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("nextbatch: batch size must be "+
			"positive \n\thave(%v)", n)
	}

	obs = make([]float64, 0, n*d.obsDim)
	acts = make([]float64, 0, n*d.actDim)
	for len(obs) < n*d.obsDim {
		if d.next >= d.n {
			d.perm = d.rng.Perm(d.n)
			d.next = 0
		}
		i := d.perm[d.next]
		d.next++
		obs = append(obs, d.obs[i*d.obsDim:(i+1)*d.obsDim]...)
		acts = append(acts, d.acts[i*d.actDim:(i+1)*d.actDim]...)
	}
	return obs, acts, nil
}
