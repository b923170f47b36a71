package trpo

import (
	"fmt"
)

// Config holds the hyperparameters of a trust region run. The zero
// value is not usable; start from NewDefaultConfig and set a stopping
// criterion.
type Config struct {
	// TimestepsPerBatch is the segment horizon: the number of
	// environment transitions gathered per iteration
	TimestepsPerBatch int

	MaxKL     float64
	CGIters   int
	CGDamping float64

	Gamma float64
	Lam   float64

	VFStepSize float64
	VFIters    int
	// VFMinibatchSize is the minibatch size of the value-function
	// refit. Partial trailing minibatches are dropped.
	VFMinibatchSize int

	EntCoeff float64

	// Exactly one stopping criterion must be positive
	MaxTimesteps int
	MaxEpisodes  int
	MaxIters     int

	// GStep is the number of policy updates per iteration and DStep
	// the number of discriminator updates per iteration. Both are
	// ignored outside GAIL mode.
	GStep     int
	DStep     int
	DStepSize float64

	// FVPStride subsamples the batch rows used to evaluate
	// Fisher-vector products
	FVPStride int

	// ConsistencyCheckEvery is the iteration period of the cross-worker
	// parameter checksum comparison
	ConsistencyCheckEvery int

	// SavePerIter is the iteration period of checkpointing; 0 disables
	// it
	SavePerIter   int
	CheckpointDir string

	// TaskName prefixes checkpoint filenames; empty means "policy"
	TaskName string

	// PretrainedWeights names a file of warm-start weights. Loading
	// pretrained weights is not supported; a non-empty value fails
	// construction with ErrNotSupported.
	PretrainedWeights string
}

// NewDefaultConfig returns a Config with the usual hyperparameters. No
// stopping criterion is set.
func NewDefaultConfig() Config {
	return Config{
		TimestepsPerBatch:     1024,
		MaxKL:                 0.01,
		CGIters:               10,
		CGDamping:             1e-2,
		Gamma:                 0.99,
		Lam:                   0.98,
		VFStepSize:            3e-4,
		VFIters:               3,
		VFMinibatchSize:       128,
		EntCoeff:              0.0,
		GStep:                 1,
		DStep:                 1,
		DStepSize:             3e-4,
		FVPStride:             5,
		ConsistencyCheckEvery: 20,
		SavePerIter:           1,
	}
}

// Validate checks the configuration for legality
func (c Config) Validate() error {
	if c.TimestepsPerBatch < 1 {
		return fmt.Errorf("validate: timesteps per batch must be positive "+
			"\n\thave(%v)", c.TimestepsPerBatch)
	}
	if c.MaxKL <= 0 {
		return fmt.Errorf("validate: max KL must be positive \n\thave(%v)",
			c.MaxKL)
	}
	if c.CGIters < 1 {
		return fmt.Errorf("validate: CG iterations must be positive "+
			"\n\thave(%v)", c.CGIters)
	}
	if c.CGDamping < 0 {
		return fmt.Errorf("validate: CG damping cannot be negative "+
			"\n\thave(%v)", c.CGDamping)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1] "+
			"\n\thave(%v)", c.Gamma)
	}
	if c.Lam < 0 || c.Lam > 1 {
		return fmt.Errorf("validate: GAE lambda must be in [0, 1] "+
			"\n\thave(%v)", c.Lam)
	}
	if c.VFIters > 0 && c.VFStepSize <= 0 {
		return fmt.Errorf("validate: value function step size must be "+
			"positive \n\thave(%v)", c.VFStepSize)
	}
	if c.VFMinibatchSize < 1 {
		return fmt.Errorf("validate: value function minibatch size must "+
			"be positive \n\thave(%v)", c.VFMinibatchSize)
	}
	if c.FVPStride < 1 {
		return fmt.Errorf("validate: FVP stride must be positive "+
			"\n\thave(%v)", c.FVPStride)
	}
	if c.ConsistencyCheckEvery < 1 {
		return fmt.Errorf("validate: consistency check period must be "+
			"positive \n\thave(%v)", c.ConsistencyCheckEvery)
	}

	set := 0
	for _, lim := range []int{c.MaxTimesteps, c.MaxEpisodes, c.MaxIters} {
		if lim > 0 {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("validate: exactly one stopping criterion of "+
			"max timesteps, max episodes, and max iterations must be set "+
			"\n\thave(%v)", set)
	}
	return nil
}
