// Package trpo implements Trust Region Policy Optimization, optionally
// extended with a learned imitation reward (GAIL), over collaborator
// interfaces for the policy, environment, discriminator, and expert
// data
package trpo

import (
	"errors"
)

// ErrNotSupported is returned by operations that are deliberately
// outside this core, such as whole-model serialization or resuming
// from pretrained weights.
var ErrNotSupported = errors.New("not supported")

// LossNames names the entries of the loss tuple produced by each
// policy loss evaluation, in their fixed order.
var LossNames = []string{"optimgain", "meankl", "entloss", "surrgain",
	"entropy"}

// Actor selects actions and predicts state values for single
// observations.
type Actor interface {
	// Act returns an action for the argument observation, sampled
	// stochastically or chosen deterministically, along with the value
	// prediction for that observation
	Act(stochastic bool, obs []float64) (action []float64, vpred float64,
		err error)
}

// Policy is the trainable policy collaborator of the trust region
// engine. All parameter access is through flat vectors with a fixed
// per-variable ordering and shape table decided at construction, so
// that FlatParams followed by SetFlatParams round-trips exactly. The
// policy and value-function parameters form two disjoint groups,
// partitioned structurally at construction.
type Policy interface {
	Actor

	// SnapshotOld freezes the current policy parameters as the old
	// policy used by the importance-sampling ratio and KL terms
	SnapshotOld()

	// LossesAndGrad evaluates the loss tuple (ordered as LossNames)
	// and the flat gradient of the surrogate objective with respect to
	// the policy parameter group
	LossesAndGrad(b *Batch) (losses, grad []float64, err error)

	// Losses evaluates the loss tuple only
	Losses(b *Batch) ([]float64, error)

	// FisherVectorProduct returns the product of the Hessian of the
	// mean KL divergence (between the snapshot and current policies)
	// with the argument tangent vector, evaluated on the argument
	// batch
	FisherVectorProduct(b *Batch, tangent []float64) ([]float64, error)

	// FlatParams returns a copy of the flat policy parameter vector
	FlatParams() []float64

	// SetFlatParams overwrites the policy parameter vector
	SetFlatParams(theta []float64) error

	// ValueFlatParams returns a copy of the flat value-function
	// parameter vector
	ValueFlatParams() []float64

	// SetValueFlatParams overwrites the value-function parameter
	// vector
	SetValueFlatParams(theta []float64) error

	// ValueLossGrad returns the flat gradient of the value-function
	// loss on a minibatch of n observations and their return targets
	ValueLossGrad(obs, vtarg []float64, n int) ([]float64, error)
}

// ObsNormalizer is an optional capability of a Policy or RewardGiver:
// updating running observation-normalization statistics. Whether a
// collaborator supports it is decided once at construction of the
// engine, never probed per call.
type ObsNormalizer interface {
	UpdateObsStats(obs []float64, n int) error
}

// RetNormalizer is an optional capability of a Policy: updating
// running return-normalization statistics.
type RetNormalizer interface {
	UpdateRetStats(rets []float64) error
}

// Serializable is anything that can persist its trainable state to a
// file, used for periodic checkpointing.
type Serializable interface {
	Save(path string) error
}

// RewardGiver supplies the learned surrogate reward and its training
// interface in GAIL mode.
type RewardGiver interface {
	// Reward returns the surrogate reward for a single transition
	Reward(obs, action []float64) float64

	// LossNames names the entries of the loss vector returned by
	// LossAndGrad
	LossNames() []string

	// LossAndGrad evaluates the classification losses and the flat
	// gradient for a minibatch of n policy transitions and n expert
	// transitions
	LossAndGrad(polObs, polActs, expObs, expActs []float64,
		n int) (losses, grad []float64, err error)

	// FlatParams returns a copy of the discriminator's flat parameter
	// vector
	FlatParams() []float64

	// SetFlatParams overwrites the discriminator's parameter vector
	SetFlatParams(theta []float64) error
}

// ExpertDataset provides expert demonstration transitions in batches
// of a caller-chosen size. Implementations cycle through their data
// indefinitely.
type ExpertDataset interface {
	NextBatch(n int) (obs, acts []float64, err error)
}
