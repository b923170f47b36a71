package cartpole

import (
	"math"

	"gonum.org/v1/gonum/mat"
	env "sfneuman.com/gotrpo/environment"
)

// Balance implements the classic balancing task: a reward of +1 is
// given on every timestep, and episodes end when the pole falls past
// AngleBounds, the cart leaves PositionBounds, or the step limit is
// reached.
type Balance struct {
	env.Starter
	maxSteps int
}

// NewBalance returns a new Balance task with starting states drawn
// from s and episodes capped at maxSteps timesteps
func NewBalance(s env.Starter, maxSteps int) *Balance {
	return &Balance{Starter: s, maxSteps: maxSteps}
}

// GetReward returns the reward for a single transition
func (b *Balance) GetReward(_ mat.Vector, _ mat.Vector, _ mat.Vector) float64 {
	return 1.0
}

// AtGoal returns whether the episode should terminate in the argument
// state. For the balancing task, termination states are failure
// states: the pole has fallen or the cart has left its track.
func (b *Balance) AtGoal(state mat.Vector) bool {
	return math.Abs(state.AtVec(0)) > PositionBounds ||
		math.Abs(state.AtVec(2)) > AngleBounds
}

// MaxEpisodeSteps returns the episode step limit
func (b *Balance) MaxEpisodeSteps() int {
	return b.maxSteps
}
