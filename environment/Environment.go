// Package environment outlines the interfaces needed to implement
// concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"
	ts "sfneuman.com/gotrpo/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Cardinality indicates whether the associated type is continuous or
// discrete
type Cardinality int

const (
	Discrete Cardinality = iota
	Continuous
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action or an observation
type SpecType int

const (
	Action SpecType = iota
	Observation
)

// Spec implements a specification, which tells the type, shape, and
// bounds of an action or observation
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// Task implements the reward scheme for taking actions in some
// environment and decides when episodes end
type Task interface {
	Starter
	GetReward(state mat.Vector, action mat.Vector, nextState mat.Vector) float64
	AtGoal(state mat.Vector) bool
	MaxEpisodeSteps() int
}

// Environment implements a simulated environment. Reset starts a new
// episode and returns its first timestep. Step applies an action and
// returns the resulting timestep; the timestep's StepType is Last when
// the episode ended on that transition.
type Environment interface {
	Reset() ts.TimeStep
	Step(action *mat.VecDense) ts.TimeStep
	ObservationSpec() Spec
	ActionSpec() Spec
}
