// Package cartpole implements the Cartpole classic control environment
// with continuous actions
package cartpole

import (
	"math"

	"gonum.org/v1/gonum/mat"
	env "sfneuman.com/gotrpo/environment"
	ts "sfneuman.com/gotrpo/timestep"
	"sfneuman.com/gotrpo/utils/floatutils"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5
	ForceMag       float64 = 10.0 // Maximum magnitude of force applied
	Dt             float64 = 0.02 // Seconds between state updates

	// Bounds on the state variables. Episodes end in failure when the
	// cart position or pole angle leaves these bounds.
	PositionBounds float64 = 2.4
	AngleBounds    float64 = 12 * math.Pi / 180

	// Bounds on the continuous action
	MinAction float64 = -1.0
	MaxAction float64 = 1.0

	// ObservationDims is the number of state features: cart position,
	// cart speed, pole angle, pole angular velocity
	ObservationDims int = 4

	// ActionDims is the number of action dimensions
	ActionDims int = 1
)

// Cartpole implements the classic control environment Cartpole with a
// single continuous action. A pole is attached to a cart which moves
// horizontally; the agent applies a horizontal force in [-ForceMag,
// ForceMag] (actions in [-1, 1] are scaled by ForceMag) and must keep
// the pole balanced upright for as long as possible.
type Cartpole struct {
	env.Task
	lastStep ts.TimeStep
	steps    int
}

// New constructs a new continuous-action Cartpole with the argument
// task
func New(t env.Task) *Cartpole {
	return &Cartpole{Task: t}
}

// Reset resets the environment and returns a starting state drawn from
// the environment's Starter
func (c *Cartpole) Reset() ts.TimeStep {
	state := c.Start()
	c.steps = 0
	c.lastStep = ts.New(ts.First, 0, state, 0)

	return c.lastStep
}

// Step applies the argument action to the environment for a single
// timestep
func (c *Cartpole) Step(action *mat.VecDense) ts.TimeStep {
	force := ForceMag * floatutils.Clip(action.AtVec(0), MinAction, MaxAction)

	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	theta, thetaDot := state.AtVec(2), state.AtVec(3)

	cosTheta, sinTheta := math.Cos(theta), math.Sin(theta)

	// Dynamics from Barto, Sutton, and Anderson (1983)
	temp := (force + PoleMass*HalfPoleLength*thetaDot*thetaDot*sinTheta) /
		TotalMass
	thetaAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/TotalMass))
	xAcc := temp - PoleMass*HalfPoleLength*thetaAcc*cosTheta/TotalMass

	// Euler integration
	newState := mat.NewVecDense(ObservationDims, []float64{
		x + Dt*xDot,
		xDot + Dt*xAcc,
		theta + Dt*thetaDot,
		thetaDot + Dt*thetaAcc,
	})

	c.steps++
	reward := c.GetReward(state, action, newState)

	stepType := ts.Mid
	if c.AtGoal(newState) || c.steps >= c.MaxEpisodeSteps() {
		stepType = ts.Last
	}

	c.lastStep = ts.New(stepType, reward, newState, c.steps)

	return c.lastStep
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Cartpole) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lower := mat.NewVecDense(ObservationDims, []float64{-PositionBounds,
		math.Inf(-1), -AngleBounds, math.Inf(-1)})
	upper := mat.NewVecDense(ObservationDims, []float64{PositionBounds,
		math.Inf(1), AngleBounds, math.Inf(1)})

	return env.Spec{
		Shape:       shape,
		Type:        env.Observation,
		LowerBound:  lower,
		UpperBound:  upper,
		Cardinality: env.Continuous,
	}
}

// ActionSpec returns the action specification of the environment
func (c *Cartpole) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lower := mat.NewVecDense(ActionDims, []float64{MinAction})
	upper := mat.NewVecDense(ActionDims, []float64{MaxAction})

	return env.Spec{
		Shape:       shape,
		Type:        env.Action,
		LowerBound:  lower,
		UpperBound:  upper,
		Cardinality: env.Continuous,
	}
}
