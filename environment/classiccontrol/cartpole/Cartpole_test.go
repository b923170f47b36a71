package cartpole_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"sfneuman.com/gotrpo/environment"
	"sfneuman.com/gotrpo/environment/classiccontrol/cartpole"
)

func newTestCartpole(maxSteps int) *cartpole.Cartpole {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	starter := environment.NewUniformStarter([]r1.Interval{bounds, bounds,
		bounds, bounds}, 13)
	return cartpole.New(cartpole.NewBalance(starter, maxSteps))
}

func TestReset(t *testing.T) {
	c := newTestCartpole(500)

	step := c.Reset()
	if !step.First() {
		t.Error("reset should return a First timestep")
	}
	if step.Observation.Len() != cartpole.ObservationDims {
		t.Errorf("observation length \n\twant(%v)\n\thave(%v)",
			cartpole.ObservationDims, step.Observation.Len())
	}
	for i := 0; i < step.Observation.Len(); i++ {
		if v := step.Observation.AtVec(i); math.Abs(v) > 0.05 {
			t.Errorf("starting state %d out of bounds: %v", i, v)
		}
	}
}

// TestStep checks that a rightward force accelerates the cart to the
// right and that balancing pays one unit of reward per step
func TestStep(t *testing.T) {
	c := newTestCartpole(500)
	c.Reset()

	right := mat.NewVecDense(1, []float64{1.0})
	step := c.Step(right)

	if step.Reward != 1 {
		t.Errorf("reward \n\twant(%v)\n\thave(%v)", 1.0, step.Reward)
	}

	before := step.Observation.AtVec(1)
	step = c.Step(right)
	if after := step.Observation.AtVec(1); after <= before {
		t.Errorf("rightward force should accelerate the cart"+
			"\n\thave(before %v, after %v)", before, after)
	}
}

// TestStepClipsAction checks that forces beyond the action bounds are
// no stronger than the bounds themselves
func TestStepClipsAction(t *testing.T) {
	clipped := newTestCartpole(500)
	huge := newTestCartpole(500)

	// Identical seeds give identical starting states
	clipped.Reset()
	huge.Reset()

	a := clipped.Step(mat.NewVecDense(1, []float64{1.0}))
	b := huge.Step(mat.NewVecDense(1, []float64{100.0}))
	if a.Observation.AtVec(1) != b.Observation.AtVec(1) {
		t.Errorf("clipped actions \n\twant(%v)\n\thave(%v)",
			a.Observation.AtVec(1), b.Observation.AtVec(1))
	}
}

// TestEpisodeEndsAtStepLimit checks that episodes are cut off at the
// task's step limit
func TestEpisodeEndsAtStepLimit(t *testing.T) {
	c := newTestCartpole(5)
	c.Reset()

	zero := mat.NewVecDense(1, nil)
	var last bool
	for i := 0; i < 5; i++ {
		step := c.Step(zero)
		last = step.Last()
		if last && i < 4 {
			// The pole may fall before the limit from an unlucky start;
			// balance failure is detectable by the angle bound
			angle := math.Abs(step.Observation.AtVec(2))
			pos := math.Abs(step.Observation.AtVec(0))
			if angle <= cartpole.AngleBounds &&
				pos <= cartpole.PositionBounds {
				t.Fatalf("episode ended early at step %d while balanced", i)
			}
			return
		}
	}
	if !last {
		t.Error("episode should end at the step limit")
	}
}

func TestSpecs(t *testing.T) {
	c := newTestCartpole(500)

	obsSpec := c.ObservationSpec()
	if obsSpec.Shape.Len() != cartpole.ObservationDims {
		t.Errorf("observation shape \n\twant(%v)\n\thave(%v)",
			cartpole.ObservationDims, obsSpec.Shape.Len())
	}
	if obsSpec.Cardinality != environment.Continuous {
		t.Error("observations should be continuous")
	}

	actSpec := c.ActionSpec()
	if actSpec.Shape.Len() != cartpole.ActionDims {
		t.Errorf("action shape \n\twant(%v)\n\thave(%v)",
			cartpole.ActionDims, actSpec.Shape.Len())
	}
	if actSpec.LowerBound.AtVec(0) != cartpole.MinAction ||
		actSpec.UpperBound.AtVec(0) != cartpole.MaxAction {
		t.Error("action bounds should match the environment constants")
	}
}
