package trpo_test

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	env "sfneuman.com/gotrpo/environment"
	ts "sfneuman.com/gotrpo/timestep"
	"sfneuman.com/gotrpo/trpo"
)

// cyclicEnv is a deterministic environment with one-dimensional
// observations whose episodes always last exactly three steps. The
// observation is the step number within the episode.
type cyclicEnv struct {
	steps int
}

func (c *cyclicEnv) Reset() ts.TimeStep {
	c.steps = 0
	return ts.New(ts.First, 0, mat.NewVecDense(1, []float64{0}), 0)
}

func (c *cyclicEnv) Step(*mat.VecDense) ts.TimeStep {
	c.steps++
	stepType := ts.Mid
	if c.steps == 3 {
		stepType = ts.Last
	}
	obs := mat.NewVecDense(1, []float64{float64(c.steps)})
	return ts.New(stepType, 1.0, obs, c.steps)
}

func (c *cyclicEnv) ObservationSpec() env.Spec {
	return env.Spec{
		Shape:       mat.NewVecDense(1, nil),
		Type:        env.Observation,
		Cardinality: env.Continuous,
	}
}

func (c *cyclicEnv) ActionSpec() env.Spec {
	return env.Spec{
		Shape:       mat.NewVecDense(1, nil),
		Type:        env.Action,
		Cardinality: env.Continuous,
	}
}

// countingActor returns a fixed action and an incrementing value
// prediction
type countingActor struct {
	calls int
}

func (c *countingActor) Act(bool, []float64) ([]float64, float64, error) {
	c.calls++
	return []float64{0.5}, float64(c.calls), nil
}

// constantReward is a reward giver returning a fixed surrogate reward
type constantReward struct{ value float64 }

func (c constantReward) Reward([]float64, []float64) float64 {
	return c.value
}

func (constantReward) LossNames() []string { return nil }

func (constantReward) LossAndGrad([]float64, []float64, []float64,
	[]float64, int) ([]float64, []float64, error) {
	return nil, nil, nil
}

func (constantReward) FlatParams() []float64 { return nil }

func (constantReward) SetFlatParams([]float64) error { return nil }

func TestSegmentGenerator(t *testing.T) {
	gen, err := trpo.NewSegmentGenerator(&countingActor{}, &cyclicEnv{}, 4,
		true, nil)
	if err != nil {
		t.Fatalf("newsegmentgenerator: %v", err)
	}

	seg, err := gen.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}

	wantNews := []bool{true, false, false, true}
	for i, want := range wantNews {
		if seg.News[i] != want {
			t.Errorf("news %d \n\twant(%v)\n\thave(%v)", i, want,
				seg.News[i])
		}
	}

	// Observations follow reset, two steps, then reset mid-segment
	wantObs := []float64{0, 1, 2, 0}
	for i, want := range wantObs {
		if seg.Obs[i] != want {
			t.Errorf("observation %d \n\twant(%v)\n\thave(%v)", i, want,
				seg.Obs[i])
		}
	}

	// The first step's previous action is a zero placeholder
	if seg.PrevActs[0] != 0 {
		t.Errorf("first previous action \n\twant(%v)\n\thave(%v)", 0.0,
			seg.PrevActs[0])
	}
	for i := 1; i < 4; i++ {
		if seg.PrevActs[i] != 0.5 {
			t.Errorf("previous action %d \n\twant(%v)\n\thave(%v)", i, 0.5,
				seg.PrevActs[i])
		}
	}

	if len(seg.EpLens) != 1 || seg.EpLens[0] != 3 {
		t.Errorf("episode lengths \n\twant([3])\n\thave(%v)", seg.EpLens)
	}
	if len(seg.EpRets) != 1 || seg.EpRets[0] != 3 {
		t.Errorf("episode returns \n\twant([3])\n\thave(%v)", seg.EpRets)
	}

	// The segment ends mid-episode, so the bootstrap value is live
	if seg.NextVPred == 0 {
		t.Error("bootstrap value should be live mid-episode")
	}

	// Episode statistics are flushed per segment, not accumulated
	seg, err = gen.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	wantNews = []bool{false, false, true, false}
	for i, want := range wantNews {
		if seg.News[i] != want {
			t.Errorf("second segment news %d \n\twant(%v)\n\thave(%v)", i,
				want, seg.News[i])
		}
	}
	if len(seg.EpLens) != 1 || seg.EpLens[0] != 3 {
		t.Errorf("second segment episode lengths \n\twant([3])\n\thave(%v)",
			seg.EpLens)
	}
}

func TestSegmentGeneratorZeroesBootstrapAtTermination(t *testing.T) {
	gen, err := trpo.NewSegmentGenerator(&countingActor{}, &cyclicEnv{}, 3,
		true, nil)
	if err != nil {
		t.Fatalf("newsegmentgenerator: %v", err)
	}

	seg, err := gen.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if seg.NextVPred != 0 {
		t.Errorf("bootstrap value at termination \n\twant(%v)\n\thave(%v)",
			0.0, seg.NextVPred)
	}
}

func TestSegmentGeneratorSurrogateReward(t *testing.T) {
	gen, err := trpo.NewSegmentGenerator(&countingActor{}, &cyclicEnv{}, 3,
		true, constantReward{value: 7})
	if err != nil {
		t.Fatalf("newsegmentgenerator: %v", err)
	}

	seg, err := gen.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}

	for i := 0; i < 3; i++ {
		if seg.Rews[i] != 7 {
			t.Errorf("surrogate reward %d \n\twant(%v)\n\thave(%v)", i, 7.0,
				seg.Rews[i])
		}
		if seg.TrueRews[i] != 1 {
			t.Errorf("true reward %d \n\twant(%v)\n\thave(%v)", i, 1.0,
				seg.TrueRews[i])
		}
	}
	if len(seg.EpRets) != 1 || seg.EpRets[0] != 21 {
		t.Errorf("episode surrogate returns \n\twant([21])\n\thave(%v)",
			seg.EpRets)
	}
	if len(seg.EpTrueRets) != 1 || seg.EpTrueRets[0] != 3 {
		t.Errorf("episode true returns \n\twant([3])\n\thave(%v)",
			seg.EpTrueRets)
	}
}
