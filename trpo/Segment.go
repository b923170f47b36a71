package trpo

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	env "sfneuman.com/gotrpo/environment"
)

// Segment is a fixed-length record of consecutive environment
// transitions, together with bookkeeping for the episodes that
// completed while it was being filled. Episodes may straddle segment
// boundaries; the episode statistic lists hold entries only for
// episodes that terminated within this segment's window.
type Segment struct {
	Horizon int
	ObsDim  int
	ActDim  int

	Obs      []float64 // Horizon*ObsDim, row-major
	Acts     []float64 // Horizon*ActDim, row-major
	PrevActs []float64 // Horizon*ActDim, row-major
	Rews     []float64 // surrogate reward in GAIL mode
	TrueRews []float64 // environment reward, always
	VPreds   []float64
	News     []bool // whether the step starts a fresh episode

	// NextVPred is the value estimate for the state following the
	// segment, already zeroed when that state starts a fresh episode
	NextVPred float64

	EpRets     []float64
	EpTrueRets []float64
	EpLens     []int
}

// SegmentGenerator produces an unbounded sequence of fixed-length
// trajectory segments by driving an environment with a policy. The
// generator is stateful and not restartable: the current observation
// and in-progress episode accumulators persist across calls to Next,
// so a single generator must drive the whole run.
type SegmentGenerator struct {
	policy      Actor
	env         env.Environment
	horizon     int
	stochastic  bool
	rewardGiver RewardGiver // nil outside GAIL mode

	obsDim int
	actDim int

	started bool
	steps   int
	ob      []float64
	newEp   bool
	action  []float64
	prevAct []float64
	vpred   float64

	curEpRet     float64
	curEpTrueRet float64
	curEpLen     int
	epRets       []float64
	epTrueRets   []float64
	epLens       []int
}

// NewSegmentGenerator returns a generator of segments of exactly
// horizon transitions. When rewardGiver is non-nil the per-step reward
// is the discriminator-derived surrogate reward and the environment
// reward is tracked separately.
func NewSegmentGenerator(policy Actor, e env.Environment, horizon int,
	stochastic bool, rewardGiver RewardGiver) (*SegmentGenerator, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("newsegmentgenerator: horizon must be "+
			"positive \n\thave(%v)", horizon)
	}

	return &SegmentGenerator{
		policy:      policy,
		env:         e,
		horizon:     horizon,
		stochastic:  stochastic,
		rewardGiver: rewardGiver,
		obsDim:      e.ObservationSpec().Shape.Len(),
		actDim:      e.ActionSpec().Shape.Len(),
	}, nil
}

// Next runs the environment for exactly horizon transitions and
// returns the resulting segment. The returned segment is freshly
// allocated and safe to retain.
func (g *SegmentGenerator) Next() (*Segment, error) {
	if !g.started {
		g.started = true

		first := g.env.Reset()
		g.ob = vecData(first.Observation)
		g.newEp = true

		// The previous action of the very first step is a zero-valued
		// placeholder; only its shape matters
		g.prevAct = make([]float64, g.actDim)

		action, vpred, err := g.policy.Act(g.stochastic, g.ob)
		if err != nil {
			return nil, fmt.Errorf("next: %v", err)
		}
		g.action, g.vpred = action, vpred
	} else {
		// The pending action was sampled before the previous segment
		// was handed out, but the parameters may have changed while it
		// was consumed, so the leading value estimate is re-queried
		_, vpred, err := g.policy.Act(g.stochastic, g.ob)
		if err != nil {
			return nil, fmt.Errorf("next: %v", err)
		}
		g.vpred = vpred

		g.epRets = g.epRets[:0]
		g.epTrueRets = g.epTrueRets[:0]
		g.epLens = g.epLens[:0]
	}

	seg := &Segment{
		Horizon:  g.horizon,
		ObsDim:   g.obsDim,
		ActDim:   g.actDim,
		Obs:      make([]float64, g.horizon*g.obsDim),
		Acts:     make([]float64, g.horizon*g.actDim),
		PrevActs: make([]float64, g.horizon*g.actDim),
		Rews:     make([]float64, g.horizon),
		TrueRews: make([]float64, g.horizon),
		VPreds:   make([]float64, g.horizon),
		News:     make([]bool, g.horizon),
	}

	for i := 0; i < g.horizon; i++ {
		copy(seg.Obs[i*g.obsDim:], g.ob)
		copy(seg.Acts[i*g.actDim:], g.action)
		copy(seg.PrevActs[i*g.actDim:], g.prevAct)
		seg.VPreds[i] = g.vpred
		seg.News[i] = g.newEp

		var rew, trueRew float64
		if g.rewardGiver != nil {
			rew = g.rewardGiver.Reward(g.ob, g.action)
			step := g.env.Step(mat.NewVecDense(g.actDim, g.action))
			trueRew = step.Reward
			g.ob = vecData(step.Observation)
			g.newEp = step.Last()
		} else {
			step := g.env.Step(mat.NewVecDense(g.actDim, g.action))
			rew = step.Reward
			trueRew = rew
			g.ob = vecData(step.Observation)
			g.newEp = step.Last()
		}
		seg.Rews[i] = rew
		seg.TrueRews[i] = trueRew

		g.curEpRet += rew
		g.curEpTrueRet += trueRew
		g.curEpLen++
		if g.newEp {
			g.epRets = append(g.epRets, g.curEpRet)
			g.epTrueRets = append(g.epTrueRets, g.curEpTrueRet)
			g.epLens = append(g.epLens, g.curEpLen)
			g.curEpRet = 0
			g.curEpTrueRet = 0
			g.curEpLen = 0

			first := g.env.Reset()
			g.ob = vecData(first.Observation)
		}
		g.steps++

		// Sample the next step's action now: on the final iteration
		// this yields the value estimate for the state following the
		// segment, which GAE needs before the segment is handed out
		g.prevAct = g.action
		action, vpred, err := g.policy.Act(g.stochastic, g.ob)
		if err != nil {
			return nil, fmt.Errorf("next: %v", err)
		}
		g.action, g.vpred = action, vpred
	}

	// Zero the bootstrap value at true episode terminations
	if g.newEp {
		seg.NextVPred = 0
	} else {
		seg.NextVPred = g.vpred
	}

	seg.EpRets = append([]float64{}, g.epRets...)
	seg.EpTrueRets = append([]float64{}, g.epTrueRets...)
	seg.EpLens = append([]int{}, g.epLens...)

	return seg, nil
}

// vecData copies the data of a vector into a fresh slice
func vecData(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	copy(out, v.RawVector().Data)
	return out
}
