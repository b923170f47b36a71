package trpo

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"sfneuman.com/gotrpo/comm"
	env "sfneuman.com/gotrpo/environment"
	"sfneuman.com/gotrpo/solver"
	"sfneuman.com/gotrpo/utils/floatutils"
)

const (
	// lineSearchTries is the number of backtracking attempts before a
	// policy update is abandoned
	lineSearchTries = 10

	// lineSearchBacktrack halves the step scale on each failed attempt
	lineSearchBacktrack = 0.5

	// klAcceptFactor relaxes the KL constraint during the line search
	klAcceptFactor = 1.5

	// cgResidualTol stops conjugate gradient early once the squared
	// residual falls below it
	cgResidualTol = 1e-10

	// checksumTol bounds the cross-worker parameter checksum drift
	// tolerated by the consistency check
	checksumTol = 1e-8

	// statBufferLen is the window of the rolling episode statistics
	statBufferLen = 40
)

// TRPO trains a policy with trust region policy optimization. Each
// iteration gathers a fixed-length segment of experience, takes one
// KL-constrained natural gradient step on the policy, and refits the
// value function with Adam. With a reward giver and expert dataset the
// same loop trains against a learned imitation reward instead of the
// environment reward.
//
// Every worker in the transport group runs its own TRPO instance over
// its own environment. Gradients are averaged across workers, and all
// workers apply identical updates, keeping their parameters in
// lockstep.
type TRPO struct {
	config    Config
	policy    Policy
	transport comm.Transport
	gen       *SegmentGenerator
	vfAdam    *solver.FlatAdam
	report    *report
	rng       *rand.Rand

	// Capabilities of the policy, fixed at construction
	obsNorm      ObsNormalizer
	retNorm      RetNormalizer
	serializable Serializable

	// GAIL collaborators, nil outside GAIL mode
	rewardGiver RewardGiver
	expertData  ExpertDataset
	dAdam       *solver.FlatAdam
	dObsNorm    ObsNormalizer

	iters     int
	episodes  int
	timesteps int
	start     time.Time

	lenBuf     *rollingBuffer
	retBuf     *rollingBuffer
	trueRetBuf *rollingBuffer
}

// New returns a TRPO that trains policy on e using the environment's
// own reward. The root worker's parameters are broadcast so that all
// workers start identically.
func New(policy Policy, e env.Environment, transport comm.Transport,
	seed uint64, config Config) (*TRPO, error) {
	return newTRPO(policy, e, transport, seed, config, nil, nil)
}

// NewGAIL returns a TRPO that trains policy on e against the surrogate
// reward of rewardGiver, and trains rewardGiver to separate the
// policy's transitions from those of expertData.
func NewGAIL(policy Policy, e env.Environment, transport comm.Transport,
	seed uint64, config Config, rewardGiver RewardGiver,
	expertData ExpertDataset) (*TRPO, error) {
	if rewardGiver == nil || expertData == nil {
		return nil, fmt.Errorf("newgail: reward giver and expert dataset " +
			"are required")
	}
	if config.GStep < 1 || config.DStep < 1 {
		return nil, fmt.Errorf("newgail: generator and discriminator "+
			"steps must be positive \n\thave(g %v, d %v)", config.GStep,
			config.DStep)
	}
	if config.DStepSize <= 0 {
		return nil, fmt.Errorf("newgail: discriminator step size must be "+
			"positive \n\thave(%v)", config.DStepSize)
	}
	return newTRPO(policy, e, transport, seed, config, rewardGiver,
		expertData)
}

func newTRPO(policy Policy, e env.Environment, transport comm.Transport,
	seed uint64, config Config, rewardGiver RewardGiver,
	expertData ExpertDataset) (*TRPO, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newtrpo: %v", err)
	}
	if config.PretrainedWeights != "" {
		return nil, fmt.Errorf("newtrpo: pretrained weights: %w",
			ErrNotSupported)
	}

	t := &TRPO{
		config:      config,
		policy:      policy,
		transport:   transport,
		report:      newReport(transport.Rank() != 0),
		rng:         rand.New(rand.NewSource(seed)),
		rewardGiver: rewardGiver,
		expertData:  expertData,
		lenBuf:      newRollingBuffer(statBufferLen),
		retBuf:      newRollingBuffer(statBufferLen),
		trueRetBuf:  newRollingBuffer(statBufferLen),
	}

	// Capabilities are fixed here, never probed per call
	t.obsNorm, _ = policy.(ObsNormalizer)
	t.retNorm, _ = policy.(RetNormalizer)
	t.serializable, _ = policy.(Serializable)
	if config.SavePerIter > 0 && config.CheckpointDir != "" &&
		t.serializable == nil {
		return nil, fmt.Errorf("newtrpo: checkpointing requires a " +
			"policy that can save itself")
	}
	if rewardGiver != nil {
		t.dObsNorm, _ = rewardGiver.(ObsNormalizer)
	}

	// Start all workers from the root worker's parameters
	theta := policy.FlatParams()
	if err := transport.Bcast(theta, 0); err != nil {
		return nil, fmt.Errorf("newtrpo: %v", err)
	}
	if err := policy.SetFlatParams(theta); err != nil {
		return nil, fmt.Errorf("newtrpo: %v", err)
	}

	vfTheta := policy.ValueFlatParams()
	t.vfAdam = solver.NewDefaultFlatAdam(len(vfTheta), transport)
	if err := t.vfAdam.Sync(vfTheta, 0); err != nil {
		return nil, fmt.Errorf("newtrpo: %v", err)
	}
	if err := policy.SetValueFlatParams(vfTheta); err != nil {
		return nil, fmt.Errorf("newtrpo: %v", err)
	}

	if rewardGiver != nil {
		dTheta := rewardGiver.FlatParams()
		t.dAdam = solver.NewDefaultFlatAdam(len(dTheta), transport)
		if err := t.dAdam.Sync(dTheta, 0); err != nil {
			return nil, fmt.Errorf("newtrpo: %v", err)
		}
		if err := rewardGiver.SetFlatParams(dTheta); err != nil {
			return nil, fmt.Errorf("newtrpo: %v", err)
		}
	}

	gen, err := NewSegmentGenerator(policy, e, config.TimestepsPerBatch,
		true, rewardGiver)
	if err != nil {
		return nil, fmt.Errorf("newtrpo: %v", err)
	}
	t.gen = gen

	return t, nil
}

// Save is not supported; checkpointing is delegated to the policy
func (t *TRPO) Save(string) error {
	return ErrNotSupported
}

// Load is not supported
func (t *TRPO) Load(string) error {
	return ErrNotSupported
}

// Learn runs iterations of trust region updates until the configured
// stopping criterion is met. Unrecoverable divergence, such as a
// non-finite conjugate gradient solution or desynchronized worker
// parameters, aborts the run with an error.
func (t *TRPO) Learn() error {
	t.start = time.Now()
	for !t.done() {
		if t.config.SavePerIter > 0 && t.config.CheckpointDir != "" &&
			t.iters%t.config.SavePerIter == 0 && t.transport.Rank() == 0 {
			task := t.config.TaskName
			if task == "" {
				task = "policy"
			}
			path := filepath.Join(t.config.CheckpointDir,
				fmt.Sprintf("%v-%05d", task, t.iters))
			if err := t.serializable.Save(path); err != nil {
				return fmt.Errorf("learn: %v", err)
			}
		}

		t.report.logln(fmt.Sprintf(
			"********** Iteration %v ************", t.iters))

		gSteps := 1
		if t.rewardGiver != nil {
			gSteps = t.config.GStep
		}

		var lastSeg *Segment
		for g := 0; g < gSteps; g++ {
			seg, err := t.policyStep()
			if err != nil {
				return fmt.Errorf("learn: %v", err)
			}
			lastSeg = seg
		}

		if t.rewardGiver != nil {
			if err := t.discriminatorStep(lastSeg); err != nil {
				return fmt.Errorf("learn: %v", err)
			}
		}

		if err := t.recordEpisodeStats(lastSeg); err != nil {
			return fmt.Errorf("learn: %v", err)
		}

		t.iters++
		if t.iters%t.config.ConsistencyCheckEvery == 0 {
			if err := t.checkConsistency(); err != nil {
				return fmt.Errorf("learn: %v", err)
			}
		}

		t.report.record("EpisodesSoFar", t.episodes)
		t.report.record("TimestepsSoFar", t.timesteps)
		t.report.record("TimeElapsed", time.Since(t.start).Seconds())
		t.report.dump()
	}
	return nil
}

// done reports whether the configured stopping criterion has been met
func (t *TRPO) done() bool {
	switch {
	case t.config.MaxTimesteps > 0:
		return t.timesteps >= t.config.MaxTimesteps
	case t.config.MaxEpisodes > 0:
		return t.episodes >= t.config.MaxEpisodes
	default:
		return t.iters >= t.config.MaxIters
	}
}

// policyStep gathers one segment and performs one trust region policy
// update and value function refit on it
func (t *TRPO) policyStep() (*Segment, error) {
	var seg *Segment
	err := t.report.timed("sampling", func() error {
		var err error
		seg, err = t.gen.Next()
		return err
	})
	if err != nil {
		return nil, err
	}

	adv, tdlamret := AddVtargAndAdv(seg, t.config.Gamma, t.config.Lam)

	if t.retNorm != nil {
		if err := t.retNorm.UpdateRetStats(tdlamret); err != nil {
			return nil, err
		}
	}
	if t.obsNorm != nil {
		if err := t.obsNorm.UpdateObsStats(seg.Obs, seg.Horizon); err != nil {
			return nil, err
		}
	}

	vpredBefore := make([]float64, len(seg.VPreds))
	copy(vpredBefore, seg.VPreds)

	if err := standardize(adv); err != nil {
		return nil, err
	}
	batch := &Batch{
		Obs:    seg.Obs,
		Acts:   seg.Acts,
		Adv:    adv,
		N:      seg.Horizon,
		ObsDim: seg.ObsDim,
		ActDim: seg.ActDim,
	}

	t.policy.SnapshotOld()
	if err := t.trustRegionStep(batch); err != nil {
		return nil, err
	}
	if err := t.refitValueFunction(seg.Obs, tdlamret, seg.ObsDim); err != nil {
		return nil, err
	}

	t.report.record("ev_tdlam_before",
		explainedVariance(vpredBefore, tdlamret))
	return seg, nil
}

// trustRegionStep takes a single KL-constrained natural gradient step
// on the policy parameters, backtracking on the step scale until the
// update both improves the surrogate objective and respects the KL
// constraint. If no scale succeeds the parameters are restored exactly.
func (t *TRPO) trustRegionStep(b *Batch) error {
	var lossesBefore, g []float64
	err := t.report.timed("computegrad", func() error {
		var err error
		lossesBefore, g, err = t.policy.LossesAndGrad(b)
		return err
	})
	if err != nil {
		return err
	}
	if err := t.transport.AllReduceMean(g); err != nil {
		return err
	}
	if err := t.transport.AllReduceMean(lossesBefore); err != nil {
		return err
	}

	if floatutils.AllClose(g, make([]float64, len(g)), 1e-8) {
		t.report.logln("Got zero gradient. not updating")
		return nil
	}

	fvpBatch := b.Stride(t.config.FVPStride)
	fvp := func(v []float64) ([]float64, error) {
		out, err := t.policy.FisherVectorProduct(fvpBatch, v)
		if err != nil {
			return nil, err
		}
		if err := t.transport.AllReduceMean(out); err != nil {
			return nil, err
		}
		floats.AddScaled(out, t.config.CGDamping, v)
		return out, nil
	}

	var stepdir []float64
	err = t.report.timed("cg", func() error {
		var err error
		stepdir, err = ConjugateGradient(fvp, g, t.config.CGIters,
			cgResidualTol, t.transport.Rank() == 0)
		return err
	})
	if err != nil {
		return err
	}
	if !floatutils.AllFinite(stepdir) {
		return fmt.Errorf("truststep: conjugate gradient produced a " +
			"non-finite step direction")
	}

	fvpStepdir, err := fvp(stepdir)
	if err != nil {
		return err
	}
	shs := 0.5 * floats.Dot(stepdir, fvpStepdir)
	lm := math.Sqrt(math.Abs(shs) / t.config.MaxKL)

	fullstep := make([]float64, len(stepdir))
	floats.AddScaled(fullstep, 1/lm, stepdir)
	expectedImprove := floats.Dot(g, fullstep)
	surrBefore := lossesBefore[0]

	thBefore := t.policy.FlatParams()
	thNew := make([]float64, len(thBefore))
	stepSize := 1.0
	accepted := false

	for try := 0; try < lineSearchTries; try++ {
		copy(thNew, thBefore)
		floats.AddScaled(thNew, stepSize, fullstep)
		if err := t.policy.SetFlatParams(thNew); err != nil {
			return err
		}

		losses, err := t.policy.Losses(b)
		if err != nil {
			return err
		}
		if err := t.transport.AllReduceMean(losses); err != nil {
			return err
		}
		surr, kl := losses[0], losses[1]
		improve := surr - surrBefore
		t.report.logln(fmt.Sprintf("Expected: %.3f Actual: %.3f",
			expectedImprove*stepSize, improve))

		switch {
		case !floatutils.AllFinite(losses):
			t.report.logln("Got non-finite value of losses -- bad!")
		case kl > t.config.MaxKL*klAcceptFactor:
			t.report.logln("violated KL constraint. shrinking step.")
		case improve < 0:
			t.report.logln("surrogate didn't improve. shrinking step.")
		default:
			t.report.logln("Stepsize OK!")
			accepted = true
		}
		if accepted {
			for i, name := range LossNames {
				t.report.record(name, losses[i])
			}
			break
		}
		stepSize *= lineSearchBacktrack
	}
	if !accepted {
		t.report.logln("couldn't compute a good step")
		if err := t.policy.SetFlatParams(thBefore); err != nil {
			return err
		}
		for i, name := range LossNames {
			t.report.record(name, lossesBefore[i])
		}
	}
	return nil
}

// refitValueFunction takes several epochs of minibatch Adam steps on
// the value function against the TD(lambda) return targets
func (t *TRPO) refitValueFunction(obs, tdlamret []float64,
	obsDim int) error {
	return t.report.timed("vf", func() error {
		n := len(tdlamret)
		for epoch := 0; epoch < t.config.VFIters; epoch++ {
			batches := minibatchIndices(n, t.config.VFMinibatchSize, t.rng)
			for _, idx := range batches {
				mbObs := make([]float64, 0, len(idx)*obsDim)
				mbRet := make([]float64, 0, len(idx))
				for _, i := range idx {
					mbObs = append(mbObs, obs[i*obsDim:(i+1)*obsDim]...)
					mbRet = append(mbRet, tdlamret[i])
				}

				if t.obsNorm != nil {
					err := t.obsNorm.UpdateObsStats(mbObs, len(idx))
					if err != nil {
						return err
					}
				}

				g, err := t.policy.ValueLossGrad(mbObs, mbRet, len(idx))
				if err != nil {
					return err
				}
				if err := t.transport.AllReduceMean(g); err != nil {
					return err
				}

				theta := t.policy.ValueFlatParams()
				err = t.vfAdam.Update(theta, g, t.config.VFStepSize)
				if err != nil {
					return err
				}
				if err := t.policy.SetValueFlatParams(theta); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// recordEpisodeStats pools the episode statistics of all workers'
// segments and records the rolling means
func (t *TRPO) recordEpisodeStats(seg *Segment) error {
	lens := make([]float64, len(seg.EpLens))
	for i, l := range seg.EpLens {
		lens[i] = float64(l)
	}

	allLens, err := t.transport.AllGather(lens)
	if err != nil {
		return err
	}
	allRets, err := t.transport.AllGather(seg.EpRets)
	if err != nil {
		return err
	}
	allTrueRets, err := t.transport.AllGather(seg.EpTrueRets)
	if err != nil {
		return err
	}

	var epThisIter int
	for _, workerLens := range allLens {
		epThisIter += len(workerLens)
		t.lenBuf.extend(workerLens)
		t.timesteps += int(floats.Sum(workerLens))
	}
	for _, workerRets := range allRets {
		t.retBuf.extend(workerRets)
	}
	for _, workerTrueRets := range allTrueRets {
		t.trueRetBuf.extend(workerTrueRets)
	}
	t.episodes += epThisIter

	t.report.record("EpLenMean", t.lenBuf.mean())
	t.report.record("EpRewMean", t.retBuf.mean())
	if t.rewardGiver != nil {
		t.report.record("EpTrueRewMean", t.trueRetBuf.mean())
	}
	t.report.record("EpThisIter", epThisIter)
	return nil
}

// checkConsistency verifies that every worker holds identical policy
// and value function parameters. Divergence here means the lockstep
// update scheme has been violated, which no later update can repair.
func (t *TRPO) checkConsistency() error {
	local := []float64{
		floats.Sum(t.policy.FlatParams()),
		floats.Sum(t.policy.ValueFlatParams()),
	}
	gathered, err := t.transport.AllGather(local)
	if err != nil {
		return err
	}
	for rank, remote := range gathered {
		if !floatutils.AllClose(local, remote, checksumTol) {
			return fmt.Errorf("checkconsistency: worker parameters have "+
				"diverged \n\twant(%v)\n\thave(rank %d: %v)", local, rank,
				remote)
		}
	}
	return nil
}
