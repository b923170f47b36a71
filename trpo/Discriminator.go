package trpo

import (
	"gonum.org/v1/gonum/floats"
)

// discriminatorStep trains the reward giver to separate the policy's
// transitions in seg from expert transitions, taking one Adam step per
// minibatch. The policy transitions are split into DStep shuffled
// minibatches, each paired with an equally sized expert draw.
func (t *TRPO) discriminatorStep(seg *Segment) error {
	return t.report.timed("Optimizing Discriminator...", func() error {
		size := seg.Horizon / t.config.DStep
		batches := minibatchIndices(seg.Horizon, size, t.rng)

		var meanLosses []float64
		for _, idx := range batches {
			polObs := make([]float64, 0, len(idx)*seg.ObsDim)
			polActs := make([]float64, 0, len(idx)*seg.ActDim)
			for _, i := range idx {
				polObs = append(polObs,
					seg.Obs[i*seg.ObsDim:(i+1)*seg.ObsDim]...)
				polActs = append(polActs,
					seg.Acts[i*seg.ActDim:(i+1)*seg.ActDim]...)
			}

			expObs, expActs, err := t.expertData.NextBatch(len(idx))
			if err != nil {
				return err
			}

			// The discriminator normalizes observations from both
			// sources with one running estimate
			if t.dObsNorm != nil {
				both := make([]float64, 0, len(polObs)+len(expObs))
				both = append(both, polObs...)
				both = append(both, expObs...)
				err := t.dObsNorm.UpdateObsStats(both, 2*len(idx))
				if err != nil {
					return err
				}
			}

			losses, g, err := t.rewardGiver.LossAndGrad(polObs, polActs,
				expObs, expActs, len(idx))
			if err != nil {
				return err
			}
			if err := t.transport.AllReduceMean(g); err != nil {
				return err
			}
			if err := t.transport.AllReduceMean(losses); err != nil {
				return err
			}

			theta := t.rewardGiver.FlatParams()
			err = t.dAdam.Update(theta, g, t.config.DStepSize)
			if err != nil {
				return err
			}
			if err := t.rewardGiver.SetFlatParams(theta); err != nil {
				return err
			}

			if meanLosses == nil {
				meanLosses = make([]float64, len(losses))
			}
			floats.Add(meanLosses, losses)
		}

		if len(batches) > 0 {
			floats.Scale(1/float64(len(batches)), meanLosses)
			for i, name := range t.rewardGiver.LossNames() {
				t.report.record(name, meanLosses[i])
			}
		}
		return nil
	})
}
