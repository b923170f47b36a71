package trpo

// AddVtargAndAdv computes generalized advantage estimates and TD(λ)
// return targets for a segment in a single backward pass. The bootstrap
// value for the state following the segment is seg.NextVPred, which the
// generator already zeroes when that state starts a fresh episode.
func AddVtargAndAdv(seg *Segment, gamma, lam float64) (adv,
	tdlamret []float64) {
	h := seg.Horizon
	adv = make([]float64, h)
	tdlamret = make([]float64, h)

	lastGAELam := 0.0
	for t := h - 1; t >= 0; t-- {
		var nonterminal, nextVPred float64
		if t == h-1 {
			nonterminal = 1.0
			nextVPred = seg.NextVPred
		} else {
			if seg.News[t+1] {
				nonterminal = 0.0
			} else {
				nonterminal = 1.0
			}
			nextVPred = seg.VPreds[t+1]
		}
		delta := seg.Rews[t] + gamma*nextVPred*nonterminal - seg.VPreds[t]
		lastGAELam = delta + gamma*lam*nonterminal*lastGAELam
		adv[t] = lastGAELam
		tdlamret[t] = adv[t] + seg.VPreds[t]
	}
	return adv, tdlamret
}
