package trpo_test

import (
	"math"
	"testing"

	"sfneuman.com/gotrpo/trpo"
)

const tolerance float64 = 1e-12

// TestAddVtargAndAdv checks the advantage recursion against
// hand-computed values on a short segment with no terminations
func TestAddVtargAndAdv(t *testing.T) {
	seg := &trpo.Segment{
		Horizon:   3,
		VPreds:    []float64{1.0, 2.0, 3.0},
		Rews:      []float64{1.0, 1.0, 1.0},
		News:      []bool{true, false, false},
		NextVPred: 4.0,
	}

	adv, tdlamret := trpo.AddVtargAndAdv(seg, 0.9, 0.5)

	wantAdv := []float64{2.889, 2.42, 1.6}
	wantRet := []float64{3.889, 4.42, 4.6}
	for i := range wantAdv {
		if math.Abs(adv[i]-wantAdv[i]) > tolerance {
			t.Errorf("advantage %d \n\twant(%v)\n\thave(%v)", i, wantAdv[i],
				adv[i])
		}
		if math.Abs(tdlamret[i]-wantRet[i]) > tolerance {
			t.Errorf("return target %d \n\twant(%v)\n\thave(%v)", i,
				wantRet[i], tdlamret[i])
		}
	}
}

// TestAddVtargAndAdvTerminal checks that an episode boundary inside the
// segment cuts the recursion and the bootstrap value
func TestAddVtargAndAdvTerminal(t *testing.T) {
	seg := &trpo.Segment{
		Horizon:   3,
		VPreds:    []float64{1.0, 2.0, 3.0},
		Rews:      []float64{1.0, 1.0, 1.0},
		News:      []bool{true, false, true},
		NextVPred: 4.0,
	}

	adv, _ := trpo.AddVtargAndAdv(seg, 0.9, 0.5)

	// The step before the boundary bootstraps from nothing
	wantAdv := []float64{1.35, -1.0, 1.6}
	for i := range wantAdv {
		if math.Abs(adv[i]-wantAdv[i]) > tolerance {
			t.Errorf("advantage %d \n\twant(%v)\n\thave(%v)", i, wantAdv[i],
				adv[i])
		}
	}
}

// TestAddVtargAndAdvZeroedBootstrap checks that a segment ending
// exactly at an episode boundary uses the zeroed bootstrap value
func TestAddVtargAndAdvZeroedBootstrap(t *testing.T) {
	seg := &trpo.Segment{
		Horizon:   2,
		VPreds:    []float64{1.0, 2.0},
		Rews:      []float64{1.0, 1.0},
		News:      []bool{true, false},
		NextVPred: 0.0,
	}

	adv, _ := trpo.AddVtargAndAdv(seg, 0.9, 0.5)

	// t=1: delta = 1 + 0 - 2 = -1
	// t=0: delta = 1 + 1.8 - 1 = 1.8; adv = 1.8 + 0.45*(-1)
	wantAdv := []float64{1.35, -1.0}
	for i := range wantAdv {
		if math.Abs(adv[i]-wantAdv[i]) > tolerance {
			t.Errorf("advantage %d \n\twant(%v)\n\thave(%v)", i, wantAdv[i],
				adv[i])
		}
	}
}
