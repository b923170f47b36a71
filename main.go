package main

import (
	"fmt"
	"log"
	"time"

	"github.com/samuelfneumann/progressbar"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	G "gorgonia.org/gorgonia"

	"sfneuman.com/gotrpo/comm"
	"sfneuman.com/gotrpo/environment"
	"sfneuman.com/gotrpo/environment/classiccontrol/cartpole"
	"sfneuman.com/gotrpo/network"
	"sfneuman.com/gotrpo/policy"
	"sfneuman.com/gotrpo/trpo"
)

func main() {
	var seed uint64 = 192382

	// Create the environment
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s := environment.NewUniformStarter([]r1.Interval{bounds, bounds,
		bounds, bounds}, seed)
	task := cartpole.NewBalance(s, 500)
	c := cartpole.New(task)

	// Create the policy
	config := trpo.NewDefaultConfig()
	config.MaxTimesteps = 100_000

	hidden := []int{32, 32}
	biases := []bool{true, true}
	activations := []*network.Activation{network.TanH(), network.TanH()}

	pol, err := policy.NewGaussianMLP(c, policy.Config{
		HiddenSizes: hidden,
		Biases:      biases,
		Activations: activations,
		Init:        G.GlorotN(1.0),

		LossBatch: config.TimestepsPerBatch,
		FVPBatch: (config.TimestepsPerBatch + config.FVPStride - 1) /
			config.FVPStride,
		ValueBatch: config.VFMinibatchSize,

		EntCoeff:     config.EntCoeff,
		NormalizeObs: true,
		Seed:         seed,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Create and run the learning algorithm
	t, err := trpo.New(pol, c, comm.Local{}, seed, config)
	if err != nil {
		log.Fatal(err)
	}
	if err := t.Learn(); err != nil {
		log.Fatal(err)
	}

	// Evaluate the deterministic policy
	episodes := 10
	bar := progressbar.New(65, episodes, time.Second, true)
	bar.Display()

	var totalReturn float64
	for ep := 0; ep < episodes; ep++ {
		step := c.Reset()
		for !step.Last() {
			obs := make([]float64, step.Observation.Len())
			copy(obs, step.Observation.RawVector().Data)

			action, _, err := pol.Act(false, obs)
			if err != nil {
				log.Fatal(err)
			}
			step = c.Step(mat.NewVecDense(len(action), action))
			totalReturn += step.Reward
		}
		bar.Increment()
	}
	bar.Close()

	fmt.Printf("Average return over %d evaluation episodes: %.2f\n",
		episodes, totalReturn/float64(episodes))
}
