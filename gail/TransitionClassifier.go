// Package gail implements generative adversarial imitation learning
// collaborators: a discriminator that scores transitions against expert
// behaviour and the expert demonstration dataset it is trained on
package gail

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	env "sfneuman.com/gotrpo/environment"
	"sfneuman.com/gotrpo/network"
	"sfneuman.com/gotrpo/utils/floatutils"
	"sfneuman.com/gotrpo/utils/rms"
)

const (
	// obsClip bounds normalized observations
	obsClip float64 = 5.0

	// rewardEpsilon keeps the surrogate reward finite when the
	// discriminator saturates
	rewardEpsilon float64 = 1e-8
)

// lossNames names the discriminator's loss vector entries in their
// fixed order
var lossNames = []string{"g_loss", "e_loss", "entropy", "entropy_loss",
	"g_acc", "e_acc"}

// TransitionClassifier is a binary classifier over (observation,
// action) transitions, trained to separate a policy's transitions from
// expert transitions. Its logit doubles as an imitation reward: the
// less separable a transition is from expert behaviour, the larger the
// reward.
//
// The canonical parameters are a flat vector pushed into the reward and
// training graphs before each run, so externally applied updates take
// effect everywhere at once.
type TransitionClassifier struct {
	obsDim   int
	actDim   int
	batch    int
	entCoeff float64

	theta     []float64
	numParams int

	obsRMS *rms.RunningMeanStd

	// Reward graph, batch 1
	rewardVM    G.VM
	rewardInput *G.Node
	rewardNodes G.Nodes
	logitVal    G.Value

	// Training graph, batch 2*batch split between policy and expert
	trainVM       G.VM
	trainPolInput *G.Node
	trainExpInput *G.Node
	trainNodes    G.Nodes
	trainLossVals []G.Value // ordered as lossNames
	trainGradVals []G.Value
}

// NewTransitionClassifier returns a discriminator over transitions of
// e. The training graph is shaped for minibatches of batch policy
// transitions and batch expert transitions. When normalizeObs is true
// observations from both sources are normalized with one running
// estimate before classification.
func NewTransitionClassifier(e env.Environment, hiddenSizes []int,
	biases []bool, activations []*network.Activation, init G.InitWFn,
	entCoeff float64, batch int,
	normalizeObs bool) (*TransitionClassifier, error) {
	if batch < 1 {
		return nil, fmt.Errorf("newtransitionclassifier: batch size must "+
			"be positive \n\thave(%v)", batch)
	}
	if entCoeff < 0 {
		return nil, fmt.Errorf("newtransitionclassifier: entropy "+
			"coefficient cannot be negative \n\thave(%v)", entCoeff)
	}

	t := &TransitionClassifier{
		obsDim:   e.ObservationSpec().Shape.Len(),
		actDim:   e.ActionSpec().Shape.Len(),
		batch:    batch,
		entCoeff: entCoeff,
	}
	if normalizeObs {
		t.obsRMS = rms.New(t.obsDim)
	}

	if err := t.buildRewardGraph(hiddenSizes, biases, activations,
		init); err != nil {
		return nil, fmt.Errorf("newtransitionclassifier: %v", err)
	}
	t.numParams = network.NumParams(t.rewardNodes)
	t.theta = network.Flatten(t.rewardNodes)

	if err := t.buildTrainGraph(hiddenSizes, biases, activations,
		init); err != nil {
		return nil, fmt.Errorf("newtransitionclassifier: %v", err)
	}

	return t, nil
}

func (t *TransitionClassifier) buildRewardGraph(hiddenSizes []int,
	biases []bool, activations []*network.Activation,
	init G.InitWFn) error {
	g := G.NewGraph()
	t.rewardInput = G.NewMatrix(g, tensor.Float64,
		G.WithShape(1, t.obsDim+t.actDim), G.WithName("Transition"),
		G.WithInit(G.Zeroes()))

	net, err := network.NewMLP(g, t.obsDim+t.actDim, 1, hiddenSizes,
		biases, activations, init, "d")
	if err != nil {
		return err
	}
	logit, err := net.Fwd(t.rewardInput)
	if err != nil {
		return err
	}
	t.rewardNodes = net.Learnables()
	G.Read(G.Must(G.Ravel(logit)), &t.logitVal)

	t.rewardVM = G.NewTapeMachine(g)
	return nil
}

// softplus adds log(1 + exp(x)) to the graph
func softplus(x *G.Node) *G.Node {
	return G.Must(G.Log(G.Must(G.Add(G.NewConstant(1.0),
		G.Must(G.Exp(x))))))
}

func (t *TransitionClassifier) buildTrainGraph(hiddenSizes []int,
	biases []bool, activations []*network.Activation,
	init G.InitWFn) error {
	g := G.NewGraph()
	dim := t.obsDim + t.actDim

	t.trainPolInput = G.NewMatrix(g, tensor.Float64,
		G.WithShape(t.batch, dim), G.WithName("PolicyTransitions"),
		G.WithInit(G.Zeroes()))
	t.trainExpInput = G.NewMatrix(g, tensor.Float64,
		G.WithShape(t.batch, dim), G.WithName("ExpertTransitions"),
		G.WithInit(G.Zeroes()))

	// One network classifies both sources
	net, err := network.NewMLP(g, dim, 1, hiddenSizes, biases,
		activations, init, "d")
	if err != nil {
		return err
	}
	polOut, err := net.Fwd(t.trainPolInput)
	if err != nil {
		return err
	}
	expOut, err := net.Fwd(t.trainExpInput)
	if err != nil {
		return err
	}
	t.trainNodes = net.Learnables()

	polLogits := G.Must(G.Ravel(polOut))
	expLogits := G.Must(G.Ravel(expOut))

	// Sigmoid cross entropy against label 0 for the policy and label 1
	// for the expert
	gLoss := G.Must(G.Mean(softplus(polLogits)))
	eLoss := G.Must(G.Mean(softplus(G.Must(G.Neg(expLogits)))))

	// Bernoulli entropy of the classifier on the pooled logits,
	// computed from logits as (1 - sigmoid(x))*x + softplus(-x)
	logits := G.Must(G.Concat(0, polLogits, expLogits))
	sigmoids := G.Must(G.Sigmoid(logits))
	oneMinus := G.Must(G.Sub(G.NewConstant(1.0), sigmoids))
	ent := G.Must(G.HadamardProd(oneMinus, logits))
	ent = G.Must(G.Add(ent, softplus(G.Must(G.Neg(logits)))))
	entropy := G.Must(G.Mean(ent))
	entLoss := G.Must(G.Mul(G.NewConstant(-t.entCoeff), entropy))

	totalLoss := G.Must(G.Add(G.Must(G.Add(gLoss, eLoss)), entLoss))

	half := G.NewConstant(0.5)
	gAcc := G.Must(G.Mean(G.Must(G.Lt(G.Must(G.Sigmoid(polLogits)), half,
		true))))
	eAcc := G.Must(G.Mean(G.Must(G.Gt(G.Must(G.Sigmoid(expLogits)), half,
		true))))

	ordered := []*G.Node{gLoss, eLoss, entropy, entLoss, gAcc, eAcc}
	t.trainLossVals = make([]G.Value, len(ordered))
	for i, node := range ordered {
		G.Read(node, &t.trainLossVals[i])
	}

	grads, err := G.Grad(totalLoss, t.trainNodes...)
	if err != nil {
		return err
	}
	t.trainGradVals = make([]G.Value, len(grads))
	for i, node := range grads {
		G.Read(node, &t.trainGradVals[i])
	}

	t.trainVM = G.NewTapeMachine(g)
	return nil
}

// normalize returns obs normalized by the running statistics and
// clipped, or obs itself when normalization is off
func (t *TransitionClassifier) normalize(obs []float64) []float64 {
	if t.obsRMS == nil {
		return obs
	}
	mean := t.obsRMS.Mean()
	std := t.obsRMS.Std()
	out := make([]float64, len(obs))
	for i, v := range obs {
		j := i % t.obsDim
		out[i] = floatutils.Clip((v-mean[j])/std[j], -obsClip, obsClip)
	}
	return out
}

// interleave packs n rows of normalized observations and actions into
// (obs, act) transition rows
func (t *TransitionClassifier) interleave(obs, acts []float64,
	n int) []float64 {
	normed := t.normalize(obs)
	dim := t.obsDim + t.actDim
	out := make([]float64, n*dim)
	for i := 0; i < n; i++ {
		copy(out[i*dim:], normed[i*t.obsDim:(i+1)*t.obsDim])
		copy(out[i*dim+t.obsDim:], acts[i*t.actDim:(i+1)*t.actDim])
	}
	return out
}

// Reward implements trpo.RewardGiver. The reward is -log(1 - D(s, a)),
// unbounded above as the discriminator mistakes the transition for
// expert behaviour.
func (t *TransitionClassifier) Reward(obs, action []float64) float64 {
	if err := network.SetFlat(t.rewardNodes, t.theta); err != nil {
		panic(fmt.Sprintf("reward: %v", err))
	}
	input := t.interleave(obs, action, 1)
	backing := tensor.New(tensor.WithShape(1, t.obsDim+t.actDim),
		tensor.WithBacking(input))
	if err := G.Let(t.rewardInput, backing); err != nil {
		panic(fmt.Sprintf("reward: %v", err))
	}

	t.rewardVM.Reset()
	if err := t.rewardVM.RunAll(); err != nil {
		panic(fmt.Sprintf("reward: %v", err))
	}

	logit := t.logitVal.Data().([]float64)[0]
	sigmoid := 1 / (1 + math.Exp(-logit))
	return -math.Log(1 - sigmoid + rewardEpsilon)
}

// LossNames implements trpo.RewardGiver
func (t *TransitionClassifier) LossNames() []string {
	return lossNames
}

// LossAndGrad implements trpo.RewardGiver
func (t *TransitionClassifier) LossAndGrad(polObs, polActs, expObs,
	expActs []float64, n int) ([]float64, []float64, error) {
	if n != t.batch {
		return nil, nil, fmt.Errorf("lossandgrad: illegal batch size"+
			"\n\twant(%v)\n\thave(%v)", t.batch, n)
	}

	if err := network.SetFlat(t.trainNodes, t.theta); err != nil {
		return nil, nil, fmt.Errorf("lossandgrad: %v", err)
	}

	dim := t.obsDim + t.actDim
	pol := tensor.New(tensor.WithShape(n, dim),
		tensor.WithBacking(t.interleave(polObs, polActs, n)))
	if err := G.Let(t.trainPolInput, pol); err != nil {
		return nil, nil, fmt.Errorf("lossandgrad: %v", err)
	}
	exp := tensor.New(tensor.WithShape(n, dim),
		tensor.WithBacking(t.interleave(expObs, expActs, n)))
	if err := G.Let(t.trainExpInput, exp); err != nil {
		return nil, nil, fmt.Errorf("lossandgrad: %v", err)
	}

	t.trainVM.Reset()
	if err := t.trainVM.RunAll(); err != nil {
		return nil, nil, fmt.Errorf("lossandgrad: %v", err)
	}

	losses := make([]float64, len(t.trainLossVals))
	for i, val := range t.trainLossVals {
		losses[i] = val.Data().(float64)
	}
	grad := make([]float64, 0, t.numParams)
	for _, val := range t.trainGradVals {
		grad = append(grad, val.Data().([]float64)...)
	}
	return losses, grad, nil
}

// FlatParams implements trpo.RewardGiver
func (t *TransitionClassifier) FlatParams() []float64 {
	out := make([]float64, t.numParams)
	copy(out, t.theta)
	return out
}

// SetFlatParams implements trpo.RewardGiver
func (t *TransitionClassifier) SetFlatParams(theta []float64) error {
	if len(theta) != t.numParams {
		return fmt.Errorf("setflatparams: illegal parameter vector length"+
			"\n\twant(%v)\n\thave(%v)", t.numParams, len(theta))
	}
	copy(t.theta, theta)
	return nil
}

// UpdateObsStats implements trpo.ObsNormalizer when observation
// normalization is on
func (t *TransitionClassifier) UpdateObsStats(obs []float64,
	n int) error {
	if t.obsRMS == nil {
		return nil
	}
	return t.obsRMS.Update(obs, n)
}
