// Package policy implements neural-network policies whose parameters
// are exposed as flat vectors for natural gradient optimization
package policy

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	env "sfneuman.com/gotrpo/environment"
	"sfneuman.com/gotrpo/network"
	"sfneuman.com/gotrpo/trpo"
	"sfneuman.com/gotrpo/utils/floatutils"
	"sfneuman.com/gotrpo/utils/rms"
)

const (
	// obsClip bounds normalized observations
	obsClip float64 = 5.0

	// fvpEpsilon is the perturbation scale of the finite difference
	// behind the Fisher-vector product
	fvpEpsilon float64 = 1e-5
)

// Config describes a GaussianMLP policy. The three batch sizes fix the
// static shapes of the training graphs and must match the batch sizes
// the optimizer will evaluate: LossBatch is the segment horizon,
// FVPBatch the subsampled batch of Fisher-vector products, and
// ValueBatch the value function minibatch size.
type Config struct {
	HiddenSizes []int
	Biases      []bool
	Activations []*network.Activation
	Init        G.InitWFn

	LossBatch  int
	FVPBatch   int
	ValueBatch int

	EntCoeff     float64
	NormalizeObs bool
	Seed         uint64
}

// tower is one forward pass of the policy on a fixed-shape input: the
// Gaussian's mean and log standard deviation nodes together with the
// parameter nodes they depend on
type tower struct {
	obs    *G.Node
	mean   *G.Node
	logStd *G.Node
	params G.Nodes
}

// GaussianMLP is a policy over continuous actions distributed as a
// diagonal Gaussian whose mean is predicted by an MLP and whose log
// standard deviation is a state-independent learnable vector, together
// with a separate MLP state-value function.
//
// The canonical parameters are the flat vectors theta (policy group),
// vfTheta (value group), and thetaOld (the snapshot policy). Each
// computation pushes the relevant flat vectors into its own graph's
// parameter nodes before running, so all graphs always observe the
// canonical parameters. Because gorgonia graphs have static shapes,
// action selection, the surrogate loss, the KL Hessian, and the value
// loss each get their own graph sized for their batch.
type GaussianMLP struct {
	config Config
	obsDim int
	actDim int
	numPol int
	numVf  int

	theta    []float64
	thetaOld []float64
	vfTheta  []float64

	obsRMS *rms.RunningMeanStd
	normal distmv.Rander

	// Action-selection graph, batch 1
	actVM      G.VM
	actObs     *G.Node
	actPol     tower
	actVfPred  *G.Node
	actVfNodes G.Nodes
	meanVal    G.Value
	stdVal     G.Value
	vpredVal   G.Value

	// Surrogate loss graph, batch LossBatch
	lossVM       G.VM
	lossNew      tower
	lossOld      tower
	lossActs     *G.Node
	lossAdv      *G.Node
	lossVals     []G.Value // ordered as trpo.LossNames
	lossGradVals []G.Value

	// KL gradient graph, batch FVPBatch, for Fisher-vector products
	fvpVM       G.VM
	fvpNew      tower
	fvpOld      tower
	fvpGradVals []G.Value

	// Value loss graph, batch ValueBatch
	vfVM       G.VM
	vfObs      *G.Node
	vfTarg     *G.Node
	vfNodes    G.Nodes
	vfGradVals []G.Value
}

// NewGaussianMLP returns a new GaussianMLP acting in e
func NewGaussianMLP(e env.Environment, config Config) (*GaussianMLP,
	error) {
	if e.ActionSpec().Cardinality != env.Continuous {
		return nil, fmt.Errorf("newgaussianmlp: actions must be continuous")
	}
	if config.LossBatch < 1 || config.FVPBatch < 1 || config.ValueBatch < 1 {
		return nil, fmt.Errorf("newgaussianmlp: batch sizes must be "+
			"positive \n\thave(loss %v, fvp %v, value %v)", config.LossBatch,
			config.FVPBatch, config.ValueBatch)
	}

	obsDim := e.ObservationSpec().Shape.Len()
	actDim := e.ActionSpec().Shape.Len()

	p := &GaussianMLP{
		config: config,
		obsDim: obsDim,
		actDim: actDim,
	}

	if config.NormalizeObs {
		p.obsRMS = rms.New(obsDim)
	}

	means := make([]float64, actDim)
	stds := mat.NewDiagDense(actDim, floatutils.Ones(actDim))
	source := rand.NewSource(config.Seed)
	normal, ok := distmv.NewNormal(means, stds, source)
	if !ok {
		return nil, fmt.Errorf("newgaussianmlp: could not create " +
			"standard normal for action selection")
	}
	p.normal = normal

	if err := p.buildActGraph(); err != nil {
		return nil, fmt.Errorf("newgaussianmlp: %v", err)
	}

	// The action graph's freshly initialized weights become the
	// canonical parameters
	p.numPol = network.NumParams(p.actPol.params)
	p.numVf = network.NumParams(p.actVfNodes)
	p.theta = network.Flatten(p.actPol.params)
	p.vfTheta = network.Flatten(p.actVfNodes)
	p.thetaOld = make([]float64, p.numPol)
	copy(p.thetaOld, p.theta)

	if err := p.buildLossGraph(); err != nil {
		return nil, fmt.Errorf("newgaussianmlp: %v", err)
	}
	if err := p.buildFVPGraph(); err != nil {
		return nil, fmt.Errorf("newgaussianmlp: %v", err)
	}
	if err := p.buildVfGraph(); err != nil {
		return nil, fmt.Errorf("newgaussianmlp: %v", err)
	}

	return p, nil
}

// buildTower adds one policy forward pass over the argument observation
// node to g, naming its parameter nodes with prefix
func (p *GaussianMLP) buildTower(g *G.ExprGraph, obs *G.Node,
	prefix string) (tower, error) {
	net, err := network.NewMLP(g, p.obsDim, p.actDim, p.config.HiddenSizes,
		p.config.Biases, p.config.Activations, p.config.Init, prefix)
	if err != nil {
		return tower{}, err
	}
	mean, err := net.Fwd(obs)
	if err != nil {
		return tower{}, err
	}

	logStd := G.NewMatrix(g, tensor.Float64, G.WithShape(1, p.actDim),
		G.WithName(prefix+"LogStd"), G.WithInit(G.Zeroes()))

	params := append(append(G.Nodes{}, net.Learnables()...), logStd)
	return tower{obs: obs, mean: mean, logStd: logStd, params: params}, nil
}

// buildValueNet adds a value function forward pass of the argument
// batch size to g, returning the raveled predictions and parameters
func (p *GaussianMLP) buildValueNet(g *G.ExprGraph, obs *G.Node,
	prefix string) (*G.Node, G.Nodes, error) {
	net, err := network.NewMLP(g, p.obsDim, 1, p.config.HiddenSizes,
		p.config.Biases, p.config.Activations, p.config.Init, prefix)
	if err != nil {
		return nil, nil, err
	}
	out, err := net.Fwd(obs)
	if err != nil {
		return nil, nil, err
	}
	return G.Must(G.Ravel(out)), net.Learnables(), nil
}

func (p *GaussianMLP) buildActGraph() error {
	g := G.NewGraph()
	obs := G.NewMatrix(g, tensor.Float64, G.WithShape(1, p.obsDim),
		G.WithName("Obs"), G.WithInit(G.Zeroes()))

	pol, err := p.buildTower(g, obs, "pi")
	if err != nil {
		return err
	}
	p.actPol = pol
	p.actObs = obs

	std := G.Must(G.Exp(pol.logStd))
	G.Read(pol.mean, &p.meanVal)
	G.Read(std, &p.stdVal)

	vpred, vfNodes, err := p.buildValueNet(g, obs, "vf")
	if err != nil {
		return err
	}
	p.actVfPred = vpred
	p.actVfNodes = vfNodes
	G.Read(vpred, &p.vpredVal)

	p.actVM = G.NewTapeMachine(g)
	return nil
}

// logProb adds the log density of acts under t's Gaussian to the graph
func logProb(t tower, acts *G.Node) *G.Node {
	k := float64(t.mean.Shape()[1])

	std := G.Must(G.Exp(t.logStd))
	diff := G.Must(G.Sub(acts, t.mean))
	z := G.Must(G.BroadcastHadamardDiv(diff, std, nil, []byte{0}))
	sumSq := G.Must(G.Sum(G.Must(G.Square(z)), 1))

	sumLogStd := G.Must(G.Sum(t.logStd))
	halfLog2Pi := G.NewConstant(0.5 * k * math.Log(2*math.Pi))

	logp := G.Must(G.Mul(G.NewConstant(-0.5), sumSq))
	logp = G.Must(G.Sub(logp, G.Must(G.Add(sumLogStd, halfLog2Pi))))
	return logp
}

// klDivergence adds the mean KL divergence from old to new over the
// batch to the graph
func klDivergence(old, new tower) *G.Node {
	stdOld := G.Must(G.Exp(old.logStd))
	stdNew := G.Must(G.Exp(new.logStd))

	meanDiffSq := G.Must(G.Square(G.Must(G.Sub(old.mean, new.mean))))
	numerator := G.Must(G.BroadcastAdd(meanDiffSq,
		G.Must(G.Square(stdOld)), nil, []byte{0}))
	denominator := G.Must(G.Mul(G.NewConstant(2.0),
		G.Must(G.Square(stdNew))))
	frac := G.Must(G.BroadcastHadamardDiv(numerator, denominator, nil,
		[]byte{0}))

	logStdDiff := G.Must(G.Sub(new.logStd, old.logStd))
	kl := G.Must(G.BroadcastAdd(frac, logStdDiff, nil, []byte{0}))
	kl = G.Must(G.Sub(kl, G.NewConstant(0.5)))
	return G.Must(G.Mean(G.Must(G.Sum(kl, 1))))
}

// gaussianEntropy adds the entropy of t's Gaussian to the graph
func gaussianEntropy(t tower) *G.Node {
	k := float64(t.mean.Shape()[1])
	ent := G.Must(G.Sum(t.logStd))
	return G.Must(G.Add(ent, G.NewConstant(0.5*k*math.Log(2*math.Pi*math.E))))
}

func (p *GaussianMLP) buildLossGraph() error {
	g := G.NewGraph()
	n := p.config.LossBatch

	obs := G.NewMatrix(g, tensor.Float64, G.WithShape(n, p.obsDim),
		G.WithName("Obs"), G.WithInit(G.Zeroes()))

	// Both towers read one observation input
	newPi, err := p.buildTower(g, obs, "pi")
	if err != nil {
		return err
	}
	oldPi, err := p.buildTower(g, obs, "oldpi")
	if err != nil {
		return err
	}
	p.lossNew, p.lossOld = newPi, oldPi

	p.lossActs = G.NewMatrix(g, tensor.Float64, G.WithShape(n, p.actDim),
		G.WithName("Actions"), G.WithInit(G.Zeroes()))
	p.lossAdv = G.NewVector(g, tensor.Float64, G.WithShape(n),
		G.WithName("Advantages"), G.WithInit(G.Zeroes()))

	logpNew := logProb(newPi, p.lossActs)
	logpOld := logProb(oldPi, p.lossActs)
	ratio := G.Must(G.Exp(G.Must(G.Sub(logpNew, logpOld))))

	surrgain := G.Must(G.Mean(G.Must(G.HadamardProd(ratio, p.lossAdv))))
	meankl := klDivergence(oldPi, newPi)
	entropy := gaussianEntropy(newPi)
	entloss := G.Must(G.Mul(G.NewConstant(p.config.EntCoeff), entropy))
	optimgain := G.Must(G.Add(surrgain, entloss))

	ordered := []*G.Node{optimgain, meankl, entloss, surrgain, entropy}
	p.lossVals = make([]G.Value, len(ordered))
	for i, node := range ordered {
		G.Read(node, &p.lossVals[i])
	}

	grads, err := G.Grad(optimgain, newPi.params...)
	if err != nil {
		return err
	}
	p.lossGradVals = make([]G.Value, len(grads))
	for i, node := range grads {
		G.Read(node, &p.lossGradVals[i])
	}

	p.lossVM = G.NewTapeMachine(g)
	return nil
}

func (p *GaussianMLP) buildFVPGraph() error {
	g := G.NewGraph()
	n := p.config.FVPBatch

	obs := G.NewMatrix(g, tensor.Float64, G.WithShape(n, p.obsDim),
		G.WithName("Obs"), G.WithInit(G.Zeroes()))

	newPi, err := p.buildTower(g, obs, "pi")
	if err != nil {
		return err
	}
	oldPi, err := p.buildTower(g, obs, "oldpi")
	if err != nil {
		return err
	}
	p.fvpNew, p.fvpOld = newPi, oldPi

	meankl := klDivergence(oldPi, newPi)
	grads, err := G.Grad(meankl, newPi.params...)
	if err != nil {
		return err
	}
	p.fvpGradVals = make([]G.Value, len(grads))
	for i, node := range grads {
		G.Read(node, &p.fvpGradVals[i])
	}

	p.fvpVM = G.NewTapeMachine(g)
	return nil
}

func (p *GaussianMLP) buildVfGraph() error {
	g := G.NewGraph()
	n := p.config.ValueBatch

	p.vfObs = G.NewMatrix(g, tensor.Float64, G.WithShape(n, p.obsDim),
		G.WithName("vfObs"), G.WithInit(G.Zeroes()))
	p.vfTarg = G.NewVector(g, tensor.Float64, G.WithShape(n),
		G.WithName("vfTarget"), G.WithInit(G.Zeroes()))

	vpred, vfNodes, err := p.buildValueNet(g, p.vfObs, "vf")
	if err != nil {
		return err
	}
	p.vfNodes = vfNodes

	loss := G.Must(G.Mean(G.Must(G.Square(G.Must(G.Sub(vpred,
		p.vfTarg))))))
	grads, err := G.Grad(loss, vfNodes...)
	if err != nil {
		return err
	}
	p.vfGradVals = make([]G.Value, len(grads))
	for i, node := range grads {
		G.Read(node, &p.vfGradVals[i])
	}

	p.vfVM = G.NewTapeMachine(g)
	return nil
}

// normalize returns obs normalized by the running statistics and
// clipped, or obs itself when normalization is off
func (p *GaussianMLP) normalize(obs []float64) []float64 {
	if p.obsRMS == nil {
		return obs
	}
	mean := p.obsRMS.Mean()
	std := p.obsRMS.Std()
	out := make([]float64, len(obs))
	for i, v := range obs {
		j := i % p.obsDim
		out[i] = floatutils.Clip((v-mean[j])/std[j], -obsClip, obsClip)
	}
	return out
}

// letMatrix sets a fresh (rows, cols) tensor backed by data as the
// value of node
func letMatrix(node *G.Node, rows, cols int, data []float64) error {
	backing := make([]float64, len(data))
	copy(backing, data)
	return G.Let(node, tensor.New(tensor.WithShape(rows, cols),
		tensor.WithBacking(backing)))
}

// letVector sets a fresh length-n tensor backed by data as the value of
// node
func letVector(node *G.Node, n int, data []float64) error {
	backing := make([]float64, len(data))
	copy(backing, data)
	return G.Let(node, tensor.New(tensor.WithShape(n),
		tensor.WithBacking(backing)))
}

// Act implements trpo.Actor
func (p *GaussianMLP) Act(stochastic bool, obs []float64) ([]float64,
	float64, error) {
	if len(obs) != p.obsDim {
		return nil, 0, fmt.Errorf("act: illegal observation length"+
			"\n\twant(%v)\n\thave(%v)", p.obsDim, len(obs))
	}

	if err := network.SetFlat(p.actPol.params, p.theta); err != nil {
		return nil, 0, fmt.Errorf("act: %v", err)
	}
	if err := network.SetFlat(p.actVfNodes, p.vfTheta); err != nil {
		return nil, 0, fmt.Errorf("act: %v", err)
	}
	if err := letMatrix(p.actObs, 1, p.obsDim, p.normalize(obs)); err != nil {
		return nil, 0, fmt.Errorf("act: %v", err)
	}

	p.actVM.Reset()
	if err := p.actVM.RunAll(); err != nil {
		return nil, 0, fmt.Errorf("act: %v", err)
	}

	mean := p.meanVal.Data().([]float64)
	action := make([]float64, p.actDim)
	copy(action, mean)
	if stochastic {
		std := p.stdVal.Data().([]float64)
		eps := p.normal.Rand(nil)
		for i := range action {
			action[i] += std[i] * eps[i]
		}
	}

	vpred := p.vpredVal.Data().([]float64)[0]
	return action, vpred, nil
}

// SnapshotOld implements trpo.Policy
func (p *GaussianMLP) SnapshotOld() {
	copy(p.thetaOld, p.theta)
}

// setLossInputs pushes the canonical parameters and the batch into the
// loss graph
func (p *GaussianMLP) setLossInputs(b *trpo.Batch) error {
	if b.N != p.config.LossBatch {
		return fmt.Errorf("setlossinputs: illegal batch size"+
			"\n\twant(%v)\n\thave(%v)", p.config.LossBatch, b.N)
	}
	if err := network.SetFlat(p.lossNew.params, p.theta); err != nil {
		return err
	}
	if err := network.SetFlat(p.lossOld.params, p.thetaOld); err != nil {
		return err
	}
	if err := letMatrix(p.lossNew.obs, b.N, p.obsDim,
		p.normalize(b.Obs)); err != nil {
		return err
	}
	if err := letMatrix(p.lossActs, b.N, p.actDim, b.Acts); err != nil {
		return err
	}
	return letVector(p.lossAdv, b.N, b.Adv)
}

// readLosses copies the loss tuple out of the loss graph
func (p *GaussianMLP) readLosses() []float64 {
	losses := make([]float64, len(p.lossVals))
	for i, val := range p.lossVals {
		losses[i] = val.Data().(float64)
	}
	return losses
}

// Losses implements trpo.Policy
func (p *GaussianMLP) Losses(b *trpo.Batch) ([]float64, error) {
	if err := p.setLossInputs(b); err != nil {
		return nil, fmt.Errorf("losses: %v", err)
	}
	p.lossVM.Reset()
	if err := p.lossVM.RunAll(); err != nil {
		return nil, fmt.Errorf("losses: %v", err)
	}
	return p.readLosses(), nil
}

// LossesAndGrad implements trpo.Policy
func (p *GaussianMLP) LossesAndGrad(b *trpo.Batch) ([]float64, []float64,
	error) {
	if err := p.setLossInputs(b); err != nil {
		return nil, nil, fmt.Errorf("lossesandgrad: %v", err)
	}
	p.lossVM.Reset()
	if err := p.lossVM.RunAll(); err != nil {
		return nil, nil, fmt.Errorf("lossesandgrad: %v", err)
	}

	grad := make([]float64, 0, p.numPol)
	for _, val := range p.lossGradVals {
		grad = append(grad, val.Data().([]float64)...)
	}
	return p.readLosses(), grad, nil
}

// klGradAt evaluates the gradient of the mean KL divergence with
// respect to the policy parameters, at parameter vector theta
func (p *GaussianMLP) klGradAt(theta, obs []float64, n int) ([]float64,
	error) {
	if err := network.SetFlat(p.fvpNew.params, theta); err != nil {
		return nil, err
	}
	if err := network.SetFlat(p.fvpOld.params, p.thetaOld); err != nil {
		return nil, err
	}
	if err := letMatrix(p.fvpNew.obs, n, p.obsDim,
		p.normalize(obs)); err != nil {
		return nil, err
	}

	p.fvpVM.Reset()
	if err := p.fvpVM.RunAll(); err != nil {
		return nil, err
	}

	grad := make([]float64, 0, p.numPol)
	for _, val := range p.fvpGradVals {
		grad = append(grad, val.Data().([]float64)...)
	}
	return grad, nil
}

// FisherVectorProduct implements trpo.Policy. The product is the
// central finite difference of the KL gradient along the tangent, which
// equals the KL Hessian times the tangent up to O(eps^2).
func (p *GaussianMLP) FisherVectorProduct(b *trpo.Batch,
	tangent []float64) ([]float64, error) {
	if b.N != p.config.FVPBatch {
		return nil, fmt.Errorf("fishervectorproduct: illegal batch size"+
			"\n\twant(%v)\n\thave(%v)", p.config.FVPBatch, b.N)
	}
	if len(tangent) != p.numPol {
		return nil, fmt.Errorf("fishervectorproduct: illegal tangent "+
			"length\n\twant(%v)\n\thave(%v)", p.numPol, len(tangent))
	}

	perturbed := make([]float64, p.numPol)
	for i := range perturbed {
		perturbed[i] = p.theta[i] + fvpEpsilon*tangent[i]
	}
	gradPlus, err := p.klGradAt(perturbed, b.Obs, b.N)
	if err != nil {
		return nil, fmt.Errorf("fishervectorproduct: %v", err)
	}

	for i := range perturbed {
		perturbed[i] = p.theta[i] - fvpEpsilon*tangent[i]
	}
	gradMinus, err := p.klGradAt(perturbed, b.Obs, b.N)
	if err != nil {
		return nil, fmt.Errorf("fishervectorproduct: %v", err)
	}

	out := make([]float64, p.numPol)
	for i := range out {
		out[i] = (gradPlus[i] - gradMinus[i]) / (2 * fvpEpsilon)
	}
	return out, nil
}

// FlatParams implements trpo.Policy
func (p *GaussianMLP) FlatParams() []float64 {
	out := make([]float64, p.numPol)
	copy(out, p.theta)
	return out
}

// SetFlatParams implements trpo.Policy
func (p *GaussianMLP) SetFlatParams(theta []float64) error {
	if len(theta) != p.numPol {
		return fmt.Errorf("setflatparams: illegal parameter vector length"+
			"\n\twant(%v)\n\thave(%v)", p.numPol, len(theta))
	}
	copy(p.theta, theta)
	return nil
}

// ValueFlatParams implements trpo.Policy
func (p *GaussianMLP) ValueFlatParams() []float64 {
	out := make([]float64, p.numVf)
	copy(out, p.vfTheta)
	return out
}

// SetValueFlatParams implements trpo.Policy
func (p *GaussianMLP) SetValueFlatParams(theta []float64) error {
	if len(theta) != p.numVf {
		return fmt.Errorf("setvalueflatparams: illegal parameter vector "+
			"length\n\twant(%v)\n\thave(%v)", p.numVf, len(theta))
	}
	copy(p.vfTheta, theta)
	return nil
}

// ValueLossGrad implements trpo.Policy
func (p *GaussianMLP) ValueLossGrad(obs, vtarg []float64,
	n int) ([]float64, error) {
	if n != p.config.ValueBatch {
		return nil, fmt.Errorf("valuelossgrad: illegal batch size"+
			"\n\twant(%v)\n\thave(%v)", p.config.ValueBatch, n)
	}

	if err := network.SetFlat(p.vfNodes, p.vfTheta); err != nil {
		return nil, fmt.Errorf("valuelossgrad: %v", err)
	}
	if err := letMatrix(p.vfObs, n, p.obsDim, p.normalize(obs)); err != nil {
		return nil, fmt.Errorf("valuelossgrad: %v", err)
	}
	if err := letVector(p.vfTarg, n, vtarg); err != nil {
		return nil, fmt.Errorf("valuelossgrad: %v", err)
	}

	p.vfVM.Reset()
	if err := p.vfVM.RunAll(); err != nil {
		return nil, fmt.Errorf("valuelossgrad: %v", err)
	}

	grad := make([]float64, 0, p.numVf)
	for _, val := range p.vfGradVals {
		grad = append(grad, val.Data().([]float64)...)
	}
	return grad, nil
}

// UpdateObsStats implements trpo.ObsNormalizer when observation
// normalization is on
func (p *GaussianMLP) UpdateObsStats(obs []float64, n int) error {
	if p.obsRMS == nil {
		return nil
	}
	return p.obsRMS.Update(obs, n)
}

// checkpoint is the gob-serialized trainable state of a GaussianMLP
type checkpoint struct {
	Theta   []float64
	VfTheta []float64

	ObsMean  []float64
	ObsStd   []float64
	ObsCount float64
}

// Save implements trpo.Serializable, persisting the parameter vectors
// and observation statistics to path
func (p *GaussianMLP) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	defer f.Close()

	ckpt := checkpoint{Theta: p.theta, VfTheta: p.vfTheta}
	if p.obsRMS != nil {
		ckpt.ObsMean = p.obsRMS.Mean()
		ckpt.ObsStd = p.obsRMS.Std()
		ckpt.ObsCount = p.obsRMS.Count()
	}
	if err := gob.NewEncoder(f).Encode(ckpt); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
