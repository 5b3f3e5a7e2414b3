// Package net provides the feed-forward network, its training loop and the
// metrics computed over its dataset partitions.
package net

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/FlavioCFOliveira/NeuronLab/internal/layer"
	"github.com/FlavioCFOliveira/NeuronLab/internal/loss"
)

// Network is a chain of layers trained online, one example at a time, on
// its own copy of the dataset partitions.
//
// A Network is not safe for concurrent use while Epoch runs. Predict and
// the metric queries only read and may run concurrently with each other.
type Network struct {
	layers []*layer.Layer
	inputs int
	alpha  float64

	training   []Sample
	validation []Sample
	testing    []Sample
	ranges     []Range

	mse           float64
	mseValidation float64
}

// New builds a network from cfg and the raw partitions in data.
//
// Each partition is shuffled once with rng, the layers are initialized from
// rng, and every partition is normalized with per-feature ranges taken over
// all three partitions. The caller's samples are not modified.
func New(cfg Config, data Data, rng *rand.Rand) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	outputs := cfg.OutputLayer.Neurons
	for _, p := range []Partition{Training, Validation, Testing} {
		if err := checkSamples(data.partitions()[p], cfg.Inputs, outputs); err != nil {
			return nil, fmt.Errorf("%w: %v data: %w", ErrInvalidConfig, p, err)
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}

	n := &Network{
		inputs:     cfg.Inputs,
		alpha:      cfg.Alpha,
		training:   cloneSamples(data.Training),
		validation: cloneSamples(data.Validation),
		testing:    cloneSamples(data.Testing),
	}
	for _, p := range [][]Sample{n.training, n.validation, n.testing} {
		rng.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })
	}

	topology := cfg.Topology()
	for i, h := range cfg.HiddenLayers {
		n.layers = append(n.layers, layer.New(layer.Hidden, topology[i], h.Neurons, h.Activation, rng))
	}
	n.layers = append(n.layers, layer.New(layer.Output, topology[len(topology)-2], outputs, cfg.OutputLayer.Activation, rng))

	n.ranges = featureRanges(cfg.Inputs, n.training, n.validation, n.testing)
	normalizeInPlace(n.ranges, n.training)
	normalizeInPlace(n.ranges, n.validation)
	normalizeInPlace(n.ranges, n.testing)
	return n, nil
}

// Default returns the network built from DefaultConfig with no data.
func Default() *Network {
	cfg := DefaultConfig()
	n, err := New(cfg, Data{}, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		panic(fmt.Sprintf("net: default configuration: %v", err))
	}
	return n
}

func checkSamples(samples []Sample, inputs, outputs int) error {
	for i, s := range samples {
		if len(s.Inputs) != inputs {
			return fmt.Errorf("%w: sample %d has %d inputs, want %d", ErrShapeMismatch, i, len(s.Inputs), inputs)
		}
		if len(s.Desired) != outputs {
			return fmt.Errorf("%w: sample %d has %d desired outputs, want %d", ErrShapeMismatch, i, len(s.Desired), outputs)
		}
	}
	return nil
}

// Epoch trains once over the training partition, in its fixed order, with
// one forward, backward and commit per example. It returns the training
// MSE accumulated during the pass and the validation MSE measured after it.
func (n *Network) Epoch() (float64, float64) {
	n.mse = 0
	n.mseValidation = 0

	for _, s := range n.training {
		n.mse += n.iteration(s)
	}
	if len(n.training) > 0 {
		n.mse /= float64(len(n.training))
	}
	n.mseValidation = n.meanSquaredError(n.validation)
	return n.mse, n.mseValidation
}

// iteration runs one online update and returns the squared error of the
// output seen during the forward pass.
func (n *Network) iteration(s Sample) float64 {
	out := n.forward(s.Inputs)
	n.backward(s.Desired)
	n.commit()
	return loss.SquaredError(out, s.Desired)
}

func (n *Network) forward(inputs []float64) []float64 {
	curr := inputs
	for _, l := range n.layers {
		curr = l.Forward(curr)
	}
	return curr
}

// backward walks the layers output first so every hidden layer reads a
// next layer that is already done.
func (n *Network) backward(desired []float64) {
	var next *layer.Layer
	for i := len(n.layers) - 1; i >= 0; i-- {
		l := n.layers[i]
		if err := l.Backward(desired, next); err != nil {
			panic(fmt.Sprintf("net: backward through layer %d: %v", i, err))
		}
		next = l
	}
}

func (n *Network) commit() {
	for _, l := range n.layers {
		l.Commit(n.alpha)
	}
}

// Predict normalizes raw inputs with the stored ranges and evaluates the
// network without modifying it.
func (n *Network) Predict(inputs []float64) ([]float64, error) {
	if len(inputs) != n.inputs {
		return nil, fmt.Errorf("%w: got %d inputs, want %d", ErrShapeMismatch, len(inputs), n.inputs)
	}
	return n.predictNormalized(normalized(n.ranges, inputs)), nil
}

// PredictBatch predicts every row of inputs, spreading rows over CPUs.
func (n *Network) PredictBatch(inputs [][]float64) ([][]float64, error) {
	for i, in := range inputs {
		if len(in) != n.inputs {
			return nil, fmt.Errorf("%w: row %d has %d inputs, want %d", ErrShapeMismatch, i, len(in), n.inputs)
		}
	}

	outputs := make([][]float64, len(inputs))
	numWorkers := min(len(inputs), runtime.NumCPU())
	if numWorkers == 0 {
		return outputs, nil
	}
	chunkSize := (len(inputs) + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < len(inputs); start += chunkSize {
		end := min(start+chunkSize, len(inputs))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				outputs[i] = n.predictNormalized(normalized(n.ranges, inputs[i]))
			}
		}(start, end)
	}
	wg.Wait()
	return outputs, nil
}

func (n *Network) predictNormalized(inputs []float64) []float64 {
	curr := inputs
	for _, l := range n.layers {
		curr = l.Predict(curr)
	}
	return curr
}

func (n *Network) meanSquaredError(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += loss.SquaredError(n.predictNormalized(s.Inputs), s.Desired)
	}
	return sum / float64(len(samples))
}

// MSE returns the mean squared error of a partition measured by prediction.
func (n *Network) MSE(p Partition) float64 {
	return n.meanSquaredError(n.Samples(p))
}

// ConfusionMatrix classifies the testing partition. Desired vectors are
// expected to be one-hot.
func (n *Network) ConfusionMatrix() loss.ConfusionMatrix {
	m := loss.NewConfusionMatrix(n.OutputWidth())
	for _, s := range n.testing {
		m.Observe(n.predictNormalized(s.Inputs), s.Desired)
	}
	return m
}

// CrossEntropyLoss averages the one-hot cross-entropy over the training
// partition. It is only meaningful for a probability-valued output layer
// and is +Inf when some true class gets probability 0.
func (n *Network) CrossEntropyLoss() float64 {
	if len(n.training) == 0 {
		return 0
	}
	var total float64
	for _, s := range n.training {
		total += loss.CrossEntropy(n.predictNormalized(s.Inputs), s.Desired)
	}
	return total / float64(len(n.training))
}

// LastMSE returns the training and validation MSE of the last Epoch.
func (n *Network) LastMSE() (float64, float64) {
	return n.mse, n.mseValidation
}

// Parameters exports every layer's weights, thresholds and role.
func (n *Network) Parameters() []layer.Parameters {
	params := make([]layer.Parameters, len(n.layers))
	for i, l := range n.layers {
		params[i] = l.Parameters()
	}
	return params
}

// SetParameters loads parameters exported by Parameters from a network of
// the same topology.
func (n *Network) SetParameters(params []layer.Parameters) error {
	if len(params) != len(n.layers) {
		return fmt.Errorf("%w: network has %d layers, got %d", ErrShapeMismatch, len(n.layers), len(params))
	}
	for i, p := range params {
		if err := n.layers[i].SetParameters(p); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// Layers returns the layers, output layer last.
func (n *Network) Layers() []*layer.Layer {
	return n.layers
}

// Topology returns the layer widths, input width first.
func (n *Network) Topology() []int {
	t := []int{n.inputs}
	for _, l := range n.layers {
		t = append(t, l.Width())
	}
	return t
}

// InputWidth returns the number of input features.
func (n *Network) InputWidth() int { return n.inputs }

// OutputWidth returns the width of the output layer.
func (n *Network) OutputWidth() int { return n.layers[len(n.layers)-1].Width() }

// LearningRate returns alpha.
func (n *Network) LearningRate() float64 { return n.alpha }

// SetLearningRate replaces alpha for the following updates.
func (n *Network) SetLearningRate(alpha float64) { n.alpha = alpha }

// NormalizationFactors returns a copy of the per-feature ranges.
func (n *Network) NormalizationFactors() []Range {
	return append([]Range(nil), n.ranges...)
}

// Samples returns the normalized samples of a partition in training order.
// The slice is shared with the network and must not be modified.
func (n *Network) Samples(p Partition) []Sample {
	switch p {
	case Training:
		return n.training
	case Validation:
		return n.validation
	case Testing:
		return n.testing
	default:
		return nil
	}
}
