package layer

import (
	"fmt"
	"math/rand"

	"github.com/FlavioCFOliveira/NeuronLab/internal/activations"
	"gonum.org/v1/gonum/floats"
)

// Neuron is a single unit: a weight vector and a threshold (bias) applied
// subtractively, x = sum(w*in) - threshold.
//
// x, y and the gradient error are per-example caches. They are valid from a
// Forward call until the next Forward call.
type Neuron struct {
	weights   []float64
	threshold float64
	act       activations.Function

	inputs        []float64
	x             float64
	y             float64
	gradientError float64
}

// NewNeuron creates a neuron with weights and threshold drawn from
// Uniform(-2.4/inputs, 2.4/inputs).
func NewNeuron(inputs int, act activations.Function, rng *rand.Rand) *Neuron {
	if inputs < 1 {
		panic(fmt.Sprintf("layer: neuron needs at least one input, got %d", inputs))
	}
	limit := 2.4 / float64(inputs)
	weights := make([]float64, inputs)
	for i := range weights {
		weights[i] = uniform(rng, limit)
	}
	return &Neuron{
		weights:   weights,
		threshold: uniform(rng, limit),
		act:       act,
	}
}

func uniform(rng *rand.Rand, limit float64) float64 {
	return rng.Float64()*2*limit - limit
}

// Forward computes y for inputs and caches inputs, x and y.
// inputs must not be modified until Commit has run for this example.
func (n *Neuron) Forward(inputs []float64) float64 {
	n.inputs = inputs
	n.x = floats.Dot(n.weights, inputs) - n.threshold
	n.y = n.act.Apply(n.x)
	return n.y
}

// CommitActivation finalizes y against the raw outputs of the whole layer.
// It must run after every neuron of the layer has completed Forward.
func (n *Neuron) CommitActivation(layerOutputs []float64) {
	n.y = n.act.Commit(n.y, layerOutputs)
}

// Backward computes the gradient error for the current example.
//
// index is this neuron's position in its layer and addresses the matching
// weight of every neuron in the next layer. layerOutputs is the raw output
// vector of this neuron's layer, used as derivative context.
func (n *Neuron) Backward(src Source, index int, layerOutputs []float64) {
	var err float64
	switch src.kind {
	case sourceDesired:
		err = src.desired - n.y
	case sourceNext:
		for _, next := range src.next.neurons {
			err += next.Effect(index)
		}
	default:
		return
	}
	n.gradientError = n.act.Derivative(n.x, layerOutputs) * err
}

// Commit applies the gradient error to the weights and the threshold.
// inputs must be the inputs that produced the current gradient error.
func (n *Neuron) Commit(inputs []float64, alpha float64) {
	floats.AddScaled(n.weights, alpha*n.gradientError, inputs)
	n.threshold += alpha * -1 * n.gradientError
}

// Predict evaluates the neuron without touching any cached state.
// It is safe to call concurrently with other Predict calls.
func (n *Neuron) Predict(inputs []float64) float64 {
	return n.act.Apply(floats.Dot(n.weights, inputs) - n.threshold)
}

// Effect is the share of this neuron's gradient error propagated back to
// the previous layer's neuron at index.
func (n *Neuron) Effect(index int) float64 {
	return n.gradientError * n.weights[index]
}

// Weights returns a copy of the weight vector.
func (n *Neuron) Weights() []float64 {
	return append([]float64(nil), n.weights...)
}

// Threshold returns the bias.
func (n *Neuron) Threshold() float64 { return n.threshold }

// X returns the cached pre-activation value.
func (n *Neuron) X() float64 { return n.x }

// Y returns the cached (committed) output.
func (n *Neuron) Y() float64 { return n.y }

// GradientError returns the gradient error of the last Backward call.
func (n *Neuron) GradientError() float64 { return n.gradientError }

// SetParameters replaces the weights and the threshold.
func (n *Neuron) SetParameters(weights []float64, threshold float64) error {
	if len(weights) != len(n.weights) {
		return fmt.Errorf("%w: neuron has %d weights, got %d", ErrShapeMismatch, len(n.weights), len(weights))
	}
	copy(n.weights, weights)
	n.threshold = threshold
	return nil
}

type sourceKind uint8

const (
	sourceNone sourceKind = iota
	sourceDesired
	sourceNext
)

// Source is where a neuron's backward error comes from: the desired output
// for output-layer neurons, or the already processed next layer for hidden
// neurons. The zero value is no source and makes Backward a no-op.
type Source struct {
	kind    sourceKind
	desired float64
	next    *Layer
}

// Desired returns a source for an output-layer neuron.
func Desired(y float64) Source {
	return Source{kind: sourceDesired, desired: y}
}

// Next returns a source for a hidden neuron. next must have finished its
// own Backward for the current example.
func Next(next *Layer) Source {
	if next == nil {
		return Source{}
	}
	return Source{kind: sourceNext, next: next}
}
