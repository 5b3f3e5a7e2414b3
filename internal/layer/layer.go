// Package layer provides neurons and the fully connected layers built from them.
package layer

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/FlavioCFOliveira/NeuronLab/internal/activations"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrGradientSource is returned when Backward gets no usable error source.
	ErrGradientSource = errors.New("layer: missing gradient source")
	// ErrShapeMismatch is returned when a vector does not fit the layer.
	ErrShapeMismatch = errors.New("layer: shape mismatch")
)

// Role tells whether a layer is hidden or the output layer.
type Role uint8

const (
	Hidden Role = iota
	Output
)

func (r Role) String() string {
	switch r {
	case Hidden:
		return "hidden"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if r > Output {
		return nil, fmt.Errorf("unknown layer role %d", r)
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	switch string(text) {
	case "hidden":
		*r = Hidden
	case "output":
		*r = Output
	default:
		return fmt.Errorf("unknown layer role %q", text)
	}
	return nil
}

// Layer is an ordered set of neurons sharing one activation function.
// The neuron order is the index used by the next layer's weights.
//
// Per-neuron work in Forward, Backward and Commit is fanned out over
// goroutines; a Layer itself must not be used by two writers at once.
type Layer struct {
	role    Role
	act     activations.Function
	inputs  int
	neurons []*Neuron

	lastInputs  []float64
	rawOutputs  []float64
	lastOutputs []float64
}

// New creates a layer of width neurons, each taking inputs values.
func New(role Role, inputs, width int, act activations.Function, rng *rand.Rand) *Layer {
	if width < 1 {
		panic(fmt.Sprintf("layer: width must be positive, got %d", width))
	}
	neurons := make([]*Neuron, width)
	for i := range neurons {
		neurons[i] = NewNeuron(inputs, act, rng)
	}
	return &Layer{
		role:        role,
		act:         act,
		inputs:      inputs,
		neurons:     neurons,
		lastInputs:  make([]float64, inputs),
		rawOutputs:  make([]float64, width),
		lastOutputs: make([]float64, width),
	}
}

// Forward evaluates every neuron on inputs and returns the layer output.
// The returned slice is owned by the layer and is overwritten by the next
// Forward call.
func (l *Layer) Forward(inputs []float64) []float64 {
	if len(inputs) != l.inputs {
		panic(fmt.Sprintf("layer: forward got %d inputs, want %d", len(inputs), l.inputs))
	}
	copy(l.lastInputs, inputs)
	in := l.lastInputs

	parallelFor(len(l.neurons), func(i int) {
		l.rawOutputs[i] = l.neurons[i].Forward(in)
	})

	if l.act.LayerAware() {
		parallelFor(len(l.neurons), func(i int) {
			l.neurons[i].CommitActivation(l.rawOutputs)
			l.lastOutputs[i] = l.neurons[i].y
		})
	} else {
		copy(l.lastOutputs, l.rawOutputs)
	}
	return l.lastOutputs
}

// Backward computes the gradient error of every neuron for the example seen
// by the last Forward call.
//
// An output layer needs desired, one value per neuron. A hidden layer needs
// next, which must already have run its own Backward.
func (l *Layer) Backward(desired []float64, next *Layer) error {
	switch l.role {
	case Output:
		if len(desired) != len(l.neurons) {
			return fmt.Errorf("%w: %d desired values for %d neurons", ErrShapeMismatch, len(desired), len(l.neurons))
		}
		parallelFor(len(l.neurons), func(i int) {
			l.neurons[i].Backward(Desired(desired[i]), i, l.rawOutputs)
		})
	case Hidden:
		if next == nil {
			return fmt.Errorf("%w: hidden layer needs the next layer", ErrGradientSource)
		}
		if next.inputs != len(l.neurons) {
			return fmt.Errorf("%w: next layer takes %d inputs, layer has %d neurons", ErrShapeMismatch, next.inputs, len(l.neurons))
		}
		src := Next(next)
		parallelFor(len(l.neurons), func(i int) {
			l.neurons[i].Backward(src, i, l.rawOutputs)
		})
	default:
		return fmt.Errorf("%w: role %v", ErrGradientSource, l.role)
	}
	return nil
}

// Commit updates every neuron with the inputs cached by Forward.
func (l *Layer) Commit(alpha float64) {
	parallelFor(len(l.neurons), func(i int) {
		l.neurons[i].Commit(l.lastInputs, alpha)
	})
}

// Predict evaluates the layer without touching any cached state.
func (l *Layer) Predict(inputs []float64) []float64 {
	outputs := make([]float64, len(l.neurons))
	for i, n := range l.neurons {
		outputs[i] = n.Predict(inputs)
	}
	if l.act.LayerAware() {
		return activations.SoftmaxInto(outputs, outputs)
	}
	return outputs
}

// Role returns the layer role.
func (l *Layer) Role() Role { return l.role }

// Activation returns the activation shared by all neurons.
func (l *Layer) Activation() activations.Function { return l.act }

// Width returns the number of neurons.
func (l *Layer) Width() int { return len(l.neurons) }

// InputWidth returns the number of inputs each neuron takes.
func (l *Layer) InputWidth() int { return l.inputs }

// Neurons returns the neurons in index order.
func (l *Layer) Neurons() []*Neuron { return l.neurons }

// Outputs returns a copy of the outputs of the last Forward call.
func (l *Layer) Outputs() []float64 {
	return append([]float64(nil), l.lastOutputs...)
}

// NeuronParameters are the trainable values of one neuron.
type NeuronParameters struct {
	Weights   []float64 `json:"weights"`
	Threshold float64   `json:"threshold"`
}

// Parameters is the exported state of a layer.
type Parameters struct {
	Role       Role                 `json:"role"`
	Activation activations.Function `json:"activationFunction"`
	Neurons    []NeuronParameters   `json:"neurons"`
}

// Parameters exports a copy of every neuron's weights and threshold.
func (l *Layer) Parameters() Parameters {
	p := Parameters{
		Role:       l.role,
		Activation: l.act,
		Neurons:    make([]NeuronParameters, len(l.neurons)),
	}
	for i, n := range l.neurons {
		p.Neurons[i] = NeuronParameters{Weights: n.Weights(), Threshold: n.threshold}
	}
	return p
}

// SetParameters loads weights and thresholds exported by Parameters.
// Role and activation must match the layer.
func (l *Layer) SetParameters(p Parameters) error {
	if p.Role != l.role || p.Activation != l.act {
		return fmt.Errorf("%w: parameters for %v/%v layer, have %v/%v", ErrShapeMismatch, p.Role, p.Activation, l.role, l.act)
	}
	if len(p.Neurons) != len(l.neurons) {
		return fmt.Errorf("%w: %d neurons, got %d", ErrShapeMismatch, len(l.neurons), len(p.Neurons))
	}
	for i, np := range p.Neurons {
		if err := l.neurons[i].SetParameters(np.Weights, np.Threshold); err != nil {
			return fmt.Errorf("neuron %d: %w", i, err)
		}
	}
	return nil
}

// WeightMatrix returns the weights as a width x inputs matrix, one row per
// neuron.
func (l *Layer) WeightMatrix() *mat.Dense {
	data := make([]float64, 0, len(l.neurons)*l.inputs)
	for _, n := range l.neurons {
		data = append(data, n.weights...)
	}
	return mat.NewDense(len(l.neurons), l.inputs, data)
}

// Thresholds returns the bias of every neuron in index order.
func (l *Layer) Thresholds() []float64 {
	t := make([]float64, len(l.neurons))
	for i, n := range l.neurons {
		t[i] = n.threshold
	}
	return t
}
