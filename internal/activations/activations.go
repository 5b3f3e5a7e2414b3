// Package activations provides the closed set of activation functions used by
// the network layers, together with the derivatives backpropagation needs.
package activations

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Function is an activation function.
// The set is closed: every method switches over all variants.
type Function uint8

const (
	Linear Function = iota
	Sigmoid
	ReLU
	LeakyReLU
	Tanh
	Softmax
)

// LeakySlope is the LeakyReLU slope for negative inputs.
const LeakySlope = 0.01

var names = [...]string{
	Linear:    "linear",
	Sigmoid:   "sigmoid",
	ReLU:      "relu",
	LeakyReLU: "leakyRelu",
	Tanh:      "tanh",
	Softmax:   "softmax",
}

// All returns every activation function in declaration order.
func All() []Function {
	return []Function{Linear, Sigmoid, ReLU, LeakyReLU, Tanh, Softmax}
}

// Apply computes f(x). Softmax is the identity here; the layer-wide
// normalization happens in Commit.
func (f Function) Apply(x float64) float64 {
	switch f {
	case Linear, Softmax:
		return x
	case Sigmoid:
		return sigmoid(x)
	case ReLU:
		return math.Max(0, x)
	case LeakyReLU:
		if x < 0 {
			return LeakySlope * x
		}
		return x
	case Tanh:
		return math.Tanh(x)
	default:
		panic(fmt.Sprintf("activations: unknown function %d", f))
	}
}

// Commit finalizes a raw output once every neuron of the layer has been
// evaluated. outputs holds the raw outputs of the whole layer.
// Only Softmax differs from Apply.
func (f Function) Commit(x float64, outputs []float64) float64 {
	if f != Softmax {
		return f.Apply(x)
	}
	return softmax(x, outputs)
}

// Derivative returns the local gradient factor at pre-activation x.
//
// For Softmax this is the diagonal term s*(1-s) of the Jacobian only; the
// cross terms -s_i*s_j are ignored.
func (f Function) Derivative(x float64, outputs []float64) float64 {
	switch f {
	case Linear:
		return 1
	case Sigmoid:
		s := sigmoid(x)
		return s * (1 - s)
	case ReLU:
		if x < 0 {
			return 0
		}
		return 1
	case LeakyReLU:
		if x < 0 {
			return LeakySlope
		}
		return 1
	case Tanh:
		t := math.Tanh(x)
		return 1 - t*t
	case Softmax:
		s := softmax(x, outputs)
		return s * (1 - s)
	default:
		panic(fmt.Sprintf("activations: unknown function %d", f))
	}
}

// LayerAware reports whether Commit depends on the rest of the layer.
func (f Function) LayerAware() bool {
	return f == Softmax
}

// Valid reports whether f is one of the declared functions.
func (f Function) Valid() bool {
	return int(f) < len(names)
}

func (f Function) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Function(%d)", f)
	}
	return names[f]
}

// Parse returns the function with the given configuration name.
func Parse(name string) (Function, error) {
	for i, n := range names {
		if n == name {
			return Function(i), nil
		}
	}
	return 0, fmt.Errorf("unknown activation function %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (f Function) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("unknown activation function %d", f)
	}
	return []byte(names[f]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Function) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// softmax normalizes x against outputs with the max-subtraction trick.
// An empty context is treated as a single-element layer.
func softmax(x float64, outputs []float64) float64 {
	if len(outputs) == 0 {
		return 1
	}
	maxVal := floats.Max(outputs)
	sum := 0.0
	for _, o := range outputs {
		sum += math.Exp(o - maxVal)
	}
	return math.Exp(x-maxVal) / sum
}

// SoftmaxInto writes softmax(raw) into dst and returns dst.
// dst may alias raw.
func SoftmaxInto(dst, raw []float64) []float64 {
	if len(raw) == 0 {
		return dst[:0]
	}
	maxVal := floats.Max(raw)
	sum := 0.0
	for i, v := range raw {
		dst[i] = math.Exp(v - maxVal)
		sum += dst[i]
	}
	floats.Scale(1/sum, dst[:len(raw)])
	return dst[:len(raw)]
}
