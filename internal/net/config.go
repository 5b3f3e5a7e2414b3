package net

import (
	"errors"
	"fmt"
	"math"

	"github.com/FlavioCFOliveira/NeuronLab/internal/activations"
)

var (
	// ErrInvalidConfig is returned when a network cannot be built from a Config.
	ErrInvalidConfig = errors.New("invalid network configuration")
	// ErrShapeMismatch is returned when a vector does not fit the topology.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrTraining is returned by Train when another Train call is running.
	ErrTraining = errors.New("training already in progress")
)

// LayerSpec describes one layer: its width and activation function.
type LayerSpec struct {
	Neurons    int                  `json:"neuronsCount"`
	Activation activations.Function `json:"activationFunction"`
}

// Config is everything needed to build a network and drive its training.
type Config struct {
	Inputs       int         `json:"inputsCount"`
	HiddenLayers []LayerSpec `json:"hiddenLayers"`
	OutputLayer  LayerSpec   `json:"outputLayer"`
	Alpha        float64     `json:"alpha"`
	MaxEpochs    int         `json:"maxEpochs"`
	DesiredMSE   float64     `json:"desiredMse"`
	Seed         int64       `json:"seed"`
}

// DefaultConfig returns the configuration of the network a Trainer starts
// with before any Reset.
func DefaultConfig() Config {
	return Config{
		Inputs: 2,
		HiddenLayers: []LayerSpec{
			{Neurons: 8, Activation: activations.ReLU},
			{Neurons: 4, Activation: activations.ReLU},
		},
		OutputLayer: LayerSpec{Neurons: 2, Activation: activations.Softmax},
		Alpha:       0.1,
		MaxEpochs:   1000,
		DesiredMSE:  0.01,
		Seed:        1,
	}
}

// Topology returns the layer widths, input width first.
func (c Config) Topology() []int {
	t := make([]int, 0, len(c.HiddenLayers)+2)
	t = append(t, c.Inputs)
	for _, h := range c.HiddenLayers {
		t = append(t, h.Neurons)
	}
	return append(t, c.OutputLayer.Neurons)
}

// Validate reports the first configuration error, wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	if c.Inputs < 1 {
		return fmt.Errorf("%w: input width must be positive, got %d", ErrInvalidConfig, c.Inputs)
	}
	for i, h := range c.HiddenLayers {
		if err := h.validate(); err != nil {
			return fmt.Errorf("%w: hidden layer %d: %v", ErrInvalidConfig, i, err)
		}
	}
	if err := c.OutputLayer.validate(); err != nil {
		return fmt.Errorf("%w: output layer: %v", ErrInvalidConfig, err)
	}
	if c.Alpha <= 0 || math.IsNaN(c.Alpha) || math.IsInf(c.Alpha, 0) {
		return fmt.Errorf("%w: learning rate must be positive and finite, got %v", ErrInvalidConfig, c.Alpha)
	}
	if c.MaxEpochs < 0 {
		return fmt.Errorf("%w: max epochs must not be negative, got %d", ErrInvalidConfig, c.MaxEpochs)
	}
	return nil
}

func (s LayerSpec) validate() error {
	if s.Neurons < 1 {
		return fmt.Errorf("width must be positive, got %d", s.Neurons)
	}
	if !s.Activation.Valid() {
		return fmt.Errorf("unknown activation %v", s.Activation)
	}
	return nil
}
