package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/FlavioCFOliveira/NeuronLab/internal/activations"
	"github.com/FlavioCFOliveira/NeuronLab/internal/net"
)

// Regression examples: predicting continuous values with a linear output
// layer. Inputs are normalized by the network, targets are not.
func main() {
	rng := rand.New(rand.NewSource(42))

	fmt.Println("=== Regression Examples ===")

	fmt.Println("Example 1: Linear function y = 0.5x + 0.3")
	run(rng, 1, func(x []float64) float64 { return 0.5*x[0] + 0.3 })

	fmt.Println("\nExample 2: Non-linear function y = x²")
	run(rng, 1, func(x []float64) float64 { return x[0] * x[0] })

	fmt.Println("\nExample 3: Multi-input function z = x + y")
	run(rng, 2, func(x []float64) float64 { return x[0] + x[1] })
}

func run(rng *rand.Rand, inputs int, f func([]float64) float64) {
	cfg := net.Config{
		Inputs:       inputs,
		HiddenLayers: []net.LayerSpec{{Neurons: 8, Activation: activations.Tanh}},
		OutputLayer:  net.LayerSpec{Neurons: 1, Activation: activations.Linear},
		Alpha:        0.02,
	}

	data := net.Data{
		Training:   generate(rng, 100, inputs, f),
		Validation: generate(rng, 20, inputs, f),
		Testing:    generate(rng, 20, inputs, f),
	}
	n, err := net.New(cfg, data, rng)
	if err != nil {
		fmt.Printf("Error creating network: %v\n", err)
		return
	}

	tr := net.NewTrainer(n, net.WithCallbacks(net.Logger{Interval: 250}))
	report, err := tr.Train(context.Background(), 1000, 1e-4)
	if err != nil {
		fmt.Printf("Error training network: %v\n", err)
		return
	}
	fmt.Printf("Stopped (%s) after %d epochs, MSE %.6f, validation MSE %.6f\n",
		report.Reason, report.Epochs, report.MSE, report.MSEValidation)

	for i := 0; i < 5; i++ {
		x := make([]float64, inputs)
		for j := range x {
			x[j] = float64(i) / 4
		}
		pred, err := tr.Predict(x)
		if err != nil {
			fmt.Printf("Error predicting: %v\n", err)
			return
		}
		fmt.Printf("x=%v: predicted %.4f, expected %.4f\n", x, pred[0], f(x))
	}
}

// generate samples inputs uniformly in [-1, 1].
func generate(rng *rand.Rand, count, inputs int, f func([]float64) float64) []net.Sample {
	samples := make([]net.Sample, count)
	for i := range samples {
		x := make([]float64, inputs)
		for j := range x {
			x[j] = rng.Float64()*2 - 1
		}
		samples[i] = net.Sample{Inputs: x, Desired: []float64{f(x)}}
	}
	return samples
}
