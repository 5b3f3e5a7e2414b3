package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/FlavioCFOliveira/NeuronLab/internal/activations"
	"github.com/FlavioCFOliveira/NeuronLab/internal/net"
)

func main() {
	fmt.Println("=== XOR Training Example ===")

	// XOR cannot be solved by a single-layer perceptron
	// but can be solved with one hidden layer
	cfg := net.Config{
		Inputs:       2,
		HiddenLayers: []net.LayerSpec{{Neurons: 4, Activation: activations.Tanh}},
		OutputLayer:  net.LayerSpec{Neurons: 1, Activation: activations.Sigmoid},
		Alpha:        0.3,
		MaxEpochs:    20000,
		DesiredMSE:   0.001,
		Seed:         42,
	}
	fmt.Printf("Network architecture: %v\n", cfg.Topology())
	fmt.Println("Activation functions: Tanh (hidden), Sigmoid (output)")
	fmt.Printf("Online gradient descent with learning rate %v\n", cfg.Alpha)

	rows := [][]float64{
		{0, 0, 0},
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	data, err := net.DataFromRows(rows, nil, nil, cfg.Inputs)
	if err != nil {
		fmt.Printf("Error preparing data: %v\n", err)
		return
	}

	n, err := net.New(cfg, data, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		fmt.Printf("Error creating network: %v\n", err)
		return
	}

	tr := net.NewTrainer(n, net.WithCallbacks(net.Logger{Interval: 2000}))
	report, err := tr.Train(context.Background(), cfg.MaxEpochs, cfg.DesiredMSE)
	if err != nil {
		fmt.Printf("Error training network: %v\n", err)
		return
	}
	fmt.Printf("\nStopped (%s) after %d epochs, MSE %.6f\n", report.Reason, report.Epochs, report.MSE)

	fmt.Println("\nTesting trained network:")
	for _, row := range rows {
		pred, err := tr.Predict(row[:2])
		if err != nil {
			fmt.Printf("Error predicting: %v\n", err)
			return
		}
		fmt.Printf("Input: %v, Predicted: %.4f, Target: %v\n", row[:2], pred[0], row[2])
	}

	// Load the exported parameters into a fresh network of the same shape
	fmt.Println("\nCopying parameters into a new network...")
	clone, err := net.New(cfg, data, rand.New(rand.NewSource(0)))
	if err != nil {
		fmt.Printf("Error creating network: %v\n", err)
		return
	}
	if err := clone.SetParameters(report.Parameters); err != nil {
		fmt.Printf("Error loading parameters: %v\n", err)
		return
	}

	allMatch := true
	for _, row := range rows {
		a, _ := tr.Predict(row[:2])
		b, _ := clone.Predict(row[:2])
		match := "OK"
		if a[0] != b[0] {
			match = "MISMATCH"
			allMatch = false
		}
		fmt.Printf("Input: %v, Original: %.4f, Copy: %.4f [%s]\n", row[:2], a[0], b[0], match)
	}

	if allMatch {
		fmt.Println("\nSUCCESS: All predictions match between original and copied network!")
	} else {
		fmt.Println("\nFAILURE: Predictions differ between original and copied network!")
	}
}
