package main

import (
	"context"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/NeuronLab/internal/activations"
	"github.com/FlavioCFOliveira/NeuronLab/internal/dataset"
	"github.com/FlavioCFOliveira/NeuronLab/internal/loss"
	"github.com/FlavioCFOliveira/NeuronLab/internal/net"
	"github.com/FlavioCFOliveira/NeuronLab/internal/opt"
)

// Iris dataset: 3 classes (Setosa, Versicolor, Virginica)
// Each sample has 4 features (sepal length, sepal width, petal length, petal width)
func main() {
	fmt.Println("Training Iris classifier (4-8-6-3 network)...")

	rng := rand.New(rand.NewSource(42))
	rows := generateIrisData(rng)
	training, validation, testing, err := dataset.Split(rows, 4, rng)
	if err != nil {
		fmt.Printf("Error splitting data: %v\n", err)
		return
	}
	data, err := net.DataFromRows(training, validation, testing, 4)
	if err != nil {
		fmt.Printf("Error preparing data: %v\n", err)
		return
	}

	cfg := net.Config{
		Inputs: 4,
		HiddenLayers: []net.LayerSpec{
			{Neurons: 8, Activation: activations.ReLU},
			{Neurons: 6, Activation: activations.ReLU},
		},
		OutputLayer: net.LayerSpec{Neurons: 3, Activation: activations.Softmax},
		Alpha:       0.05,
	}
	n, err := net.New(cfg, data, rng)
	if err != nil {
		fmt.Printf("Error creating network: %v\n", err)
		return
	}

	es := net.NewEarlyStopping(100, 1e-5)
	es.Monitor = net.MonitorMSEValidation
	tr := net.NewTrainer(n, net.WithCallbacks(
		net.Logger{Interval: 200},
		net.NewSchedulerCallback(opt.NewStepLR(500, 0.5)),
		es,
	))

	report, err := tr.Train(context.Background(), 2000, 0.005)
	if err != nil {
		fmt.Printf("Error training network: %v\n", err)
		return
	}

	fmt.Printf("\nStopped (%s) after %d epochs\n", report.Reason, report.Epochs)
	fmt.Printf("Cross-entropy loss: %.4f\n", report.CrossEntropyLoss)
	fmt.Printf("Test accuracy: %.1f%%\n", report.ConfusionMatrix.Accuracy()*100)
	fmt.Printf("Confusion matrix:\n%v\n", mat.Formatted(report.ConfusionMatrix.Dense()))

	fmt.Println("\nSample predictions:")
	for i := 0; i < 10; i++ {
		pred, err := tr.Predict(rows[i*9][:4])
		if err != nil {
			fmt.Printf("Error predicting: %v\n", err)
			return
		}
		fmt.Printf("Sample %d: Predicted=%d, Actual=%d\n", i*9, loss.ArgMax(pred), loss.ArgMax(rows[i*9][4:]))
	}
}

func generateIrisData(rng *rand.Rand) [][]float64 {
	// Simplified Iris data around the mean values of each class
	// Class 0: Setosa (sepal length 5.0, sepal width 3.4, petal length 1.5, petal width 0.2)
	// Class 1: Versicolor (sepal length 5.9, sepal width 2.8, petal length 4.3, petal width 1.3)
	// Class 2: Virginica (sepal length 6.6, sepal width 3.0, petal length 5.6, petal width 2.0)
	means := [][]float64{
		{5.0, 3.4, 1.5, 0.2},
		{5.9, 2.8, 4.3, 1.3},
		{6.6, 3.0, 5.6, 2.0},
	}
	noise := []float64{0.2, 0.25, 0.25}

	rows := make([][]float64, 0, 90)
	for class, mean := range means {
		for i := 0; i < 30; i++ {
			row := addNoise(rng, mean, noise[class])
			row = append(row, oneHot(class, 3)...)
			rows = append(rows, row)
		}
	}
	return rows
}

func addNoise(rng *rand.Rand, sample []float64, noise float64) []float64 {
	result := make([]float64, len(sample))
	for i, v := range sample {
		result[i] = v + (rng.Float64()*2-1)*noise
	}
	return result
}

func oneHot(idx, size int) []float64 {
	result := make([]float64, size)
	result[idx] = 1.0
	return result
}
