// Package loss provides the per-example error measures and the
// classification metrics computed over a trained network.
package loss

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SquaredError returns sum((desired - predicted)^2) over the output vector.
// The network averages it over examples to get the MSE.
func SquaredError(predicted, desired []float64) float64 {
	if len(predicted) != len(desired) {
		panic("loss: prediction and target must have same length")
	}

	var sum float64
	for i, p := range predicted {
		diff := desired[i] - p
		sum += diff * diff
	}
	return sum
}

// CrossEntropy returns -ln(p) of the class marked 1 in the one-hot vector.
//
// predicted is expected to be a probability distribution. There is no
// clipping: a zero probability for the true class yields +Inf.
func CrossEntropy(predicted, oneHot []float64) float64 {
	if len(predicted) != len(oneHot) {
		panic("loss: prediction and target must have same length")
	}

	var sum float64
	for i, target := range oneHot {
		if target == 1 {
			sum -= math.Log(predicted[i])
		}
	}
	return sum
}

// ArgMax returns the index of the largest value, the first one on ties, or
// -1 for an empty vector.
func ArgMax(v []float64) int {
	if len(v) == 0 {
		return -1
	}
	return floats.MaxIdx(v)
}
