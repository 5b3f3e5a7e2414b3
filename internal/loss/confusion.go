package loss

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ConfusionMatrix counts (true class, predicted class) pairs.
// Rows are true classes, columns are predicted classes.
type ConfusionMatrix [][]int

// NewConfusionMatrix returns an all-zero matrix for the given class count.
func NewConfusionMatrix(classes int) ConfusionMatrix {
	m := make(ConfusionMatrix, classes)
	for i := range m {
		m[i] = make([]int, classes)
	}
	return m
}

// Observe records one example from the network output and its one-hot
// desired vector.
func (m ConfusionMatrix) Observe(predicted, oneHot []float64) {
	m.Add(ArgMax(oneHot), ArgMax(predicted))
}

// Add increments the cell for the given pair.
func (m ConfusionMatrix) Add(trueClass, predictedClass int) {
	if trueClass < 0 || trueClass >= len(m) || predictedClass < 0 || predictedClass >= len(m) {
		panic(fmt.Sprintf("loss: class pair (%d, %d) outside %d classes", trueClass, predictedClass, len(m)))
	}
	m[trueClass][predictedClass]++
}

// Classes returns the number of classes.
func (m ConfusionMatrix) Classes() int { return len(m) }

// Total returns the number of recorded examples.
func (m ConfusionMatrix) Total() int {
	total := 0
	for _, row := range m {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// Accuracy returns the diagonal share of all examples, 0 when empty.
func (m ConfusionMatrix) Accuracy() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	correct := 0
	for i := range m {
		correct += m[i][i]
	}
	return float64(correct) / float64(total)
}

// Dense returns the counts as a gonum matrix.
func (m ConfusionMatrix) Dense() *mat.Dense {
	if len(m) == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(len(m), len(m), nil)
	for i, row := range m {
		for j, c := range row {
			d.Set(i, j, float64(c))
		}
	}
	return d
}
