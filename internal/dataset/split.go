package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// validationCut is where validation ends, TrainingShare+ValidationShare
// written out so the sum does not round below 0.85.
const validationCut = 0.85

// Split partitions labelled rows into training, validation and testing sets
// of roughly 70%, 15% and 15%. Rows are grouped by class, the index of the
// first label column equal to 1 after the first inputs columns, and each
// class is shuffled and cut separately so every partition keeps the class
// balance. Classes appear in order of first occurrence. Rows are shared,
// not copied.
func Split(rows [][]float64, inputs int, rng *rand.Rand) (training, validation, testing [][]float64, err error) {
	var order []int
	byClass := make(map[int][][]float64)
	for i, row := range rows {
		if len(row) <= inputs {
			return nil, nil, nil, fmt.Errorf("row %d has %d columns, need more than %d", i, len(row), inputs)
		}
		c := class(row[inputs:])
		if _, ok := byClass[c]; !ok {
			order = append(order, c)
		}
		byClass[c] = append(byClass[c], row)
	}

	for _, c := range order {
		d := byClass[c]
		rng.Shuffle(len(d), func(i, j int) { d[i], d[j] = d[j], d[i] })
		a := int(math.Floor(float64(len(d)) * TrainingShare))
		b := int(math.Floor(float64(len(d)) * validationCut))
		training = append(training, d[:a]...)
		validation = append(validation, d[a:b]...)
		testing = append(testing, d[b:]...)
	}
	return training, validation, testing, nil
}

func class(labels []float64) int {
	for i, v := range labels {
		if v == 1 {
			return i
		}
	}
	return -1
}

// Rescale maps each of the first columns of rows linearly onto [0, 100]
// using the column's min and max. A constant column maps to 0. The
// remaining columns are copied unchanged.
func Rescale(rows [][]float64, columns int) [][]float64 {
	lo := make([]float64, columns)
	hi := make([]float64, columns)
	for j := range lo {
		lo[j], hi[j] = math.Inf(1), math.Inf(-1)
	}
	for _, row := range rows {
		for j := 0; j < columns && j < len(row); j++ {
			lo[j] = math.Min(lo[j], row[j])
			hi[j] = math.Max(hi[j], row[j])
		}
	}

	out := make([][]float64, len(rows))
	for i, row := range rows {
		r := append([]float64(nil), row...)
		for j := 0; j < columns && j < len(r); j++ {
			if hi[j] == lo[j] {
				r[j] = 0
				continue
			}
			r[j] = (r[j] - lo[j]) / (hi[j] - lo[j]) * 100
		}
		out[i] = r
	}
	return out
}
