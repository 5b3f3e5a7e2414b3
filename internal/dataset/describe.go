package dataset

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one column.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Describe summarizes the first columns of rows. It returns nil for no rows.
func Describe(rows [][]float64, columns int) []Summary {
	if len(rows) == 0 {
		return nil
	}
	summaries := make([]Summary, columns)
	col := make([]float64, len(rows))
	for j := range summaries {
		for i, row := range rows {
			col[i] = row[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		summaries[j] = Summary{Mean: mean, StdDev: std, Min: floats.Min(col), Max: floats.Max(col)}
	}
	return summaries
}

// ClassCounts counts rows per class, the index of the first label column
// equal to 1 after the first inputs columns. Rows without such a column are
// not counted.
func ClassCounts(rows [][]float64, inputs, outputs int) []int {
	counts := make([]int, outputs)
	for _, row := range rows {
		if len(row) <= inputs {
			continue
		}
		if c := class(row[inputs:]); c >= 0 && c < outputs {
			counts[c]++
		}
	}
	return counts
}
