package dataset

// Heatmap grid used by the training view: 50x50 points, 2 apart.
const (
	GridSide = 50
	GridStep = 2.0
)

// Grid returns side*side points (i*step, j*step), i outer and j inner.
func Grid(side int, step float64) [][]float64 {
	if side <= 0 {
		return nil
	}
	points := make([][]float64, 0, side*side)
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			points = append(points, []float64{float64(i) * step, float64(j) * step})
		}
	}
	return points
}

// DefaultGrid returns Grid(GridSide, GridStep).
func DefaultGrid() [][]float64 {
	return Grid(GridSide, GridStep)
}

// Channel extracts output k of every grid point, the scalar field a
// heatmap draws for class k.
func Channel(outputs [][]float64, k int) []float64 {
	field := make([]float64, len(outputs))
	for i, out := range outputs {
		if k < len(out) {
			field[i] = out[k]
		}
	}
	return field
}
