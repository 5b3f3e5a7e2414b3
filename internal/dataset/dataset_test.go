// Package dataset provides unit tests for presets, splitting and grids.
package dataset

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestPresetsGenerate(t *testing.T) {
	counts := map[Preset]int{
		1: 2 * 10, 2: 2 * 10, 3: 3 * 10, 4: 6 * 5, 5: 6 * 10,
		6: 6 * 10, 7: 9 * 10, 8: 10 + 20, 9: 10 + 20 + 30, 10: 6 * 10,
	}
	require.Len(t, Presets(), NumPresets)

	for _, p := range Presets() {
		t.Run(p.String(), func(t *testing.T) {
			rows, err := p.Generate(10, 2, newRand())
			require.NoError(t, err)
			assert.Len(t, rows, counts[p])

			seen := make(map[int]bool)
			for _, row := range rows {
				require.Len(t, row, 2+p.Outputs())
				ones := 0
				for _, v := range row[2:] {
					if v == 1 {
						ones++
					} else {
						assert.Equal(t, 0.0, v)
					}
				}
				assert.Equal(t, 1, ones)
				seen[class(row[2:])] = true
			}
			assert.Len(t, seen, p.Outputs())
		})
	}
}

func TestPresetBounds(t *testing.T) {
	rows, err := Preset(1).Generate(50, 0, newRand())
	require.NoError(t, err)
	for _, row := range rows {
		assert.GreaterOrEqual(t, row[0], 10.0)
		assert.LessOrEqual(t, row[0], 90.0)
		if row[2] == 1 {
			assert.LessOrEqual(t, row[1], 40.0)
		} else {
			assert.GreaterOrEqual(t, row[1], 60.0)
		}
	}
}

func TestRingRadius(t *testing.T) {
	rows, err := Preset(8).Generate(50, 0, newRand())
	require.NoError(t, err)
	for _, row := range rows {
		r := math.Hypot(row[0]-50, row[1]-50)
		if row[2] == 1 {
			assert.LessOrEqual(t, r, 15.0+1e-9)
		} else {
			assert.GreaterOrEqual(t, r, 25.0-1e-9)
			assert.LessOrEqual(t, r, 30.0+1e-9)
		}
	}
}

func TestRingNoise(t *testing.T) {
	g := ring{center: 50, minRadius: 20, maxRadius: 20, minAngle: 0, maxAngle: 360}
	rng := newRand()
	radii := make(map[float64]int)
	for i := 0; i < 1000; i++ {
		x, y := g.point(rng, 5)
		radii[math.Round(math.Hypot(x-50, y-50))]++
	}
	assert.Len(t, radii, 3)
	assert.Greater(t, radii[20], radii[25])
	assert.Greater(t, radii[15], 0)
}

func TestPresetDeterministic(t *testing.T) {
	a, err := Preset(5).Generate(8, 1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	b, err := Preset(5).Generate(8, 1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPresetErrors(t *testing.T) {
	_, err := Preset(0).Generate(10, 0, newRand())
	assert.ErrorIs(t, err, ErrUnknownPreset)
	_, err = Preset(11).Generate(10, 0, newRand())
	assert.ErrorIs(t, err, ErrUnknownPreset)
	_, err = Preset(1).Generate(-1, 0, newRand())
	assert.Error(t, err)
	assert.Equal(t, 0, Preset(42).Outputs())
}

func TestPresetPartitions(t *testing.T) {
	training, validation, testing, err := Preset(1).Partitions(80, 0, newRand())
	require.NoError(t, err)
	// ceil(80*0.7)=56, ceil(80*0.15)=12, two groups each
	assert.Len(t, training, 112)
	assert.Len(t, validation, 24)
	assert.Len(t, testing, 24)

	_, _, _, err = Preset(99).Partitions(80, 0, newRand())
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestSplit(t *testing.T) {
	var rows [][]float64
	for i := 0; i < 20; i++ {
		rows = append(rows, []float64{float64(i), 0, 1, 0})
	}
	for i := 0; i < 10; i++ {
		rows = append(rows, []float64{float64(i), 1, 0, 1})
	}

	training, validation, testing, err := Split(rows, 2, newRand())
	require.NoError(t, err)

	// class 0: 14/3/3, class 1: 7/1/2
	assert.Len(t, training, 21)
	assert.Len(t, validation, 4)
	assert.Len(t, testing, 5)
	assert.Equal(t, []int{14, 7}, ClassCounts(training, 2, 2))
	assert.Equal(t, []int{3, 1}, ClassCounts(validation, 2, 2))
	assert.Equal(t, []int{3, 2}, ClassCounts(testing, 2, 2))

	_, _, _, err = Split([][]float64{{1, 2}}, 2, newRand())
	assert.Error(t, err)
}

func TestRescale(t *testing.T) {
	rows := [][]float64{{-1, 5, 1}, {1, 5, 0}, {0, 5, 1}}
	out := Rescale(rows, 2)
	assert.Equal(t, [][]float64{{0, 0, 1}, {100, 0, 0}, {50, 0, 1}}, out)
	assert.Equal(t, -1.0, rows[0][0])
}

func TestGrid(t *testing.T) {
	g := DefaultGrid()
	require.Len(t, g, GridSide*GridSide)
	assert.Equal(t, []float64{0, 0}, g[0])
	assert.Equal(t, []float64{0, 2}, g[1])
	assert.Equal(t, []float64{2, 0}, g[GridSide])
	assert.Equal(t, []float64{98, 98}, g[len(g)-1])
	assert.Nil(t, Grid(0, 1))
}

func TestChannel(t *testing.T) {
	outputs := [][]float64{{0.2, 0.8}, {0.6, 0.4}, {1}}
	assert.Equal(t, []float64{0.8, 0.4, 0}, Channel(outputs, 1))
}

func TestDescribe(t *testing.T) {
	rows := [][]float64{{1, 10, 0}, {3, 10, 1}}
	s := Describe(rows, 2)
	require.Len(t, s, 2)
	assert.InDelta(t, 2.0, s[0].Mean, 1e-12)
	assert.InDelta(t, math.Sqrt2, s[0].StdDev, 1e-12)
	assert.Equal(t, 1.0, s[0].Min)
	assert.Equal(t, 3.0, s[0].Max)
	assert.Equal(t, 0.0, s[1].StdDev)
	assert.Nil(t, Describe(nil, 2))
}
