// Package dataset generates and prepares the labelled 2D point sets the
// network is trained on.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrUnknownPreset is returned for a preset number outside 1..NumPresets.
var ErrUnknownPreset = errors.New("unknown preset")

// NumPresets is the number of built-in presets.
const NumPresets = 10

// Partition densities as shares of the requested density.
const (
	TrainingShare   = 0.7
	ValidationShare = 0.15
	TestingShare    = 0.15
)

// Preset identifies a built-in point layout over [0, 100]².
// Rows are x, y followed by a one-hot class vector.
type Preset int

// Presets returns every built-in preset in order.
func Presets() []Preset {
	p := make([]Preset, NumPresets)
	for i := range p {
		p[i] = Preset(i + 1)
	}
	return p
}

// Valid reports whether p is a built-in preset.
func (p Preset) Valid() bool { return p >= 1 && p <= NumPresets }

func (p Preset) String() string { return fmt.Sprintf("preset %d", int(p)) }

// Outputs returns the width of the one-hot class vector.
func (p Preset) Outputs() int {
	switch p {
	case 1, 2, 3, 4, 8:
		return 2
	case 5, 9:
		return 3
	case 6, 10:
		return 6
	case 7:
		return 9
	default:
		return 0
	}
}

// region draws one point.
type region interface {
	point(rng *rand.Rand, noise float64) (float64, float64)
}

// rect is an axis-aligned box.
type rect struct{ x1, y1, x2, y2 float64 }

func (r rect) point(rng *rand.Rand, _ float64) (float64, float64) {
	return between(rng, r.x1, r.x2), between(rng, r.y1, r.y2)
}

// ring is an annulus sector around (center, center), angles in degrees.
// Noise pushes 15% of the points outward and 15% inward.
type ring struct {
	center               float64
	minRadius, maxRadius float64
	minAngle, maxAngle   float64
}

func (r ring) point(rng *rand.Rand, noise float64) (float64, float64) {
	angle := between(rng, r.minAngle, r.maxAngle) * math.Pi / 180
	radius := between(rng, r.minRadius, r.maxRadius)
	switch u := rng.Float64(); {
	case u <= 0.15:
		radius += noise
	case u >= 0.85:
		radius -= noise
	}
	return r.center + radius*math.Cos(angle), r.center + radius*math.Sin(angle)
}

func between(rng *rand.Rand, min, max float64) float64 {
	return rng.Float64()*(max-min) + min
}

// group is a region labelled with one class. It contributes
// ceil(density * scale) points.
type group struct {
	region
	class int
	scale float64
}

func (g group) count(density int) int {
	return int(math.Ceil(float64(density) * g.scale))
}

func layout(p Preset, noise float64) []group {
	n := noise
	switch p {
	case 1:
		return []group{
			{rect{10, 10, 90, 40 + n}, 0, 1},
			{rect{10, 60 - n, 90, 90}, 1, 1},
		}
	case 2:
		return []group{
			{ring{0, 60, 62 + n, 10, 80}, 0, 1},
			{ring{0, 78 - n, 80, 10, 80}, 1, 1},
		}
	case 3:
		return []group{
			{ring{20, 30, 32, -10, 100}, 0, 1},
			{ring{20, 50, 52, -10, 100}, 1, 1},
			{ring{20, 70, 72, -10, 100}, 0, 1},
		}
	case 4, 5, 6:
		boxes := sixBoxes(n)
		classes := map[Preset][]int{
			4: {0, 1, 1, 0, 0, 1},
			5: {0, 1, 2, 0, 1, 2},
			6: {0, 1, 2, 3, 4, 5},
		}[p]
		scale := 1.0
		if p == 4 {
			scale = 0.5
		}
		groups := make([]group, len(boxes))
		for i, b := range boxes {
			groups[i] = group{b, classes[i], scale}
		}
		return groups
	case 7:
		var groups []group
		for row, y := range [][2]float64{{10, 30 + n}, {40, 60 + n}, {70, 90}} {
			for col, x := range [][2]float64{{10, 30 + n}, {40 - n, 60 + n}, {70 - n, 90}} {
				groups = append(groups, group{rect{x[0], y[0], x[1], y[1]}, row*3 + col, 1})
			}
		}
		return groups
	case 8:
		return []group{
			{ring{50, 0, 15, 0, 360}, 0, 1},
			{ring{50, 25, 30, 0, 360}, 1, 2},
		}
	case 9:
		return []group{
			{ring{50, 0, 15, 0, 360}, 0, 1},
			{ring{50, 25, 30, 0, 360}, 1, 2},
			{ring{50, 40, 45, 0, 360}, 2, 3},
		}
	case 10:
		return []group{
			{ring{10, 30, 32, 0, 90}, 0, 1},
			{ring{10, 40, 42, 0, 90}, 1, 1},
			{ring{90, 40, 42, 180, 270}, 2, 1},
			{ring{90, 30, 32, 180, 270}, 3, 1},
			{rect{60, 10, 90, 40}, 4, 1},
			{rect{10, 60, 40, 90}, 5, 1},
		}
	default:
		return nil
	}
}

// sixBoxes is the 2x3 box layout shared by presets 4 to 6, left column
// first, bottom row first.
func sixBoxes(n float64) []region {
	return []region{
		rect{10, 10, 40 + n, 25 + n},
		rect{60 - n, 10, 90, 25 + n},
		rect{10, 40, 40 + n, 55 + n},
		rect{60 - n, 40, 90, 55 + n},
		rect{10, 70, 40 + n, 85 + n},
		rect{60 - n, 70, 90, 85 + n},
	}
}

// Generate draws the points of p. density is the number of points per
// group before the group's scale is applied; noise widens the groups
// towards each other.
func (p Preset) Generate(density int, noise float64, rng *rand.Rand) ([][]float64, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPreset, int(p))
	}
	if density < 0 {
		return nil, fmt.Errorf("density must not be negative, got %d", density)
	}

	outputs := p.Outputs()
	var rows [][]float64
	for _, g := range layout(p, noise) {
		for i := 0; i < g.count(density); i++ {
			x, y := g.point(rng, noise)
			row := make([]float64, 2+outputs)
			row[0], row[1] = x, y
			row[2+g.class] = 1
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Partitions draws independent training, validation and testing sets with
// densities of 70%, 15% and 15% of density, rounded up.
func (p Preset) Partitions(density int, noise float64, rng *rand.Rand) (training, validation, testing [][]float64, err error) {
	shares := []float64{TrainingShare, ValidationShare, TestingShare}
	sets := make([][][]float64, len(shares))
	for i, share := range shares {
		d := int(math.Ceil(float64(density) * share))
		if sets[i], err = p.Generate(d, noise, rng); err != nil {
			return nil, nil, nil, err
		}
	}
	return sets[0], sets[1], sets[2], nil
}
