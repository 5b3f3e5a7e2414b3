package net

import "math"

// Range is the observed (min, max) of one input feature.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Normalize rescales x to [0, 1] over the range. A degenerate range maps
// everything to 0.
func (r Range) Normalize(x float64) float64 {
	if r.Max == r.Min {
		return 0
	}
	return (x - r.Min) / (r.Max - r.Min)
}

// featureRanges computes per-feature ranges over the union of all
// partitions. A feature never observed gets the identity range (0, 1).
func featureRanges(width int, partitions ...[]Sample) []Range {
	ranges := make([]Range, width)
	for i := range ranges {
		ranges[i] = Range{Min: math.Inf(1), Max: math.Inf(-1)}
	}
	for _, p := range partitions {
		for _, s := range p {
			for i, x := range s.Inputs {
				ranges[i].Min = math.Min(ranges[i].Min, x)
				ranges[i].Max = math.Max(ranges[i].Max, x)
			}
		}
	}
	for i := range ranges {
		if ranges[i].Min > ranges[i].Max {
			ranges[i] = Range{Min: 0, Max: 1}
		}
	}
	return ranges
}

// normalizeInPlace rescales every sample's inputs.
func normalizeInPlace(ranges []Range, samples []Sample) {
	for _, s := range samples {
		for i := range s.Inputs {
			s.Inputs[i] = ranges[i].Normalize(s.Inputs[i])
		}
	}
}

// normalized returns a rescaled copy of inputs.
func normalized(ranges []Range, inputs []float64) []float64 {
	out := make([]float64, len(inputs))
	for i, x := range inputs {
		out[i] = ranges[i].Normalize(x)
	}
	return out
}
