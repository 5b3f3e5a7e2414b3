package net

import "fmt"

// Sample is one labelled example.
type Sample struct {
	Inputs  []float64 `json:"inputs"`
	Desired []float64 `json:"desired"`
}

// Data holds the three dataset partitions. Membership is fixed once a
// network is built from it.
type Data struct {
	Training   []Sample
	Validation []Sample
	Testing    []Sample
}

// Partition names one of the three dataset partitions.
type Partition uint8

const (
	Training Partition = iota
	Validation
	Testing
)

func (p Partition) String() string {
	switch p {
	case Training:
		return "training"
	case Validation:
		return "validation"
	case Testing:
		return "testing"
	default:
		return fmt.Sprintf("Partition(%d)", p)
	}
}

// SamplesFromRows splits each row into the first inputs columns and the
// desired outputs in the remaining columns.
func SamplesFromRows(rows [][]float64, inputs int) ([]Sample, error) {
	samples := make([]Sample, len(rows))
	for i, row := range rows {
		if len(row) <= inputs {
			return nil, fmt.Errorf("%w: row %d has %d columns, need more than %d", ErrShapeMismatch, i, len(row), inputs)
		}
		samples[i] = Sample{
			Inputs:  append([]float64(nil), row[:inputs]...),
			Desired: append([]float64(nil), row[inputs:]...),
		}
	}
	return samples, nil
}

// DataFromRows builds the three partitions from raw rows.
func DataFromRows(training, validation, testing [][]float64, inputs int) (Data, error) {
	var d Data
	var err error
	if d.Training, err = SamplesFromRows(training, inputs); err != nil {
		return Data{}, fmt.Errorf("training data: %w", err)
	}
	if d.Validation, err = SamplesFromRows(validation, inputs); err != nil {
		return Data{}, fmt.Errorf("validation data: %w", err)
	}
	if d.Testing, err = SamplesFromRows(testing, inputs); err != nil {
		return Data{}, fmt.Errorf("testing data: %w", err)
	}
	return d, nil
}

func (d Data) partitions() [][]Sample {
	return [][]Sample{d.Training, d.Validation, d.Testing}
}

func cloneSamples(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	for i, s := range samples {
		out[i] = Sample{
			Inputs:  append([]float64(nil), s.Inputs...),
			Desired: append([]float64(nil), s.Desired...),
		}
	}
	return out
}
