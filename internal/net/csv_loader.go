package net

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Table is numeric data read from a CSV source.
type Table struct {
	Header  []string
	Rows    [][]float64
	Dropped int // rows discarded for a missing or non-numeric cell
}

// LoadCSV reads a CSV file. hasHeader skips the first line and keeps it as
// the header.
func LoadCSV(filename string, hasHeader bool) (*Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, hasHeader)
}

// ReadCSV reads numeric rows from r. A row with any empty, non-numeric or
// non-finite cell, or with fewer cells than the widest row, is dropped whole.
func ReadCSV(r io.Reader, hasHeader bool) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}

	t := &Table{}
	if hasHeader {
		t.Header = records[0]
		records = records[1:]
	}

	numCols := len(t.Header)
	for _, record := range records {
		numCols = max(numCols, len(record))
	}

	for _, record := range records {
		row, ok := parseRow(record, numCols)
		if !ok {
			t.Dropped++
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func parseRow(record []string, numCols int) ([]float64, bool) {
	if len(record) != numCols {
		return nil, false
	}
	row := make([]float64, len(record))
	for j, cell := range record {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			return nil, false
		}
		val, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, false
		}
		row[j] = val
	}
	return row, true
}
