package net

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CSVLogger logs training progress to a CSV file.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool

	file   *os.File
	writer *csv.Writer
	start  time.Time
}

// NewCSVLogger creates a new CSVLogger.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

func (c *CSVLogger) OnTrainBegin(t *Trainer) {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0644)
	if err != nil {
		t.Logger().Error("csv logger: open", "file", c.Filename, "error", err)
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()

	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		c.writer.Write([]string{"epoch", "mse", "mse_validation", "alpha", "time_seconds"})
		c.writer.Flush()
		if err := c.writer.Error(); err != nil {
			t.Logger().Error("csv logger: write header", "file", c.Filename, "error", err)
		}
	}
}

func (c *CSVLogger) OnEpochEnd(t *Trainer, stats EpochStats) {
	if c.writer == nil {
		return
	}

	elapsed := time.Since(c.start).Seconds()
	record := []string{
		strconv.Itoa(stats.Epoch),
		strconv.FormatFloat(stats.MSE, 'g', -1, 64),
		strconv.FormatFloat(stats.MSEValidation, 'g', -1, 64),
		strconv.FormatFloat(stats.Alpha, 'g', -1, 64),
		fmt.Sprintf("%.2f", elapsed),
	}

	c.writer.Write(record)
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		t.Logger().Error("csv logger: write", "file", c.Filename, "error", err)
	}
}

func (c *CSVLogger) OnTrainEnd(t *Trainer, report Report) {
	if c.file != nil {
		c.writer.Flush()
		if err := c.file.Close(); err != nil {
			t.Logger().Error("csv logger: close", "file", c.Filename, "error", err)
		}
		c.file = nil
		c.writer = nil
	}
}
