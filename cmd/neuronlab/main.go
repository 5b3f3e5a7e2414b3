// Command neuronlab trains a network on a preset, a CSV file or a JSON
// settings file and prints the resulting metrics.
//
// Usage:
//
//	neuronlab -preset 8 -density 80 -noise 2
//	neuronlab -csv points.csv -header -rescale
//	neuronlab -config settings.json -json
//
// Ctrl-C stops training at the next epoch boundary and still prints the
// report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/NeuronLab/internal/dataset"
	"github.com/FlavioCFOliveira/NeuronLab/internal/net"
	"github.com/FlavioCFOliveira/NeuronLab/internal/opt"
)

// settings is the JSON settings file: the network configuration plus
// either explicit partitions or a preset.
type settings struct {
	net.Config
	TrainingData   [][]float64 `json:"trainingData"`
	ValidationData [][]float64 `json:"validationData"`
	TestingData    [][]float64 `json:"testingData"`
	Preset         int         `json:"preset"`
	Density        int         `json:"density"`
	Noise          float64     `json:"noise"`
}

func defaultSettings() settings {
	return settings{Config: net.DefaultConfig(), Preset: 8, Density: 80}
}

type options struct {
	config       string
	csvPath      string
	header       bool
	rescale      bool
	preset       int
	density      int
	noise        float64
	epochs       int
	desiredMSE   float64
	alpha        float64
	seed         int64
	logEvery     int
	csvLog       string
	heatmapEvery int
	patience     int
	plateau      int
	printParams  bool
	asJSON       bool
	verbose      bool
}

func main() {
	var o options
	flag.StringVar(&o.config, "config", "", "JSON settings file")
	flag.StringVar(&o.csvPath, "csv", "", "CSV file of input columns followed by one-hot label columns")
	flag.BoolVar(&o.header, "header", false, "CSV file has a header line")
	flag.BoolVar(&o.rescale, "rescale", false, "rescale CSV input columns to [0, 100]")
	flag.IntVar(&o.preset, "preset", 0, "built-in preset 1..10")
	flag.IntVar(&o.density, "density", 0, "preset density")
	flag.Float64Var(&o.noise, "noise", 0, "preset noise")
	flag.IntVar(&o.epochs, "epochs", 0, "maximum epochs")
	flag.Float64Var(&o.desiredMSE, "mse", 0, "stop once the training MSE is at or below this value")
	flag.Float64Var(&o.alpha, "alpha", 0, "learning rate")
	flag.Int64Var(&o.seed, "seed", 0, "random seed")
	flag.IntVar(&o.logEvery, "log-every", 100, "log every N epochs, 0 disables")
	flag.StringVar(&o.csvLog, "csv-log", "", "write per-epoch metrics to this CSV file")
	flag.IntVar(&o.heatmapEvery, "heatmap-every", 0, "sample the 50x50 heatmap grid every N epochs, 0 disables")
	flag.IntVar(&o.patience, "patience", 0, "stop after N epochs without validation improvement, 0 disables")
	flag.IntVar(&o.plateau, "plateau", 0, "halve alpha after N epochs without training improvement, 0 disables")
	flag.BoolVar(&o.printParams, "params", false, "print the trained parameters")
	flag.BoolVar(&o.asJSON, "json", false, "print the report as JSON")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, os.Stdout, logger); err != nil {
		logger.Error("neuronlab", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, out io.Writer, logger *slog.Logger) error {
	s, err := loadSettings(o.config)
	if err != nil {
		return err
	}
	applyFlags(&s, o)

	rng := rand.New(rand.NewSource(s.Seed))
	training, validation, testing, err := loadRows(&s, o, rng, logger)
	if err != nil {
		return err
	}
	for i, sum := range dataset.Describe(training, s.Inputs) {
		logger.Debug("feature", "index", i, "mean", sum.Mean, "std", sum.StdDev, "min", sum.Min, "max", sum.Max)
	}
	logger.Debug("classes", "training", dataset.ClassCounts(training, s.Inputs, s.OutputLayer.Neurons))

	data, err := net.DataFromRows(training, validation, testing, s.Inputs)
	if err != nil {
		return err
	}
	n, err := net.New(s.Config, data, rng)
	if err != nil {
		return err
	}

	tr := net.NewTrainer(n, net.WithLogger(logger), net.WithCallbacks(callbacks(o, logger)...))
	report, err := tr.Train(ctx, s.MaxEpochs, s.DesiredMSE)
	if err != nil {
		return err
	}
	return printReport(out, report, o)
}

func loadSettings(path string) (settings, error) {
	s := defaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return s, nil
}

// applyFlags overrides settings with the flags given on the command line.
func applyFlags(s *settings, o options) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "preset":
			s.Preset = o.preset
			s.TrainingData, s.ValidationData, s.TestingData = nil, nil, nil
		case "density":
			s.Density = o.density
		case "noise":
			s.Noise = o.noise
		case "epochs":
			s.MaxEpochs = o.epochs
		case "mse":
			s.DesiredMSE = o.desiredMSE
		case "alpha":
			s.Alpha = o.alpha
		case "seed":
			s.Seed = o.seed
		}
	})
}

// loadRows returns the raw partitions from, in order of precedence, a CSV
// file, explicit rows in the settings, or a preset. The input and output
// widths of s follow the data.
func loadRows(s *settings, o options, rng *rand.Rand, logger *slog.Logger) (training, validation, testing [][]float64, err error) {
	switch {
	case o.csvPath != "":
		table, err := net.LoadCSV(o.csvPath, o.header)
		if err != nil {
			return nil, nil, nil, err
		}
		if table.Dropped > 0 {
			logger.Warn("dropped non-numeric rows", "file", o.csvPath, "rows", table.Dropped)
		}
		if len(table.Rows) == 0 {
			return nil, nil, nil, fmt.Errorf("%s: no numeric rows", o.csvPath)
		}
		if width := len(table.Rows[0]) - s.Inputs; width > 0 {
			s.OutputLayer.Neurons = width
		}
		rows := table.Rows
		if o.rescale {
			rows = dataset.Rescale(rows, s.Inputs)
		}
		return dataset.Split(rows, s.Inputs, rng)

	case len(s.TrainingData) > 0:
		return s.TrainingData, s.ValidationData, s.TestingData, nil

	default:
		p := dataset.Preset(s.Preset)
		if !p.Valid() {
			return nil, nil, nil, fmt.Errorf("%w: %d", dataset.ErrUnknownPreset, s.Preset)
		}
		s.Inputs = 2
		s.OutputLayer.Neurons = p.Outputs()
		logger.Info("generating preset", "preset", s.Preset, "density", s.Density, "noise", s.Noise)
		return p.Partitions(s.Density, s.Noise, rng)
	}
}

func callbacks(o options, logger *slog.Logger) []net.Callback {
	var cbs []net.Callback
	if o.logEvery > 0 {
		cbs = append(cbs, net.Logger{Interval: o.logEvery})
	}
	if o.plateau > 0 {
		cbs = append(cbs, net.NewSchedulerCallback(opt.NewReduceLROnPlateau(0.5, o.plateau, 1e-4, 1e-4)))
	}
	if o.patience > 0 {
		es := net.NewEarlyStopping(o.patience, 0)
		es.Monitor = net.MonitorMSEValidation
		cbs = append(cbs, es)
	}
	if o.csvLog != "" {
		cbs = append(cbs, net.NewCSVLogger(o.csvLog, false))
	}
	if o.heatmapEvery > 0 {
		cbs = append(cbs, &net.Heatmap{
			Points:   dataset.DefaultGrid(),
			Interval: o.heatmapEvery,
			Sink: func(epoch int, outputs [][]float64) {
				field := dataset.Channel(outputs, 0)
				logger.Info("heatmap",
					"epoch", epoch,
					"points", len(field),
					"min", floats.Min(field),
					"max", floats.Max(field))
			},
		})
	}
	return cbs
}

func printReport(out io.Writer, report net.Report, o options) error {
	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if !o.printParams {
			report.Parameters = nil
		}
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "Stopped: %s after %d epochs (%s)\n", report.Reason, report.Epochs, report.Elapsed)
	fmt.Fprintf(out, "MSE: %.6f  validation MSE: %.6f\n", report.MSE, report.MSEValidation)
	fmt.Fprintf(out, "Cross-entropy loss: %.6f\n", report.CrossEntropyLoss)
	fmt.Fprintf(out, "Test accuracy: %.1f%% of %d\n", report.ConfusionMatrix.Accuracy()*100, report.ConfusionMatrix.Total())
	if report.ConfusionMatrix.Classes() > 0 {
		fmt.Fprintf(out, "Confusion matrix (rows true, columns predicted):\n  %v\n",
			mat.Formatted(report.ConfusionMatrix.Dense(), mat.Prefix("  ")))
	}

	if o.printParams {
		params, err := json.MarshalIndent(report.Parameters, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode parameters: %w", err)
		}
		fmt.Fprintf(out, "Parameters:\n%s\n", params)
	}
	return nil
}
