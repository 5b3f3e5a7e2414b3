// Package neuronlab re-exports the types and constructors a caller needs to
// build, train and query a network.
package neuronlab

import (
	"log/slog"
	"math/rand"

	"github.com/FlavioCFOliveira/NeuronLab/internal/activations"
	"github.com/FlavioCFOliveira/NeuronLab/internal/dataset"
	"github.com/FlavioCFOliveira/NeuronLab/internal/layer"
	"github.com/FlavioCFOliveira/NeuronLab/internal/loss"
	"github.com/FlavioCFOliveira/NeuronLab/internal/net"
	"github.com/FlavioCFOliveira/NeuronLab/internal/opt"
)

// Re-export common types for easier access
type (
	Network         = net.Network
	Trainer         = net.Trainer
	Config          = net.Config
	LayerSpec       = net.LayerSpec
	Sample          = net.Sample
	Data            = net.Data
	Report          = net.Report
	EpochStats      = net.EpochStats
	StopReason      = net.StopReason
	Option          = net.Option
	Callback        = net.Callback
	Activation      = activations.Function
	Parameters      = layer.Parameters
	ConfusionMatrix = loss.ConfusionMatrix
	Preset          = dataset.Preset
)

// Activations
const (
	Linear    = activations.Linear
	Sigmoid   = activations.Sigmoid
	ReLU      = activations.ReLU
	LeakyReLU = activations.LeakyReLU
	Tanh      = activations.Tanh
	Softmax   = activations.Softmax
)

// Stop reasons
const (
	StopExhausted = net.StopExhausted
	StopConverged = net.StopConverged
	StopRequested = net.StopRequested
	StopCanceled  = net.StopCanceled
)

// Errors
var (
	ErrInvalidConfig = net.ErrInvalidConfig
	ErrShapeMismatch = net.ErrShapeMismatch
	ErrTraining      = net.ErrTraining
)

// Network creation
func New(cfg Config, data Data, rng *rand.Rand) (*Network, error) {
	return net.New(cfg, data, rng)
}

func Default() *Network {
	return net.Default()
}

func DefaultConfig() Config {
	return net.DefaultConfig()
}

func NewTrainer(n *Network, opts ...Option) *Trainer {
	return net.NewTrainer(n, opts...)
}

func WithLogger(logger *slog.Logger) Option {
	return net.WithLogger(logger)
}

func WithCallbacks(callbacks ...Callback) Option {
	return net.WithCallbacks(callbacks...)
}

// Data
func SamplesFromRows(rows [][]float64, inputs int) ([]Sample, error) {
	return net.SamplesFromRows(rows, inputs)
}

func DataFromRows(training, validation, testing [][]float64, inputs int) (Data, error) {
	return net.DataFromRows(training, validation, testing, inputs)
}

func LoadCSV(filename string, hasHeader bool) (*net.Table, error) {
	return net.LoadCSV(filename, hasHeader)
}

// PresetData draws the three partitions of a built-in preset.
func PresetData(p Preset, density int, noise float64, rng *rand.Rand) (Data, error) {
	training, validation, testing, err := p.Partitions(density, noise, rng)
	if err != nil {
		return Data{}, err
	}
	return net.DataFromRows(training, validation, testing, 2)
}

// Callbacks
func Logger(interval int) net.Logger {
	return net.Logger{Interval: interval}
}

func CSVLogger(filename string, append bool) net.Callback {
	return net.NewCSVLogger(filename, append)
}

func Checkpoint() *net.Checkpoint {
	return net.NewCheckpoint()
}

func EarlyStopping(patience int, threshold float64) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, threshold)
}

func SchedulerCallback(scheduler opt.Scheduler) net.Callback {
	return net.NewSchedulerCallback(scheduler)
}

// Heatmap samples the default 50x50 grid every interval epochs.
func Heatmap(interval int, sink func(epoch int, outputs [][]float64)) net.Callback {
	return &net.Heatmap{Points: dataset.DefaultGrid(), Interval: interval, Sink: sink}
}

// Schedulers
func StepLR(stepSize int, gamma float64) opt.Scheduler {
	return opt.NewStepLR(stepSize, gamma)
}

func ExponentialLR(gamma float64) opt.Scheduler {
	return opt.NewExponentialLR(gamma)
}

func ReduceLROnPlateau(factor float64, patience int, threshold, minLR float64) *opt.ReduceLROnPlateau {
	return opt.NewReduceLROnPlateau(factor, patience, threshold, minLR)
}
