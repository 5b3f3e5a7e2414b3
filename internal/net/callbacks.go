package net

import (
	"math"

	"github.com/FlavioCFOliveira/NeuronLab/internal/layer"
	"github.com/FlavioCFOliveira/NeuronLab/internal/opt"
)

// Callback observes a Train call. Callbacks run on the training goroutine
// with no lock held, so they may call Stop, View and Update.
type Callback interface {
	OnTrainBegin(t *Trainer)
	OnEpochEnd(t *Trainer, stats EpochStats)
	OnTrainEnd(t *Trainer, report Report)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(t *Trainer)                 {}
func (c BaseCallback) OnEpochEnd(t *Trainer, stats EpochStats) {}
func (c BaseCallback) OnTrainEnd(t *Trainer, report Report)    {}

// Monitored metrics.
const (
	MonitorMSE           = "mse"
	MonitorMSEValidation = "mseValidation"
)

func monitored(monitor string, stats EpochStats) float64 {
	if monitor == MonitorMSEValidation {
		return stats.MSEValidation
	}
	return stats.MSE
}

// SchedulerCallback applies a learning rate schedule after every epoch.
type SchedulerCallback struct {
	BaseCallback
	Monitor string // MonitorMSE (default) or MonitorMSEValidation

	scheduler opt.Scheduler
}

func NewSchedulerCallback(scheduler opt.Scheduler) *SchedulerCallback {
	return &SchedulerCallback{scheduler: scheduler}
}

func (c *SchedulerCallback) OnEpochEnd(t *Trainer, stats EpochStats) {
	t.Update(func(n *Network) {
		before := n.LearningRate()
		after := opt.Apply(c.scheduler, n, monitored(c.Monitor, stats))
		if after != before {
			t.Logger().Debug("learning rate changed", "epoch", stats.Epoch, "from", before, "to", after)
		}
	})
}

// EarlyStopping stops training when a monitored metric has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64
	Monitor   string // MonitorMSE (default) or MonitorMSEValidation

	best         float64
	numBadEpochs int
	Stopped      bool
}

func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		best:      math.Inf(1),
	}
}

func (c *EarlyStopping) OnTrainBegin(t *Trainer) {
	c.best = math.Inf(1)
	c.numBadEpochs = 0
	c.Stopped = false
}

func (c *EarlyStopping) OnEpochEnd(t *Trainer, stats EpochStats) {
	value := monitored(c.Monitor, stats)
	if value < c.best-c.Threshold {
		c.best = value
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if !c.Stopped && c.numBadEpochs >= c.Patience {
		t.Logger().Info("early stopping",
			"epoch", stats.Epoch,
			"monitor", c.monitor(),
			"value", value,
			"patience", c.Patience)
		c.Stopped = true
		t.Stop()
	}
}

func (c *EarlyStopping) monitor() string {
	if c.Monitor == "" {
		return MonitorMSE
	}
	return c.Monitor
}

// Checkpoint keeps an in-memory copy of the parameters from the epoch with
// the lowest monitored MSE.
type Checkpoint struct {
	BaseCallback
	Monitor string // MonitorMSEValidation (default) or MonitorMSE

	Best      []layer.Parameters
	BestEpoch int
	bestValue float64
}

func NewCheckpoint() *Checkpoint {
	return &Checkpoint{Monitor: MonitorMSEValidation, BestEpoch: -1, bestValue: math.Inf(1)}
}

func (c *Checkpoint) OnTrainBegin(t *Trainer) {
	c.Best = nil
	c.BestEpoch = -1
	c.bestValue = math.Inf(1)
}

func (c *Checkpoint) OnEpochEnd(t *Trainer, stats EpochStats) {
	value := monitored(c.Monitor, stats)
	if math.IsNaN(value) || value >= c.bestValue {
		return
	}
	c.bestValue = value
	c.BestEpoch = stats.Epoch
	t.View(func(n *Network) { c.Best = n.Parameters() })
	t.Logger().Debug("checkpoint", "epoch", stats.Epoch, "value", value)
}

// Logger logs training progress every Interval epochs.
type Logger struct {
	BaseCallback
	Interval int
}

func (c Logger) OnEpochEnd(t *Trainer, stats EpochStats) {
	if c.Interval > 0 && stats.Epoch%c.Interval == 0 {
		t.Logger().Info("epoch",
			"epoch", stats.Epoch,
			"mse", stats.MSE,
			"mse_validation", stats.MSEValidation,
			"alpha", stats.Alpha)
	}
}

// Heatmap evaluates the network over a fixed grid of raw input points every
// Interval epochs and at the end of training, and hands the outputs to Sink.
type Heatmap struct {
	BaseCallback
	Points   [][]float64
	Interval int
	Sink     func(epoch int, outputs [][]float64)
}

func (c *Heatmap) OnEpochEnd(t *Trainer, stats EpochStats) {
	if c.Interval > 0 && stats.Epoch%c.Interval == 0 {
		c.emit(t, stats.Epoch)
	}
}

func (c *Heatmap) OnTrainEnd(t *Trainer, report Report) {
	c.emit(t, report.Epochs)
}

func (c *Heatmap) emit(t *Trainer, epoch int) {
	if c.Sink == nil || len(c.Points) == 0 {
		return
	}
	var (
		outputs [][]float64
		err     error
	)
	t.View(func(n *Network) { outputs, err = n.PredictBatch(c.Points) })
	if err != nil {
		t.Logger().Error("heatmap", "epoch", epoch, "error", err)
		return
	}
	c.Sink(epoch, outputs)
}
