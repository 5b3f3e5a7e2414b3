package net

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FlavioCFOliveira/NeuronLab/internal/layer"
	"github.com/FlavioCFOliveira/NeuronLab/internal/loss"
)

// StopReason tells why a Train call returned.
type StopReason uint8

const (
	// StopExhausted means the epoch budget was used up.
	StopExhausted StopReason = iota
	// StopConverged means the training MSE reached the desired value.
	StopConverged
	// StopRequested means Stop or Reset was called.
	StopRequested
	// StopCanceled means the context was done.
	StopCanceled
)

func (r StopReason) String() string {
	switch r {
	case StopExhausted:
		return "exhausted"
	case StopConverged:
		return "converged"
	case StopRequested:
		return "requested"
	case StopCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("StopReason(%d)", r)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r StopReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// EpochStats is published after every epoch.
type EpochStats struct {
	Epoch         int     `json:"epoch"`
	MSE           float64 `json:"mse"`
	MSEValidation float64 `json:"mseValidation"`
	Alpha         float64 `json:"alpha"`
}

// Report is published when training stops.
type Report struct {
	Epochs           int                  `json:"epochs"`
	MSE              float64              `json:"mse"`
	MSEValidation    float64              `json:"mseValidation"`
	Reason           StopReason           `json:"reason"`
	ConfusionMatrix  loss.ConfusionMatrix `json:"confusionMatrix"`
	CrossEntropyLoss float64              `json:"crossEntropyLoss"`
	Parameters       []layer.Parameters   `json:"parameters"`
	Elapsed          time.Duration        `json:"elapsed"`
}

// Trainer owns a network and serializes access to it: an epoch holds the
// write lock for its whole duration, queries take the read lock between
// epochs. Stop is cooperative and observed at the next epoch boundary.
type Trainer struct {
	mu  sync.RWMutex
	net *Network

	running      atomic.Bool
	keepTraining atomic.Bool

	callbacks []Callback
	logger    *slog.Logger
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trainer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithCallbacks registers training callbacks, called in order.
func WithCallbacks(callbacks ...Callback) Option {
	return func(t *Trainer) { t.callbacks = append(t.callbacks, callbacks...) }
}

// NewTrainer returns a trainer for n, or for the Default network if n is nil.
func NewTrainer(n *Network, opts ...Option) *Trainer {
	if n == nil {
		n = Default()
	}
	t := &Trainer{net: n, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Reset replaces the network with one built from cfg and data. Training in
// progress stops at its next epoch boundary. On error the current network
// is kept.
func (t *Trainer) Reset(cfg Config, data Data, rng *rand.Rand) error {
	n, err := New(cfg, data, rng)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	t.mu.Lock()
	t.keepTraining.Store(false)
	t.net = n
	t.mu.Unlock()

	t.logger.Debug("network reset",
		"topology", n.Topology(),
		"alpha", cfg.Alpha,
		"training", len(n.training),
		"validation", len(n.validation),
		"testing", len(n.testing))
	return nil
}

// Train runs up to maxEpochs epochs and returns the final report. It stops
// early when the training MSE is at or below desiredMSE, when Stop is
// called, or when ctx is done; all are checked between epochs only.
// Stopping is not an error.
func (t *Trainer) Train(ctx context.Context, maxEpochs int, desiredMSE float64) (Report, error) {
	if maxEpochs < 0 {
		return Report{}, fmt.Errorf("%w: max epochs must not be negative, got %d", ErrInvalidConfig, maxEpochs)
	}
	// running and keepTraining flip together under the write lock, so a Stop
	// issued once Learning reports true is never lost.
	t.mu.Lock()
	if t.running.Load() {
		t.mu.Unlock()
		return Report{}, ErrTraining
	}
	t.keepTraining.Store(true)
	t.running.Store(true)
	t.mu.Unlock()
	defer func() {
		t.keepTraining.Store(false)
		t.running.Store(false)
	}()

	start := time.Now()
	t.logger.Info("training started", "max_epochs", maxEpochs, "desired_mse", desiredMSE)
	for _, cb := range t.callbacks {
		cb.OnTrainBegin(t)
	}

	reason := StopExhausted
	epochs := 0
	for epoch := 0; epoch < maxEpochs; epoch++ {
		// Reset clears keepTraining under the write lock; check it under the same lock.
		t.mu.Lock()
		if !t.keepTraining.Load() {
			t.mu.Unlock()
			reason = StopRequested
			break
		}
		if ctx.Err() != nil {
			t.mu.Unlock()
			reason = StopCanceled
			break
		}
		mse, mseValidation := t.net.Epoch()
		alpha := t.net.LearningRate()
		t.mu.Unlock()
		epochs = epoch + 1

		stats := EpochStats{Epoch: epoch, MSE: mse, MSEValidation: mseValidation, Alpha: alpha}
		for _, cb := range t.callbacks {
			cb.OnEpochEnd(t, stats)
		}

		if mse <= desiredMSE {
			reason = StopConverged
			break
		}
	}

	report := t.report(reason, epochs)
	report.Elapsed = time.Since(start)
	t.logger.Info("training stopped",
		"reason", reason,
		"epochs", epochs,
		"mse", report.MSE,
		"mse_validation", report.MSEValidation,
		"cross_entropy", report.CrossEntropyLoss,
		"elapsed", report.Elapsed)
	for _, cb := range t.callbacks {
		cb.OnTrainEnd(t, report)
	}
	return report, nil
}

// Stop asks a running Train to return at the next epoch boundary. It waits
// for an in-flight epoch to finish. Calling it when idle, or twice, is a
// no-op.
func (t *Trainer) Stop() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.keepTraining.Store(false)
}

// Learning reports whether a Train call is running.
func (t *Trainer) Learning() bool {
	return t.running.Load()
}

// Predict evaluates the current network on raw inputs.
func (t *Trainer) Predict(inputs []float64) ([]float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.net.Predict(inputs)
}

// Report computes the metrics of the current network. Epochs and Reason
// are left at their zero values.
func (t *Trainer) Report() Report {
	return t.report(StopExhausted, 0)
}

func (t *Trainer) report(reason StopReason, epochs int) Report {
	t.mu.RLock()
	defer t.mu.RUnlock()
	mse, mseValidation := t.net.LastMSE()
	return Report{
		Epochs:           epochs,
		MSE:              mse,
		MSEValidation:    mseValidation,
		Reason:           reason,
		ConfusionMatrix:  t.net.ConfusionMatrix(),
		CrossEntropyLoss: t.net.CrossEntropyLoss(),
		Parameters:       t.net.Parameters(),
	}
}

// View calls fn with the network under the read lock. fn must not modify
// the network or keep it after returning.
func (t *Trainer) View(fn func(n *Network)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn(t.net)
}

// Update calls fn with the network under the write lock, between epochs.
func (t *Trainer) Update(fn func(n *Network)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.net)
}

// Logger returns the trainer's logger.
func (t *Trainer) Logger() *slog.Logger {
	return t.logger
}
