package net

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/FlavioCFOliveira/NeuronLab/internal/activations"
	"github.com/FlavioCFOliveira/NeuronLab/internal/opt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newQuadrantNetwork(t testing.TB) *Network {
	t.Helper()
	n, err := New(DefaultConfig(), quadrantData(), rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	return n
}

// recorder captures every callback invocation.
type recorder struct {
	BaseCallback
	begun  int
	epochs []EpochStats
	report *Report

	onEpoch func(t *Trainer, stats EpochStats)
}

func (r *recorder) OnTrainBegin(t *Trainer) { r.begun++ }

func (r *recorder) OnEpochEnd(t *Trainer, stats EpochStats) {
	r.epochs = append(r.epochs, stats)
	if r.onEpoch != nil {
		r.onEpoch(t, stats)
	}
}

func (r *recorder) OnTrainEnd(t *Trainer, report Report) { r.report = &report }

func TestNewTrainerDefault(t *testing.T) {
	tr := NewTrainer(nil, WithLogger(nil))
	assert.NotNil(t, tr.Logger())
	assert.False(t, tr.Learning())

	out, err := tr.Predict([]float64{0.5, 0.5})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	report := tr.Report()
	assert.Equal(t, 0, report.ConfusionMatrix.Total())
	assert.Len(t, report.Parameters, 3)
}

func TestTrainConverges(t *testing.T) {
	rec := &recorder{}
	tr := NewTrainer(newOR(t), WithLogger(quietLogger()), WithCallbacks(rec))

	report, err := tr.Train(context.Background(), 5000, 0.02)
	require.NoError(t, err)

	assert.Equal(t, StopConverged, report.Reason)
	assert.LessOrEqual(t, report.MSE, 0.02)
	assert.Less(t, report.Epochs, 5000)
	assert.Len(t, rec.epochs, report.Epochs)
	assert.Equal(t, 1, rec.begun)
	require.NotNil(t, rec.report)
	assert.Equal(t, report, *rec.report)
	assert.False(t, tr.Learning())
}

func TestTrainReLUHiddenLayerConverges(t *testing.T) {
	cfg := Config{
		Inputs:       2,
		HiddenLayers: []LayerSpec{{Neurons: 4, Activation: activations.ReLU}},
		OutputLayer:  LayerSpec{Neurons: 1, Activation: activations.Sigmoid},
		Alpha:        0.5,
	}
	n, err := New(cfg, Data{Training: orSamples()}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	tr := NewTrainer(n, WithLogger(quietLogger()))

	report, err := tr.Train(context.Background(), 500, -1)
	require.NoError(t, err)
	assert.Equal(t, StopExhausted, report.Reason)
	assert.Equal(t, 500, report.Epochs)
	assert.Less(t, report.MSE, 0.05)
}

func TestTrainExhausted(t *testing.T) {
	rec := &recorder{}
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()), WithCallbacks(rec))

	report, err := tr.Train(context.Background(), 3, 0)
	require.NoError(t, err)

	assert.Equal(t, StopExhausted, report.Reason)
	assert.Equal(t, 3, report.Epochs)
	require.Len(t, rec.epochs, 3)
	for i, stats := range rec.epochs {
		assert.Equal(t, i, stats.Epoch)
		assert.Equal(t, 0.1, stats.Alpha)
	}
	assert.Equal(t, rec.epochs[2].MSE, report.MSE)
	assert.Equal(t, rec.epochs[2].MSEValidation, report.MSEValidation)
	assert.Equal(t, len(quadrantData().Testing), report.ConfusionMatrix.Total())
}

func TestTrainZeroEpochs(t *testing.T) {
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()))
	before := tr.Report().Parameters

	report, err := tr.Train(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, StopExhausted, report.Reason)
	assert.Equal(t, 0, report.Epochs)
	assert.Equal(t, before, report.Parameters)

	_, err = tr.Train(context.Background(), -1, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// TestStopBetweenEpochs stops from inside the loop and checks that the
// parameters are exactly those of a network trained for the same number of
// whole epochs.
func TestStopBetweenEpochs(t *testing.T) {
	rec := &recorder{onEpoch: func(t *Trainer, stats EpochStats) {
		if stats.Epoch == 2 {
			t.Stop()
			t.Stop()
		}
	}}
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()), WithCallbacks(rec))

	report, err := tr.Train(context.Background(), 100, 0)
	require.NoError(t, err)
	assert.Equal(t, StopRequested, report.Reason)
	assert.Equal(t, 3, report.Epochs)

	replay := newQuadrantNetwork(t)
	for i := 0; i < 3; i++ {
		replay.Epoch()
	}
	assert.Equal(t, replay.Parameters(), report.Parameters)
}

func TestStopFromAnotherGoroutine(t *testing.T) {
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()))

	done := make(chan Report)
	go func() {
		report, err := tr.Train(context.Background(), 1<<30, 0)
		assert.NoError(t, err)
		done <- report
	}()

	require.Eventually(t, tr.Learning, time.Second, time.Millisecond)

	// queries interleave with training
	_, err := tr.Predict([]float64{1, 1})
	require.NoError(t, err)

	tr.Stop()
	select {
	case report := <-done:
		assert.Equal(t, StopRequested, report.Reason)
		assert.Greater(t, report.Epochs, 0)
	case <-time.After(5 * time.Second):
		t.Fatal("training did not stop")
	}
	assert.False(t, tr.Learning())
}

func TestStopWhenIdle(t *testing.T) {
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()))
	tr.Stop()

	report, err := tr.Train(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, StopExhausted, report.Reason)
	assert.Equal(t, 2, report.Epochs)
}

func TestTrainCanceled(t *testing.T) {
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := tr.Train(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, StopCanceled, report.Reason)
	assert.Equal(t, 0, report.Epochs)

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	rec := &recorder{onEpoch: func(t *Trainer, stats EpochStats) {
		if stats.Epoch == 1 {
			cancel()
		}
	}}
	tr = NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()), WithCallbacks(rec))
	report, err = tr.Train(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, StopCanceled, report.Reason)
	assert.Equal(t, 2, report.Epochs)
}

func TestTrainRejectsConcurrentTrain(t *testing.T) {
	var nested error
	rec := &recorder{onEpoch: func(t *Trainer, stats EpochStats) {
		_, nested = t.Train(context.Background(), 1, 0)
	}}
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()), WithCallbacks(rec))

	_, err := tr.Train(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrTraining)
}

func TestResetDuringTraining(t *testing.T) {
	cfg := orConfig()
	var resetErr error
	rec := &recorder{onEpoch: func(tr *Trainer, stats EpochStats) {
		if stats.Epoch == 0 {
			resetErr = tr.Reset(cfg, Data{Training: orSamples()}, rand.New(rand.NewSource(1)))
		}
	}}
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()), WithCallbacks(rec))

	report, err := tr.Train(context.Background(), 50, 0)
	require.NoError(t, err)
	require.NoError(t, resetErr)
	assert.Equal(t, StopRequested, report.Reason)
	assert.Equal(t, 1, report.Epochs)

	var topology []int
	tr.View(func(n *Network) { topology = n.Topology() })
	assert.Equal(t, []int{2, 3, 1}, topology)
}

func TestResetLeavesFreshNetwork(t *testing.T) {
	data := Data{Training: orSamples()}
	fresh, err := New(orConfig(), data, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	want := fresh.Parameters()

	for trial := 0; trial < 200; trial++ {
		started := make(chan struct{})
		var once sync.Once
		rec := &recorder{onEpoch: func(*Trainer, EpochStats) { once.Do(func() { close(started) }) }}
		tr := NewTrainer(newOR(t), WithLogger(quietLogger()), WithCallbacks(rec))

		done := make(chan struct{})
		go func() {
			defer close(done)
			tr.Train(context.Background(), 1<<30, -1)
		}()
		<-started

		require.NoError(t, tr.Reset(orConfig(), data, rand.New(rand.NewSource(99))))
		<-done
		require.Equal(t, want, tr.Report().Parameters, "trial %d", trial)
	}
}

func TestResetKeepsNetworkOnError(t *testing.T) {
	tr := NewTrainer(nil, WithLogger(quietLogger()))
	before := tr.Report().Parameters

	cfg := DefaultConfig()
	cfg.Alpha = -1
	err := tr.Reset(cfg, Data{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, before, tr.Report().Parameters)
}

func TestConcurrentPredictDuringTraining(t *testing.T) {
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := tr.Train(ctx, 1<<30, 0)
		assert.NoError(t, err)
	}()

	for i := 0; i < 50; i++ {
		out, err := tr.Predict([]float64{float64(i), -float64(i)})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, out[0]+out[1], 1e-9)
	}
	cancel()
	wg.Wait()
}

func TestLoggerCallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(logger), WithCallbacks(Logger{Interval: 2}))

	_, err := tr.Train(context.Background(), 5, 0)
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, `"msg":"epoch"`))
	assert.Contains(t, out, `"msg":"training started"`)
	assert.Contains(t, out, `"reason":"exhausted"`)
}

func TestEarlyStopping(t *testing.T) {
	// no improvement can beat a threshold this large after the first epoch
	es := NewEarlyStopping(1, 1e9)
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()), WithCallbacks(es))

	report, err := tr.Train(context.Background(), 100, 0)
	require.NoError(t, err)
	assert.True(t, es.Stopped)
	assert.Equal(t, StopRequested, report.Reason)
	assert.Equal(t, 2, report.Epochs)

	// state resets for the next run
	report, err = tr.Train(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.False(t, es.Stopped)
	assert.Equal(t, 1, report.Epochs)
}

func TestEarlyStoppingMonitorsValidation(t *testing.T) {
	es := NewEarlyStopping(3, 0)
	es.Monitor = MonitorMSEValidation
	assert.Equal(t, MonitorMSEValidation, es.monitor())
	assert.Equal(t, MonitorMSE, NewEarlyStopping(1, 0).monitor())
	assert.Equal(t, 2.0, monitored(MonitorMSEValidation, EpochStats{MSE: 1, MSEValidation: 2}))
	assert.Equal(t, 1.0, monitored("", EpochStats{MSE: 1, MSEValidation: 2}))
}

func TestSchedulerCallback(t *testing.T) {
	rec := &recorder{}
	sched := NewSchedulerCallback(opt.NewExponentialLR(0.5))
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()), WithCallbacks(sched, rec))

	_, err := tr.Train(context.Background(), 3, 0)
	require.NoError(t, err)

	require.Len(t, rec.epochs, 3)
	assert.InDelta(t, 0.1, rec.epochs[0].Alpha, 1e-12)
	assert.InDelta(t, 0.05, rec.epochs[1].Alpha, 1e-12)
	assert.InDelta(t, 0.025, rec.epochs[2].Alpha, 1e-12)

	var alpha float64
	tr.View(func(n *Network) { alpha = n.LearningRate() })
	assert.InDelta(t, 0.0125, alpha, 1e-12)
}

func TestCheckpoint(t *testing.T) {
	cp := NewCheckpoint()
	rec := &recorder{}
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()), WithCallbacks(cp, rec))

	_, err := tr.Train(context.Background(), 10, 0)
	require.NoError(t, err)

	require.GreaterOrEqual(t, cp.BestEpoch, 0)
	require.NotNil(t, cp.Best)
	best := rec.epochs[cp.BestEpoch].MSEValidation
	for _, stats := range rec.epochs {
		assert.GreaterOrEqual(t, stats.MSEValidation, best)
	}

	n := newQuadrantNetwork(t)
	require.NoError(t, n.SetParameters(cp.Best))
	assert.InDelta(t, best, n.MSE(Validation), 1e-12)
}

func TestCheckpointSkipsNaN(t *testing.T) {
	cp := NewCheckpoint()
	cp.Monitor = MonitorMSE
	tr := NewTrainer(newOR(t), WithLogger(quietLogger()))

	cp.OnTrainBegin(tr)
	cp.OnEpochEnd(tr, EpochStats{Epoch: 0, MSE: 0.3})
	require.Equal(t, 0, cp.BestEpoch)
	want := cp.Best[0].Neurons[0].Weights[0]

	cp.OnEpochEnd(tr, EpochStats{Epoch: 1, MSE: math.NaN()})
	tr.Update(func(n *Network) {
		params := n.Parameters()
		params[0].Neurons[0].Weights[0] = 999
		require.NoError(t, n.SetParameters(params))
	})
	cp.OnEpochEnd(tr, EpochStats{Epoch: 2, MSE: 0.5})

	assert.Equal(t, 0, cp.BestEpoch)
	assert.Equal(t, want, cp.Best[0].Neurons[0].Weights[0])
}

func TestCheckpointResetsOnTrainBegin(t *testing.T) {
	cp := NewCheckpoint()
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()), WithCallbacks(cp))

	cp.OnEpochEnd(tr, EpochStats{Epoch: 7, MSEValidation: 0})
	require.Equal(t, 7, cp.BestEpoch)

	_, err := tr.Train(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cp.BestEpoch, 0)
	assert.Less(t, cp.BestEpoch, 3)
}

func TestHeatmapCallback(t *testing.T) {
	points := [][]float64{{-5, -5}, {-5, 5}, {5, -5}, {5, 5}}
	var epochs []int
	hm := &Heatmap{
		Points:   points,
		Interval: 2,
		Sink: func(epoch int, outputs [][]float64) {
			epochs = append(epochs, epoch)
			require.Len(t, outputs, len(points))
			for _, out := range outputs {
				assert.Len(t, out, 2)
			}
		},
	}
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()), WithCallbacks(hm))

	_, err := tr.Train(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4, 5}, epochs)
}

func TestHeatmapShapeError(t *testing.T) {
	var buf bytes.Buffer
	called := false
	hm := &Heatmap{
		Points:   [][]float64{{1}},
		Interval: 1,
		Sink:     func(int, [][]float64) { called = true },
	}
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))), WithCallbacks(hm))

	_, err := tr.Train(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Contains(t, buf.String(), "heatmap")
}

func TestCSVLogger(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "training.csv")
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()), WithCallbacks(NewCSVLogger(filename, false)))

	_, err := tr.Train(context.Background(), 3, 0)
	require.NoError(t, err)

	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, []string{"epoch", "mse", "mse_validation", "alpha", "time_seconds"}, records[0])
	assert.Equal(t, "0", records[1][0])
	assert.Equal(t, "2", records[3][0])
	assert.Equal(t, "0.1", records[1][3])
}

func TestCSVLoggerAppend(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "training.csv")
	logger := NewCSVLogger(filename, true)
	tr := NewTrainer(newQuadrantNetwork(t), WithLogger(quietLogger()), WithCallbacks(logger))

	for i := 0; i < 2; i++ {
		_, err := tr.Train(context.Background(), 2, 0)
		require.NoError(t, err)
	}

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 5)
	assert.Equal(t, 1, strings.Count(string(data), "epoch,"))
}

func TestCSVLoggerOpenError(t *testing.T) {
	var buf bytes.Buffer
	filename := filepath.Join(t.TempDir(), "missing", "training.csv")
	tr := NewTrainer(newQuadrantNetwork(t),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithCallbacks(NewCSVLogger(filename, false)))

	_, err := tr.Train(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "csv logger: open")
}

func TestCSVLoggerWriteError(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	var buf bytes.Buffer
	tr := NewTrainer(newQuadrantNetwork(t),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithCallbacks(NewCSVLogger("/dev/full", false)))

	_, err := tr.Train(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "csv logger: write header")
}

func TestStopReasonString(t *testing.T) {
	assert.Equal(t, "converged", StopConverged.String())
	assert.Equal(t, "StopReason(9)", StopReason(9).String())
	text, err := StopCanceled.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "canceled", string(text))
}

func TestTrainerSoftmaxReport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputLayer.Activation = activations.Softmax
	tr := NewTrainer(nil, WithLogger(quietLogger()))
	require.NoError(t, tr.Reset(cfg, quadrantData(), rand.New(rand.NewSource(2))))

	report, err := tr.Train(context.Background(), 30, 0)
	require.NoError(t, err)
	assert.Greater(t, report.CrossEntropyLoss, 0.0)
	assert.Equal(t, 12, report.ConfusionMatrix.Total())
	assert.Greater(t, report.Elapsed, time.Duration(0))
}
