// Package opt provides learning rate schedules for the online gradient
// descent used by the network.
package opt

import "math"

// LearningRater is anything whose learning rate can be scheduled.
type LearningRater interface {
	LearningRate() float64
	SetLearningRate(alpha float64)
}

// Scheduler adjusts a learning rate once per epoch.
type Scheduler interface {
	// Step returns the rate for the next epoch given the current rate and
	// the loss of the epoch that just ended.
	Step(lr, loss float64) float64
}

// Apply runs one scheduler step against target.
func Apply(s Scheduler, target LearningRater, loss float64) float64 {
	lr := s.Step(target.LearningRate(), loss)
	target.SetLearningRate(lr)
	return lr
}

// StepLR decays the learning rate by Gamma every StepSize epochs.
type StepLR struct {
	StepSize int
	Gamma    float64

	lastEpoch int
}

func NewStepLR(stepSize int, gamma float64) *StepLR {
	return &StepLR{StepSize: stepSize, Gamma: gamma}
}

func (s *StepLR) Step(lr, _ float64) float64 {
	s.lastEpoch++
	if s.StepSize > 0 && s.lastEpoch%s.StepSize == 0 {
		return lr * s.Gamma
	}
	return lr
}

// ExponentialLR decays the learning rate by Gamma every epoch.
type ExponentialLR struct {
	Gamma float64
}

func NewExponentialLR(gamma float64) *ExponentialLR {
	return &ExponentialLR{Gamma: gamma}
}

func (s *ExponentialLR) Step(lr, _ float64) float64 {
	return lr * s.Gamma
}

// ReduceLROnPlateau reduces the learning rate by Factor when the loss has
// not improved by more than Threshold for Patience epochs.
type ReduceLROnPlateau struct {
	Factor    float64
	Patience  int
	Threshold float64
	Cooldown  int
	MinLR     float64

	bestLoss        float64
	numBadEpochs    int
	cooldownCounter int
}

func NewReduceLROnPlateau(factor float64, patience int, threshold, minLR float64) *ReduceLROnPlateau {
	return &ReduceLROnPlateau{
		Factor:    factor,
		Patience:  patience,
		Threshold: threshold,
		MinLR:     minLR,
		bestLoss:  math.Inf(1),
	}
}

func (s *ReduceLROnPlateau) Step(lr, loss float64) float64 {
	if s.cooldownCounter > 0 {
		s.cooldownCounter--
		return lr
	}

	if loss < s.bestLoss-s.Threshold {
		s.bestLoss = loss
		s.numBadEpochs = 0
	} else {
		s.numBadEpochs++
	}

	if s.numBadEpochs < s.Patience {
		return lr
	}
	s.numBadEpochs = 0
	s.cooldownCounter = s.Cooldown
	return math.Max(lr*s.Factor, s.MinLR)
}
