package lstm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// ErrTrainingFailure reports a non-finite training loss.
var ErrTrainingFailure = errors.New("training failure")

// TrainConfig parameterizes one training run.
type TrainConfig struct {
	Hidden       int
	LearningRate float64
	Epochs       int
	Seed         int64 // 0 seeds from the clock
}

// Report summarizes a completed training run.
type Report struct {
	Epochs    int
	Samples   int
	Losses    []float64
	FinalLoss float64
	Elapsed   time.Duration
}

// Trainer runs full-batch gradient descent with Adam on a fresh network.
type Trainer struct {
	cfg   TrainConfig
	net   *Network
	grads *Network
	opt   *adam
	log   zerolog.Logger
}

// NewTrainer creates a Trainer with randomly initialized weights.
func NewTrainer(cfg TrainConfig, logger zerolog.Logger) *Trainer {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	net := NewNetwork(cfg.Hidden, rand.New(rand.NewSource(seed)))
	return &Trainer{
		cfg:   cfg,
		net:   net,
		grads: newZeroNetwork(cfg.Hidden),
		opt:   newAdam(cfg.LearningRate, net.tensors()),
		log:   logger,
	}
}

// Fit trains on xs/ys for the configured number of epochs. It fails with
// ErrTrainingFailure as soon as the loss stops being finite.
func (t *Trainer) Fit(ctx context.Context, xs [][]float64, ys []float64) (Report, error) {
	report := Report{Samples: len(xs)}
	if len(xs) == 0 || len(xs) != len(ys) {
		return report, fmt.Errorf("fit: %d windows for %d labels", len(xs), len(ys))
	}
	start := time.Now()
	tr := newTrace(len(xs[0]), t.cfg.Hidden)
	s := newScratch(t.cfg.Hidden)

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		t.grads.zero()
		loss := t.net.accumulate(xs, ys, t.grads, tr, s)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return report, fmt.Errorf("%w: loss %v at epoch %d", ErrTrainingFailure, loss, epoch)
		}
		t.opt.step(t.net.tensors(), t.grads.tensors())

		report.Epochs = epoch
		report.Losses = append(report.Losses, loss)
		report.FinalLoss = loss
		if epoch%5 == 0 {
			t.log.Debug().Int("epoch", epoch).Float64("loss", loss).Msg("training")
		}
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

// Predictor freezes the current weights into an inference-only model.
func (t *Trainer) Predictor() *Predictor {
	return &Predictor{net: t.net.clone()}
}
