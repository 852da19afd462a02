// Package trainer runs the candidate comparison at the heart of bikedemand:
// it splits the data, standardises with statistics from the training
// partition only, fits every candidate, scores both partitions and selects
// the best model by test R².
//
// A Trainer is single use and moves through three phases:
//
//	Uninitialized ─TrainAndEvaluate─▶ Trained ─selection─▶ Selected
//
// Best, Predict and Importance fail with NotFittedError until the run has
// reached Selected. A failed run leaves the Trainer Uninitialized.
package trainer

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/bikedemand/metrics"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/pkg/log"
	"github.com/ezoic/bikedemand/preprocessing"
	"github.com/ezoic/bikedemand/sklearn/model_selection"
)

// Phase is the lifecycle state of a Trainer.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseTrained
	PhaseSelected
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseTrained:
		return "trained"
	case PhaseSelected:
		return "selected"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Trainer orchestrates one training run.
type Trainer struct {
	cfg        Config
	candidates func(Config) []*Candidate
	phase      Phase
	registry   *Registry
	logger     log.Logger
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithCandidates replaces the candidate set. fn is called once per run and
// must return fresh, unfitted candidates in declaration order.
func WithCandidates(fn func(Config) []*Candidate) Option {
	return func(t *Trainer) { t.candidates = fn }
}

// WithLogger sets the logger used for run progress.
func WithLogger(l log.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// New creates a Trainer for cfg comparing DefaultCandidates.
func New(cfg Config, opts ...Option) *Trainer {
	t := &Trainer{
		cfg:        cfg,
		candidates: DefaultCandidates,
		logger:     log.GetLoggerWithName("trainer").With(log.ComponentKey, "trainer"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Trainer) Phase() Phase { return t.phase }

// TrainAndEvaluate runs every candidate on a seeded train/test split of
// (fs, y) and selects the best. fs holds unscaled features; scaling is
// fitted on the training rows and applied to the test rows.
//
// Errors:
//   - InvalidParameterError: bad Config, row count mismatch, fewer than 2
//     rows or an empty partition
//   - ValueError: the Trainer already completed a run
//   - the first candidate error, unless Config.IsolateFailures is set
//   - ErrAllCandidatesFailed: every candidate failed under IsolateFailures
func (t *Trainer) TrainAndEvaluate(ctx context.Context, fs *preprocessing.FeatureSet, y mat.Vector) (_ *Registry, err error) {
	defer scigoErrors.Recover(&err, "Trainer.TrainAndEvaluate")

	if t.phase != PhaseUninitialized {
		return nil, scigoErrors.NewValueError("Trainer.TrainAndEvaluate",
			fmt.Sprintf("trainer is %s; create a new Trainer for another run", t.phase))
	}
	if err := t.cfg.Validate(); err != nil {
		return nil, err
	}
	n := fs.NumRows()
	if y.Len() != n {
		return nil, scigoErrors.NewInvalidParameterError("Trainer.TrainAndEvaluate", "target",
			fmt.Sprintf("has %d rows, features have %d", y.Len(), n), y.Len())
	}

	split, err := model_selection.TrainTestSplit(n, t.cfg.TestFraction, t.cfg.Seed)
	if err != nil {
		return nil, err
	}
	t.logger.Info("Data split",
		log.PhaseKey, log.PhasePreprocessing,
		log.TrainKey, len(split.Train),
		log.TestKey, len(split.Test),
		log.RandomSeedKey, t.cfg.Seed,
	)

	trainX, scaler, err := preprocessing.FitTransform(fs.Select(split.Train))
	if err != nil {
		return nil, err
	}
	testX, err := preprocessing.Transform(scaler, fs.Select(split.Test))
	if err != nil {
		return nil, err
	}
	p := partitions{
		split:  split,
		trainX: trainX.X,
		testX:  testX.X,
		yTrain: preprocessing.SelectVec(y, split.Train),
		yTest:  preprocessing.SelectVec(y, split.Test),
	}

	candidates := t.candidates(t.cfg)
	entries := make([]Entry, 0, len(candidates))
	for _, c := range candidates {
		result, err := t.evaluate(ctx, c, p)
		if err != nil {
			if !t.cfg.IsolateFailures || ctx.Err() != nil {
				return nil, scigoErrors.Wrapf(err, "candidate %q", c.Name)
			}
			t.logger.Error("Candidate failed", err,
				log.CandidateKey, c.Name,
				log.ErrorCodeKey, log.ErrorCandidateFailed,
			)
			entries = append(entries, Entry{Name: c.Name, Candidate: c, Err: err})
			continue
		}
		entries = append(entries, Entry{Name: c.Name, Candidate: c, Result: result})
	}
	t.phase = PhaseTrained

	registry, err := NewRegistry(entries, fs.Schema, scaler)
	if err != nil {
		t.phase = PhaseUninitialized
		return nil, err
	}
	t.registry = registry
	t.phase = PhaseSelected

	best := registry.Best()
	t.logger.Info("Best model selected",
		log.CandidateKey, best.Name,
		log.R2ScoreKey, best.Result.Test.R2,
		log.RMSEKey, best.Result.Test.RMSE,
		log.MAEKey, best.Result.Test.MAE,
	)
	return registry, nil
}

type partitions struct {
	split         model_selection.Split
	trainX, testX *mat.Dense
	yTrain, yTest *mat.VecDense
}

func (t *Trainer) evaluate(ctx context.Context, c *Candidate, p partitions) (*EvaluationResult, error) {
	start := time.Now()
	t.logger.Info("Training candidate", log.CandidateKey, c.Name, log.PhaseKey, log.PhaseTraining)

	if err := c.fit(ctx, p.trainX, p.yTrain); err != nil {
		return nil, err
	}
	trainPred, err := c.Predict(p.trainX)
	if err != nil {
		return nil, err
	}
	testPred, err := c.Predict(p.testX)
	if err != nil {
		return nil, err
	}
	trainBundle, err := metrics.Evaluate(p.yTrain, trainPred)
	if err != nil {
		return nil, err
	}
	testBundle, err := metrics.Evaluate(p.yTest, testPred)
	if err != nil {
		return nil, err
	}

	t.logger.Info("Candidate evaluated",
		log.CandidateKey, c.Name,
		log.PhaseKey, log.PhaseTesting,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		"train."+log.R2ScoreKey, trainBundle.R2,
		log.R2ScoreKey, testBundle.R2,
		log.RMSEKey, testBundle.RMSE,
		log.MAEKey, testBundle.MAE,
	)
	return NewEvaluationResult(trainBundle, testBundle,
		vecData(p.yTest), vecData(testPred), p.split.Train, p.split.Test), nil
}

func vecData(v mat.Vector) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

func (t *Trainer) requireSelected(method string) error {
	if t.phase != PhaseSelected {
		return scigoErrors.NewNotFittedError("Trainer", method)
	}
	return nil
}

// Registry returns the registry of the completed run.
func (t *Trainer) Registry() (*Registry, error) {
	if err := t.requireSelected("Registry"); err != nil {
		return nil, err
	}
	return t.registry, nil
}

// Best returns the selected entry.
func (t *Trainer) Best() (Entry, error) {
	if err := t.requireSelected("Best"); err != nil {
		return Entry{}, err
	}
	return t.registry.Best(), nil
}

// Predict scales fs with the training statistics and predicts with the best
// model. fs must have the training schema.
func (t *Trainer) Predict(fs *preprocessing.FeatureSet) (_ *mat.VecDense, err error) {
	defer scigoErrors.Recover(&err, "Trainer.Predict")
	if err := t.requireSelected("Predict"); err != nil {
		return nil, err
	}
	scaled, err := preprocessing.Transform(t.registry.Scaler(), fs)
	if err != nil {
		return nil, err
	}
	return t.registry.Best().Candidate.Predict(scaled.X)
}

// Importance returns the feature importance of the best model.
func (t *Trainer) Importance() (Importance, error) {
	if err := t.requireSelected("Importance"); err != nil {
		return Importance{}, err
	}
	return ImportanceOf(t.registry.Best().Candidate, t.registry.Schema())
}
