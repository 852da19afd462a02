// Package ensemble provides bagged tree ensembles.
package ensemble

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/bikedemand/core/model"
	"github.com/ezoic/bikedemand/core/parallel"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/pkg/log"
	"github.com/ezoic/bikedemand/sklearn/tree"
)

// RandomForestRegressor averages regression trees grown on bootstrap
// samples. Trees are fitted concurrently; each tree owns its random stream,
// so the fitted forest does not depend on NJobs.
type RandomForestRegressor struct {
	State *model.StateManager

	// Hyperparameters
	NEstimators     int
	MaxDepth        int // 0 = unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     float64 // Fraction of features drawn at every split
	Bootstrap       bool
	RandomState     int64
	NJobs           int // ≤ 0 means one worker per CPU

	Trees       []*tree.DecisionTreeRegressor
	NFeatures   int
	Importances []float64

	logger log.Logger
}

// Option configures a RandomForestRegressor.
type Option func(*RandomForestRegressor)

// NewRandomForestRegressor creates an unfitted forest of 100 unlimited-depth
// trees with bootstrap sampling.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		State:           model.NewStateManager(),
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     1.0,
		Bootstrap:       true,
		NJobs:           -1,
	}
	for _, opt := range opts {
		opt(rf)
	}
	rf.logger = log.GetLoggerWithName("ensemble").With(
		log.ModelNameKey, "RandomForestRegressor",
		log.ComponentKey, "ensemble",
	)
	return rf
}

func WithNEstimators(n int) Option {
	return func(rf *RandomForestRegressor) { rf.NEstimators = n }
}

func WithMaxDepth(depth int) Option {
	return func(rf *RandomForestRegressor) { rf.MaxDepth = depth }
}

func WithMinSamplesSplit(n int) Option {
	return func(rf *RandomForestRegressor) { rf.MinSamplesSplit = n }
}

func WithMinSamplesLeaf(n int) Option {
	return func(rf *RandomForestRegressor) { rf.MinSamplesLeaf = n }
}

func WithMaxFeatures(fraction float64) Option {
	return func(rf *RandomForestRegressor) { rf.MaxFeatures = fraction }
}

// WithBootstrap toggles row resampling. Without it every tree sees the full
// training set and trees differ only through feature sampling.
func WithBootstrap(enabled bool) Option {
	return func(rf *RandomForestRegressor) { rf.Bootstrap = enabled }
}

func WithRandomState(seed int64) Option {
	return func(rf *RandomForestRegressor) { rf.RandomState = seed }
}

// WithNJobs bounds the number of trees fitted at once.
func WithNJobs(n int) Option {
	return func(rf *RandomForestRegressor) { rf.NJobs = n }
}

// Fit is FitContext with a background context.
func (rf *RandomForestRegressor) Fit(X mat.Matrix, y mat.Vector) error {
	return rf.FitContext(context.Background(), X, y)
}

// FitContext grows NEstimators trees. Cancelling ctx stops scheduling new
// trees and returns the context error; the forest stays unfitted.
//
// Errors:
//   - ErrEmptyData: X has no rows or no columns
//   - DimensionError: y length differs from the row count of X
//   - InvalidParameterError: NEstimators < 1 or a tree hyperparameter is invalid
func (rf *RandomForestRegressor) FitContext(ctx context.Context, X mat.Matrix, y mat.Vector) (err error) {
	defer scigoErrors.Recover(&err, "RandomForestRegressor.Fit")

	startTime := time.Now()
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return scigoErrors.NewModelError("RandomForestRegressor.Fit", "empty data", scigoErrors.ErrEmptyData)
	}
	if y.Len() != nSamples {
		return scigoErrors.NewDimensionError("RandomForestRegressor.Fit", nSamples, y.Len(), 0)
	}
	if rf.NEstimators < 1 {
		return scigoErrors.NewInvalidParameterError("RandomForestRegressor.Fit", "n_estimators", "must be >= 1", rf.NEstimators)
	}

	workers := parallel.Workers(rf.NJobs, rf.NEstimators)
	if rf.logger != nil {
		rf.logger.Info("Training started",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.SamplesKey, nSamples,
			log.FeaturesKey, nFeatures,
			log.TreesKey, rf.NEstimators,
			log.WorkersKey, workers,
			log.RandomSeedKey, rf.RandomState,
		)
	}

	seeds := treeSeeds(rf.RandomState, rf.NEstimators)
	trees := make([]*tree.DecisionTreeRegressor, rf.NEstimators)

	err = parallel.ForEach(ctx, rf.NEstimators, workers, func(_ context.Context, i int) error {
		t := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(rf.MaxDepth),
			tree.WithMinSamplesSplit(rf.MinSamplesSplit),
			tree.WithMinSamplesLeaf(rf.MinSamplesLeaf),
			tree.WithMaxFeatures(rf.MaxFeatures),
			tree.WithRandomState(int64(seeds[i])),
		)
		if err := t.FitSamples(X, y, rf.sampleRows(seeds[i], nSamples)); err != nil {
			return scigoErrors.Wrapf(err, "tree %d", i)
		}
		trees[i] = t
		return nil
	})
	if err != nil {
		return err
	}

	rf.Trees = trees
	rf.NFeatures = nFeatures
	rf.Importances = averageImportances(trees, nFeatures)
	rf.State.SetDimensions(nFeatures, nSamples)
	rf.State.SetFitted()

	if rf.logger != nil {
		rf.logger.Info("Training completed",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.DurationMsKey, time.Since(startTime).Milliseconds(),
			log.TreesKey, len(trees),
		)
	}
	return nil
}

// bootstrapStream selects the PCG stream for bootstrap draws. A tree's own
// feature sampler uses (seed, seed), so the bootstrap sampler must not.
const bootstrapStream = 0x9e3779b97f4a7c15

// treeSeeds draws one seed per tree from a stream seeded by seed, so tree i
// always gets the same seed for a given forest seed.
func treeSeeds(seed int64, n int) []uint64 {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}
	return seeds
}

func (rf *RandomForestRegressor) sampleRows(seed uint64, n int) []int {
	rows := make([]int, n)
	if !rf.Bootstrap {
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	rng := rand.New(rand.NewPCG(seed, seed^bootstrapStream))
	for i := range rows {
		rows[i] = rng.IntN(n)
	}
	return rows
}

// averageImportances averages the per-tree importances and renormalises the
// result to sum to 1. When no tree split at all the result is all zero.
func averageImportances(trees []*tree.DecisionTreeRegressor, nFeatures int) []float64 {
	out := make([]float64, nFeatures)
	for _, t := range trees {
		for j, v := range t.Importances {
			out[j] += v
		}
	}
	var sum float64
	for _, v := range out {
		sum += v
	}
	if sum == 0 {
		return out
	}
	for j := range out {
		out[j] /= sum
	}
	return out
}

// Predict averages the tree predictions for every row of X.
//
// Errors:
//   - NotFittedError: Fit has not succeeded
//   - DimensionError: X has a different column count than the training data
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (_ *mat.VecDense, err error) {
	defer scigoErrors.Recover(&err, "RandomForestRegressor.Predict")
	if err := rf.State.RequireFitted("RandomForestRegressor", "Predict"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != rf.NFeatures {
		return nil, scigoErrors.NewDimensionError("RandomForestRegressor.Predict", rf.NFeatures, nFeatures, 1)
	}

	sum := mat.NewVecDense(nSamples, nil)
	for _, t := range rf.Trees {
		pred, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		sum.AddVec(sum, pred)
	}
	sum.ScaleVec(1/float64(len(rf.Trees)), sum)
	return sum, nil
}

func (rf *RandomForestRegressor) IsFitted() bool {
	return rf.State.IsFitted()
}

// FeatureImportances returns the forest importances, which sum to 1 unless
// every tree is a single leaf.
func (rf *RandomForestRegressor) FeatureImportances() ([]float64, error) {
	if err := rf.State.RequireFitted("RandomForestRegressor", "FeatureImportances"); err != nil {
		return nil, err
	}
	out := make([]float64, len(rf.Importances))
	copy(out, rf.Importances)
	return out, nil
}

func (rf *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.NEstimators,
		"max_depth":         rf.MaxDepth,
		"min_samples_split": rf.MinSamplesSplit,
		"min_samples_leaf":  rf.MinSamplesLeaf,
		"max_features":      rf.MaxFeatures,
		"bootstrap":         rf.Bootstrap,
		"random_state":      rf.RandomState,
		"n_jobs":            rf.NJobs,
	}
}

func (rf *RandomForestRegressor) String() string {
	return fmt.Sprintf("RandomForestRegressor(n_estimators=%d, max_depth=%d, random_state=%d)",
		rf.NEstimators, rf.MaxDepth, rf.RandomState)
}
