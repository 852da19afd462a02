package ensemble

import (
	"bytes"
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/bikedemand/core/model"
	bdErrors "github.com/ezoic/bikedemand/pkg/errors"
)

// signalData returns y = 5·x0 + x1² with x2 as pure noise.
func signalData(n int) (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(n, 3, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x0 := float64(i) / float64(n)
		x1 := math.Sin(float64(i) * 0.7)
		x2 := math.Cos(float64(i*13) * 1.3)
		X.SetRow(i, []float64{x0, x1, x2})
		y.SetVec(i, 5*x0+x1*x1)
	}
	return X, y
}

func TestRandomForestRegressorFitPredict(t *testing.T) {
	X, y := signalData(120)

	rf := NewRandomForestRegressor(WithNEstimators(25), WithMaxDepth(6), WithRandomState(42))
	require.NoError(t, rf.Fit(X, y))
	assert.True(t, rf.IsFitted())
	assert.Len(t, rf.Trees, 25)

	pred, err := rf.Predict(X)
	require.NoError(t, err)
	require.Equal(t, 120, pred.Len())

	var sse, sst, mean float64
	for i := 0; i < y.Len(); i++ {
		mean += y.AtVec(i)
	}
	mean /= float64(y.Len())
	for i := 0; i < y.Len(); i++ {
		sse += math.Pow(y.AtVec(i)-pred.AtVec(i), 2)
		sst += math.Pow(y.AtVec(i)-mean, 2)
	}
	assert.Greater(t, 1-sse/sst, 0.9, "forest should fit a smooth signal")
}

func TestRandomForestRegressorImportances(t *testing.T) {
	X, y := signalData(120)

	rf := NewRandomForestRegressor(WithNEstimators(20), WithMaxDepth(5), WithRandomState(1))
	require.NoError(t, rf.Fit(X, y))

	imp, err := rf.FeatureImportances()
	require.NoError(t, err)
	require.Len(t, imp, 3)

	var sum float64
	for _, v := range imp {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Greater(t, imp[0], imp[2], "signal feature should outrank noise")

	imp[0] = -1
	again, _ := rf.FeatureImportances()
	assert.NotEqual(t, -1.0, again[0], "FeatureImportances returns a copy")
}

func TestRandomForestRegressorDeterministicAcrossWorkers(t *testing.T) {
	X, y := signalData(80)

	fit := func(jobs int) (*mat.VecDense, []float64) {
		rf := NewRandomForestRegressor(
			WithNEstimators(16),
			WithMaxDepth(4),
			WithMaxFeatures(0.67),
			WithRandomState(42),
			WithNJobs(jobs),
		)
		require.NoError(t, rf.Fit(X, y))
		pred, err := rf.Predict(X)
		require.NoError(t, err)
		imp, err := rf.FeatureImportances()
		require.NoError(t, err)
		return pred, imp
	}

	p1, i1 := fit(1)
	p4, i4 := fit(4)
	pAll, iAll := fit(-1)
	assert.True(t, mat.Equal(p1, p4))
	assert.True(t, mat.Equal(p1, pAll))
	assert.Equal(t, i1, i4)
	assert.Equal(t, i1, iAll)
}

func TestRandomForestRegressorSeedChangesForest(t *testing.T) {
	X, y := signalData(80)

	a := NewRandomForestRegressor(WithNEstimators(5), WithRandomState(1))
	b := NewRandomForestRegressor(WithNEstimators(5), WithRandomState(2))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	pa, _ := a.Predict(X)
	pb, _ := b.Predict(X)
	assert.False(t, mat.Equal(pa, pb))
}

func TestRandomForestRegressorConstantTarget(t *testing.T) {
	X, _ := signalData(20)
	y := mat.NewVecDense(20, nil)
	for i := 0; i < 20; i++ {
		y.SetVec(i, 7)
	}

	rf := NewRandomForestRegressor(WithNEstimators(3))
	require.NoError(t, rf.Fit(X, y))

	imp, err := rf.FeatureImportances()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, imp)

	pred, err := rf.Predict(X)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, pred.AtVec(0), 1e-12)
}

func TestSampleRowsUsesOwnStream(t *testing.T) {
	rf := NewRandomForestRegressor()
	const seed, n = 42, 64

	rows := rf.sampleRows(seed, n)
	assert.Equal(t, rows, rf.sampleRows(seed, n), "same seed, same bootstrap")

	// The tree built from the same seed samples features from PCG(seed, seed).
	treeStream := rand.New(rand.NewPCG(seed, seed))
	same := make([]int, n)
	for i := range same {
		same[i] = treeStream.IntN(n)
	}
	assert.NotEqual(t, same, rows)

	rf.Bootstrap = false
	for i, r := range rf.sampleRows(seed, n) {
		assert.Equal(t, i, r)
	}
}

func TestRandomForestRegressorErrors(t *testing.T) {
	X, y := signalData(10)

	rf := NewRandomForestRegressor(WithNEstimators(2))
	var nf *bdErrors.NotFittedError
	_, err := rf.Predict(X)
	assert.ErrorAs(t, err, &nf)
	_, err = rf.FeatureImportances()
	assert.ErrorAs(t, err, &nf)

	var ip *bdErrors.InvalidParameterError
	assert.ErrorAs(t, NewRandomForestRegressor(WithNEstimators(0)).Fit(X, y), &ip)
	assert.ErrorAs(t, NewRandomForestRegressor(WithNEstimators(2), WithMaxFeatures(2)).Fit(X, y), &ip)
	assert.False(t, NewRandomForestRegressor(WithNEstimators(0)).IsFitted())

	var de *bdErrors.DimensionError
	assert.ErrorAs(t, rf.Fit(X, mat.NewVecDense(4, nil)), &de)

	require.NoError(t, rf.Fit(X, y))
	_, err = rf.Predict(mat.NewDense(2, 5, nil))
	assert.ErrorAs(t, err, &de)
}

func TestRandomForestRegressorFitContextCancelled(t *testing.T) {
	X, y := signalData(30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rf := NewRandomForestRegressor(WithNEstimators(50), WithNJobs(2))
	err := rf.FitContext(ctx, X, y)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, rf.IsFitted())
}

func TestRandomForestRegressorGobRoundTrip(t *testing.T) {
	X, y := signalData(40)
	rf := NewRandomForestRegressor(WithNEstimators(4), WithMaxDepth(3), WithRandomState(9))
	require.NoError(t, rf.Fit(X, y))

	var buf bytes.Buffer
	require.NoError(t, model.SaveModelToWriter(rf, &buf))
	restored := &RandomForestRegressor{}
	require.NoError(t, model.LoadModelFromReader(restored, &buf))

	want, _ := rf.Predict(X)
	got, err := restored.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}
