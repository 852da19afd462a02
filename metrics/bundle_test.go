package metrics_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/bikedemand/metrics"
	bdErrors "github.com/ezoic/bikedemand/pkg/errors"
)

func TestEvaluatePerfectPrediction(t *testing.T) {
	y := mat.NewVecDense(4, []float64{1, 2, 3, 4})

	b, err := metrics.Evaluate(y, y)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.MSE)
	assert.Equal(t, 0.0, b.RMSE)
	assert.Equal(t, 0.0, b.MAE)
	assert.Equal(t, 1.0, b.R2)
	assert.True(t, b.R2Defined)
}

func TestEvaluateConstantTarget(t *testing.T) {
	var warned []error
	bdErrors.SetZerologWarnFunc(func(w error) { warned = append(warned, w) })
	defer bdErrors.SetZerologWarnFunc(nil)

	yTrue := mat.NewVecDense(4, []float64{0, 0, 0, 0})
	yPred := mat.NewVecDense(4, []float64{5, 5, 5, 5})

	b, err := metrics.Evaluate(yTrue, yPred)
	require.NoError(t, err)
	assert.Equal(t, 25.0, b.MSE)
	assert.Equal(t, 5.0, b.RMSE)
	assert.Equal(t, 5.0, b.MAE)
	assert.True(t, math.IsNaN(b.R2))
	assert.False(t, b.R2Defined)
	assert.Len(t, warned, 1)
}

func TestConstantTargetWithInexactMean(t *testing.T) {
	// 0.1 has no exact binary form, so its summed mean is off by an ulp.
	yTrue := mat.NewVecDense(3, []float64{0.1, 0.1, 0.1})
	yPred := mat.NewVecDense(3, []float64{0.2, 0.2, 0.2})

	r2, err := metrics.R2Score(yTrue, yPred)
	var undefined *bdErrors.UndefinedMetricError
	require.True(t, bdErrors.As(err, &undefined), "R2Score error = %v", err)
	assert.True(t, math.IsNaN(r2))

	_, err = metrics.ExplainedVarianceScore(yTrue, yPred)
	assert.True(t, bdErrors.As(err, &undefined), "ExplainedVarianceScore error = %v", err)

	bdErrors.SetZerologWarnFunc(func(error) {})
	defer bdErrors.SetZerologWarnFunc(nil)
	b, err := metrics.Evaluate(yTrue, yPred)
	require.NoError(t, err)
	assert.False(t, b.R2Defined)
	assert.True(t, math.IsNaN(b.R2))
}

func TestEvaluateMatchesFormulas(t *testing.T) {
	yTrue := mat.NewVecDense(5, []float64{3, -0.5, 2, 7, 4.2})
	yPred := mat.NewVecDense(5, []float64{2.5, 0.0, 2, 8, 4.0})

	b, err := metrics.Evaluate(yTrue, yPred)
	require.NoError(t, err)

	// residuals: 0.5, -0.5, 0, -1, 0.2
	ssRes := 0.25 + 0.25 + 0 + 1 + 0.04
	mean := (3 - 0.5 + 2 + 7 + 4.2) / 5
	var ssTot float64
	for _, v := range []float64{3, -0.5, 2, 7, 4.2} {
		ssTot += (v - mean) * (v - mean)
	}

	assert.InDelta(t, ssRes/5, b.MSE, 1e-12)
	assert.InDelta(t, math.Sqrt(ssRes/5), b.RMSE, 1e-12)
	assert.InDelta(t, 2.2/5, b.MAE, 1e-12)
	assert.InDelta(t, 1-ssRes/ssTot, b.R2, 1e-12)
}

func TestMetricInputErrors(t *testing.T) {
	a := mat.NewVecDense(3, []float64{1, 2, 3})
	b := mat.NewVecDense(2, []float64{1, 2})

	var de *bdErrors.DimensionError
	_, err := metrics.Evaluate(a, b)
	assert.ErrorAs(t, err, &de)

	var ve *bdErrors.ValueError
	_, err = metrics.MSE(&mat.VecDense{}, &mat.VecDense{})
	assert.ErrorAs(t, err, &ve)

	var um *bdErrors.UndefinedMetricError
	_, err = metrics.MAPE(mat.NewVecDense(2, []float64{0, 0}), mat.NewVecDense(2, []float64{1, 1}))
	assert.ErrorAs(t, err, &um)
}

func TestBetterR2(t *testing.T) {
	defined := func(r2 float64) metrics.Bundle { return metrics.Bundle{R2: r2, R2Defined: true} }
	undefined := metrics.Bundle{R2: math.NaN()}

	assert.True(t, metrics.BetterR2(defined(0.92), defined(0.80)))
	assert.False(t, metrics.BetterR2(defined(0.80), defined(0.92)))
	assert.False(t, metrics.BetterR2(defined(0.80), defined(0.80)), "ties are not an improvement")
	assert.True(t, metrics.BetterR2(defined(-3), undefined))
	assert.False(t, metrics.BetterR2(undefined, defined(-3)))
	assert.False(t, metrics.BetterR2(undefined, undefined))
}

func TestExplainedVarianceScore(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	shifted := mat.NewVecDense(4, []float64{2, 3, 4, 5})

	evs, err := metrics.ExplainedVarianceScore(yTrue, shifted)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, evs, 1e-12, "a constant offset explains all variance")
}
