// Package linear provides ordinary least squares regression.
//
// LinearRegression fits y = Xw + b by centring X and y and solving the
// least-squares problem with a rank-truncated SVD. Constant or collinear
// columns do not fail the fit: the minimum-norm solution is returned and a
// constant column gets a zero weight:
//
//	lr := linear.NewLinearRegression()
//	if err := lr.Fit(X, y); err != nil {
//		return err
//	}
//	yPred, err := lr.Predict(XTest)
//
// The fitted coefficients are the model's feature importances in magnitude
// (see Coefficients). Models are gob-encodable through core/model.
package linear

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/bikedemand/core/model"
	"github.com/ezoic/bikedemand/core/parallel"
	"github.com/ezoic/bikedemand/metrics"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/pkg/log"
)

// parallelThreshold is the row count below which the design matrix is built
// sequentially.
const parallelThreshold = 1000

// rankTolerance is machine epsilon. Scaled by the largest singular value and
// the larger matrix dimension it is the cut-off for treating a singular value
// as zero.
const rankTolerance = 0x1p-52

// LinearRegression is an ordinary least squares model with intercept.
type LinearRegression struct {
	State     *model.StateManager // Public for gob encoding
	Weights   *mat.VecDense       // Coefficients in training column order
	Intercept float64
	NFeatures int
	logger    log.Logger
}

// NewLinearRegression creates an unfitted model.
func NewLinearRegression() *LinearRegression {
	lr := &LinearRegression{
		State: model.NewStateManager(),
	}
	lr.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "LinearRegression",
		log.ComponentKey, "linear",
	)
	return lr
}

// Fit estimates the intercept and coefficients from X (n×p) and y (length n).
//
// Errors:
//   - ErrEmptyData: X has no rows or no columns
//   - DimensionError: y length differs from the row count of X
//   - ValueError: fewer rows than coefficients
//   - ErrSingularMatrix: the SVD of the centred design did not converge
func (lr *LinearRegression) Fit(X mat.Matrix, y mat.Vector) (err error) {
	defer scigoErrors.Recover(&err, "LinearRegression.Fit")

	startTime := time.Now()
	r, c := X.Dims()

	if lr.logger != nil {
		lr.logger.Info("Training started",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	if r == 0 || c == 0 {
		return scigoErrors.NewModelError("LinearRegression.Fit", "empty data", scigoErrors.ErrEmptyData)
	}
	if y.Len() != r {
		return scigoErrors.NewDimensionError("LinearRegression.Fit", r, y.Len(), 0)
	}

	if r < c+1 {
		return scigoErrors.NewValueError("LinearRegression.Fit",
			fmt.Sprintf("need at least %d samples for %d features, got %d", c+1, c, r))
	}

	means := make([]float64, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			means[j] += X.At(i, j)
		}
		means[j] /= float64(r)
	}

	design := mat.NewDense(r, c, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				design.Set(i, j, X.At(i, j)-means[j])
			}
		}
	})

	yMean := mat.Sum(y) / float64(r)
	target := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		target.SetVec(i, y.AtVec(i)-yMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return scigoErrors.NewModelError("LinearRegression.Fit", "svd did not converge", scigoErrors.ErrSingularMatrix)
	}

	weights := mat.NewVecDense(c, nil)
	// Rank 0 means every column is constant; the weights stay zero.
	if rank := svd.Rank(rankTolerance * float64(max(r, c))); rank > 0 {
		svd.SolveVecTo(weights, target, rank)
	}

	lr.NFeatures = c
	lr.Weights = weights
	lr.Intercept = yMean - floats.Dot(means, weights.RawVector().Data)

	lr.State.SetDimensions(c, r)
	lr.State.SetFitted()

	if lr.logger != nil {
		lr.logger.Info("Training completed",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.DurationMsKey, time.Since(startTime).Milliseconds(),
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}
	return nil
}

// Predict returns Xw + b for every row of X.
//
// Errors:
//   - NotFittedError: Fit has not succeeded
//   - DimensionError: X has a different column count than the training data
func (lr *LinearRegression) Predict(X mat.Matrix) (_ *mat.VecDense, err error) {
	defer scigoErrors.Recover(&err, "LinearRegression.Predict")
	if err := lr.State.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, scigoErrors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	if lr.logger != nil {
		lr.logger.Debug("Prediction started",
			log.OperationKey, log.OperationPredict,
			log.PhaseKey, log.PhaseInference,
			log.SamplesKey, r,
		)
	}

	predictions := mat.NewVecDense(r, nil)
	predictions.MulVec(X, lr.Weights)
	for i := 0; i < r; i++ {
		predictions.SetVec(i, predictions.AtVec(i)+lr.Intercept)
	}
	return predictions, nil
}

// Coefficients returns a copy of the fitted weights.
func (lr *LinearRegression) Coefficients() ([]float64, error) {
	if err := lr.State.RequireFitted("LinearRegression", "Coefficients"); err != nil {
		return nil, err
	}
	coef := make([]float64, lr.Weights.Len())
	for i := range coef {
		coef[i] = lr.Weights.AtVec(i)
	}
	return coef, nil
}

// GetIntercept returns the learned intercept, or 0 before Fit.
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.State.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// Score returns the R² of the model on (X, y).
func (lr *LinearRegression) Score(X mat.Matrix, y mat.Vector) (_ float64, err error) {
	defer scigoErrors.Recover(&err, "LinearRegression.Score")
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, yPred)
}

func (lr *LinearRegression) IsFitted() bool {
	return lr.State.IsFitted()
}

func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"fit_intercept": true,
		"n_features":    lr.NFeatures,
	}
}

func (lr *LinearRegression) String() string {
	if !lr.IsFitted() {
		return "LinearRegression()"
	}
	return fmt.Sprintf("LinearRegression(n_features=%d)", lr.NFeatures)
}
