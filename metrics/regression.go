// Package metrics provides evaluation metrics for regression models.
//
// Regression metrics:
//   - MSE: mean squared error
//   - RMSE: root mean squared error
//   - MAE: mean absolute error
//   - R2Score: coefficient of determination
//   - MAPE: mean absolute percentage error
//   - ExplainedVarianceScore: variance explained ignoring systematic offset
//
// Evaluate computes the MSE/RMSE/MAE/R² Bundle reported for every model and
// partition. A constant target leaves R² undefined: R2Score returns an
// UndefinedMetricError while a Bundle carries NaN with R2Defined false.
//
// Example usage:
//
//	b, err := metrics.Evaluate(yTest, yPred)
//	if err != nil {
//		return err
//	}
//	if b.R2Defined {
//		fmt.Printf("R² %.4f\n", b.R2)
//	}
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
)

func checkPair(op string, yTrue, yPred mat.Vector) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, scigoErrors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, scigoErrors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE calculates the Mean Squared Error between true and predicted values.
//
// MSE = (1/n) Σ (yTrue - yPred)². Lower is better; squared differences make
// it sensitive to outliers.
//
// Parameters:
//   - yTrue: True target values
//   - yPred: Predicted values
//
// Returns:
//   - float64: MSE value (non-negative)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
//
// Example:
//
//	mse, err := metrics.MSE(yTrue, yPred)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("MSE: %.4f\n", mse)
func MSE(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return sumSquaredResiduals(yTrue, yPred) / float64(n), nil
}

// RMSE calculates the Root Mean Squared Error, the square root of MSE. It is
// expressed in the units of the target.
//
// Parameters:
//   - yTrue: True target values
//   - yPred: Predicted values
//
// Returns:
//   - float64: RMSE value (non-negative)
//   - error: nil if successful, otherwise the error from MSE
func RMSE(yTrue, yPred mat.Vector) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the Mean Absolute Error between true and predicted values.
//
// MAE = (1/n) Σ |yTrue - yPred|. It is less sensitive to outliers than MSE.
//
// Parameters:
//   - yTrue: True target values
//   - yPred: Predicted values
//
// Returns:
//   - float64: MAE value (non-negative)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
func MAE(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score calculates the coefficient of determination.
//
// R² = 1 - SS_res/SS_tot with SS_res = Σ(yTrue - yPred)² and
// SS_tot = Σ(yTrue - mean(yTrue))². 1 is a perfect fit, 0 matches predicting
// the mean and negative values are worse than the mean.
//
// Parameters:
//   - yTrue: True target values
//   - yPred: Predicted values
//
// Returns:
//   - float64: R² score (best possible score is 1.0)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
//   - UndefinedMetricError: if yTrue is constant (SS_tot == 0)
//
// Example:
//
//	r2, err := metrics.R2Score(yTrue, yPred)
//	var undefined *errors.UndefinedMetricError
//	if errors.As(err, &undefined) {
//	    // constant target, no R² to report
//	}
func R2Score(yTrue, yPred mat.Vector) (float64, error) {
	if _, err := checkPair("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}

	tss := totalSumOfSquares(yTrue)
	if tss == 0 || isConstant(yTrue) {
		return math.NaN(), scigoErrors.NewUndefinedMetricError("r2_score", "total sum of squares is zero (constant yTrue)")
	}
	return 1 - sumSquaredResiduals(yTrue, yPred)/tss, nil
}

// MAPE calculates the Mean Absolute Percentage Error over the entries whose
// true value is non-zero.
//
// Parameters:
//   - yTrue: True target values
//   - yPred: Predicted values
//
// Returns:
//   - float64: MAPE as a percentage (non-negative)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
//   - UndefinedMetricError: if every yTrue value is zero
func MAPE(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	valid := 0
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		if t != 0 {
			sum += math.Abs(t-yPred.AtVec(i)) / math.Abs(t)
			valid++
		}
	}
	if valid == 0 {
		return 0, scigoErrors.NewUndefinedMetricError("mape", "all yTrue values are zero")
	}
	return sum / float64(valid) * 100, nil
}

// ExplainedVarianceScore calculates 1 - Var(yTrue - yPred) / Var(yTrue).
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
//   - UndefinedMetricError: if yTrue has no variance
func ExplainedVarianceScore(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yMean, diffMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
		diffMean += yTrue.AtVec(i) - yPred.AtVec(i)
	}
	yMean /= float64(n)
	diffMean /= float64(n)

	var varY, varDiff float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		d := t - yPred.AtVec(i)
		varY += (t - yMean) * (t - yMean)
		varDiff += (d - diffMean) * (d - diffMean)
	}
	if varY == 0 || isConstant(yTrue) {
		return 0, scigoErrors.NewUndefinedMetricError("explained_variance", "no variance in yTrue")
	}
	return 1 - varDiff/varY, nil
}

// isConstant reports whether every entry equals the first. A rounded mean
// leaves a constant vector with a tiny non-zero sum of squares, so the sum
// alone does not detect it.
func isConstant(y mat.Vector) bool {
	first := y.AtVec(0)
	for i := 1; i < y.Len(); i++ {
		if y.AtVec(i) != first {
			return false
		}
	}
	return true
}

func sumSquaredResiduals(yTrue, yPred mat.Vector) float64 {
	var sum float64
	for i := 0; i < yTrue.Len(); i++ {
		d := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += d * d
	}
	return sum
}

func totalSumOfSquares(y mat.Vector) float64 {
	n := y.Len()
	var mean float64
	for i := 0; i < n; i++ {
		mean += y.AtVec(i)
	}
	mean /= float64(n)

	var tss float64
	for i := 0; i < n; i++ {
		d := y.AtVec(i) - mean
		tss += d * d
	}
	return tss
}
