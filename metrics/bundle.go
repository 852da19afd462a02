package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
)

// Bundle groups the four metrics reported for one model on one partition.
// When the evaluated target is constant, R2 is NaN and R2Defined is false.
type Bundle struct {
	MSE       float64 `yaml:"mse"`
	RMSE      float64 `yaml:"rmse"`
	MAE       float64 `yaml:"mae"`
	R2        float64 `yaml:"r2"`
	R2Defined bool    `yaml:"r2_defined"`
}

// Evaluate computes a Bundle. An undefined R² is reported in the Bundle and
// as an UndefinedMetricWarning, not as an error.
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
func Evaluate(yTrue, yPred mat.Vector) (Bundle, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return Bundle{}, err
	}
	mae, err := MAE(yTrue, yPred)
	if err != nil {
		return Bundle{}, err
	}

	b := Bundle{MSE: mse, RMSE: math.Sqrt(mse), MAE: mae}

	r2, err := R2Score(yTrue, yPred)
	var undefined *scigoErrors.UndefinedMetricError
	switch {
	case err == nil:
		b.R2, b.R2Defined = r2, true
	case scigoErrors.As(err, &undefined):
		b.R2 = math.NaN()
		scigoErrors.Warn(scigoErrors.NewUndefinedMetricWarning(undefined.Metric, undefined.Condition, b.R2))
	default:
		return Bundle{}, err
	}
	return b, nil
}

// BetterR2 reports whether a ranks strictly above b on R². A defined R²
// always ranks above an undefined one.
func BetterR2(a, b Bundle) bool {
	switch {
	case a.R2Defined && !b.R2Defined:
		return true
	case !a.R2Defined:
		return false
	default:
		return a.R2 > b.R2
	}
}
