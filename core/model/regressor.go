package model

import (
	"gonum.org/v1/gonum/mat"
)

// Regressor is a single-target regression estimator.
type Regressor interface {
	// Fit learns parameters from X (n×p) and y (length n).
	Fit(X mat.Matrix, y mat.Vector) error

	// Predict returns one prediction per row of X.
	Predict(X mat.Matrix) (*mat.VecDense, error)

	// IsFitted reports whether Fit has completed successfully.
	IsFitted() bool
}
