package errors_test

import (
	"errors"
	"fmt"

	bdErrors "github.com/ezoic/bikedemand/pkg/errors"
)

func Example_missingColumn() {
	err := bdErrors.NewMissingColumnError("PrepareFeatures", "cnt", []string{"season", "temp"})
	wrapped := fmt.Errorf("preparing day table: %w", err)

	var missing *bdErrors.MissingColumnError
	if errors.As(wrapped, &missing) {
		fmt.Printf("missing %s, have %v\n", missing.Column, missing.Available)
	}

	// Output: missing cnt, have [season temp]
}

func Example_errorComparison() {
	notFitted := bdErrors.NewNotFittedError("Registry", "Predict")
	invalid := bdErrors.NewInvalidParameterError("TrainAndEvaluate", "test_fraction", "must be in (0, 1)", 1.5)

	var nf *bdErrors.NotFittedError
	if errors.As(notFitted, &nf) {
		fmt.Printf("%s is not fitted for %s\n", nf.ModelName, nf.Method)
	}

	var ip *bdErrors.InvalidParameterError
	if errors.As(invalid, &ip) {
		fmt.Printf("bad %s: %v\n", ip.ParamName, ip.Value)
	}

	// Output: Registry is not fitted for Predict
	// bad test_fraction: 1.5
}

func Example_errorLogging() {
	base := bdErrors.NewModelError("LinearRegression.Fit", "solve failed", bdErrors.ErrSingularMatrix)
	err := fmt.Errorf("candidate Linear Regression: %w", base)

	fmt.Println(err)

	// Output: candidate Linear Regression: bikedemand: LinearRegression.Fit: solve failed: singular matrix
}
