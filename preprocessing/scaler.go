// Package preprocessing turns a loaded dataset into model-ready matrices.
//
// PrepareFeatures selects the feature columns and the target and records the
// feature Schema. Standardisation is split in two: StandardScaler is the
// matrix-level engine, and the package functions FitTransform, Transform and
// InverseTransform work on FeatureSets through an immutable ScalerState:
//
//	scaledTrain, state, err := preprocessing.FitTransform(train)
//	scaledTest, err := preprocessing.Transform(state, test)
//
// Transform checks the schema against the one the state was fitted on and
// never recomputes statistics.
package preprocessing

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/bikedemand/core/model"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
)

// zeroStdThreshold is the std below which a column is treated as constant.
const zeroStdThreshold = 1e-8

// StandardScaler standardises columns to zero mean and unit variance using
// the population standard deviation.
type StandardScaler struct {
	state *model.StateManager

	// Mean holds the per-feature means.
	Mean []float64

	// Scale holds the per-feature divisors. Constant columns get 1.
	Scale []float64

	// NFeatures is the column count seen by Fit.
	NFeatures int

	// WithMean centres the data when true.
	WithMean bool

	// WithStd divides by the standard deviation when true.
	WithStd bool
}

// NewStandardScaler creates a scaler.
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	if err := scaler.Fit(XTrain); err != nil {
//	    return err
//	}
//	XTest, err := scaler.Transform(XTest)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault centres and scales.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

func (s *StandardScaler) IsFitted() bool {
	return s.state.IsFitted()
}

// Fit computes per-column mean and scale from X.
//
// Errors:
//   - ErrEmptyData: X has no rows or no columns
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer scigoErrors.Recover(&err, "StandardScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return scigoErrors.NewModelError("StandardScaler.Fit", "empty data", scigoErrors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, std := stat.PopMeanStdDev(col, nil)

		if s.WithMean {
			s.Mean[j] = mean
		}
		if !s.WithStd {
			s.Scale[j] = 1.0
			continue
		}
		if math.Abs(std) < zeroStdThreshold {
			std = 1.0
		}
		s.Scale[j] = std
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform applies (x - mean) / scale with the fitted statistics.
//
// Errors:
//   - NotFittedError: Fit has not been called
//   - DimensionError: X has a different column count
func (s *StandardScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer scigoErrors.Recover(&err, "StandardScaler.Transform")
	if !s.IsFitted() {
		return nil, scigoErrors.NewNotFittedError("StandardScaler", "Transform")
	}
	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, scigoErrors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}
	return standardize(X, s.Mean, s.Scale, r, c), nil
}

// FitTransform is Fit followed by Transform on the same matrix.
func (s *StandardScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer scigoErrors.Recover(&err, "StandardScaler.FitTransform")
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardised values back to original units.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer scigoErrors.Recover(&err, "StandardScaler.InverseTransform")
	if !s.IsFitted() {
		return nil, scigoErrors.NewNotFittedError("StandardScaler", "InverseTransform")
	}
	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, scigoErrors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}
	return destandardize(X, s.Mean, s.Scale, r, c), nil
}

// State freezes the fitted statistics into a ScalerState bound to schema.
func (s *StandardScaler) State(schema Schema) (*ScalerState, error) {
	if !s.IsFitted() {
		return nil, scigoErrors.NewNotFittedError("StandardScaler", "State")
	}
	if schema.Len() != s.NFeatures {
		return nil, scigoErrors.NewDimensionError("StandardScaler.State", s.NFeatures, schema.Len(), 1)
	}
	return &ScalerState{
		schema: schema,
		mean:   slices.Clone(s.Mean),
		std:    slices.Clone(s.Scale),
	}, nil
}

func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

func standardize(X mat.Matrix, mean, scale []float64, r, c int) *mat.Dense {
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-mean[j])/scale[j])
		}
	}
	return result
}

func destandardize(X mat.Matrix, mean, scale []float64, r, c int) *mat.Dense {
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*scale[j]+mean[j])
		}
	}
	return result
}

// ScalerState is a fitted standardisation. It is immutable: every accessor
// returns a copy, and refitting produces a new state.
type ScalerState struct {
	schema Schema
	mean   []float64
	std    []float64
}

// NewScalerState rebuilds a state from persisted statistics.
func NewScalerState(schema Schema, mean, std []float64) (*ScalerState, error) {
	if len(mean) != schema.Len() {
		return nil, scigoErrors.NewDimensionError("NewScalerState", schema.Len(), len(mean), 1)
	}
	if len(std) != schema.Len() {
		return nil, scigoErrors.NewDimensionError("NewScalerState", schema.Len(), len(std), 1)
	}
	for j, v := range std {
		if v == 0 || math.IsNaN(v) {
			return nil, scigoErrors.NewValueError("NewScalerState",
				fmt.Sprintf("std of %s must be non-zero, got %v", schema.Name(j), v))
		}
	}
	return &ScalerState{schema: schema, mean: slices.Clone(mean), std: slices.Clone(std)}, nil
}

func (st *ScalerState) Schema() Schema { return st.schema }

// Mean returns the per-feature means.
func (st *ScalerState) Mean() []float64 { return slices.Clone(st.mean) }

// Std returns the per-feature divisors, with 1 for constant columns.
func (st *ScalerState) Std() []float64 { return slices.Clone(st.std) }

func (st *ScalerState) valid() bool {
	return st != nil && st.schema.Len() > 0 && len(st.mean) == st.schema.Len()
}

// FitTransform fits a scaler on fs and returns the scaled copy and the state.
func FitTransform(fs *FeatureSet) (_ *FeatureSet, _ *ScalerState, err error) {
	defer scigoErrors.Recover(&err, "preprocessing.FitTransform")

	scaler := NewStandardScalerDefault()
	if err := scaler.Fit(fs.X); err != nil {
		return nil, nil, err
	}
	state, err := scaler.State(fs.Schema)
	if err != nil {
		return nil, nil, err
	}
	scaled, err := Transform(state, fs)
	if err != nil {
		return nil, nil, err
	}
	return scaled, state, nil
}

// Transform standardises fs with a previously fitted state.
//
// Errors:
//   - NotFittedError: state is nil or was never fitted
//   - SchemaMismatchError: fs has different feature names or order
func Transform(state *ScalerState, fs *FeatureSet) (_ *FeatureSet, err error) {
	defer scigoErrors.Recover(&err, "preprocessing.Transform")

	if !state.valid() {
		return nil, scigoErrors.NewNotFittedError("ScalerState", "Transform")
	}
	if !state.schema.Equal(fs.Schema) {
		return nil, scigoErrors.NewSchemaMismatchError("Transform", state.schema.names, fs.Schema.names)
	}
	r, c := fs.X.Dims()
	if c != state.schema.Len() {
		return nil, scigoErrors.NewDimensionError("preprocessing.Transform", state.schema.Len(), c, 1)
	}
	return &FeatureSet{Schema: fs.Schema, X: standardize(fs.X, state.mean, state.std, r, c)}, nil
}

// InverseTransform maps a standardised FeatureSet back to original units.
func InverseTransform(state *ScalerState, fs *FeatureSet) (_ *FeatureSet, err error) {
	defer scigoErrors.Recover(&err, "preprocessing.InverseTransform")

	if !state.valid() {
		return nil, scigoErrors.NewNotFittedError("ScalerState", "InverseTransform")
	}
	if !state.schema.Equal(fs.Schema) {
		return nil, scigoErrors.NewSchemaMismatchError("InverseTransform", state.schema.names, fs.Schema.names)
	}
	r, c := fs.X.Dims()
	if c != state.schema.Len() {
		return nil, scigoErrors.NewDimensionError("preprocessing.InverseTransform", state.schema.Len(), c, 1)
	}
	return &FeatureSet{Schema: fs.Schema, X: destandardize(fs.X, state.mean, state.std, r, c)}, nil
}
