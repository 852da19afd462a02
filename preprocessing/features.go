package preprocessing

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/bikedemand/dataset"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/pkg/log"
)

// FeatureConfig controls which table columns become features.
type FeatureConfig struct {
	// Exclude lists identifier and leakage columns. Names absent from the
	// table are ignored. The target is never taken from this list.
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
}

// DefaultFeatureConfig drops the row id, the date string and the two
// component counts that sum to cnt.
func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{Exclude: []string{"instant", "dteday", "casual", "registered"}}
}

// FeatureSet is a feature matrix together with the schema its columns follow.
type FeatureSet struct {
	Schema Schema
	X      *mat.Dense
}

// NewFeatureSet checks that X has one column per schema entry.
func NewFeatureSet(schema Schema, X *mat.Dense) (*FeatureSet, error) {
	if X == nil {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "preprocessing.NewFeatureSet")
	}
	if _, c := X.Dims(); c != schema.Len() {
		return nil, scigoErrors.NewDimensionError("preprocessing.NewFeatureSet", schema.Len(), c, 1)
	}
	return &FeatureSet{Schema: schema, X: X}, nil
}

// NumRows returns the number of samples.
func (fs *FeatureSet) NumRows() int {
	r, _ := fs.X.Dims()
	return r
}

// Select copies the given rows into a new FeatureSet with the same schema.
func (fs *FeatureSet) Select(rows []int) *FeatureSet {
	if len(rows) == 0 {
		return &FeatureSet{Schema: fs.Schema, X: &mat.Dense{}}
	}
	_, c := fs.X.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		out.SetRow(i, fs.X.RawRowView(r))
	}
	return &FeatureSet{Schema: fs.Schema, X: out}
}

// SelectVec copies the given entries of y.
func SelectVec(y mat.Vector, rows []int) *mat.VecDense {
	data := make([]float64, len(rows))
	for i, r := range rows {
		data[i] = y.AtVec(r)
	}
	if len(data) == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(len(data), data)
}

// PrepareFeatures splits t into a feature matrix and the target column.
// Every remaining column must be numeric.
func PrepareFeatures(t *dataset.Table, target string, cfg FeatureConfig) (_ *FeatureSet, _ *mat.VecDense, err error) {
	defer scigoErrors.Recover(&err, "preprocessing.PrepareFeatures")

	logger := log.GetLoggerWithName("preprocessing").With(log.ComponentKey, "preprocessing", log.TargetKey, target)

	if !t.Has(target) {
		return nil, nil, scigoErrors.NewMissingColumnError("PrepareFeatures", target, t.Columns())
	}
	yData, err := t.Column(target)
	if err != nil {
		return nil, nil, scigoErrors.Wrapf(err, "target %s", target)
	}

	var names []string
	for _, col := range t.Columns() {
		if col == target || slices.Contains(cfg.Exclude, col) {
			continue
		}
		if !t.IsNumeric(col) {
			return nil, nil, scigoErrors.NewValueError("PrepareFeatures",
				fmt.Sprintf("column %s is not numeric; add it to features.exclude", col))
		}
		names = append(names, col)
	}
	if len(names) == 0 {
		return nil, nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "PrepareFeatures: no feature columns left")
	}

	n := t.NumRows()
	X := mat.NewDense(n, len(names), nil)
	for j, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, nil, err
		}
		X.SetCol(j, col)
	}

	mean, std := stat.MeanStdDev(yData, nil)
	logger.Info("Features prepared",
		log.OperationKey, log.OperationTransform,
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, n,
		log.FeaturesKey, len(names),
		"target.mean", mean,
		"target.std", std,
		"target.min", floats.Min(yData),
		"target.max", floats.Max(yData),
	)

	return &FeatureSet{Schema: NewSchema(names), X: X}, mat.NewVecDense(n, yData), nil
}

// FeaturesFor builds the feature matrix of t in the column order of schema,
// as needed to predict with a model fitted on that schema. Extra columns in
// t are ignored.
//
// Errors:
//   - MissingColumnError: a schema column is absent from t
//   - ValueError: a schema column is not numeric
func FeaturesFor(t *dataset.Table, schema Schema) (_ *FeatureSet, err error) {
	defer scigoErrors.Recover(&err, "preprocessing.FeaturesFor")

	if schema.Len() == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "FeaturesFor: empty schema")
	}
	X := mat.NewDense(t.NumRows(), schema.Len(), nil)
	for j, name := range schema.names {
		if !t.Has(name) {
			return nil, scigoErrors.NewMissingColumnError("FeaturesFor", name, t.Columns())
		}
		if !t.IsNumeric(name) {
			return nil, scigoErrors.NewValueError("FeaturesFor", fmt.Sprintf("column %s is not numeric", name))
		}
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		X.SetCol(j, col)
	}
	return &FeatureSet{Schema: schema, X: X}, nil
}
