package trainer

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/bikedemand/core/model"
	"github.com/ezoic/bikedemand/linear"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/sklearn/ensemble"
)

// Candidate display names, in declaration order.
const (
	LinearRegressionName = "Linear Regression"
	RandomForestName     = "Random Forest"
)

// Family tags the algorithm behind a Candidate.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyLinear
	FamilyEnsemble
)

func (f Family) String() string {
	switch f {
	case FamilyLinear:
		return "linear"
	case FamilyEnsemble:
		return "ensemble"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Candidate is one trainable model. Exactly one of Linear or Forest is set,
// as selected by Family. Exported fields are encoded by gob.
type Candidate struct {
	Name   string
	Family Family
	Linear *linear.LinearRegression
	Forest *ensemble.RandomForestRegressor
}

// NewLinearCandidate wraps an ordinary least squares model.
func NewLinearCandidate(name string) *Candidate {
	return &Candidate{Name: name, Family: FamilyLinear, Linear: linear.NewLinearRegression()}
}

// NewForestCandidate wraps a random forest built from cfg and seed.
func NewForestCandidate(name string, cfg ForestConfig, seed int64) *Candidate {
	return &Candidate{
		Name:   name,
		Family: FamilyEnsemble,
		Forest: ensemble.NewRandomForestRegressor(
			ensemble.WithNEstimators(cfg.NEstimators),
			ensemble.WithMaxDepth(cfg.MaxDepth),
			ensemble.WithMinSamplesSplit(cfg.MinSamplesSplit),
			ensemble.WithMinSamplesLeaf(cfg.MinSamplesLeaf),
			ensemble.WithMaxFeatures(cfg.MaxFeatures),
			ensemble.WithRandomState(seed),
			ensemble.WithNJobs(cfg.NJobs),
		),
	}
}

// DefaultCandidates returns the linear baseline followed by the forest.
func DefaultCandidates(cfg Config) []*Candidate {
	return []*Candidate{
		NewLinearCandidate(LinearRegressionName),
		NewForestCandidate(RandomForestName, cfg.Forest, cfg.Seed),
	}
}

// Regressor returns the underlying model.
func (c *Candidate) Regressor() (model.Regressor, error) {
	switch {
	case c.Family == FamilyLinear && c.Linear != nil:
		return c.Linear, nil
	case c.Family == FamilyEnsemble && c.Forest != nil:
		return c.Forest, nil
	default:
		return nil, scigoErrors.NewValueError("Candidate.Regressor",
			fmt.Sprintf("candidate %q has no model for family %s", c.Name, c.Family))
	}
}

func (c *Candidate) fit(ctx context.Context, X mat.Matrix, y mat.Vector) error {
	if c.Family == FamilyEnsemble && c.Forest != nil {
		return c.Forest.FitContext(ctx, X, y)
	}
	r, err := c.Regressor()
	if err != nil {
		return err
	}
	return r.Fit(X, y)
}

// Predict predicts with the fitted model.
func (c *Candidate) Predict(X mat.Matrix) (*mat.VecDense, error) {
	r, err := c.Regressor()
	if err != nil {
		return nil, err
	}
	return r.Predict(X)
}

// scores returns the raw per-feature importance of the fitted model and
// whether it is normalised to sum to 1.
func (c *Candidate) scores() ([]float64, bool, error) {
	switch c.Family {
	case FamilyEnsemble:
		if c.Forest == nil {
			break
		}
		imp, err := c.Forest.FeatureImportances()
		return imp, true, err
	case FamilyLinear:
		if c.Linear == nil {
			break
		}
		coef, err := c.Linear.Coefficients()
		if err != nil {
			return nil, false, err
		}
		for i, v := range coef {
			if v < 0 {
				coef[i] = -v
			}
		}
		return coef, false, nil
	}
	return nil, false, scigoErrors.NewValueError("Importance",
		fmt.Sprintf("candidate %q of family %s exposes neither importances nor coefficients", c.Name, c.Family))
}
