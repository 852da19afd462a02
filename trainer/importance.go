package trainer

import (
	"cmp"
	"slices"

	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/preprocessing"
)

// FeatureScore pairs a feature with its importance.
type FeatureScore struct {
	Feature string  `yaml:"feature"`
	Score   float64 `yaml:"score"`
}

// Importance lists per-feature scores in schema order. Normalized is true
// for ensemble importances, which sum to 1; linear importances are absolute
// coefficients in the units of the scaled features and do not.
type Importance struct {
	Model      string         `yaml:"model"`
	Normalized bool           `yaml:"normalized"`
	Scores     []FeatureScore `yaml:"scores"`
}

// ImportanceOf extracts the importance of a fitted candidate and names the
// scores with schema.
//
// Errors:
//   - ValueError: the candidate family has neither importances nor coefficients
//   - NotFittedError: the candidate has not been fitted
//   - DimensionError: schema length differs from the model's feature count
func ImportanceOf(c *Candidate, schema preprocessing.Schema) (Importance, error) {
	raw, normalized, err := c.scores()
	if err != nil {
		return Importance{}, err
	}
	if len(raw) != schema.Len() {
		return Importance{}, scigoErrors.NewDimensionError("trainer.Importance", schema.Len(), len(raw), 1)
	}

	imp := Importance{Model: c.Name, Normalized: normalized, Scores: make([]FeatureScore, len(raw))}
	for i, v := range raw {
		imp.Scores[i] = FeatureScore{Feature: schema.Name(i), Score: v}
	}
	return imp, nil
}

// Sorted returns a copy with scores in descending order. Equal scores keep
// schema order.
func (imp Importance) Sorted() Importance {
	out := imp
	out.Scores = slices.Clone(imp.Scores)
	slices.SortStableFunc(out.Scores, func(a, b FeatureScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// Top returns the n highest scores, or all of them when n <= 0.
func (imp Importance) Top(n int) []FeatureScore {
	sorted := imp.Sorted().Scores
	if n <= 0 || n > len(sorted) {
		return sorted
	}
	return sorted[:n]
}

// Values returns the scores in schema order.
func (imp Importance) Values() []float64 {
	out := make([]float64, len(imp.Scores))
	for i, s := range imp.Scores {
		out[i] = s.Score
	}
	return out
}
