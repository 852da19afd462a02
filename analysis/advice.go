package analysis

import (
	"fmt"

	"github.com/ezoic/bikedemand/trainer"
)

// Thresholds for Recommend.
const (
	SevereOverfitAbove   = 0.15
	LowR2Below           = 0.7
	GoodR2Below          = 0.85
	ImportanceRatioAbove = 100
)

// ModelSummary is one row of the model comparison table.
type ModelSummary struct {
	Name     string  `yaml:"name"`
	TestR2   float64 `yaml:"test_r2"`
	TestRMSE float64 `yaml:"test_rmse"`
	TestMAE  float64 `yaml:"test_mae"`
	TrainR2  float64 `yaml:"train_r2"`
	Overfit  float64 `yaml:"overfit"`
}

// Leader names the model that wins one comparison.
type Leader struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

// Comparison ranks the successful candidates of a run.
type Comparison struct {
	Models     []ModelSummary `yaml:"models"`
	BestR2     Leader         `yaml:"best_r2"`
	LowestRMSE Leader         `yaml:"lowest_rmse"`
	LowestMAE  Leader         `yaml:"lowest_mae"`
}

// Compare tabulates the test metrics of every successful candidate and
// names the leader for R², RMSE and MAE. Ties go to the earlier candidate;
// an undefined R² never leads.
func Compare(reg *trainer.Registry) Comparison {
	var c Comparison
	haveR2, first := false, true
	for _, e := range reg.Entries() {
		if e.Failed() {
			continue
		}
		r := e.Result
		c.Models = append(c.Models, ModelSummary{
			Name:     e.Name,
			TestR2:   r.Test.R2,
			TestRMSE: r.Test.RMSE,
			TestMAE:  r.Test.MAE,
			TrainR2:  r.Train.R2,
			Overfit:  Overfitting(r).Gap,
		})

		if r.Test.R2Defined && (!haveR2 || r.Test.R2 > c.BestR2.Value) {
			c.BestR2 = Leader{Name: e.Name, Value: r.Test.R2}
			haveR2 = true
		}
		if first || r.Test.RMSE < c.LowestRMSE.Value {
			c.LowestRMSE = Leader{Name: e.Name, Value: r.Test.RMSE}
		}
		if first || r.Test.MAE < c.LowestMAE.Value {
			c.LowestMAE = Leader{Name: e.Name, Value: r.Test.MAE}
		}
		first = false
	}
	return c
}

// Severity ranks a Recommendation.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityOK      Severity = "ok"
)

// Recommendation is one piece of rule-based advice.
type Recommendation struct {
	Severity Severity `yaml:"severity"`
	Title    string   `yaml:"title"`
	Actions  []string `yaml:"actions"`
}

// Recommend applies the advice rules to a run: severe overfitting per model,
// the best model's test R² and the spread of the best model's importances.
func Recommend(reg *trainer.Registry, imp trainer.Importance) []Recommendation {
	var recs []Recommendation

	for _, e := range reg.Entries() {
		if e.Failed() {
			continue
		}
		if o := Overfitting(e.Result); o.Grade != GradeUndefined && o.Gap > SevereOverfitAbove {
			recs = append(recs, Recommendation{
				Severity: SeverityWarning,
				Title:    fmt.Sprintf("%s overfits (train/test R² gap %.3f)", e.Name, o.Gap),
				Actions: []string{
					"add regularisation",
					"reduce model complexity",
					"add training data or use cross-validation",
				},
			})
		}
	}

	best := reg.Best().Result.Test
	switch {
	case !best.R2Defined || best.R2 < LowR2Below:
		recs = append(recs, Recommendation{
			Severity: SeverityWarning,
			Title:    "test R² of the best model is low",
			Actions: []string{
				"engineer more informative features",
				"try more expressive models such as gradient boosting",
				"check data quality and feature selection",
			},
		})
	case best.R2 < GoodR2Below:
		recs = append(recs, Recommendation{
			Severity: SeverityInfo,
			Title:    "good performance with room to improve",
			Actions: []string{
				"try feature interactions",
				"tune hyperparameters",
				"try other ensemble methods",
			},
		})
	default:
		recs = append(recs, Recommendation{
			Severity: SeverityOK,
			Title:    "excellent performance",
			Actions: []string{
				"consider deploying the model",
				"consider compressing the model for faster inference",
			},
		})
	}

	if ratio, ok := importanceSpread(imp); ok && ratio > ImportanceRatioAbove {
		recs = append(recs, Recommendation{
			Severity: SeverityInfo,
			Title:    fmt.Sprintf("feature importances are very uneven (max/min %.0f)", ratio),
			Actions: []string{
				"consider dropping the least important features",
				"refine the most important features",
			},
		})
	}
	return recs
}

// importanceSpread returns max/min of the scores. A zero minimum with a
// positive maximum gives +Inf.
func importanceSpread(imp trainer.Importance) (float64, bool) {
	if len(imp.Scores) == 0 {
		return 0, false
	}
	lo, hi := imp.Scores[0].Score, imp.Scores[0].Score
	for _, s := range imp.Scores[1:] {
		lo = min(lo, s.Score)
		hi = max(hi, s.Score)
	}
	return hi / lo, true
}
