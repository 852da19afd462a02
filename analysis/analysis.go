// Package analysis turns a training run into diagnostics: overfitting
// grades, absolute error summaries, error by demand band, a model
// comparison and rule-based recommendations.
package analysis

import (
	"github.com/ezoic/bikedemand/pkg/log"
	"github.com/ezoic/bikedemand/trainer"
)

// ModelAnalysis gathers the per-model diagnostics.
type ModelAnalysis struct {
	Name    string        `yaml:"name"`
	Overfit OverfitReport `yaml:"overfit"`
	Errors  ErrorSummary  `yaml:"errors"`
	Bands   []BandStats   `yaml:"demand_bands"`
}

// Analysis is the full diagnostic of one run.
type Analysis struct {
	Best            string             `yaml:"best_model"`
	Models          []ModelAnalysis    `yaml:"models"`
	Comparison      Comparison         `yaml:"comparison"`
	Importance      trainer.Importance `yaml:"importance"`
	Recommendations []Recommendation   `yaml:"recommendations"`
}

// Analyze runs every diagnostic over the successful candidates of reg.
// imp is the importance of the best model.
func Analyze(reg *trainer.Registry, imp trainer.Importance, bands []Band) (*Analysis, error) {
	logger := log.GetLoggerWithName("analysis").With(log.ComponentKey, "analysis")

	a := &Analysis{Best: reg.Best().Name, Importance: imp}
	for _, e := range reg.Entries() {
		if e.Failed() {
			continue
		}
		yTest, yPred := e.Result.YTest(), e.Result.YTestPred()
		errs, err := ErrorStats(yTest, yPred)
		if err != nil {
			return nil, err
		}
		bandStats, err := DemandBands(yTest, yPred, bands)
		if err != nil {
			return nil, err
		}
		m := ModelAnalysis{
			Name:    e.Name,
			Overfit: Overfitting(e.Result),
			Errors:  errs,
			Bands:   bandStats,
		}
		logger.Info("Model analysed",
			log.CandidateKey, m.Name,
			"overfit.gap", m.Overfit.Gap,
			"overfit.grade", m.Overfit.Grade.String(),
			log.MAEKey, m.Errors.Mean,
		)
		a.Models = append(a.Models, m)
	}
	a.Comparison = Compare(reg)
	a.Recommendations = Recommend(reg, imp)
	return a, nil
}
