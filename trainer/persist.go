package trainer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/bikedemand/core/model"
	"github.com/ezoic/bikedemand/metrics"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/preprocessing"
)

// ModelFileName is the file the CLI writes the best model to.
const ModelFileName = "model.gob"

// savedModelVersion is bumped when SavedModel changes incompatibly.
const savedModelVersion = 1

// SavedModel is everything needed to predict with the best model outside a
// training run: the feature schema, the scaler statistics and the fitted
// candidate.
type SavedModel struct {
	Version   int
	RunID     string
	Target    string
	Features  []string
	Mean      []float64
	Std       []float64
	Candidate *Candidate
	Test      metrics.Bundle
}

// Export captures the best model of a completed run.
func (t *Trainer) Export(runID, target string) (*SavedModel, error) {
	if err := t.requireSelected("Export"); err != nil {
		return nil, err
	}
	best := t.registry.Best()
	scaler := t.registry.Scaler()
	return &SavedModel{
		Version:   savedModelVersion,
		RunID:     runID,
		Target:    target,
		Features:  t.registry.Schema().Names(),
		Mean:      scaler.Mean(),
		Std:       scaler.Std(),
		Candidate: best.Candidate,
		Test:      best.Result.Test,
	}, nil
}

// Save gob-encodes m into path.
func (m *SavedModel) Save(path string) error {
	return model.SaveModel(m, path)
}

// LoadSavedModel reads a model written by Save.
func LoadSavedModel(path string) (*SavedModel, error) {
	m := &SavedModel{}
	if err := model.LoadModel(m, path); err != nil {
		return nil, err
	}
	if m.Version != savedModelVersion {
		return nil, scigoErrors.NewValueError("LoadSavedModel",
			fmt.Sprintf("%s has format version %d, want %d", path, m.Version, savedModelVersion))
	}
	if m.Candidate == nil {
		return nil, scigoErrors.NewValueError("LoadSavedModel", path+" holds no model")
	}
	return m, nil
}

// Schema returns the training feature schema.
func (m *SavedModel) Schema() preprocessing.Schema {
	return preprocessing.NewSchema(m.Features)
}

// Predict scales fs with the saved statistics and predicts.
//
// Errors:
//   - SchemaMismatchError: fs does not have the training schema
func (m *SavedModel) Predict(fs *preprocessing.FeatureSet) (*mat.VecDense, error) {
	state, err := preprocessing.NewScalerState(m.Schema(), m.Mean, m.Std)
	if err != nil {
		return nil, err
	}
	scaled, err := preprocessing.Transform(state, fs)
	if err != nil {
		return nil, err
	}
	return m.Candidate.Predict(scaled.X)
}
