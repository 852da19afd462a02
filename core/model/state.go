// Package model holds the contracts shared by every estimator in bikedemand:
// fitted-state tracking, the Regressor interface and gob persistence.
//
// Estimators compose a StateManager rather than embedding a base type:
//
//	type Tree struct {
//		state *model.StateManager
//		...
//	}
//
//	func (t *Tree) Predict(X mat.Matrix) (*mat.VecDense, error) {
//		if err := t.state.RequireFitted("Tree", "Predict"); err != nil {
//			return nil, err
//		}
//		...
//	}
package model

import (
	"sync"

	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
)

// StateManager tracks whether an estimator has been fitted and the shape it
// was fitted on. Exported fields are encoded by gob.
type StateManager struct {
	Fitted    bool
	NFeatures int
	NSamples  int

	mu sync.RWMutex
}

// NewStateManager returns an unfitted StateManager.
func NewStateManager() *StateManager {
	return &StateManager{}
}

func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset clears the fitted flag and the recorded dimensions.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NSamples = 0
}

// SetDimensions records the training shape.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}

// RequireFitted returns a NotFittedError naming the model and method when
// the estimator has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return scigoErrors.NewNotFittedError(modelName, method)
	}
	return nil
}

// RequireFeatures checks that X has the column count seen at fit time.
func (s *StateManager) RequireFeatures(op string, got int) error {
	nFeatures, _ := s.GetDimensions()
	if got != nFeatures {
		return scigoErrors.NewDimensionError(op, nFeatures, got, 1)
	}
	return nil
}
