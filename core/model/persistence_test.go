package model_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/bikedemand/core/model"
)

type savedEstimator struct {
	State   *model.StateManager
	Weights []float64
	Names   []string
}

func TestSaveLoadModel(t *testing.T) {
	state := model.NewStateManager()
	state.SetDimensions(2, 4)
	state.SetFitted()
	original := &savedEstimator{State: state, Weights: []float64{1.5, -2}, Names: []string{"temp", "hum"}}

	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, model.SaveModel(original, path))

	var loaded savedEstimator
	require.NoError(t, model.LoadModel(&loaded, path))

	assert.True(t, loaded.State.IsFitted())
	nFeatures, nSamples := loaded.State.GetDimensions()
	assert.Equal(t, 2, nFeatures)
	assert.Equal(t, 4, nSamples)
	assert.Equal(t, original.Weights, loaded.Weights)
	assert.Equal(t, original.Names, loaded.Names)
}

func TestSaveLoadModelToWriter(t *testing.T) {
	var buf bytes.Buffer
	original := &savedEstimator{State: model.NewStateManager(), Weights: []float64{3}}
	require.NoError(t, model.SaveModelToWriter(original, &buf))

	var loaded savedEstimator
	require.NoError(t, model.LoadModelFromReader(&loaded, &buf))
	assert.Equal(t, []float64{3}, loaded.Weights)
	assert.False(t, loaded.State.IsFitted())
}

func TestLoadModelErrors(t *testing.T) {
	var loaded savedEstimator
	assert.Error(t, model.LoadModel(&loaded, filepath.Join(t.TempDir(), "missing.gob")))
	assert.Error(t, model.LoadModelFromReader(&loaded, bytes.NewBufferString("not gob")))
}
