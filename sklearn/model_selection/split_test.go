package model_selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bdErrors "github.com/ezoic/bikedemand/pkg/errors"
)

func TestTrainTestSplitPartition(t *testing.T) {
	tests := []struct {
		n        int
		fraction float64
		wantTest int
	}{
		{731, 0.2, 146},
		{10, 0.2, 2},
		{5, 0.5, 3}, // round half away from zero
		{2, 0.5, 1},
		{17379, 0.2, 3476},
	}
	for _, tt := range tests {
		s, err := TrainTestSplit(tt.n, tt.fraction, 42)
		require.NoError(t, err)
		assert.Len(t, s.Test, tt.wantTest)
		assert.Len(t, s.Train, tt.n-tt.wantTest)

		seen := make([]bool, tt.n)
		for _, i := range append(append([]int{}, s.Train...), s.Test...) {
			require.False(t, seen[i], "row %d assigned twice", i)
			seen[i] = true
		}
		for i, ok := range seen {
			assert.True(t, ok, "row %d not assigned", i)
		}
		assert.IsNonDecreasing(t, s.Train)
		assert.IsNonDecreasing(t, s.Test)
	}
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	a, err := TrainTestSplit(100, 0.2, 42)
	require.NoError(t, err)
	b, err := TrainTestSplit(100, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := TrainTestSplit(100, 0.2, 7)
	require.NoError(t, err)
	assert.NotEqual(t, a.Test, c.Test)
}

func TestTrainTestSplitInvalid(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		fraction float64
	}{
		{"zero fraction", 10, 0},
		{"one fraction", 10, 1},
		{"negative fraction", 10, -0.1},
		{"single row", 1, 0.5},
		{"empty test partition", 3, 0.1},
		{"empty train partition", 3, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TrainTestSplit(tt.n, tt.fraction, 42)
			var ip *bdErrors.InvalidParameterError
			assert.ErrorAs(t, err, &ip)
		})
	}
}
