package preprocessing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	bdErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/preprocessing"
)

func featureSet(t *testing.T, names []string, rows int, data []float64) *preprocessing.FeatureSet {
	t.Helper()
	fs, err := preprocessing.NewFeatureSet(preprocessing.NewSchema(names), mat.NewDense(rows, len(names), data))
	require.NoError(t, err)
	return fs
}

func TestScalerStateRoundTripIsExact(t *testing.T) {
	train := featureSet(t, []string{"temp", "hum", "windspeed"}, 4, []float64{
		0.34, 0.80, 0.16,
		0.36, 0.69, 0.24,
		0.19, 0.43, 0.24,
		0.20, 0.59, 0.16,
	})

	scaled, state, err := preprocessing.FitTransform(train)
	require.NoError(t, err)

	again, err := preprocessing.Transform(state, train)
	require.NoError(t, err)
	assert.True(t, mat.Equal(scaled.X, again.X), "transform(fit(M), M) must equal fit_transform(M)")
	assert.True(t, scaled.Schema.Equal(train.Schema))
}

func TestScalerStateUsesStoredStatistics(t *testing.T) {
	train := featureSet(t, []string{"a"}, 3, []float64{1, 2, 3})
	test := featureSet(t, []string{"a"}, 2, []float64{100, 200})

	_, state, err := preprocessing.FitTransform(train)
	require.NoError(t, err)

	out, err := preprocessing.Transform(state, test)
	require.NoError(t, err)

	std := state.Std()[0]
	assert.InDelta(t, (100-2)/std, out.X.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, state.Mean()[0], 1e-12)
}

func TestScalerStateIsImmutable(t *testing.T) {
	first := featureSet(t, []string{"a"}, 3, []float64{1, 2, 3})
	second := featureSet(t, []string{"a"}, 3, []float64{10, 20, 30})

	_, s1, err := preprocessing.FitTransform(first)
	require.NoError(t, err)
	meanBefore := s1.Mean()

	_, s2, err := preprocessing.FitTransform(second)
	require.NoError(t, err)

	assert.Equal(t, meanBefore, s1.Mean())
	assert.NotEqual(t, s1.Mean(), s2.Mean())

	m := s1.Mean()
	m[0] = 999
	assert.Equal(t, meanBefore, s1.Mean(), "accessors must return copies")
}

func TestScalerStateZeroVariance(t *testing.T) {
	fs := featureSet(t, []string{"holiday", "temp"}, 3, []float64{0, 1, 0, 2, 0, 3})

	scaled, state, err := preprocessing.FitTransform(fs)
	require.NoError(t, err)
	assert.Equal(t, 1.0, state.Std()[0])
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, scaled.X.At(i, 0))
	}
}

func TestTransformBeforeFit(t *testing.T) {
	fs := featureSet(t, []string{"a"}, 1, []float64{1})

	var nf *bdErrors.NotFittedError
	_, err := preprocessing.Transform(nil, fs)
	require.ErrorAs(t, err, &nf)

	_, err = preprocessing.Transform(&preprocessing.ScalerState{}, fs)
	assert.ErrorAs(t, err, &nf)
}

func TestTransformSchemaMismatch(t *testing.T) {
	train := featureSet(t, []string{"temp", "hum"}, 2, []float64{1, 2, 3, 4})
	_, state, err := preprocessing.FitTransform(train)
	require.NoError(t, err)

	tests := []struct {
		name  string
		names []string
	}{
		{"reordered", []string{"hum", "temp"}},
		{"renamed", []string{"temp", "humidity"}},
		{"extra column", []string{"temp", "hum", "windspeed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := featureSet(t, tt.names, 1, make([]float64, len(tt.names)))
			_, err := preprocessing.Transform(state, other)

			var sm *bdErrors.SchemaMismatchError
			require.ErrorAs(t, err, &sm)
			assert.Equal(t, []string{"temp", "hum"}, sm.Expected)
			assert.Equal(t, tt.names, sm.Got)
		})
	}
}

func TestInverseTransformRestoresUnits(t *testing.T) {
	fs := featureSet(t, []string{"a", "b"}, 3, []float64{1, 10, 2, 20, 4, 45})
	scaled, state, err := preprocessing.FitTransform(fs)
	require.NoError(t, err)

	back, err := preprocessing.InverseTransform(state, scaled)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(fs.X, back.X, 1e-12))
}

func TestNewScalerStateValidates(t *testing.T) {
	schema := preprocessing.NewSchema([]string{"a", "b"})

	_, err := preprocessing.NewScalerState(schema, []float64{0}, []float64{1, 1})
	var de *bdErrors.DimensionError
	assert.ErrorAs(t, err, &de)

	_, err = preprocessing.NewScalerState(schema, []float64{0, 0}, []float64{1, 0})
	var ve *bdErrors.ValueError
	assert.ErrorAs(t, err, &ve)

	state, err := preprocessing.NewScalerState(schema, []float64{1, 2}, []float64{3, 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, state.Schema().Names())
}
