package trainer

import (
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
)

// ForestConfig holds the random forest hyperparameters.
type ForestConfig struct {
	NEstimators     int     `mapstructure:"n_estimators" yaml:"n_estimators"`
	MaxDepth        int     `mapstructure:"max_depth" yaml:"max_depth"`
	MinSamplesSplit int     `mapstructure:"min_samples_split" yaml:"min_samples_split"`
	MinSamplesLeaf  int     `mapstructure:"min_samples_leaf" yaml:"min_samples_leaf"`
	MaxFeatures     float64 `mapstructure:"max_features" yaml:"max_features"`
	NJobs           int     `mapstructure:"n_jobs" yaml:"n_jobs"`
}

// Config controls one training run.
type Config struct {
	TestFraction float64 `mapstructure:"test_fraction" yaml:"test_fraction"`
	Seed         int64   `mapstructure:"seed" yaml:"seed"`

	// IsolateFailures records a failing candidate and continues with the
	// rest instead of aborting the run.
	IsolateFailures bool `mapstructure:"isolate_failures" yaml:"isolate_failures"`

	Forest ForestConfig `mapstructure:"forest" yaml:"forest"`
}

// DefaultForestConfig returns 1000 trees of depth at most 10.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NEstimators:     1000,
		MaxDepth:        10,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     1.0,
		NJobs:           -1,
	}
}

// DefaultConfig holds out 20% of the rows with seed 42.
func DefaultConfig() Config {
	return Config{
		TestFraction: 0.2,
		Seed:         42,
		Forest:       DefaultForestConfig(),
	}
}

// Validate checks the run parameters that do not depend on the data.
func (c Config) Validate() error {
	const op = "trainer.Config"
	switch {
	case !(c.TestFraction > 0 && c.TestFraction < 1):
		return scigoErrors.NewInvalidParameterError(op, "test_fraction", "must be in (0, 1)", c.TestFraction)
	case c.Forest.NEstimators < 1:
		return scigoErrors.NewInvalidParameterError(op, "forest.n_estimators", "must be >= 1", c.Forest.NEstimators)
	case c.Forest.MaxDepth < 0:
		return scigoErrors.NewInvalidParameterError(op, "forest.max_depth", "must be >= 0", c.Forest.MaxDepth)
	case c.Forest.MinSamplesSplit < 2:
		return scigoErrors.NewInvalidParameterError(op, "forest.min_samples_split", "must be >= 2", c.Forest.MinSamplesSplit)
	case c.Forest.MinSamplesLeaf < 1:
		return scigoErrors.NewInvalidParameterError(op, "forest.min_samples_leaf", "must be >= 1", c.Forest.MinSamplesLeaf)
	case !(c.Forest.MaxFeatures > 0 && c.Forest.MaxFeatures <= 1):
		return scigoErrors.NewInvalidParameterError(op, "forest.max_features", "must be in (0, 1]", c.Forest.MaxFeatures)
	}
	return nil
}
