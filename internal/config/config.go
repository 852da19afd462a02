// Package config loads the bikedemand configuration from defaults, an
// optional bikedemand.yaml, BIKEDEMAND_ environment variables and bound CLI
// flags, in increasing order of precedence.
package config

import (
	"slices"
	"strings"

	"github.com/spf13/viper"

	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/pkg/log"
	"github.com/ezoic/bikedemand/preprocessing"
	"github.com/ezoic/bikedemand/trainer"
)

const (
	// EnvPrefix prefixes every environment override, e.g.
	// BIKEDEMAND_FOREST_N_ESTIMATORS.
	EnvPrefix = "BIKEDEMAND"

	// FileName is the config file searched for in the working directory.
	FileName = "bikedemand"
)

// Granularities accepted by data.granularity.
var Granularities = []string{"day", "hour"}

// Config holds the full application configuration.
type Config struct {
	Data     DataConfig                  `mapstructure:"data" yaml:"data"`
	Features preprocessing.FeatureConfig `mapstructure:"features" yaml:"features"`
	Training TrainingConfig              `mapstructure:"training" yaml:"training"`
	Forest   trainer.ForestConfig        `mapstructure:"forest" yaml:"forest"`
	Report   ReportConfig                `mapstructure:"report" yaml:"report"`
	Log      LogConfig                   `mapstructure:"log" yaml:"log"`
}

// DataConfig locates the dataset.
type DataConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	Granularity string `mapstructure:"granularity" yaml:"granularity"`
	Target      string `mapstructure:"target" yaml:"target"`
}

// TrainingConfig controls the split and failure handling.
type TrainingConfig struct {
	TestFraction    float64 `mapstructure:"test_fraction" yaml:"test_fraction"`
	Seed            int64   `mapstructure:"seed" yaml:"seed"`
	IsolateFailures bool    `mapstructure:"isolate_failures" yaml:"isolate_failures"`
}

// ReportConfig controls the report output.
type ReportConfig struct {
	Dir  string `mapstructure:"dir" yaml:"dir"`
	TopN int    `mapstructure:"top_n" yaml:"top_n"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// New returns a viper instance with defaults and environment overrides
// installed. Callers bind flags to it before Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	forest := trainer.DefaultForestConfig()
	training := trainer.DefaultConfig()

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.granularity", "day")
	v.SetDefault("data.target", "cnt")
	v.SetDefault("features.exclude", preprocessing.DefaultFeatureConfig().Exclude)
	v.SetDefault("training.test_fraction", training.TestFraction)
	v.SetDefault("training.seed", training.Seed)
	v.SetDefault("training.isolate_failures", false)
	v.SetDefault("forest.n_estimators", forest.NEstimators)
	v.SetDefault("forest.max_depth", forest.MaxDepth)
	v.SetDefault("forest.min_samples_split", forest.MinSamplesSplit)
	v.SetDefault("forest.min_samples_leaf", forest.MinSamplesLeaf)
	v.SetDefault("forest.max_features", forest.MaxFeatures)
	v.SetDefault("forest.n_jobs", forest.NJobs)
	v.SetDefault("report.dir", "output")
	v.SetDefault("report.top_n", 10)
	v.SetDefault("log.level", "info")

	return v
}

// Load reads the config file and unmarshals v. An empty file searches for
// bikedemand.yaml in the working directory; a missing search result is not
// an error, a missing explicit file is.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !scigoErrors.As(err, &notFound) {
			return nil, scigoErrors.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, scigoErrors.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Trainer returns the trainer configuration.
func (c *Config) Trainer() trainer.Config {
	return trainer.Config{
		TestFraction:    c.Training.TestFraction,
		Seed:            c.Training.Seed,
		IsolateFailures: c.Training.IsolateFailures,
		Forest:          c.Forest,
	}
}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	switch {
	case !slices.Contains(Granularities, strings.ToLower(c.Data.Granularity)):
		return scigoErrors.NewValidationError("data.granularity", "must be day or hour", c.Data.Granularity)
	case strings.TrimSpace(c.Data.Target) == "":
		return scigoErrors.NewValidationError("data.target", "must not be empty", c.Data.Target)
	case c.Report.TopN < 0:
		return scigoErrors.NewValidationError("report.top_n", "must be >= 0", c.Report.TopN)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	if err := c.Trainer().Validate(); err != nil {
		var ipe *scigoErrors.InvalidParameterError
		if scigoErrors.As(err, &ipe) {
			return scigoErrors.NewValidationError(configKey(ipe.ParamName), ipe.Reason, ipe.Value)
		}
		return err
	}
	return nil
}

// configKey maps a trainer parameter name to its config key.
func configKey(param string) string {
	if strings.HasPrefix(param, "forest.") {
		return param
	}
	return "training." + param
}
