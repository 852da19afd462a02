// Command bikedemand trains, compares and applies regression models that
// predict daily or hourly bike-share demand.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ezoic/bikedemand/internal/config"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/pkg/log"
)

var (
	v       = config.New()
	cfg     *config.Config
	cfgFile string
	runID   string
	logger  log.Logger
)

// flagKeys maps CLI flags to config keys. Only flags set on the command line
// override the file and environment.
var flagKeys = map[string]string{
	"data-dir":         "data.dir",
	"granularity":      "data.granularity",
	"target":           "data.target",
	"log-level":        "log.level",
	"test-fraction":    "training.test_fraction",
	"seed":             "training.seed",
	"isolate-failures": "training.isolate_failures",
	"trees":            "forest.n_estimators",
	"max-depth":        "forest.max_depth",
	"max-features":     "forest.max_features",
	"jobs":             "forest.n_jobs",
	"report-dir":       "report.dir",
	"top-n":            "report.top_n",
}

var rootCmd = &cobra.Command{
	Use:   "bikedemand",
	Short: "Bike-share demand regression pipeline",
	Long: "Loads the UCI bike-sharing dataset, trains a linear regression and a random forest, " +
		"selects the best model by test R² and reports charts, a workbook and a YAML summary.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := bindFlags(cmd.Flags()); err != nil {
			return err
		}
		c, err := config.Load(v, cfgFile)
		if err != nil {
			return scigoErrors.Wrap(err, "load config")
		}
		cfg = c

		log.SetupLogger(cfg.Log.Level)
		runID = uuid.NewString()
		logger = log.GetLoggerWithName("bikedemand").With(log.RunIDKey, runID, "command", cmd.Name())
		logger.Debug("Configuration loaded", "config.file", v.ConfigFileUsed())
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./bikedemand.yaml)")
	pf.String("data-dir", "data", "directory holding day.csv and hour.csv")
	pf.String("granularity", "day", "dataset to load: day or hour")
	pf.String("target", "cnt", "target column")
	pf.String("log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(describeCmd, trainCmd, analyzeCmd, predictCmd)
}

// bindFlags binds every known flag of fs into the config.
func bindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return scigoErrors.Wrapf(err, "bind flag --%s", name)
		}
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.LogError(err, "command failed")
		os.Exit(1)
	}
}
