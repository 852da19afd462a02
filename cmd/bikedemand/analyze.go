package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Train every candidate and print the diagnostic analysis as YAML",
	Long: "Runs the training pipeline without writing files and prints overfitting grades, " +
		"error statistics, per-band errors, the model comparison and recommendations.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		run, err := runPipeline(cmd.Context())
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(run.analysis); err != nil {
			return scigoErrors.Wrap(err, "encode analysis")
		}
		return enc.Close()
	},
}

func init() {
	addTrainingFlags(analyzeCmd.Flags())
}
