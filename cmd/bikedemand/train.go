package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ezoic/bikedemand/analysis"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/pkg/log"
	"github.com/ezoic/bikedemand/report"
	"github.com/ezoic/bikedemand/trainer"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train every candidate, write the report and save the best model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		run, err := runPipeline(cmd.Context())
		if err != nil {
			return err
		}

		w := report.NewWriter(cfg.Report.Dir, report.WithTopN(cfg.Report.TopN), report.WithLogger(logger))
		if _, err := w.Write(run.registry, run.analysis, run.runInfo()); err != nil {
			return scigoErrors.Wrap(err, "write report")
		}

		saved, err := run.trainer.Export(runID, cfg.Data.Target)
		if err != nil {
			return err
		}
		modelPath := filepath.Join(cfg.Report.Dir, trainer.ModelFileName)
		if err := saved.Save(modelPath); err != nil {
			return scigoErrors.Wrapf(err, "save model %s", modelPath)
		}
		logger.Info("Model saved", log.PathKey, modelPath, log.CandidateKey, run.registry.Best().Name)

		out := cmd.OutOrStdout()
		if err := formatComparison(out, run.analysis); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nbest model: %s\nreport: %s\nmodel: %s\n", run.analysis.Best, cfg.Report.Dir, modelPath)
		return nil
	},
}

func init() {
	addTrainingFlags(trainCmd.Flags())
	trainCmd.Flags().String("report-dir", "output", "directory for charts, workbook, summary and model")
	trainCmd.Flags().Int("top-n", report.DefaultTopN, "features shown in the importance chart, 0 for all")
}

func formatComparison(w io.Writer, a *analysis.Analysis) error {
	grades := make(map[string]string, len(a.Models))
	for _, m := range a.Models {
		grades[m.Name] = m.Overfit.Grade.String()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "model\ttest R²\ttest RMSE\ttest MAE\ttrain R²\toverfit")
	for _, m := range a.Comparison.Models {
		fmt.Fprintf(tw, "%s\t%.4f\t%.2f\t%.2f\t%.4f\t%s\n",
			m.Name, m.TestR2, m.TestRMSE, m.TestMAE, m.TrainR2, grades[m.Name])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(a.Recommendations) > 0 {
		fmt.Fprintln(w, "\nrecommendations:")
		for _, r := range a.Recommendations {
			fmt.Fprintf(w, "  [%s] %s\n", r.Severity, r.Title)
			for _, action := range r.Actions {
				fmt.Fprintf(w, "      - %s\n", action)
			}
		}
	}
	return nil
}
