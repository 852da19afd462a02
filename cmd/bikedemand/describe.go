package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ezoic/bikedemand/dataset"
	"github.com/ezoic/bikedemand/pkg/log"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print descriptive statistics of the dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tbl, err := loadTable()
		if err != nil {
			return err
		}

		summaries := dataset.Describe(tbl)
		for _, s := range summaries {
			logger.Debug("Column summary",
				"column", s.Name,
				"mean", s.Mean,
				"std", s.Std,
				"min", s.Min,
				"max", s.Max,
			)
		}
		logger.Info("Dataset described",
			log.PathKey, tbl.Name(),
			log.SamplesKey, tbl.NumRows(),
			"columns", len(tbl.Columns()),
		)

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows, %d columns\n\n", tbl.Name(), tbl.NumRows(), len(tbl.Columns()))
		return formatSummaries(cmd.OutOrStdout(), summaries)
	},
}

func formatSummaries(w io.Writer, summaries []dataset.ColumnSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
			s.Name, s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max)
	}
	return tw.Flush()
}
