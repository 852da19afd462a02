package main

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ezoic/bikedemand/dataset"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/pkg/log"
	"github.com/ezoic/bikedemand/preprocessing"
	"github.com/ezoic/bikedemand/trainer"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict demand for a CSV with a saved model",
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		modelPath, _ := cmd.Flags().GetString("model")
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		if modelPath == "" {
			modelPath = filepath.Join(cfg.Report.Dir, trainer.ModelFileName)
		}

		m, err := trainer.LoadSavedModel(modelPath)
		if err != nil {
			return err
		}
		tbl, err := dataset.Load(input)
		if err != nil {
			return err
		}
		fs, err := preprocessing.FeaturesFor(tbl, m.Schema())
		if err != nil {
			return err
		}
		pred, err := m.Predict(fs)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if output != "" {
			f, cerr := os.Create(output)
			if cerr != nil {
				return scigoErrors.Wrapf(cerr, "create %s", output)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = scigoErrors.Wrapf(cerr, "close %s", output)
				}
			}()
			w = f
		}

		preds := make([]float64, pred.Len())
		for i := range preds {
			preds[i] = pred.AtVec(i)
		}
		if err := writePredictions(w, m.Target, preds); err != nil {
			return err
		}
		logger.Info("Predictions written",
			log.OperationKey, log.OperationPredict,
			log.PhaseKey, log.PhaseInference,
			log.CandidateKey, m.Candidate.Name,
			log.SamplesKey, len(preds),
			log.PathKey, input,
		)
		return nil
	},
}

func init() {
	predictCmd.Flags().String("model", "", "saved model (default <report.dir>/model.gob)")
	predictCmd.Flags().String("input", "", "CSV with the feature columns the model was trained on")
	predictCmd.Flags().String("output", "", "output CSV (default stdout)")
	_ = predictCmd.MarkFlagRequired("input")
}

func writePredictions(w io.Writer, target string, preds []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"row", "predicted_" + target}); err != nil {
		return scigoErrors.Wrap(err, "write predictions")
	}
	for i, p := range preds {
		if err := cw.Write([]string{strconv.Itoa(i), strconv.FormatFloat(p, 'f', 2, 64)}); err != nil {
			return scigoErrors.Wrap(err, "write predictions")
		}
	}
	cw.Flush()
	return scigoErrors.Wrap(cw.Error(), "write predictions")
}
