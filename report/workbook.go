package report

import (
	"math"
	"strings"

	"github.com/tealeg/xlsx/v2"

	"github.com/ezoic/bikedemand/analysis"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
)

// Sheet names of the evaluation workbook.
const (
	SummarySheet         = "Summary"
	ModelsSheet          = "Models"
	ImportanceSheet      = "Importance"
	BandsSheet           = "Demand Bands"
	RecommendationsSheet = "Recommendations"
)

// WriteWorkbook writes the evaluation workbook: a run summary, one row per
// model, the importance ranking, per-band errors and the recommendations.
func WriteWorkbook(path string, a *analysis.Analysis, run RunInfo) (err error) {
	defer scigoErrors.Recover(&err, "report.WriteWorkbook")

	f := xlsx.NewFile()
	builders := []struct {
		name  string
		build func(*xlsx.Sheet)
	}{
		{SummarySheet, func(s *xlsx.Sheet) { summarySheet(s, a, run) }},
		{ModelsSheet, func(s *xlsx.Sheet) { modelsSheet(s, a) }},
		{ImportanceSheet, func(s *xlsx.Sheet) { importanceSheet(s, a) }},
		{BandsSheet, func(s *xlsx.Sheet) { bandsSheet(s, a) }},
		{RecommendationsSheet, func(s *xlsx.Sheet) { recommendationsSheet(s, a) }},
	}
	for _, b := range builders {
		sheet, err := f.AddSheet(b.name)
		if err != nil {
			return scigoErrors.Wrapf(err, "add sheet %s", b.name)
		}
		b.build(sheet)
	}

	if err := f.Save(path); err != nil {
		return scigoErrors.Wrapf(err, "save workbook %s", path)
	}
	return nil
}

func summarySheet(s *xlsx.Sheet, a *analysis.Analysis, run RunInfo) {
	addRow(s, "Run ID", run.RunID)
	addRow(s, "Dataset", run.Dataset)
	addRow(s, "Target", run.Target)
	addRow(s, "Rows", run.Rows)
	addRow(s, "Train rows", run.TrainRows)
	addRow(s, "Test rows", run.TestRows)
	addRow(s, "Features", strings.Join(run.Features, ", "))
	addRow(s, "Seed", run.Seed)
	addRow(s, "Best model", a.Best)
	addRow(s, "Best test R²", a.Comparison.BestR2.Value)
	addRow(s, "Lowest RMSE", a.Comparison.LowestRMSE.Name)
	addRow(s, "Lowest MAE", a.Comparison.LowestMAE.Name)
}

func modelsSheet(s *xlsx.Sheet, a *analysis.Analysis) {
	addRow(s, "Model", "Test R²", "Test RMSE", "Test MAE", "Train R²",
		"Overfit gap", "Overfit grade", "Mean |error|", "Median |error|", "Max |error|", "Mean relative error %")

	errs := make(map[string]analysis.ModelAnalysis, len(a.Models))
	for _, m := range a.Models {
		errs[m.Name] = m
	}
	for _, row := range a.Comparison.Models {
		m := errs[row.Name]
		addRow(s, row.Name, row.TestR2, row.TestRMSE, row.TestMAE, row.TrainR2,
			m.Overfit.Gap, m.Overfit.Grade.String(),
			m.Errors.Mean, m.Errors.Median, m.Errors.Max, m.Errors.MeanRelativePct)
	}
}

func importanceSheet(s *xlsx.Sheet, a *analysis.Analysis) {
	addRow(s, "Rank", "Feature", "Score")
	for i, fs := range a.Importance.Sorted().Scores {
		addRow(s, i+1, fs.Feature, fs.Score)
	}
}

func bandsSheet(s *xlsx.Sheet, a *analysis.Analysis) {
	addRow(s, "Model", "Band", "Count", "MAE", "MAPE %")
	for _, m := range a.Models {
		for _, b := range m.Bands {
			addRow(s, m.Name, b.Band.Label, b.Count, b.MAE, b.MAPE)
		}
	}
}

func recommendationsSheet(s *xlsx.Sheet, a *analysis.Analysis) {
	addRow(s, "Severity", "Recommendation", "Actions")
	for _, r := range a.Recommendations {
		addRow(s, string(r.Severity), r.Title, strings.Join(r.Actions, "; "))
	}
}

// addRow appends one row. Non-finite floats are written as "n/a".
func addRow(s *xlsx.Sheet, values ...interface{}) {
	row := s.AddRow()
	for _, v := range values {
		cell := row.AddCell()
		switch v := v.(type) {
		case string:
			cell.SetString(v)
		case int:
			cell.SetInt(v)
		case int64:
			cell.SetInt64(v)
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				cell.SetString("n/a")
				continue
			}
			cell.SetFloat(v)
		default:
			cell.SetValue(v)
		}
	}
}
