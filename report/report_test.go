package report_test

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/ezoic/bikedemand/analysis"
	"github.com/ezoic/bikedemand/metrics"
	bdErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/pkg/log"
	"github.com/ezoic/bikedemand/preprocessing"
	"github.com/ezoic/bikedemand/report"
	"github.com/ezoic/bikedemand/trainer"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func fixture(t *testing.T) (*trainer.Registry, *analysis.Analysis) {
	t.Helper()
	yTest := make([]float64, 40)
	yPred := make([]float64, 40)
	for i := range yTest {
		yTest[i] = 500 + float64(i)*180
		yPred[i] = yTest[i] + float64(i%7-3)*60
	}
	linear := trainer.NewEvaluationResult(
		metrics.Bundle{R2: 0.83, R2Defined: true, RMSE: 900, MAE: 700},
		metrics.Bundle{R2: 0.80, R2Defined: true, RMSE: 950, MAE: 720},
		yTest, yPred, nil, nil,
	)
	forest := trainer.NewEvaluationResult(
		metrics.Bundle{R2: 0.98, R2Defined: true, RMSE: 300, MAE: 200},
		metrics.Bundle{R2: 0.88, R2Defined: true, RMSE: 650, MAE: 480},
		yTest, yPred, nil, nil,
	)
	reg, err := trainer.NewRegistry([]trainer.Entry{
		{Name: trainer.LinearRegressionName, Result: linear},
		{Name: trainer.RandomForestName, Result: forest},
		{Name: "Broken", Err: bdErrors.New("boom")},
	}, preprocessing.Schema{}, nil)
	require.NoError(t, err)

	imp := trainer.Importance{Model: trainer.RandomForestName, Normalized: true, Scores: []trainer.FeatureScore{
		{Feature: "temp", Score: 0.5},
		{Feature: "yr", Score: 0.3},
		{Feature: "hum", Score: 0.15},
		{Feature: "holiday", Score: 0.05},
	}}
	a, err := analysis.Analyze(reg, imp, analysis.DefaultBands())
	require.NoError(t, err)
	return reg, a
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", path)
}

func TestWriterWritesEveryArtefact(t *testing.T) {
	reg, a := fixture(t)
	dir := filepath.Join(t.TempDir(), "output")
	logger, _ := log.NewTestLogger(log.LevelInfo)

	w := report.NewWriter(dir, report.WithTopN(3), report.WithLogger(logger))
	run := report.RunInfo{
		RunID:       "run-1",
		Dataset:     "day.csv",
		Target:      "cnt",
		Rows:        200,
		TrainRows:   160,
		TestRows:    40,
		Features:    []string{"temp", "yr", "hum", "holiday"},
		Seed:        42,
		GeneratedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	files, err := w.Write(reg, a, run)
	require.NoError(t, err)

	want := []string{
		"linear_regression_predictions.png",
		"linear_regression_residuals.png",
		"random_forest_predictions.png",
		"random_forest_residuals.png",
		report.ImportanceChartFile,
		report.ComparisonChartFile,
		report.WorkbookFile,
		report.SummaryFile,
	}
	require.Len(t, files, len(want))
	for i, name := range want {
		assert.Equal(t, filepath.Join(dir, name), files[i])
	}
	for _, f := range files[:6] {
		assertPNG(t, f)
	}
	assert.True(t, logger.ContainsMessage("Report written"))
	assert.True(t, logger.ContainsField(log.PhaseKey, log.PhaseReporting))

	data, err := os.ReadFile(filepath.Join(dir, report.SummaryFile))
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	runDoc := doc["run"].(map[string]interface{})
	assert.Equal(t, "run-1", runDoc["run_id"])
	an := doc["analysis"].(map[string]interface{})
	assert.Equal(t, trainer.RandomForestName, an["best_model"])
	failures := doc["failures"].([]interface{})
	require.Len(t, failures, 1)
	assert.Equal(t, "Broken", failures[0].(map[string]interface{})["name"])
}

func TestWorkbookSheets(t *testing.T) {
	_, a := fixture(t)
	path := filepath.Join(t.TempDir(), report.WorkbookFile)
	require.NoError(t, report.WriteWorkbook(path, a, report.RunInfo{RunID: "abc", Target: "cnt"}))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	names := make([]string, len(f.Sheets))
	for i, s := range f.Sheets {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		report.SummarySheet, report.ModelsSheet, report.ImportanceSheet,
		report.BandsSheet, report.RecommendationsSheet,
	}, names)

	summary := f.Sheet[report.SummarySheet]
	assert.Equal(t, "Run ID", summary.Rows[0].Cells[0].String())
	assert.Equal(t, "abc", summary.Rows[0].Cells[1].String())

	models := f.Sheet[report.ModelsSheet]
	require.Len(t, models.Rows, 3, "header plus two successful models")
	assert.Equal(t, trainer.LinearRegressionName, models.Rows[1].Cells[0].String())
	assert.Equal(t, "moderate", models.Rows[2].Cells[6].String())

	importance := f.Sheet[report.ImportanceSheet]
	require.Len(t, importance.Rows, 5)
	assert.Equal(t, "temp", importance.Rows[1].Cells[1].String())

	recs := f.Sheet[report.RecommendationsSheet]
	assert.Greater(t, len(recs.Rows), 1)
}

func TestChartErrors(t *testing.T) {
	dir := t.TempDir()

	err := report.PredictionChart(filepath.Join(dir, "p.png"), "m", nil, nil)
	var ve *bdErrors.ValueError
	assert.ErrorAs(t, err, &ve)

	err = report.ResidualChart(filepath.Join(dir, "r.png"), "m", []float64{1, 2}, []float64{1})
	var de *bdErrors.DimensionError
	assert.ErrorAs(t, err, &de)

	err = report.ImportanceChart(filepath.Join(dir, "i.png"), trainer.Importance{}, 10)
	assert.ErrorAs(t, err, &ve)

	err = report.ComparisonChart(filepath.Join(dir, "c.png"), analysis.Comparison{})
	assert.ErrorAs(t, err, &ve)
}

func TestComparisonChartUndefinedR2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.png")
	cmp := analysis.Comparison{Models: []analysis.ModelSummary{
		{Name: "A", TestR2: 0.8, TestRMSE: 10, TestMAE: 8},
		{Name: "B", TestR2: math.NaN(), TestRMSE: 12, TestMAE: 9},
	}}
	require.NoError(t, report.ComparisonChart(path, cmp))
	assertPNG(t, path)
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Linear Regression", "linear_regression"},
		{"Random Forest", "random_forest"},
		{"  XGBoost (v2) ", "xgboost_v2"},
		{"a--b", "a_b"},
		{"***", "model"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, report.FileStem(tt.in))
		})
	}
}
