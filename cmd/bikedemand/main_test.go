package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ezoic/bikedemand/report"
	"github.com/ezoic/bikedemand/trainer"
)

// writeDayCSV writes a small day.csv whose cnt is linear in the weather
// columns.
func writeDayCSV(t *testing.T, dir string, n int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("instant,dteday,season,temp,hum,windspeed,casual,registered,cnt\n")
	for i := 0; i < n; i++ {
		season := 1 + i%4
		temp := 0.2 + 0.6*math.Abs(math.Sin(float64(i)*0.37))
		hum := 0.4 + 0.4*math.Abs(math.Cos(float64(i)*0.91))
		wind := 0.1 + 0.2*math.Abs(math.Sin(float64(i)*1.73+0.5))
		cnt := 4000*temp - 1500*hum + 300*wind + 120*float64(season) + 2000
		casual := math.Round(cnt * 0.2)
		fmt.Fprintf(&b, "%d,2011-01-%02d,%d,%.6f,%.6f,%.6f,%.0f,%.6f,%.6f\n",
			i+1, i%28+1, season, temp, hum, wind, casual, cnt-casual, cnt)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "day.csv"), []byte(b.String()), 0o644))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"describe", "train", "analyze", "predict"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
	assert.Equal(t, "bikedemand", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestTrainingFlagDefaults(t *testing.T) {
	tests := []struct {
		flag string
		want string
	}{
		{"trees", "1000"},
		{"max-depth", "10"},
		{"seed", "42"},
		{"test-fraction", "0.2"},
		{"jobs", "-1"},
		{"isolate-failures", "false"},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			for _, cmd := range []string{"train", "analyze"} {
				c, _, err := rootCmd.Find([]string{cmd})
				require.NoError(t, err)
				f := c.Flags().Lookup(tt.flag)
				require.NotNil(t, f, "%s should have --%s", cmd, tt.flag)
				assert.Equal(t, tt.want, f.DefValue)
			}
		})
	}

	for name := range flagKeys {
		found := rootCmd.PersistentFlags().Lookup(name) != nil ||
			trainCmd.Flags().Lookup(name) != nil ||
			analyzeCmd.Flags().Lookup(name) != nil
		assert.True(t, found, "flag --%s is mapped but never declared", name)
	}
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeDayCSV(t, dir, 40)

	out, err := execute(t, "describe", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "40 rows, 9 columns")
	assert.Contains(t, out, "windspeed")
	assert.NotContains(t, out, "dteday", "text columns are not summarised")
}

func TestTrainThenPredict(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeDayCSV(t, dir, 80)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "train",
		"--data-dir", dir, "--report-dir", outDir,
		"--trees", "5", "--max-depth", "3", "--jobs", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "best model: "+trainer.LinearRegressionName)

	for _, name := range []string{
		trainer.ModelFileName, report.SummaryFile, report.WorkbookFile,
		report.ComparisonChartFile, report.ImportanceChartFile,
		"linear_regression_predictions.png", "random_forest_residuals.png",
	} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	predPath := filepath.Join(dir, "pred.csv")
	_, err = execute(t, "predict",
		"--model", filepath.Join(outDir, trainer.ModelFileName),
		"--input", filepath.Join(dir, "day.csv"),
		"--output", predPath)
	require.NoError(t, err)

	f, err := os.Open(predPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 81)
	assert.Equal(t, []string{"row", "predicted_cnt"}, rows[0])
}

func TestAnalyzePrintsYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeDayCSV(t, dir, 60)

	out, err := execute(t, "analyze", "--data-dir", dir, "--trees", "3", "--max-depth", "2")
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, trainer.LinearRegressionName, doc["best_model"])
	assert.Contains(t, doc, "recommendations")
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := execute(t, "describe", "--data-dir", dir, "--granularity", "week")
	assert.Error(t, err)

	_, err = execute(t, "describe", "--data-dir", dir, "--granularity", "day")
	assert.Error(t, err, "day.csv is missing")
}
