// Package report renders a training run into files under one directory:
// per-model prediction and residual charts, a feature importance chart, a
// model comparison chart, an evaluation workbook and a YAML summary.
package report

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/ezoic/bikedemand/analysis"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/pkg/log"
	"github.com/ezoic/bikedemand/trainer"
)

// File names written by Writer.Write.
const (
	ImportanceChartFile = "feature_importance.png"
	ComparisonChartFile = "model_comparison.png"
	WorkbookFile        = "evaluation.xlsx"
	SummaryFile         = "summary.yaml"

	predictionsSuffix = "_predictions.png"
	residualsSuffix   = "_residuals.png"
)

// DefaultTopN is the number of features drawn in the importance chart.
const DefaultTopN = 10

// RunInfo describes the run being reported.
type RunInfo struct {
	RunID       string    `yaml:"run_id"`
	Dataset     string    `yaml:"dataset"`
	Target      string    `yaml:"target"`
	Rows        int       `yaml:"rows"`
	TrainRows   int       `yaml:"train_rows"`
	TestRows    int       `yaml:"test_rows"`
	Features    []string  `yaml:"features"`
	Seed        int64     `yaml:"seed"`
	GeneratedAt time.Time `yaml:"generated_at"`
}

// Failure records a candidate that did not train.
type Failure struct {
	Name  string `yaml:"name"`
	Error string `yaml:"error"`
}

// Summary is the document written to summary.yaml.
type Summary struct {
	Run      RunInfo            `yaml:"run"`
	Analysis *analysis.Analysis `yaml:"analysis"`
	Failures []Failure          `yaml:"failures,omitempty"`
}

// Writer writes reports into a directory.
type Writer struct {
	dir    string
	topN   int
	logger log.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithTopN limits the importance chart to the n highest scores. n <= 0 draws
// every feature.
func WithTopN(n int) Option {
	return func(w *Writer) { w.topN = n }
}

func WithLogger(l log.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// NewWriter creates a Writer for dir. The directory is created on Write.
func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{dir: dir, topN: DefaultTopN}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.GetLoggerWithName("report")
	}
	w.logger = w.logger.With(log.ComponentKey, "report")
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write renders every artefact of a run and returns the paths written, in
// the order they were produced.
func (w *Writer) Write(reg *trainer.Registry, a *analysis.Analysis, run RunInfo) (files []string, err error) {
	defer scigoErrors.Recover(&err, "Writer.Write")
	start := time.Now()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, scigoErrors.Wrapf(err, "create report directory %s", w.dir)
	}

	var failures []Failure
	for _, e := range reg.Entries() {
		if e.Failed() {
			failures = append(failures, Failure{Name: e.Name, Error: e.Err.Error()})
			continue
		}
		yTest, yPred := e.Result.YTest(), e.Result.YTestPred()

		path := w.path(FileStem(e.Name) + predictionsSuffix)
		if err := PredictionChart(path, e.Name, yTest, yPred); err != nil {
			return files, err
		}
		files = append(files, path)

		path = w.path(FileStem(e.Name) + residualsSuffix)
		if err := ResidualChart(path, e.Name, yTest, yPred); err != nil {
			return files, err
		}
		files = append(files, path)
	}

	if len(a.Importance.Scores) > 0 {
		path := w.path(ImportanceChartFile)
		if err := ImportanceChart(path, a.Importance, w.topN); err != nil {
			return files, err
		}
		files = append(files, path)
	}

	path := w.path(ComparisonChartFile)
	if err := ComparisonChart(path, a.Comparison); err != nil {
		return files, err
	}
	files = append(files, path)

	path = w.path(WorkbookFile)
	if err := WriteWorkbook(path, a, run); err != nil {
		return files, err
	}
	files = append(files, path)

	path = w.path(SummaryFile)
	if err := WriteSummary(path, Summary{Run: run, Analysis: a, Failures: failures}); err != nil {
		return files, err
	}
	files = append(files, path)

	w.logger.Info("Report written",
		log.OperationKey, log.OperationReport,
		log.PhaseKey, log.PhaseReporting,
		log.PathKey, w.dir,
		"files", len(files),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return files, nil
}

func (w *Writer) path(name string) string { return filepath.Join(w.dir, name) }

// WriteSummary encodes s as YAML at path.
func WriteSummary(path string, s Summary) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return scigoErrors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = scigoErrors.Wrapf(cerr, "close %s", path)
		}
	}()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return scigoErrors.Wrap(err, "encode summary")
	}
	return enc.Close()
}

// FileStem turns a model name into a lower-case file name stem, e.g.
// "Random Forest" becomes "random_forest".
func FileStem(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	stem := strings.TrimSuffix(b.String(), "_")
	if stem == "" {
		return "model"
	}
	return stem
}
