package main

import (
	"context"
	"time"

	"github.com/spf13/pflag"

	"github.com/ezoic/bikedemand/analysis"
	"github.com/ezoic/bikedemand/dataset"
	"github.com/ezoic/bikedemand/pkg/log"
	"github.com/ezoic/bikedemand/preprocessing"
	"github.com/ezoic/bikedemand/report"
	"github.com/ezoic/bikedemand/trainer"
)

// pipelineRun is the outcome of load, prepare, train and analyse.
type pipelineRun struct {
	table    *dataset.Table
	features *preprocessing.FeatureSet
	trainer  *trainer.Trainer
	registry *trainer.Registry
	analysis *analysis.Analysis
}

func addTrainingFlags(fs *pflag.FlagSet) {
	def := trainer.DefaultConfig()
	fs.Float64("test-fraction", def.TestFraction, "fraction of rows held out for testing")
	fs.Int64("seed", def.Seed, "random seed for the split and the forest")
	fs.Bool("isolate-failures", false, "continue when a candidate fails")
	fs.Int("trees", def.Forest.NEstimators, "number of trees in the random forest")
	fs.Int("max-depth", def.Forest.MaxDepth, "maximum tree depth, 0 for unlimited")
	fs.Float64("max-features", def.Forest.MaxFeatures, "fraction of features tried per split")
	fs.Int("jobs", def.Forest.NJobs, "parallel tree fits, -1 for all CPUs")
}

func loadTable() (*dataset.Table, error) {
	return dataset.LoadGranularity(cfg.Data.Dir, cfg.Data.Granularity)
}

func runPipeline(ctx context.Context) (*pipelineRun, error) {
	tbl, err := loadTable()
	if err != nil {
		return nil, err
	}
	fs, y, err := preprocessing.PrepareFeatures(tbl, cfg.Data.Target, cfg.Features)
	if err != nil {
		return nil, err
	}

	tr := trainer.New(cfg.Trainer(), trainer.WithLogger(logger))
	reg, err := tr.TrainAndEvaluate(ctx, fs, y)
	if err != nil {
		return nil, err
	}
	imp, err := tr.Importance()
	if err != nil {
		return nil, err
	}
	a, err := analysis.Analyze(reg, imp, analysis.DefaultBands())
	if err != nil {
		return nil, err
	}

	best := reg.Best()
	logger.Info("Pipeline completed",
		log.CandidateKey, best.Name,
		log.R2ScoreKey, best.Result.Test.R2,
		log.RMSEKey, best.Result.Test.RMSE,
		log.MAEKey, best.Result.Test.MAE,
	)
	return &pipelineRun{table: tbl, features: fs, trainer: tr, registry: reg, analysis: a}, nil
}

func (r *pipelineRun) runInfo() report.RunInfo {
	best := r.registry.Best().Result
	return report.RunInfo{
		RunID:       runID,
		Dataset:     r.table.Name(),
		Target:      cfg.Data.Target,
		Rows:        r.table.NumRows(),
		TrainRows:   len(best.TrainRows()),
		TestRows:    len(best.TestRows()),
		Features:    r.features.Schema.Names(),
		Seed:        cfg.Training.Seed,
		GeneratedAt: time.Now().UTC(),
	}
}
