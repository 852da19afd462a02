package trainer

import (
	"slices"

	"github.com/ezoic/bikedemand/metrics"
)

// EvaluationResult holds the metrics of one candidate on both partitions and
// the held-out targets needed for residual analysis. It is immutable: the
// slice accessors return copies.
type EvaluationResult struct {
	Train metrics.Bundle
	Test  metrics.Bundle

	yTest     []float64
	yTestPred []float64
	trainRows []int
	testRows  []int
}

// NewEvaluationResult builds a result, copying every slice.
func NewEvaluationResult(train, test metrics.Bundle, yTest, yTestPred []float64, trainRows, testRows []int) *EvaluationResult {
	return &EvaluationResult{
		Train:     train,
		Test:      test,
		yTest:     slices.Clone(yTest),
		yTestPred: slices.Clone(yTestPred),
		trainRows: slices.Clone(trainRows),
		testRows:  slices.Clone(testRows),
	}
}

// YTest returns the held-out true targets in test-row order.
func (r *EvaluationResult) YTest() []float64 { return slices.Clone(r.yTest) }

// YTestPred returns the predictions for YTest.
func (r *EvaluationResult) YTestPred() []float64 { return slices.Clone(r.yTestPred) }

func (r *EvaluationResult) TrainRows() []int { return slices.Clone(r.trainRows) }
func (r *EvaluationResult) TestRows() []int  { return slices.Clone(r.testRows) }

// Overfit returns train R² minus test R², or 0 when either is undefined.
func (r *EvaluationResult) Overfit() float64 {
	if !r.Train.R2Defined || !r.Test.R2Defined {
		return 0
	}
	return r.Train.R2 - r.Test.R2
}
