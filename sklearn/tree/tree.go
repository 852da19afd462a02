// Package tree implements CART regression trees with the variance (MSE)
// split criterion.
package tree

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/bikedemand/core/model"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
)

// featureThreshold is the smallest gap between consecutive sorted feature
// values that is considered a split point.
const featureThreshold = 1e-7

// TreeNode is a node of a fitted tree. Exported fields are encoded by gob.
type TreeNode struct {
	IsLeaf    bool      // Whether this is a leaf node
	Feature   int       // Feature index for split (internal nodes)
	Threshold float64   // Threshold value for split (internal nodes)
	Left      *TreeNode // Left child (values <= threshold)
	Right     *TreeNode // Right child (values > threshold)
	Value     float64   // Mean target of the node samples
	Impurity  float64   // Population variance of the node targets
	NSamples  int       // Number of samples at this node
	Depth     int       // Depth of this node in the tree
}

// DecisionTreeRegressor is a CART regressor.
type DecisionTreeRegressor struct {
	State *model.StateManager

	// Hyperparameters
	MaxDepth        int     // Maximum depth of tree (0 = unlimited)
	MinSamplesSplit int     // Minimum samples to split a node
	MinSamplesLeaf  int     // Minimum samples in a leaf
	MaxFeatures     float64 // Fraction of features drawn at every split, in (0, 1]
	RandomState     int64   // Seed of the feature sampler

	// Tree structure
	Root        *TreeNode
	NFeatures   int
	Importances []float64
}

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// NewDecisionTreeRegressor creates an unfitted tree. Defaults grow the tree
// until leaves are pure and consider every feature at every split.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		State:           model.NewStateManager(),
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     1.0,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// WithMaxDepth sets the maximum tree depth. 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MaxDepth = depth
	}
}

// WithMinSamplesSplit sets minimum samples to split
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MinSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets minimum samples in leaf
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MinSamplesLeaf = n
	}
}

// WithMaxFeatures sets the fraction of features considered at each split.
func WithMaxFeatures(fraction float64) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MaxFeatures = fraction
	}
}

// WithRandomState sets the random seed
func WithRandomState(seed int64) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.RandomState = seed
	}
}

func (dt *DecisionTreeRegressor) validate() error {
	const op = "DecisionTreeRegressor.Fit"
	switch {
	case dt.MaxDepth < 0:
		return scigoErrors.NewInvalidParameterError(op, "max_depth", "must be >= 0", dt.MaxDepth)
	case dt.MinSamplesSplit < 2:
		return scigoErrors.NewInvalidParameterError(op, "min_samples_split", "must be >= 2", dt.MinSamplesSplit)
	case dt.MinSamplesLeaf < 1:
		return scigoErrors.NewInvalidParameterError(op, "min_samples_leaf", "must be >= 1", dt.MinSamplesLeaf)
	case !(dt.MaxFeatures > 0 && dt.MaxFeatures <= 1):
		return scigoErrors.NewInvalidParameterError(op, "max_features", "must be in (0, 1]", dt.MaxFeatures)
	}
	return nil
}

// Fit grows the tree on every row of X.
func (dt *DecisionTreeRegressor) Fit(X mat.Matrix, y mat.Vector) error {
	r, _ := X.Dims()
	rows := make([]int, r)
	for i := range rows {
		rows[i] = i
	}
	return dt.FitSamples(X, y, rows)
}

// FitSamples grows the tree on the given rows of X. Rows may repeat, which
// is how bootstrap samples are passed in.
//
// Errors:
//   - ErrEmptyData: X has no columns or rows is empty
//   - DimensionError: y length differs from the row count of X
//   - InvalidParameterError: a hyperparameter is out of range
func (dt *DecisionTreeRegressor) FitSamples(X mat.Matrix, y mat.Vector, rows []int) (err error) {
	defer scigoErrors.Recover(&err, "DecisionTreeRegressor.Fit")

	nSamples, nFeatures := X.Dims()
	if nFeatures == 0 || len(rows) == 0 {
		return scigoErrors.NewModelError("DecisionTreeRegressor.Fit", "empty data", scigoErrors.ErrEmptyData)
	}
	if y.Len() != nSamples {
		return scigoErrors.NewDimensionError("DecisionTreeRegressor.Fit", nSamples, y.Len(), 0)
	}
	if err := dt.validate(); err != nil {
		return err
	}

	b := &builder{
		dt:          dt,
		cols:        make([][]float64, nFeatures),
		y:           make([]float64, nSamples),
		importances: make([]float64, nFeatures),
		rng:         rand.New(rand.NewPCG(uint64(dt.RandomState), uint64(dt.RandomState))),
		maxFeatures: max(1, int(dt.MaxFeatures*float64(nFeatures))),
	}
	for j := range b.cols {
		b.cols[j] = make([]float64, nSamples)
		mat.Col(b.cols[j], j, X)
	}
	for i := range b.y {
		b.y[i] = y.AtVec(i)
	}

	dt.NFeatures = nFeatures
	dt.Root = b.build(slices.Clone(rows), 0)
	dt.Importances = normalize(b.importances)

	dt.State.SetDimensions(nFeatures, len(rows))
	dt.State.SetFitted()
	return nil
}

// builder holds the column-major training data while a tree grows.
type builder struct {
	dt          *DecisionTreeRegressor
	cols        [][]float64
	y           []float64
	importances []float64
	rng         *rand.Rand
	maxFeatures int
}

type split struct {
	feature   int
	threshold float64
	nLeft     int
	decrease  float64 // n·impurity(parent) − nL·impurity(left) − nR·impurity(right)
}

func (b *builder) build(rows []int, depth int) *TreeNode {
	n := len(rows)
	var sum, sumSq float64
	for _, i := range rows {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	mean := sum / float64(n)
	impurity := max(0, sumSq/float64(n)-mean*mean)

	node := &TreeNode{
		Value:    mean,
		Impurity: impurity,
		NSamples: n,
		Depth:    depth,
	}
	if b.shouldStop(n, impurity, depth) {
		node.IsLeaf = true
		return node
	}

	best, ok := b.findBestSplit(rows, sum)
	if !ok {
		node.IsLeaf = true
		return node
	}

	node.Feature = best.feature
	node.Threshold = best.threshold
	b.importances[best.feature] += best.decrease

	col := b.cols[best.feature]
	left := make([]int, 0, best.nLeft)
	right := make([]int, 0, n-best.nLeft)
	for _, i := range rows {
		if col[i] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.Left = b.build(left, depth+1)
	node.Right = b.build(right, depth+1)
	return node
}

func (b *builder) shouldStop(nSamples int, impurity float64, depth int) bool {
	if b.dt.MaxDepth > 0 && depth >= b.dt.MaxDepth {
		return true
	}
	if nSamples < b.dt.MinSamplesSplit || nSamples < 2*b.dt.MinSamplesLeaf {
		return true
	}
	return impurity <= 1e-12
}

// findBestSplit scans features in random order. It inspects at least
// maxFeatures non-constant features and keeps going until one of them
// yields a valid split.
func (b *builder) findBestSplit(rows []int, total float64) (split, bool) {
	n := len(rows)
	nFeatures := len(b.cols)
	minLeaf := b.dt.MinSamplesLeaf

	order := make([]int, nFeatures)
	for j := range order {
		order[j] = j
	}
	if b.maxFeatures < nFeatures {
		b.rng.Shuffle(nFeatures, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	best := split{feature: -1}
	sorted := make([]int, n)
	visited := 0
	for _, feature := range order {
		if visited >= b.maxFeatures && best.feature >= 0 {
			break
		}
		col := b.cols[feature]
		copy(sorted, rows)
		slices.SortFunc(sorted, func(a, c int) int { return cmp.Compare(col[a], col[c]) })
		if col[sorted[n-1]] <= col[sorted[0]]+featureThreshold {
			continue
		}
		visited++

		var sumLeft float64
		for i := 0; i < n-1; i++ {
			sumLeft += b.y[sorted[i]]
			lo, hi := col[sorted[i]], col[sorted[i+1]]
			if hi <= lo+featureThreshold {
				continue
			}
			nLeft, nRight := i+1, n-i-1
			if nLeft < minLeaf || nRight < minLeaf {
				continue
			}
			sumRight := total - sumLeft
			decrease := sumLeft*sumLeft/float64(nLeft) + sumRight*sumRight/float64(nRight) - total*total/float64(n)
			if decrease > best.decrease {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: feature, threshold: threshold, nLeft: nLeft, decrease: decrease}
			}
		}
	}
	return best, best.feature >= 0
}

func normalize(importances []float64) []float64 {
	var sum float64
	for _, v := range importances {
		sum += v
	}
	out := make([]float64, len(importances))
	if sum <= 0 {
		return out
	}
	for i, v := range importances {
		out[i] = v / sum
	}
	return out
}

// Predict returns the leaf mean reached by every row of X.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (_ *mat.VecDense, err error) {
	defer scigoErrors.Recover(&err, "DecisionTreeRegressor.Predict")
	if err := dt.State.RequireFitted("DecisionTreeRegressor", "Predict"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.NFeatures {
		return nil, scigoErrors.NewDimensionError("DecisionTreeRegressor.Predict", dt.NFeatures, nFeatures, 1)
	}

	predictions := mat.NewVecDense(nSamples, nil)
	for i := 0; i < nSamples; i++ {
		predictions.SetVec(i, dt.predictRow(X, i))
	}
	return predictions, nil
}

func (dt *DecisionTreeRegressor) predictRow(X mat.Matrix, i int) float64 {
	node := dt.Root
	for !node.IsLeaf {
		if X.At(i, node.Feature) <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func (dt *DecisionTreeRegressor) IsFitted() bool {
	return dt.State.IsFitted()
}

// FeatureImportances returns the impurity-decrease importances normalised to
// sum to 1. A tree that never split has all-zero importances.
func (dt *DecisionTreeRegressor) FeatureImportances() ([]float64, error) {
	if err := dt.State.RequireFitted("DecisionTreeRegressor", "FeatureImportances"); err != nil {
		return nil, err
	}
	return slices.Clone(dt.Importances), nil
}

// GetParams returns the model hyperparameters
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         "squared_error",
		"max_depth":         dt.MaxDepth,
		"min_samples_split": dt.MinSamplesSplit,
		"min_samples_leaf":  dt.MinSamplesLeaf,
		"max_features":      dt.MaxFeatures,
		"random_state":      dt.RandomState,
	}
}

// GetDepth returns the depth of the tree
func (dt *DecisionTreeRegressor) GetDepth() int {
	if dt.Root == nil {
		return 0
	}
	return maxDepth(dt.Root)
}

func maxDepth(node *TreeNode) int {
	if node.IsLeaf {
		return node.Depth
	}
	return max(maxDepth(node.Left), maxDepth(node.Right))
}

// GetNLeaves returns the number of leaf nodes
func (dt *DecisionTreeRegressor) GetNLeaves() int {
	return countLeaves(dt.Root)
}

func countLeaves(node *TreeNode) int {
	if node == nil {
		return 0
	}
	if node.IsLeaf {
		return 1
	}
	return countLeaves(node.Left) + countLeaves(node.Right)
}
