// Package tree implements CART decision trees for regression and
// classification on gonum matrices.
//
// Besides Predict, both trees expose Apply, which returns the terminal
// node (leaf) each row is routed to. Leaf ids are dense integers in
// [0, NLeaves()), assigned in depth-first order while growing.
package tree

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/stratx/core/model"
	"github.com/ezoic/stratx/pkg/errors"
	"github.com/ezoic/stratx/pkg/log"
)

// DecisionTreeRegressor implements a decision tree for regression using
// the squared-error criterion.
type DecisionTreeRegressor struct {
	state  *model.StateManager
	params params
	logger log.Logger

	tree_               *TreeNode
	nLeaves_            int
	featureImportances_ []float64
}

// NewDecisionTreeRegressor creates a new decision tree regressor
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		state:  model.NewStateManager(),
		params: defaultParams("squared_error"),
		logger: log.GetLoggerWithName("tree").With(log.ModelNameKey, "DecisionTreeRegressor"),
	}
	for _, opt := range opts {
		opt(&dt.params)
	}
	return dt
}

// Fit trains the tree on X (n_samples, n_features) and the column vector y.
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")
	start := time.Now()

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("DecisionTreeRegressor.Fit", "y must be a column vector")
	}
	if dt.params.criterion != "squared_error" {
		return errors.NewValueError("DecisionTreeRegressor.Fit", "unsupported criterion "+dt.params.criterion)
	}
	if err := dt.params.validate("DecisionTreeRegressor.Fit"); err != nil {
		return err
	}

	target := mat.Col(nil, 0, y)
	g := &grower{
		p:    &dt.params,
		cols: columns(X),
		newStats: func() nodeStats {
			return &varianceStats{y: target}
		},
		fillLeaf: func(node *TreeNode, idx []int) {
			sum := 0.0
			for _, i := range idx {
				sum += target[i]
			}
			node.Value = sum / float64(len(idx))
		},
	}

	dt.tree_ = g.build(nSamples)
	dt.nLeaves_ = g.nLeaves
	dt.featureImportances_ = g.importances
	dt.state.SetDimensions(nFeatures, nSamples)
	dt.state.SetFitted()

	dt.logger.Debug("Training completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.LeavesKey, dt.nLeaves_,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict returns the mean training target of the leaf each row falls in.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkInput(X, "Predict"); err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		leaf := dt.tree_.leafFor(func(f int) float64 { return X.At(i, f) })
		predictions.Set(i, 0, leaf.Value)
	}
	return predictions, nil
}

// Apply returns the leaf id of every row of X.
func (dt *DecisionTreeRegressor) Apply(X mat.Matrix) ([]int, error) {
	if err := dt.checkInput(X, "Apply"); err != nil {
		return nil, err
	}
	return applyTree(dt.tree_, X), nil
}

func (dt *DecisionTreeRegressor) checkInput(X mat.Matrix, method string) error {
	if !dt.state.IsFitted() {
		return errors.NewNotFittedError("DecisionTreeRegressor", method)
	}
	if _, c := X.Dims(); c != dt.state.NFeatures() {
		return errors.NewDimensionError("DecisionTreeRegressor."+method, dt.state.NFeatures(), c, 1)
	}
	return nil
}

// NLeaves returns the number of leaf nodes
func (dt *DecisionTreeRegressor) NLeaves() int { return dt.nLeaves_ }

// Depth returns the depth of the tree
func (dt *DecisionTreeRegressor) Depth() int { return maxDepth(dt.tree_) }

// Root returns the root node, or nil before Fit.
func (dt *DecisionTreeRegressor) Root() *TreeNode { return dt.tree_ }

// IsFitted reports whether Fit has completed.
func (dt *DecisionTreeRegressor) IsFitted() bool { return dt.state.IsFitted() }

// FeatureImportances returns normalized impurity-decrease importances.
func (dt *DecisionTreeRegressor) FeatureImportances() []float64 {
	return append([]float64(nil), dt.featureImportances_...)
}

// GetParams returns the model hyperparameters
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return dt.params.asMap()
}

func (p *params) asMap() map[string]interface{} {
	return map[string]interface{}{
		"criterion":        p.criterion,
		"max_depth":        p.maxDepth,
		"min_samples_leaf": p.minSamplesLeaf,
		"max_features":     p.maxFeatures,
	}
}
