package ensemble

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/stratx/core/model"
	"github.com/ezoic/stratx/pkg/errors"
	"github.com/ezoic/stratx/pkg/log"
	"github.com/ezoic/stratx/sklearn/tree"
)

// RandomForestRegressor is an ensemble of DecisionTreeRegressors.
type RandomForestRegressor struct {
	state  *model.StateManager
	params forestParams
	logger log.Logger

	estimators_ []*tree.DecisionTreeRegressor
}

// NewRandomForestRegressor creates a new random forest regressor
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		state:  model.NewStateManager(),
		params: defaultForestParams(),
		logger: log.GetLoggerWithName("ensemble").With(log.ModelNameKey, "RandomForestRegressor"),
	}
	for _, opt := range opts {
		opt(&rf.params)
	}
	return rf
}

// Fit trains every tree on X and the column vector y.
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")
	start := time.Now()

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("RandomForestRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows, _ := y.Dims(); yRows != nSamples {
		return errors.NewDimensionError("RandomForestRegressor.Fit", nSamples, yRows, 0)
	}
	if err := rf.params.validate("RandomForestRegressor.Fit"); err != nil {
		return err
	}

	rf.logger.Debug("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, nSamples,
		log.TreesKey, rf.params.nEstimators,
	)

	estimators := make([]*tree.DecisionTreeRegressor, rf.params.nEstimators)
	err = fitTrees(&rf.params, func(i int, rng *rand.Rand) error {
		Xt, yt := trainingSet(X, y, rf.params.bootstrap, rng)
		dt := tree.NewDecisionTreeRegressor(
			tree.WithMinSamplesLeaf(rf.params.minSamplesLeaf),
			tree.WithMaxDepth(rf.params.maxDepth),
			tree.WithMaxFeatures(rf.params.maxFeatures),
			tree.WithRand(rng),
		)
		if err := dt.Fit(Xt, yt); err != nil {
			return errors.NewModelError("RandomForestRegressor.Fit", fmt.Sprintf("tree %d failed", i), err)
		}
		estimators[i] = dt
		return nil
	})
	if err != nil {
		return err
	}

	rf.estimators_ = estimators
	rf.state.SetDimensions(nFeatures, nSamples)
	rf.state.SetFitted()

	rf.logger.Debug("Training completed",
		log.OperationKey, log.OperationFit,
		log.TreesKey, len(estimators),
		log.LeavesKey, rf.NLeaves(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict returns the mean of the tree predictions.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.checkInput(X, "Predict"); err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	sum := mat.NewDense(nSamples, 1, nil)
	for _, dt := range rf.estimators_ {
		pred, err := dt.Predict(X)
		if err != nil {
			return nil, err
		}
		sum.Add(sum, pred)
	}
	sum.Scale(1/float64(len(rf.estimators_)), sum)
	return sum, nil
}

// Apply returns leaf ids indexed by tree, then row.
func (rf *RandomForestRegressor) Apply(X mat.Matrix) ([][]int, error) {
	if err := rf.checkInput(X, "Apply"); err != nil {
		return nil, err
	}
	return applyTrees(len(rf.estimators_), func(i int) ([]int, error) {
		return rf.estimators_[i].Apply(X)
	})
}

func (rf *RandomForestRegressor) checkInput(X mat.Matrix, method string) error {
	if !rf.state.IsFitted() {
		return errors.NewNotFittedError("RandomForestRegressor", method)
	}
	if _, c := X.Dims(); c != rf.state.NFeatures() {
		return errors.NewDimensionError("RandomForestRegressor."+method, rf.state.NFeatures(), c, 1)
	}
	return nil
}

// Estimators returns the fitted trees.
func (rf *RandomForestRegressor) Estimators() []*tree.DecisionTreeRegressor {
	return append([]*tree.DecisionTreeRegressor(nil), rf.estimators_...)
}

// NLeaves returns the total number of leaves over all trees.
func (rf *RandomForestRegressor) NLeaves() int {
	total := 0
	for _, dt := range rf.estimators_ {
		total += dt.NLeaves()
	}
	return total
}

// IsFitted reports whether Fit has completed.
func (rf *RandomForestRegressor) IsFitted() bool { return rf.state.IsFitted() }

// GetParams returns the model hyperparameters
func (rf *RandomForestRegressor) GetParams() map[string]interface{} {
	return rf.params.asMap()
}
