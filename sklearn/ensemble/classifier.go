package ensemble

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/stratx/core/model"
	"github.com/ezoic/stratx/pkg/errors"
	"github.com/ezoic/stratx/pkg/log"
	"github.com/ezoic/stratx/sklearn/tree"
)

// RandomForestClassifier is an ensemble of DecisionTreeClassifiers.
type RandomForestClassifier struct {
	state  *model.StateManager
	params forestParams
	logger log.Logger

	estimators_ []*tree.DecisionTreeClassifier
	classes_    []int
}

// NewRandomForestClassifier creates a new random forest classifier
func NewRandomForestClassifier(opts ...Option) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		state:  model.NewStateManager(),
		params: defaultForestParams(),
		logger: log.GetLoggerWithName("ensemble").With(log.ModelNameKey, "RandomForestClassifier"),
	}
	for _, opt := range opts {
		opt(&rf.params)
	}
	return rf
}

// Fit trains every tree on X and the integral labels in y.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestClassifier.Fit")
	start := time.Now()

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("RandomForestClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows, _ := y.Dims(); yRows != nSamples {
		return errors.NewDimensionError("RandomForestClassifier.Fit", nSamples, yRows, 0)
	}
	if err := rf.params.validate("RandomForestClassifier.Fit"); err != nil {
		return err
	}

	seen := make(map[int]bool)
	for i := 0; i < nSamples; i++ {
		seen[int(y.At(i, 0))] = true
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rf.logger.Debug("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, nSamples,
		log.TreesKey, rf.params.nEstimators,
	)

	estimators := make([]*tree.DecisionTreeClassifier, rf.params.nEstimators)
	err = fitTrees(&rf.params, func(i int, rng *rand.Rand) error {
		Xt, yt := trainingSet(X, y, rf.params.bootstrap, rng)
		dt := tree.NewDecisionTreeClassifier(
			tree.WithCriterion(rf.params.criterion),
			tree.WithMinSamplesLeaf(rf.params.minSamplesLeaf),
			tree.WithMaxDepth(rf.params.maxDepth),
			tree.WithMaxFeatures(rf.params.maxFeatures),
			tree.WithRand(rng),
		)
		if err := dt.Fit(Xt, yt); err != nil {
			return errors.NewModelError("RandomForestClassifier.Fit", fmt.Sprintf("tree %d failed", i), err)
		}
		estimators[i] = dt
		return nil
	})
	if err != nil {
		return err
	}

	rf.estimators_ = estimators
	rf.classes_ = classes
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

// PredictProba averages the class probabilities of all trees. Columns
// follow Classes(); a class missing from a tree's bootstrap sample gets
// probability zero from that tree.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.checkInput(X, "PredictProba"); err != nil {
		return nil, err
	}
	column := make(map[int]int, len(rf.classes_))
	for j, c := range rf.classes_ {
		column[c] = j
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, len(rf.classes_), nil)
	for _, dt := range rf.estimators_ {
		p, err := dt.PredictProba(X)
		if err != nil {
			return nil, err
		}
		for k, c := range dt.Classes() {
			j := column[c]
			for i := 0; i < nSamples; i++ {
				probas.Set(i, j, probas.At(i, j)+p.At(i, k))
			}
		}
	}
	probas.Scale(1/float64(len(rf.estimators_)), probas)
	return probas, nil
}

// Predict returns the class with the highest averaged probability.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	nSamples, nClasses := probas.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for j := 1; j < nClasses; j++ {
			if probas.At(i, j) > probas.At(i, best) {
				best = j
			}
		}
		predictions.Set(i, 0, float64(rf.classes_[best]))
	}
	return predictions, nil
}

// Apply returns leaf ids indexed by tree, then row.
func (rf *RandomForestClassifier) Apply(X mat.Matrix) ([][]int, error) {
	if err := rf.checkInput(X, "Apply"); err != nil {
		return nil, err
	}
	return applyTrees(len(rf.estimators_), func(i int) ([]int, error) {
		return rf.estimators_[i].Apply(X)
	})
}

func (rf *RandomForestClassifier) checkInput(X mat.Matrix, method string) error {
	if !rf.state.IsFitted() {
		return errors.NewNotFittedError("RandomForestClassifier", method)
	}
	if _, c := X.Dims(); c != rf.state.NFeatures() {
		return errors.NewDimensionError("RandomForestClassifier."+method, rf.state.NFeatures(), c, 1)
	}
	return nil
}

// Classes returns the sorted class labels seen during Fit.
func (rf *RandomForestClassifier) Classes() []int {
	return append([]int(nil), rf.classes_...)
}

// Estimators returns the fitted trees.
func (rf *RandomForestClassifier) Estimators() []*tree.DecisionTreeClassifier {
	return append([]*tree.DecisionTreeClassifier(nil), rf.estimators_...)
}

// NLeaves returns the total number of leaves over all trees.
func (rf *RandomForestClassifier) NLeaves() int {
	total := 0
	for _, dt := range rf.estimators_ {
		total += dt.NLeaves()
	}
	return total
}

// IsFitted reports whether Fit has completed.
func (rf *RandomForestClassifier) IsFitted() bool { return rf.state.IsFitted() }

// GetParams returns the model hyperparameters
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return rf.params.asMap()
}
