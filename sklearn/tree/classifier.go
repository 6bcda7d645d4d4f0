package tree

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/stratx/core/model"
	"github.com/ezoic/stratx/pkg/errors"
	"github.com/ezoic/stratx/pkg/log"
)

// DecisionTreeClassifier implements a decision tree for classification
type DecisionTreeClassifier struct {
	state  *model.StateManager
	params params
	logger log.Logger

	tree_               *TreeNode
	nLeaves_            int
	classes_            []int // Unique class labels
	featureImportances_ []float64
}

// NewDecisionTreeClassifier creates a new decision tree classifier
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:  model.NewStateManager(),
		params: defaultParams("gini"),
		logger: log.GetLoggerWithName("tree").With(log.ModelNameKey, "DecisionTreeClassifier"),
	}
	for _, opt := range opts {
		opt(&dt.params)
	}
	return dt
}

// Fit trains the decision tree. y holds integral class labels.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Fit")
	start := time.Now()

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if nSamples != yRows {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "y must be a column vector")
	}
	if dt.params.criterion != "gini" && dt.params.criterion != "entropy" {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "unsupported criterion "+dt.params.criterion)
	}
	if err := dt.params.validate("DecisionTreeClassifier.Fit"); err != nil {
		return err
	}

	dt.extractClasses(y)
	nClasses := len(dt.classes_)

	// Convert y to class indices
	classIndex := make(map[int]int, nClasses)
	for j, class := range dt.classes_ {
		classIndex[class] = j
	}
	target := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		target[i] = classIndex[int(y.At(i, 0))]
	}

	criterion := dt.params.criterion
	g := &grower{
		p:    &dt.params,
		cols: columns(X),
		newStats: func() nodeStats {
			return &classStats{y: target, counts: make([]int, nClasses), criterion: criterion}
		},
		fillLeaf: func(node *TreeNode, idx []int) {
			counts := make([]int, nClasses)
			for _, i := range idx {
				counts[target[i]]++
			}
			best := 0
			for j, c := range counts {
				if c > counts[best] {
					best = j
				}
			}
			node.ClassCounts = counts
			node.PredictClass = best
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

// extractClasses identifies unique class labels
func (dt *DecisionTreeClassifier) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)
	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}
	dt.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		dt.classes_ = append(dt.classes_, class)
	}
	// Sort for consistency
	sort.Ints(dt.classes_)
}

// Predict makes predictions for input data
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkInput(X, "Predict"); err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		leaf := dt.tree_.leafFor(func(f int) float64 { return X.At(i, f) })
		predictions.Set(i, 0, float64(dt.classes_[leaf.PredictClass]))
	}
	return predictions, nil
}

// PredictProba returns probability estimates for each class
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkInput(X, "PredictProba"); err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	nClasses := len(dt.classes_)
	probas := mat.NewDense(nSamples, nClasses, nil)
	for i := 0; i < nSamples; i++ {
		leaf := dt.tree_.leafFor(func(f int) float64 { return X.At(i, f) })
		total := 0
		for _, c := range leaf.ClassCounts {
			total += c
		}
		if total == 0 {
			continue
		}
		for j := 0; j < nClasses; j++ {
			probas.Set(i, j, float64(leaf.ClassCounts[j])/float64(total))
		}
	}
	return probas, nil
}

// Apply returns the leaf id of every row of X.
func (dt *DecisionTreeClassifier) Apply(X mat.Matrix) ([]int, error) {
	if err := dt.checkInput(X, "Apply"); err != nil {
		return nil, err
	}
	return applyTree(dt.tree_, X), nil
}

func (dt *DecisionTreeClassifier) checkInput(X mat.Matrix, method string) error {
	if !dt.state.IsFitted() {
		return errors.NewNotFittedError("DecisionTreeClassifier", method)
	}
	if _, c := X.Dims(); c != dt.state.NFeatures() {
		return errors.NewDimensionError("DecisionTreeClassifier."+method, dt.state.NFeatures(), c, 1)
	}
	return nil
}

// Classes returns the sorted class labels seen during Fit.
func (dt *DecisionTreeClassifier) Classes() []int {
	return append([]int(nil), dt.classes_...)
}

// NLeaves returns the number of leaf nodes
func (dt *DecisionTreeClassifier) NLeaves() int { return dt.nLeaves_ }

// Depth returns the depth of the tree
func (dt *DecisionTreeClassifier) Depth() int { return maxDepth(dt.tree_) }

// Root returns the root node, or nil before Fit.
func (dt *DecisionTreeClassifier) Root() *TreeNode { return dt.tree_ }

// IsFitted reports whether Fit has completed.
func (dt *DecisionTreeClassifier) IsFitted() bool { return dt.state.IsFitted() }

// FeatureImportances returns feature importance scores
func (dt *DecisionTreeClassifier) FeatureImportances() []float64 {
	return append([]float64(nil), dt.featureImportances_...)
}

// GetParams returns the model hyperparameters
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return dt.params.asMap()
}
