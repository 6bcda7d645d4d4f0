// Package metrics provides the goodness-of-fit measures used to report on
// the partition forests trained by stratx.
//
// The partition forest's predictions are never part of a partial
// dependence result, but its fit on the data (R² for the supervised
// regressor, accuracy for the unsupervised real-vs-scrambled classifier) is
// logged as a diagnostic so callers can judge how much structure the
// partition captured.
//
// Example usage:
//
//	r2, err := metrics.R2Score(yTrue, yPred)
//	if err != nil {
//		log.Fatal(err)
//	}
package metrics

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	stratxErrors "github.com/ezoic/stratx/pkg/errors"
)

// MSE calculates the Mean Squared Error between true and predicted values.
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, stratxErrors.NewValueError("MSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, stratxErrors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// R2Score calculates the coefficient of determination R².
//
// R² = 1 - RSS/TSS, where 1 indicates perfect predictions and 0 indicates
// predictions no better than the mean.
//
// Errors:
//   - ValueError: if input vectors are empty or yTrue has no variance
//   - DimensionError: if yTrue and yPred have different lengths
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, stratxErrors.NewValueError("R2Score", "empty vector")
	}
	if yPred.Len() != n {
		return 0, stratxErrors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	yMean := stat.Mean(mat.Col(nil, 0, yTrue), nil)

	var tss, rss float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		p := yPred.AtVec(i)
		tss += (t - yMean) * (t - yMean)
		rss += (t - p) * (t - p)
	}

	if tss == 0 {
		return 0, stratxErrors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// Accuracy returns the fraction of positions where yTrue and yPred agree.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, stratxErrors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, stratxErrors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}
