package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/stratx/metrics"
	"github.com/ezoic/stratx/pkg/errors"
)

func TestR2ScoreMeanPrediction(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{2.5, 2.5, 2.5, 2.5})

	r2, err := metrics.R2Score(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r2, 1e-12)
}

func TestR2ScoreErrors(t *testing.T) {
	_, err := metrics.R2Score(mat.NewVecDense(2, []float64{1, 1}), mat.NewVecDense(2, []float64{1, 1}))
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))

	_, err = metrics.R2Score(mat.NewVecDense(2, []float64{1, 2}), mat.NewVecDense(3, []float64{1, 2, 3}))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestMSEDimensionMismatch(t *testing.T) {
	_, err := metrics.MSE(mat.NewVecDense(2, []float64{1, 2}), mat.NewVecDense(1, []float64{1}))
	assert.Error(t, err)
}

func TestAccuracy(t *testing.T) {
	acc, err := metrics.Accuracy(
		mat.NewVecDense(4, []float64{0, 1, 1, 0}),
		mat.NewVecDense(4, []float64{0, 1, 0, 0}),
	)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, acc, 1e-12)
}
