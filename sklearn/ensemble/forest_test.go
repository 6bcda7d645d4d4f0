package ensemble_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/stratx/pkg/errors"
	"github.com/ezoic/stratx/sklearn/ensemble"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func linearData(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	r := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			X.Set(i, j, r.Float64()*10)
		}
		y.Set(i, 0, 2*X.At(i, 0)-X.At(i, 1))
	}
	return X, y
}

func TestRegressorApplyShape(t *testing.T) {
	X, y := linearData(120, 1)
	rf := ensemble.NewRandomForestRegressor(
		ensemble.WithNEstimators(4),
		ensemble.WithMinSamplesLeaf(10),
		ensemble.WithRand(rand.New(rand.NewPCG(3, 3))),
	)
	require.NoError(t, rf.Fit(X, y))

	leaves, err := rf.Apply(X)
	require.NoError(t, err)
	require.Len(t, leaves, 4)
	total := 0
	for ti, ids := range leaves {
		assert.Len(t, ids, 120)
		n := rf.Estimators()[ti].NLeaves()
		total += n
		for _, id := range ids {
			assert.GreaterOrEqual(t, id, 0)
			assert.Less(t, id, n)
		}
	}
	assert.Equal(t, total, rf.NLeaves())
}

func TestRegressorReproducible(t *testing.T) {
	X, y := linearData(80, 2)
	fit := func() [][]int {
		rf := ensemble.NewRandomForestRegressor(
			ensemble.WithNEstimators(5),
			ensemble.WithMaxFeatures(0.5),
			ensemble.WithMinSamplesLeaf(5),
			ensemble.WithRand(rand.New(rand.NewPCG(11, 12))),
		)
		require.NoError(t, rf.Fit(X, y))
		leaves, err := rf.Apply(X)
		require.NoError(t, err)
		return leaves
	}
	assert.Equal(t, fit(), fit())
}

func TestRegressorWithoutBootstrapMatchesTree(t *testing.T) {
	X, y := linearData(60, 3)
	rf := ensemble.NewRandomForestRegressor(
		ensemble.WithNEstimators(2),
		ensemble.WithBootstrap(false),
		ensemble.WithMinSamplesLeaf(10),
		ensemble.WithRand(rand.New(rand.NewPCG(1, 1))),
	)
	require.NoError(t, rf.Fit(X, y))

	// Without bootstrap or feature sampling every tree sees identical data.
	leaves, err := rf.Apply(X)
	require.NoError(t, err)
	assert.Equal(t, leaves[0], leaves[1])
}

func TestRegressorPredictFits(t *testing.T) {
	X, y := linearData(200, 4)
	rf := ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(3), ensemble.WithRand(rand.New(rand.NewPCG(5, 5))))
	require.NoError(t, rf.Fit(X, y))

	pred, err := rf.Predict(X)
	require.NoError(t, err)
	var sse, sst, mean float64
	for i := 0; i < 200; i++ {
		mean += y.At(i, 0) / 200
	}
	for i := 0; i < 200; i++ {
		d := y.At(i, 0) - pred.At(i, 0)
		sse += d * d
		m := y.At(i, 0) - mean
		sst += m * m
	}
	assert.Greater(t, 1-sse/sst, 0.8)
}

func TestClassifierRealVsScrambled(t *testing.T) {
	n := 100
	X := mat.NewDense(2*n, 2, nil)
	y := mat.NewDense(2*n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, 0)
		X.Set(n+i, 0, float64(i))
		X.Set(n+i, 1, 10)
		y.Set(n+i, 0, 1)
	}
	rf := ensemble.NewRandomForestClassifier(
		ensemble.WithNEstimators(3),
		ensemble.WithRand(rand.New(rand.NewPCG(9, 9))),
	)
	require.NoError(t, rf.Fit(X, y))
	assert.Equal(t, []int{0, 1}, rf.Classes())

	pred, err := rf.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 2*n; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0))
	}

	proba, err := rf.PredictProba(X)
	require.NoError(t, err)
	for i := 0; i < 2*n; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-12)
	}

	leaves, err := rf.Apply(X.Slice(0, n, 0, 2))
	require.NoError(t, err)
	assert.Len(t, leaves, 3)
}

func TestForestErrors(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})

	_, err := ensemble.NewRandomForestRegressor().Apply(X)
	assert.True(t, errors.Is(err, errors.ErrNotFitted))

	_, err = ensemble.NewRandomForestClassifier().Predict(X)
	assert.True(t, errors.Is(err, errors.ErrNotFitted))

	err = ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(0)).Fit(X, mat.NewDense(2, 1, nil))
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))

	err = ensemble.NewRandomForestRegressor().Fit(&mat.Dense{}, &mat.Dense{})
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestTreeFailurePropagates(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	rf := ensemble.NewRandomForestClassifier(ensemble.WithCriterion("mse"), ensemble.WithNEstimators(2))
	err := rf.Fit(X, mat.NewDense(2, 1, nil))
	require.Error(t, err)
	var modelErr *errors.ModelError
	assert.True(t, errors.As(err, &modelErr))
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
}
