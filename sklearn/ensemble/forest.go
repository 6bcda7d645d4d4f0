// Package ensemble implements random forests of CART trees.
//
// Forests are used by stratx as space partitioners rather than
// predictors: Apply returns, for every tree, the leaf each row falls into.
// Every tree gets its own generator seeded from values drawn up front
// from the forest generator, so results depend only on the seed and not
// on the order in which trees finish training concurrently.
package ensemble

import (
	"context"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/stratx/core/parallel"
)

// treeSeed is the per-tree randomness drawn before training starts.
type treeSeed struct {
	hi, lo uint64
}

func drawSeeds(rng *rand.Rand, n int) []treeSeed {
	seeds := make([]treeSeed, n)
	for i := range seeds {
		seeds[i] = treeSeed{hi: rng.Uint64(), lo: rng.Uint64()}
	}
	return seeds
}

func (s treeSeed) rand() *rand.Rand {
	return rand.New(rand.NewPCG(s.hi, s.lo))
}

// bootstrapRows draws n row indices with replacement.
func bootstrapRows(rng *rand.Rand, n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = rng.IntN(n)
	}
	return rows
}

// selectRows copies the given rows of X and y.
func selectRows(X, y mat.Matrix, rows []int) (*mat.Dense, *mat.Dense) {
	_, c := X.Dims()
	Xs := mat.NewDense(len(rows), c, nil)
	ys := mat.NewDense(len(rows), 1, nil)
	for i, r := range rows {
		for j := 0; j < c; j++ {
			Xs.Set(i, j, X.At(r, j))
		}
		ys.Set(i, 0, y.At(r, 0))
	}
	return Xs, ys
}

// trainingSet returns the rows a tree is trained on.
func trainingSet(X, y mat.Matrix, bootstrap bool, rng *rand.Rand) (mat.Matrix, mat.Matrix) {
	if !bootstrap {
		return X, y
	}
	n, _ := X.Dims()
	return selectRows(X, y, bootstrapRows(rng, n))
}

// fitTrees trains n trees concurrently. fit receives the tree index and
// a generator owned by that tree.
func fitTrees(p *forestParams, fit func(i int, rng *rand.Rand) error) error {
	seeds := drawSeeds(p.random(), p.nEstimators)
	return parallel.ForEach(context.Background(), p.nEstimators, p.nJobs, func(_ context.Context, i int) error {
		return fit(i, seeds[i].rand())
	})
}

// applyTrees collects per-tree leaf ids concurrently.
func applyTrees(n int, apply func(i int) ([]int, error)) ([][]int, error) {
	leaves := make([][]int, n)
	err := parallel.ForEach(context.Background(), n, 0, func(_ context.Context, i int) error {
		ids, err := apply(i)
		if err != nil {
			return err
		}
		leaves[i] = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return leaves, nil
}
