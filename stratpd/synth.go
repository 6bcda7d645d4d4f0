package stratpd

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Scramble returns a copy of X whose columns are independently permuted.
// Column marginals are preserved; the dependence between columns is not.
func Scramble(X mat.Matrix, rng *rand.Rand) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		rng.Shuffle(r, func(a, b int) { col[a], col[b] = col[b], col[a] })
		out.SetCol(j, col)
	}
	return out
}

// ConjureTwoClass stacks X on top of Scramble(X) and labels the original
// rows 0 and the scrambled rows 1. A classifier separating the two classes
// learns where the joint distribution of X differs from the product of
// its marginals.
func ConjureTwoClass(X mat.Matrix, rng *rand.Rand) (*mat.Dense, []float64) {
	r, c := X.Dims()
	synth := mat.NewDense(2*r, c, nil)
	synth.Slice(0, r, 0, c).(*mat.Dense).Copy(X)
	synth.Slice(r, 2*r, 0, c).(*mat.Dense).Copy(Scramble(X, rng))

	labels := make([]float64, 2*r)
	for i := r; i < 2*r; i++ {
		labels[i] = 1
	}
	return synth, labels
}
