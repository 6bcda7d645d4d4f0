package stratpd

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestScramblePreservesMarginals(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
		5, 50,
		6, 60,
	})
	orig := mat.DenseCopyOf(X)

	S := Scramble(X, rand.New(rand.NewPCG(1, 2)))
	assert.True(t, mat.Equal(orig, X), "input must not change")

	for j := 0; j < 2; j++ {
		want := mat.Col(nil, j, X)
		got := mat.Col(nil, j, S)
		sort.Float64s(got)
		assert.Equal(t, want, got)
	}
}

func TestScrambleDeterministic(t *testing.T) {
	X := mat.NewDense(20, 3, nil)
	for i := 0; i < 20; i++ {
		for j := 0; j < 3; j++ {
			X.Set(i, j, float64(i*3+j))
		}
	}
	a := Scramble(X, rand.New(rand.NewPCG(5, 5)))
	b := Scramble(X, rand.New(rand.NewPCG(5, 5)))
	assert.True(t, mat.Equal(a, b))
}

func TestConjureTwoClass(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	synth, labels := ConjureTwoClass(X, rand.New(rand.NewPCG(3, 4)))

	r, c := synth.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 2, c)
	assert.True(t, mat.Equal(X, synth.Slice(0, 3, 0, 2)))
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1}, labels)

	for j := 0; j < 2; j++ {
		got := mat.Col(nil, j, synth.Slice(3, 6, 0, 2))
		sort.Float64s(got)
		assert.Equal(t, mat.Col(nil, j, X), got)
	}
}
