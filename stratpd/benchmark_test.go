package stratpd

import (
	"fmt"
	"math/rand/v2"
	"testing"
)

// benchmarkSlopes builds leaf slope intervals the way a forest of nTrees
// would for an x column with k distinct values.
func benchmarkSlopes(nTrees, leaves, k int) ([]float64, []Interval, []float64) {
	r := rand.New(rand.NewPCG(42, 42))
	uniqX := make([]float64, k)
	for i := range uniqX {
		uniqX[i] = float64(i)
	}
	var ranges []Interval
	var slopes []float64
	for t := 0; t < nTrees*leaves; t++ {
		for s := 0; s < 4; s++ {
			lo := r.IntN(k - 1)
			hi := lo + 1 + r.IntN(min(10, k-1-lo))
			ranges = append(ranges, Interval{Lo: float64(lo), Hi: float64(hi)})
			slopes = append(slopes, r.NormFloat64())
		}
	}
	return uniqX, ranges, slopes
}

func BenchmarkAvgValuesAtX(b *testing.B) {
	sizes := []struct {
		trees, leaves, k int
	}{
		{1, 100, 200},
		{10, 100, 2000},
		{50, 200, 5000},
	}
	for _, size := range sizes {
		uniqX, ranges, slopes := benchmarkSlopes(size.trees, size.leaves, size.k)
		for _, s := range []Strategy{Sequential, ByRecord, ByX} {
			b.Run(fmt.Sprintf("%s/%dx%d/k=%d", s, size.trees, size.leaves, size.k), func(b *testing.B) {
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, _, err := avgValuesAtX(uniqX, ranges, slopes, s, 0); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkPartialDependence(b *testing.B) {
	X, y := linearData(b, 5000, 1)
	for _, trees := range []int{1, 10} {
		b.Run(fmt.Sprintf("trees=%d", trees), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := PartialDependence(X, y, "x1", WithSeed(1), WithNTrees(trees), WithMinSlopesPerX(1)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
