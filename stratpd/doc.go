// Package stratpd computes stratified partial dependence (StratPD).
//
// StratPD isolates the effect of one column x on a target y without
// fitting a model of y. A partition forest is trained on every column
// except x, which groups observations that are similar in all other
// features. Within each leaf the remaining variation of y is attributed
// to x: the leaf's distinct x values are joined by finite-difference
// slopes, the slopes of all leaves are averaged at every distinct x, and
// the averaged slopes are integrated into a curve that starts at zero.
//
// Basic usage:
//
//	X, _ := table.FromColumns([]string{"x1", "x2"}, [][]float64{x1, x2})
//	res, err := stratpd.PartialDependence(X, y, "x1",
//		stratpd.WithMinSamplesLeaf(10),
//		stratpd.WithSeed(42),
//	)
//	if err != nil {
//		return err
//	}
//	for i := range res.PdpX {
//		fmt.Println(res.PdpX[i], res.PdpY[i])
//	}
//
// CatPartialDependence handles integer-coded categorical columns by
// comparing each category's mean target to its leaf mean. The binned
// variant PartialDependenceBinned fits least-squares slopes in
// equal-width bins per leaf instead of using finite differences.
//
// Every entry point is a pure function of its inputs and the supplied
// random generator; calls can run concurrently.
package stratpd
