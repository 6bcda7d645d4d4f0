package tree

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/stratx/core/parallel"
	"github.com/ezoic/stratx/pkg/errors"
)

// impurityTol is the impurity below which a node is considered pure.
const impurityTol = 1e-12

// grower builds a tree over column-major feature data by recursive
// best-first splitting on index sets.
type grower struct {
	p           *params
	cols        [][]float64
	newStats    func() nodeStats
	fillLeaf    func(node *TreeNode, idx []int)
	importances []float64
	nLeaves     int
}

// columns copies X into column-major slices.
func columns(X mat.Matrix) [][]float64 {
	_, c := X.Dims()
	cols := make([][]float64, c)
	for j := 0; j < c; j++ {
		cols[j] = mat.Col(nil, j, X)
	}
	return cols
}

func (p *params) validate(op string) error {
	if p.minSamplesLeaf < 1 {
		return errors.NewValueError(op, "min_samples_leaf must be >= 1")
	}
	if p.maxDepth < 0 {
		return errors.NewValueError(op, "max_depth must be >= 0")
	}
	if !(p.maxFeatures > 0 && p.maxFeatures <= 1) {
		return errors.NewValueError(op, "max_features must be in (0, 1]")
	}
	return nil
}

func (g *grower) build(nSamples int) *TreeNode {
	g.importances = make([]float64, len(g.cols))
	g.nLeaves = 0
	idx := make([]int, nSamples)
	for i := range idx {
		idx[i] = i
	}
	root := g.grow(idx, 0)
	g.normalizeImportances()
	return root
}

// grow recursively builds the subtree for the samples in idx
func (g *grower) grow(idx []int, depth int) *TreeNode {
	stats := g.newStats()
	for _, i := range idx {
		stats.add(i)
	}
	node := &TreeNode{
		Impurity: stats.impurity(),
		NSamples: len(idx),
		Depth:    depth,
	}

	if g.shouldStop(len(idx), node.Impurity, depth) {
		return g.leaf(node, idx)
	}

	// Impure nodes split even at zero impurity decrease.
	feature, threshold, decrease := g.findBestSplit(idx, node.Impurity)
	if feature < 0 || decrease < -impurityTol {
		return g.leaf(node, idx)
	}

	left, right := splitIndices(g.cols[feature], idx, threshold)
	if len(left) < g.p.minSamplesLeaf || len(right) < g.p.minSamplesLeaf {
		return g.leaf(node, idx)
	}

	node.Feature = feature
	node.Threshold = threshold
	g.importances[feature] += math.Max(decrease, 0) * float64(len(idx))

	node.Left = g.grow(left, depth+1)
	node.Right = g.grow(right, depth+1)
	return node
}

func (g *grower) leaf(node *TreeNode, idx []int) *TreeNode {
	node.IsLeaf = true
	node.LeafID = g.nLeaves
	g.nLeaves++
	g.fillLeaf(node, idx)
	return node
}

// shouldStop checks stopping criteria
func (g *grower) shouldStop(nSamples int, impurity float64, depth int) bool {
	if g.p.maxDepth > 0 && depth >= g.p.maxDepth {
		return true
	}
	if nSamples < 2*g.p.minSamplesLeaf {
		return true
	}
	return impurity <= impurityTol
}

// candidateFeatures returns the features examined at one node.
func (g *grower) candidateFeatures() []int {
	nFeatures := len(g.cols)
	k := int(g.p.maxFeatures * float64(nFeatures))
	if k < 1 {
		k = 1
	}
	if k >= nFeatures {
		all := make([]int, nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return g.p.random().Perm(nFeatures)[:k]
}

// findBestSplit sweeps every candidate feature in sorted order, moving one
// sample at a time from the right child statistics to the left one, and
// returns the threshold with the largest impurity decrease, which may be
// zero. Ties keep the first threshold found.
func (g *grower) findBestSplit(idx []int, parentImpurity float64) (int, float64, float64) {
	n := len(idx)
	bestFeature := -1
	bestThreshold := 0.0
	bestDecrease := math.Inf(-1)

	sorted := make([]int, n)
	left, right := g.newStats(), g.newStats()

	for _, feature := range g.candidateFeatures() {
		col := g.cols[feature]
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return col[sorted[a]] < col[sorted[b]] })
		if col[sorted[0]] == col[sorted[n-1]] {
			continue
		}

		left.reset()
		right.reset()
		for _, i := range sorted {
			right.add(i)
		}

		for k := 0; k < n-1; k++ {
			left.add(sorted[k])
			right.remove(sorted[k])

			v, next := col[sorted[k]], col[sorted[k+1]]
			if v == next {
				continue
			}
			nLeft, nRight := k+1, n-k-1
			if nLeft < g.p.minSamplesLeaf || nRight < g.p.minSamplesLeaf {
				continue
			}

			weighted := (float64(nLeft)*left.impurity() + float64(nRight)*right.impurity()) / float64(n)
			decrease := parentImpurity - weighted
			if decrease > bestDecrease+impurityTol {
				bestDecrease = decrease
				bestFeature = feature
				// Threshold is midpoint
				bestThreshold = v + (next-v)/2
				if bestThreshold >= next {
					bestThreshold = v
				}
			}
		}
	}

	return bestFeature, bestThreshold, bestDecrease
}

// splitIndices splits idx based on feature values and threshold
func splitIndices(col []float64, idx []int, threshold float64) ([]int, []int) {
	var left, right []int
	for _, i := range idx {
		if col[i] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// normalizeImportances normalizes feature importance scores
func (g *grower) normalizeImportances() {
	sum := 0.0
	for _, imp := range g.importances {
		sum += imp
	}
	if sum > 0 {
		for i := range g.importances {
			g.importances[i] /= sum
		}
	}
}

// applyThreshold is the row count from which applyTree routes rows
// concurrently.
const applyThreshold = 4096

// applyTree returns the leaf id of every row of X.
func applyTree(root *TreeNode, X mat.Matrix) []int {
	nSamples, _ := X.Dims()
	leaves := make([]int, nSamples)
	parallel.ParallelizeWithThreshold(nSamples, applyThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			leaves[i] = root.leafFor(func(f int) float64 { return X.At(i, f) }).LeafID
		}
	})
	return leaves
}
