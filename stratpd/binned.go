package stratpd

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/stratx/core/table"
	"github.com/ezoic/stratx/pkg/errors"
	"github.com/ezoic/stratx/pkg/log"
)

// lastBinExtension widens a leaf's x domain so its maximum falls inside
// the last bin.
const lastBinExtension = 1e-7

// PointBetas holds the per-bin regression slopes of every leaf and the
// slope assigned to every row.
type PointBetas struct {
	Ranges []Interval
	Slopes []float64
	// Betas[i] is the slope of the last bin row i fell into, or NaN when
	// row i was only ever in ignored bins.
	Betas   []float64
	Ignored int
}

// binOf returns the index of the half-open bin of edges containing x, or
// -1 when x is outside [edges[0], edges[len-1]).
func binOf(edges []float64, x float64) int {
	b := sort.Search(len(edges), func(k int) bool { return edges[k] > x }) - 1
	if b < 0 || b >= len(edges)-1 {
		return -1
	}
	return b
}

// CollectPointBetas splits the x range of every leaf into nbins
// equal-width bins and fits y ~ x by least squares in each bin. Bins with
// fewer than two rows or without variation in x are ignored.
func CollectPointBetas(xCol, y []float64, leaves [][]int, nbins int) (*PointBetas, error) {
	const op = "CollectPointBetas"
	if len(xCol) != len(y) {
		return nil, errors.NewDimensionError(op, len(xCol), len(y), 0)
	}
	if nbins < 1 {
		return nil, errors.NewConfigurationError(op, "nbins", "must be >= 1")
	}

	out := &PointBetas{Betas: make([]float64, len(xCol))}
	for i := range out.Betas {
		out.Betas[i] = math.NaN()
	}

	edges := make([]float64, nbins+1)
	var leafX []float64
	for _, rows := range leaves {
		if len(rows) == 0 {
			continue
		}
		leafX = leafX[:0]
		for _, r := range rows {
			if r < 0 || r >= len(xCol) {
				return nil, errors.NewValueError(op, "leaf row index out of range")
			}
			leafX = append(leafX, xCol[r])
		}
		floats.Span(edges, floats.Min(leafX), floats.Max(leafX)+lastBinExtension)

		binned := make([][]int, nbins)
		for _, r := range rows {
			if b := binOf(edges, xCol[r]); b >= 0 {
				binned[b] = append(binned[b], r)
			} else {
				out.Ignored++
			}
		}

		for _, binRows := range binned {
			if len(binRows) < 2 {
				out.Ignored += len(binRows)
				continue
			}
			bx := make([]float64, len(binRows))
			by := make([]float64, len(binRows))
			for k, r := range binRows {
				bx[k], by[k] = xCol[r], y[r]
			}
			lo, hi := floats.Min(bx), floats.Max(bx)
			if hi-lo < tolerance {
				out.Ignored += len(binRows)
				continue
			}
			_, beta := stat.LinearRegression(bx, by, nil, false)
			for _, r := range binRows {
				out.Betas[r] = beta
			}
			out.Ranges = append(out.Ranges, Interval{Lo: lo, Hi: hi})
			out.Slopes = append(out.Slopes, beta)
		}
	}
	return out, nil
}

// BinnedResult is the partial dependence computed from binned regression
// slopes.
type BinnedResult struct {
	Column     string
	LeafRanges []Interval
	LeafSlopes []float64
	PointBetas []float64
	// BinEdges are the smoothing bin edges; BinSlopes[i] is the mean
	// point beta of rows in [BinEdges[i], BinEdges[i+1]), NaN if none.
	BinEdges  []float64
	BinSlopes []float64
	PdpX      []float64
	PdpY      []float64
	Ignored   int
	NLeaves   int
	Forest    Forest
}

// smoothBetas averages the non-NaN betas of the rows in every bin. The
// last bin is closed on the right.
func smoothBetas(x, betas, edges []float64) []float64 {
	nb := len(edges) - 1
	sums := make([]float64, nb)
	counts := make([]int, nb)
	for i, v := range x {
		if math.IsNaN(betas[i]) {
			continue
		}
		b := binOf(edges, v)
		if b < 0 && v == edges[nb] {
			b = nb - 1
		}
		if b < 0 {
			continue
		}
		sums[b] += betas[i]
		counts[b]++
	}
	slopes := make([]float64, nb)
	for b := range slopes {
		if counts[b] == 0 {
			slopes[b] = math.NaN()
			continue
		}
		slopes[b] = sums[b] / float64(counts[b])
	}
	return slopes
}

// PartialDependenceBinned computes partial dependence from least-squares
// slopes fitted in nbins equal-width bins per leaf. Point slopes are then
// averaged over nbinsSmoothing equal-width bins of the column, or over
// the gaps between its distinct values when nbinsSmoothing is zero, and
// accumulated from zero at the smallest x. Bins without slopes are
// skipped.
func PartialDependenceBinned(X *table.Table, y []float64, column string, nbins, nbinsSmoothing int, opts ...Option) (res *BinnedResult, err error) {
	const op = "PartialDependenceBinned"
	defer errors.Recover(&err, op)
	start := time.Now()

	if nbins < 1 {
		return nil, errors.NewConfigurationError(op, "nbins", "must be >= 1")
	}
	if nbinsSmoothing < 0 {
		return nil, errors.NewConfigurationError(op, "nbins_smoothing", "must be >= 0")
	}
	p, err := prepare(op, X, y, column, opts)
	if err != nil {
		return nil, err
	}

	part, err := Partition(X, y, p.column, p.cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "partitioning column %s", column)
	}
	betas, err := CollectPointBetas(p.xCol, y, part.Leaves, nbins)
	if err != nil {
		return nil, err
	}

	var edges []float64
	if nbinsSmoothing == 0 {
		edges = p.uniqX
	} else {
		edges = floats.Span(make([]float64, nbinsSmoothing+1), p.uniqX[0], p.uniqX[len(p.uniqX)-1])
	}
	binSlopes := smoothBetas(p.xCol, betas.Betas, edges)

	pdpx := []float64{edges[0]}
	pdpy := []float64{0}
	cum := 0.0
	for b, slope := range binSlopes {
		if math.IsNaN(slope) {
			continue
		}
		cum += slope * (edges[b+1] - edges[b])
		pdpx = append(pdpx, edges[b+1])
		pdpy = append(pdpy, cum)
	}

	p.logger.Debug("Binned partial dependence completed",
		log.LeavesKey, len(part.Leaves),
		log.RecordsKey, len(betas.Slopes),
		log.IgnoredKey, betas.Ignored,
		log.RetainedKey, len(pdpx),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return &BinnedResult{
		Column:     column,
		LeafRanges: betas.Ranges,
		LeafSlopes: betas.Slopes,
		PointBetas: betas.Betas,
		BinEdges:   edges,
		BinSlopes:  binSlopes,
		PdpX:       pdpx,
		PdpY:       pdpy,
		Ignored:    betas.Ignored,
		NLeaves:    len(part.Leaves),
		Forest:     part.Forest,
	}, nil
}
