package stratpd

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/ezoic/stratx/pkg/errors"
)

// tolerance separates distinct x values within a leaf.
const tolerance = 1e-8

// Interval is the half-open range [Lo, Hi) of a leaf slope.
type Interval struct {
	Lo float64
	Hi float64
}

// Contains reports whether Lo <= x < Hi.
func (iv Interval) Contains(x float64) bool {
	return iv.Lo <= x && x < iv.Hi
}

// Width returns Hi - Lo.
func (iv Interval) Width() float64 {
	return iv.Hi - iv.Lo
}

// DiscreteSlopes computes the finite-difference slopes between adjacent
// distinct x values of one leaf. Values of x closer than 1e-8 to the
// smallest value of their group are merged; y is averaged per group.
//
// For x = [1, 3, 4] and y = [9, 8, 10] it returns the intervals
// [1,3) and [3,4) with slopes -0.5 and 2. A leaf with a single distinct
// x returns no slopes and reports all its rows as ignored.
func DiscreteSlopes(x, y []float64) ([]Interval, []float64, int) {
	if len(x) == 0 {
		return nil, nil, 0
	}
	order := make([]int, len(x))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })

	var (
		groupX []float64
		groupY []float64
		sum    float64
		count  int
	)
	flush := func() {
		if count > 0 {
			groupY = append(groupY, sum/float64(count))
		}
	}
	for _, i := range order {
		if len(groupX) == 0 || x[i]-groupX[len(groupX)-1] >= tolerance {
			flush()
			groupX = append(groupX, x[i])
			sum, count = 0, 0
		}
		sum += y[i]
		count++
	}
	flush()

	if len(groupX) == 1 {
		return nil, nil, len(x)
	}

	ranges := make([]Interval, len(groupX)-1)
	slopes := make([]float64, len(groupX)-1)
	for i := range ranges {
		ranges[i] = Interval{Lo: groupX[i], Hi: groupX[i+1]}
		slopes[i] = (groupY[i+1] - groupY[i]) / (groupX[i+1] - groupX[i])
	}
	return ranges, slopes, 0
}

// LeafSlopes holds the slope records of every leaf of a partitioning.
type LeafSlopes struct {
	Ranges []Interval
	Slopes []float64
	// Ignored counts rows in leaves whose x values do not vary.
	Ignored int
	// UsedRows counts rows in leaves that produced slopes; together with
	// Ignored it accounts for every row of every leaf.
	UsedRows int
	// Contributing is the number of leaves that produced slopes.
	Contributing int
}

// CollectDiscreteSlopes runs DiscreteSlopes over every leaf. leaves hold
// row indices into xCol and y.
func CollectDiscreteSlopes(xCol, y []float64, leaves [][]int) (*LeafSlopes, error) {
	if len(xCol) != len(y) {
		return nil, errors.NewDimensionError("CollectDiscreteSlopes", len(xCol), len(y), 0)
	}
	out := &LeafSlopes{}
	var leafX, leafY []float64
	for _, rows := range leaves {
		if len(rows) == 0 {
			continue
		}
		leafX, leafY = leafX[:0], leafY[:0]
		for _, r := range rows {
			if r < 0 || r >= len(xCol) {
				return nil, errors.NewValueError("CollectDiscreteSlopes", "leaf row index out of range")
			}
			leafX = append(leafX, xCol[r])
			leafY = append(leafY, y[r])
		}
		if floats.Max(leafX)-floats.Min(leafX) < tolerance {
			out.Ignored += len(rows)
			continue
		}
		ranges, slopes, ignored := DiscreteSlopes(leafX, leafY)
		out.Ranges = append(out.Ranges, ranges...)
		out.Slopes = append(out.Slopes, slopes...)
		out.Ignored += ignored
		out.UsedRows += len(rows) - ignored
		out.Contributing++
	}
	return out, nil
}
