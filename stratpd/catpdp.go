package stratpd

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/stratx/core/table"
	"github.com/ezoic/stratx/pkg/errors"
	"github.com/ezoic/stratx/pkg/log"
)

// CatResult is the partial dependence of one categorical column.
type CatResult struct {
	Column string
	// Codes are the distinct category codes in ascending order.
	Codes []int
	// Deviations has one row per code and one column per leaf. Entry
	// (i, j) is the mean y of category Codes[i] in leaf j minus the mean
	// y of leaf j, or NaN when the category is absent from the leaf or
	// the leaf was ignored.
	Deviations *mat.Dense
	// Averages is the NaN-skipping row mean of Deviations.
	Averages []float64
	Ignored  int
	NLeaves  int
	Forest   Forest
}

// categoryCodes converts a column to integral codes.
func categoryCodes(op string, xCol []float64) ([]int, error) {
	codes := make([]int, len(xCol))
	for i, v := range xCol {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, errors.NewConfigurationError(op, "column",
				fmt.Sprintf("category value %v at row %d is not an integer code", v, i))
		}
		codes[i] = int(v)
	}
	return codes, nil
}

// CatwiseLeaves builds the category-by-leaf deviation matrix. Leaves with
// fewer than two distinct categories carry no contrast; their rows are
// counted in ignored and their column stays NaN.
func CatwiseLeaves(xCol, y []float64, leaves [][]int) ([]int, *mat.Dense, int, error) {
	const op = "CatwiseLeaves"
	if len(xCol) != len(y) {
		return nil, nil, 0, errors.NewDimensionError(op, len(xCol), len(y), 0)
	}
	if len(xCol) == 0 || len(leaves) == 0 {
		return nil, nil, 0, errors.NewModelError(op, "no rows or leaves", errors.ErrEmptyData)
	}
	rowCodes, err := categoryCodes(op, xCol)
	if err != nil {
		return nil, nil, 0, err
	}

	rowOf := make(map[int]int)
	for _, code := range rowCodes {
		rowOf[code] = 0
	}
	codes := make([]int, 0, len(rowOf))
	for code := range rowOf {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for i, code := range codes {
		rowOf[code] = i
	}

	deviations := mat.NewDense(len(codes), len(leaves), nil)
	for i := 0; i < len(codes); i++ {
		for j := 0; j < len(leaves); j++ {
			deviations.Set(i, j, math.NaN())
		}
	}

	ignored := 0
	for j, rows := range leaves {
		sums := make(map[int]float64)
		counts := make(map[int]int)
		leafSum := 0.0
		for _, r := range rows {
			if r < 0 || r >= len(xCol) {
				return nil, nil, 0, errors.NewValueError(op, "leaf row index out of range")
			}
			sums[rowCodes[r]] += y[r]
			counts[rowCodes[r]]++
			leafSum += y[r]
		}
		if len(counts) < 2 {
			ignored += len(rows)
			continue
		}
		leafMean := leafSum / float64(len(rows))
		for code, count := range counts {
			deviations.Set(rowOf[code], j, sums[code]/float64(count)-leafMean)
		}
	}
	return codes, deviations, ignored, nil
}

// CategoryAverages returns the mean of every row of deviations, skipping
// NaN entries. A row of only NaN averages to NaN.
func CategoryAverages(deviations mat.Matrix) []float64 {
	r, c := deviations.Dims()
	avg := make([]float64, r)
	for i := 0; i < r; i++ {
		sum, n := 0.0, 0
		for j := 0; j < c; j++ {
			v := deviations.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			avg[i] = math.NaN()
			continue
		}
		avg[i] = sum / float64(n)
	}
	return avg
}

// CatPartialDependence computes the stratified partial dependence of y on
// an integer-coded categorical column.
func CatPartialDependence(X *table.Table, y []float64, column string, opts ...Option) (res *CatResult, err error) {
	defer errors.Recover(&err, "CatPartialDependence")
	start := time.Now()

	p, err := prepare("CatPartialDependence", X, y, column, opts)
	if err != nil {
		return nil, err
	}
	if _, err := categoryCodes("CatPartialDependence", p.xCol); err != nil {
		return nil, err
	}

	part, err := Partition(X, y, p.column, p.cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "partitioning column %s", column)
	}

	codes, deviations, ignored, err := CatwiseLeaves(p.xCol, y, part.Leaves)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Categorical partial dependence completed",
		log.LeavesKey, len(part.Leaves),
		"categories", len(codes),
		log.IgnoredKey, ignored,
		log.SamplesKey, X.NRows(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return &CatResult{
		Column:     column,
		Codes:      codes,
		Deviations: deviations,
		Averages:   CategoryAverages(deviations),
		Ignored:    ignored,
		NLeaves:    len(part.Leaves),
		Forest:     part.Forest,
	}, nil
}
