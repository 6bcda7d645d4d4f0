package stratpd

import (
	"context"
	"math"
	"sort"

	"github.com/ezoic/stratx/core/parallel"
	"github.com/ezoic/stratx/pkg/errors"
)

// AvgValuesAtX averages, at every value of the sorted distinct xs uniqX,
// the slopes whose interval contains it. counts[i] is the number of
// slopes averaged at uniqX[i]; positions no interval covers get NaN and a
// count of zero. All strategies produce the same result up to floating
// point summation order.
func AvgValuesAtX(uniqX []float64, ranges []Interval, slopes []float64, strategy Strategy) ([]float64, []int, error) {
	return avgValuesAtX(uniqX, ranges, slopes, strategy, 0)
}

func avgValuesAtX(uniqX []float64, ranges []Interval, slopes []float64, strategy Strategy, workers int) ([]float64, []int, error) {
	if len(ranges) != len(slopes) {
		return nil, nil, errors.NewDimensionError("AvgValuesAtX", len(ranges), len(slopes), 0)
	}

	var (
		sums   []float64
		counts []int
		err    error
	)
	switch strategy {
	case Sequential:
		sums, counts = accumulate(uniqX, ranges, slopes, parallel.Range{Start: 0, End: len(uniqX)})
	case ByRecord:
		sums, counts, err = accumulateByRecord(uniqX, ranges, slopes, workers)
	case ByX:
		sums, counts, err = accumulateByX(uniqX, ranges, slopes, workers)
	default:
		return nil, nil, errors.NewConfigurationError("AvgValuesAtX", "strategy", "unknown strategy")
	}
	if err != nil {
		return nil, nil, err
	}

	avg := make([]float64, len(uniqX))
	for i := range avg {
		if counts[i] == 0 {
			avg[i] = math.NaN()
			continue
		}
		avg[i] = sums[i] / float64(counts[i])
	}
	return avg, counts, nil
}

// covered returns the index range of uniqX inside [iv.Lo, iv.Hi).
func covered(uniqX []float64, iv Interval) parallel.Range {
	return parallel.Range{
		Start: sort.SearchFloat64s(uniqX, iv.Lo),
		End:   sort.SearchFloat64s(uniqX, iv.Hi),
	}
}

// accumulate sums every record into the x positions within window.
func accumulate(uniqX []float64, ranges []Interval, slopes []float64, window parallel.Range) ([]float64, []int) {
	sums := make([]float64, len(uniqX))
	counts := make([]int, len(uniqX))
	for r, iv := range ranges {
		c := covered(uniqX, iv)
		start, end := max(c.Start, window.Start), min(c.End, window.End)
		for i := start; i < end; i++ {
			sums[i] += slopes[r]
			counts[i]++
		}
	}
	return sums, counts
}

func accumulateByRecord(uniqX []float64, ranges []Interval, slopes []float64, workers int) ([]float64, []int, error) {
	chunks := parallel.Chunks(len(ranges), workers)
	partSums := make([][]float64, len(chunks))
	partCounts := make([][]int, len(chunks))
	all := parallel.Range{Start: 0, End: len(uniqX)}
	err := parallel.ForEachChunk(context.Background(), len(ranges), workers, func(_ context.Context, chunk int, r parallel.Range) error {
		partSums[chunk], partCounts[chunk] = accumulate(uniqX, ranges[r.Start:r.End], slopes[r.Start:r.End], all)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sums := make([]float64, len(uniqX))
	counts := make([]int, len(uniqX))
	for k := range chunks {
		for i := range sums {
			sums[i] += partSums[k][i]
			counts[i] += partCounts[k][i]
		}
	}
	return sums, counts, nil
}

func accumulateByX(uniqX []float64, ranges []Interval, slopes []float64, workers int) ([]float64, []int, error) {
	sums := make([]float64, len(uniqX))
	counts := make([]int, len(uniqX))
	err := parallel.ForEachChunk(context.Background(), len(uniqX), workers, func(_ context.Context, _ int, window parallel.Range) error {
		s, c := accumulate(uniqX, ranges, slopes, window)
		// Each worker owns the positions in its window.
		copy(sums[window.Start:window.End], s[window.Start:window.End])
		copy(counts[window.Start:window.End], c[window.Start:window.End])
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return sums, counts, nil
}
