package stratpd

import (
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/stratx/pkg/errors"
)

var floatOpts = cmp.Options{
	cmpopts.EquateApprox(1e-9, 1e-9),
	cmpopts.EquateNaNs(),
}

func TestAvgValuesAtX(t *testing.T) {
	uniqX := []float64{1, 2, 3, 4}
	ranges := []Interval{{1, 3}, {2, 4}}
	slopes := []float64{1, 3}

	for _, strategy := range []Strategy{Sequential, ByRecord, ByX} {
		t.Run(strategy.String(), func(t *testing.T) {
			avg, counts, err := AvgValuesAtX(uniqX, ranges, slopes, strategy)
			require.NoError(t, err)
			want := []float64{1, 2, 3, math.NaN()}
			if diff := cmp.Diff(want, avg, floatOpts); diff != "" {
				t.Errorf("avg mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, []int{1, 2, 1, 0}, counts)
		})
	}
}

func TestAvgValuesAtXNoRecords(t *testing.T) {
	avg, counts, err := AvgValuesAtX([]float64{1, 2}, nil, nil, ByRecord)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(avg[0]))
	assert.True(t, math.IsNaN(avg[1]))
	assert.Equal(t, []int{0, 0}, counts)
}

func randomRecords(r *rand.Rand, nx, nrec int) ([]float64, []Interval, []float64) {
	uniqX := make([]float64, nx)
	v := 0.0
	for i := range uniqX {
		v += 0.1 + r.Float64()
		uniqX[i] = v
	}
	ranges := make([]Interval, nrec)
	slopes := make([]float64, nrec)
	for k := range ranges {
		a, b := r.IntN(nx), r.IntN(nx)
		if a == b {
			b = (a + 1) % nx
		}
		if a > b {
			a, b = b, a
		}
		ranges[k] = Interval{Lo: uniqX[a], Hi: uniqX[b]}
		slopes[k] = r.NormFloat64() * 10
	}
	return uniqX, ranges, slopes
}

func TestStrategiesAgree(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	for trial := 0; trial < 5; trial++ {
		uniqX, ranges, slopes := randomRecords(r, 200, 1500)
		require.True(t, sort.Float64sAreSorted(uniqX))

		wantAvg, wantCounts, err := avgValuesAtX(uniqX, ranges, slopes, Sequential, 1)
		require.NoError(t, err)

		for _, strategy := range []Strategy{ByRecord, ByX} {
			for _, workers := range []int{1, 3, 8} {
				avg, counts, err := avgValuesAtX(uniqX, ranges, slopes, strategy, workers)
				require.NoError(t, err)
				assert.Equal(t, wantCounts, counts, "%s/%d", strategy, workers)
				if diff := cmp.Diff(wantAvg, avg, floatOpts); diff != "" {
					t.Errorf("%s/%d avg mismatch (-want +got):\n%s", strategy, workers, diff)
				}
			}
		}
	}
}

func TestCountsBoundedByRecords(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 1))
	uniqX, ranges, slopes := randomRecords(r, 50, 120)
	_, counts, err := AvgValuesAtX(uniqX, ranges, slopes, ByX)
	require.NoError(t, err)
	for _, c := range counts {
		assert.GreaterOrEqual(t, c, 0)
		assert.LessOrEqual(t, c, len(ranges))
	}
	// The largest x is never inside a half-open interval.
	assert.Equal(t, 0, counts[len(counts)-1])
}

func TestAvgValuesAtXErrors(t *testing.T) {
	_, _, err := AvgValuesAtX([]float64{1}, []Interval{{0, 1}}, nil, Sequential)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, _, err = AvgValuesAtX([]float64{1}, nil, nil, Strategy(9))
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}
