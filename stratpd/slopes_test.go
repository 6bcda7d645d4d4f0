package stratpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/stratx/pkg/errors"
)

func TestDiscreteSlopes(t *testing.T) {
	tests := []struct {
		name        string
		x, y        []float64
		wantRanges  []Interval
		wantSlopes  []float64
		wantIgnored int
	}{
		{
			name:       "non-uniform spacing",
			x:          []float64{1, 3, 4},
			y:          []float64{9, 8, 10},
			wantRanges: []Interval{{1, 3}, {3, 4}},
			wantSlopes: []float64{-0.5, 2},
		},
		{
			name:       "unsorted with repeated x",
			x:          []float64{3, 1, 4, 1},
			y:          []float64{8, 8, 10, 10},
			wantRanges: []Interval{{1, 3}, {3, 4}},
			wantSlopes: []float64{-0.5, 2},
		},
		{
			name:       "values within tolerance merge",
			x:          []float64{1, 1 + 1e-9, 2},
			y:          []float64{0, 2, 3},
			wantRanges: []Interval{{1, 2}},
			wantSlopes: []float64{2},
		},
		{
			name:        "constant x",
			x:           []float64{5, 5, 5},
			y:           []float64{1, 2, 3},
			wantIgnored: 3,
		},
		{
			name: "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranges, slopes, ignored := DiscreteSlopes(tt.x, tt.y)
			assert.Equal(t, tt.wantRanges, ranges)
			assert.InDeltaSlice(t, tt.wantSlopes, slopes, 1e-12)
			assert.Equal(t, tt.wantIgnored, ignored)
			for _, r := range ranges {
				assert.Less(t, r.Lo, r.Hi)
			}
		})
	}
}

func TestCollectDiscreteSlopesAccounting(t *testing.T) {
	xCol := []float64{1, 3, 4, 5, 5, 5, 2, 7}
	y := []float64{9, 8, 10, 1, 2, 3, 0, 5}
	leaves := [][]int{{0, 1, 2}, {3, 4, 5}, {6, 7}, {}}

	got, err := CollectDiscreteSlopes(xCol, y, leaves)
	require.NoError(t, err)

	assert.Equal(t, []Interval{{1, 3}, {3, 4}, {2, 7}}, got.Ranges)
	assert.InDeltaSlice(t, []float64{-0.5, 2, 1}, got.Slopes, 1e-12)
	assert.Equal(t, 3, got.Ignored)
	assert.Equal(t, 5, got.UsedRows)
	assert.Equal(t, 2, got.Contributing)

	total := 0
	for _, l := range leaves {
		total += len(l)
	}
	assert.Equal(t, total, got.Ignored+got.UsedRows)
}

func TestCollectDiscreteSlopesErrors(t *testing.T) {
	_, err := CollectDiscreteSlopes([]float64{1, 2}, []float64{1}, nil)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = CollectDiscreteSlopes([]float64{1, 2}, []float64{1, 2}, [][]int{{0, 5}})
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
}

func TestIntervalContains(t *testing.T) {
	iv := Interval{Lo: 1, Hi: 3}
	assert.True(t, iv.Contains(1))
	assert.True(t, iv.Contains(2.9))
	assert.False(t, iv.Contains(3))
	assert.False(t, iv.Contains(0.5))
	assert.Equal(t, 2.0, iv.Width())
}
