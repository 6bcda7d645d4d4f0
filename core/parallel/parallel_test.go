package parallel_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ezoic/stratx/core/parallel"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestChunks(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		workers int
		want    []parallel.Range
	}{
		{"empty", 0, 4, nil},
		{"even", 8, 4, []parallel.Range{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"remainder", 7, 3, []parallel.Range{{0, 3}, {3, 5}, {5, 7}}},
		{"more workers than items", 2, 8, []parallel.Range{{0, 1}, {1, 2}}},
		{"single", 5, 1, []parallel.Range{{0, 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parallel.Chunks(tt.n, tt.workers))
		})
	}
}

func TestChunksCoverRange(t *testing.T) {
	chunks := parallel.Chunks(1001, 0)
	total := 0
	prevEnd := 0
	for _, c := range chunks {
		assert.Equal(t, prevEnd, c.Start)
		total += c.Len()
		prevEnd = c.End
	}
	assert.Equal(t, 1001, total)
}

func TestForEachChunkSums(t *testing.T) {
	values := make([]int64, 10000)
	for i := range values {
		values[i] = int64(i)
	}
	var sum atomic.Int64
	err := parallel.ForEachChunk(context.Background(), len(values), 7, func(_ context.Context, _ int, r parallel.Range) error {
		var local int64
		for i := r.Start; i < r.End; i++ {
			local += values[i]
		}
		sum.Add(local)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10000*9999/2), sum.Load())
}

func TestForEachChunkError(t *testing.T) {
	boom := errors.New("boom")
	err := parallel.ForEachChunk(context.Background(), 100, 4, func(_ context.Context, chunk int, _ parallel.Range) error {
		if chunk == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestForEachLimit(t *testing.T) {
	var inFlight, maxSeen atomic.Int32
	err := parallel.ForEach(context.Background(), 50, 3, func(_ context.Context, _ int) error {
		cur := inFlight.Add(1)
		for {
			prev := maxSeen.Load()
			if cur <= prev || maxSeen.CompareAndSwap(prev, cur) {
				break
			}
		}
		inFlight.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, maxSeen.Load(), int32(3))
}

func TestParallelizeWithThreshold(t *testing.T) {
	out := make([]int, 5000)
	parallel.ParallelizeWithThreshold(len(out), 100, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = i * 2
		}
	})
	for i, v := range out {
		require.Equal(t, i*2, v)
	}

	calls := 0
	parallel.ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)
}
