// Package parallel provides chunked data-parallel helpers built on
// golang.org/x/sync/errgroup.
//
// Work is described as a half-open index range [0, n). The helpers split
// the range into contiguous chunks, run one goroutine per chunk and wait
// for all of them. The first error cancels the context passed to the
// remaining chunks.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Range is a half-open index interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices in r.
func (r Range) Len() int { return r.End - r.Start }

// DefaultWorkers returns the worker count used when callers pass <= 0.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// Chunks splits [0, n) into at most workers contiguous ranges whose sizes
// differ by at most one. It returns nil when n <= 0.
func Chunks(n, workers int) []Range {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > n {
		workers = n
	}
	chunks := make([]Range, 0, workers)
	size, rem := n/workers, n%workers
	start := 0
	for i := 0; i < workers; i++ {
		end := start + size
		if i < rem {
			end++
		}
		chunks = append(chunks, Range{Start: start, End: end})
		start = end
	}
	return chunks
}

// ForEachChunk runs fn once per chunk of [0, n) concurrently and returns the
// first error. chunk is the index of the range within Chunks(n, workers).
func ForEachChunk(ctx context.Context, n, workers int, fn func(ctx context.Context, chunk int, r Range) error) error {
	chunks := Chunks(n, workers)
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i, r)
		})
	}
	return g.Wait()
}

// ForEach runs fn for every index in [0, n) with at most limit goroutines
// in flight and returns the first error.
func ForEach(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	if limit <= 0 {
		limit = DefaultWorkers()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// ParallelizeWithThreshold runs fn over [0, n). Below threshold it calls
// fn(0, n) on the current goroutine; otherwise the range is chunked across
// DefaultWorkers goroutines.
func ParallelizeWithThreshold(n, threshold int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n < threshold || DefaultWorkers() == 1 {
		fn(0, n)
		return
	}
	_ = ForEachChunk(context.Background(), n, 0, func(_ context.Context, _ int, r Range) error {
		fn(r.Start, r.End)
		return nil
	})
}
