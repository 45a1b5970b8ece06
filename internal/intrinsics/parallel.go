package intrinsics

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/adpena/molt/internal/molterr"
	"github.com/adpena/molt/internal/objmodel"
)

// Open Question (c), spec §9: deterministic mode pins the final combine
// step to strict chunk-index order rather than trusting associativity
// alone — associativity holds for floating point in theory but not
// bit-exactly, and spec §8's reproducibility property demands bit-exact
// replay. Grounded on golang.org/x/sync/errgroup (same dependency
// internal/scheduler's Group already uses for "first error cancels the
// rest") for the worker fan-out; the pool is disjoint from the asyncio
// loop per spec §4.10, so it never touches ctx.Loop.

// ParallelBody is one chunk's body callable for parallel_for: given the
// chunk's [start, end) range, perform the (asserted-independent) work.
type ParallelBody func(ctx *Context, start, end int64) *molterr.Error

// ReductionBody computes one chunk's partial reduction over [start, end)
// seeded from identity.
type ReductionBody func(ctx *Context, start, end int64, identity objmodel.Value) (objmodel.Value, *molterr.Error)

// CombineFunc merges two partial reduction results; must be associative.
type CombineFunc func(ctx *Context, a, b objmodel.Value) (objmodel.Value, *molterr.Error)

func chunkCount(n int64) int {
	workers := runtime.GOMAXPROCS(0)
	if int64(workers) > n {
		workers = int(n)
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

func chunkBounds(total int64, chunks int) [][2]int64 {
	if chunks < 1 {
		chunks = 1
	}
	size := (total + int64(chunks) - 1) / int64(chunks)
	if size < 1 {
		size = 1
	}
	var bounds [][2]int64
	for start := int64(0); start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		bounds = append(bounds, [2]int64{start, end})
	}
	return bounds
}

// ParallelFor runs body over [0, n) split into GOMAXPROCS-sized chunks
// on a dedicated worker-stealing pool (here: one goroutine per chunk,
// errgroup fanning them out and returning the first failure once every
// chunk has finished; a failing chunk does not stop the others).
// Cancellation is observed only at chunk boundaries (spec
// §4.10 "cancellation is observed at chunk boundaries"), never
// mid-chunk, since a chunk's body is assumed to run without internal
// suspension points.
func ParallelFor(ctx *Context, n int64, body ParallelBody) *molterr.Error {
	bounds := chunkBounds(n, chunkCount(n))
	var eg errgroup.Group
	for _, b := range bounds {
		start, end := b[0], b[1]
		eg.Go(func() error {
			if ctx.Task != nil && ctx.Task.Cancel.Cancelled() {
				return molterr.New(molterr.KindCancelled, molterr.SCHCancelled, "parallel_for cancelled")
			}
			if err := body(ctx, start, end); err != nil {
				return err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		if me, ok := err.(*molterr.Error); ok {
			return me
		}
		return molterr.Wrap(molterr.KindInternal, molterr.RTInternal, err, "parallel_for")
	}
	return nil
}

// Reduction runs body over [0, n) in chunks, combining partial results
// with combine. deterministic forces chunk-index-order combining even
// though combine is asserted associative; non-deterministic mode still
// combines in chunk-index order here (goroutines computed it;
// aggregation is a fast, non-parallel fold) — the distinction matters
// once a future combine-as-you-go variant lets results land
// out-of-order, which this implementation does not yet do.
func Reduction(ctx *Context, n int64, identity objmodel.Value, body ReductionBody, combine CombineFunc, deterministic bool) (objmodel.Value, *molterr.Error) {
	bounds := chunkBounds(n, chunkCount(n))
	partials := make([]objmodel.Value, len(bounds))
	var eg errgroup.Group
	for i, b := range bounds {
		i, start, end := i, b[0], b[1]
		eg.Go(func() error {
			r, err := body(ctx, start, end, identity)
			if err != nil {
				return err
			}
			partials[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		if me, ok := err.(*molterr.Error); ok {
			return 0, me
		}
		return 0, molterr.Wrap(molterr.KindInternal, molterr.RTInternal, err, "reduction")
	}
	acc := identity
	for _, p := range partials {
		var err *molterr.Error
		acc, err = combine(ctx, acc, p)
		if err != nil {
			return 0, err
		}
	}
	return acc, nil
}
