package fetchutil

import (
	"context"
	"sync"
)

// BoundedPool runs a fixed-cardinality set of jobs with at most
// maxParallel in flight, bounding the repo-file fan-out so upstream
// rate limits are respected. Result order is irrelevant to callers,
// who re-key by the path they submitted.
type BoundedPool struct {
	maxParallel int
}

// NewBoundedPool creates a pool. maxParallel <= 0 is treated as 1.
func NewBoundedPool(maxParallel int) *BoundedPool {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &BoundedPool{maxParallel: maxParallel}
}

// Run executes fn(item) for every item in items, bounded to maxParallel
// concurrent calls, and returns one result per item (order-preserving so
// callers can zip inputs back to outputs if they want to, though the
// contract only promises membership not order).
func Run[T any, R any](ctx context.Context, p *BoundedPool, items []T, fn func(context.Context, T) (R, error)) ([]R, []error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	sem := make(chan struct{}, p.maxParallel)
	var wg sync.WaitGroup

	for i, item := range items {
		select {
		case <-ctx.Done():
			errs[i] = ctx.Err()
			continue
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, it T) {
			defer wg.Done()
			defer func() { <-sem }()
			r, err := fn(ctx, it)
			results[idx] = r
			errs[idx] = err
		}(i, item)
	}

	wg.Wait()
	return results, errs
}
