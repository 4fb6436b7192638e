package fetchutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBoundedPoolRespectsMaxParallel(t *testing.T) {
	pool := NewBoundedPool(2)
	var inFlight int32
	var maxObserved int32

	items := make([]int, 10)
	for i := range items {
		items[i] = i
	}

	results, errs := Run(context.Background(), pool, items, func(ctx context.Context, item int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			observed := atomic.LoadInt32(&maxObserved)
			if cur <= observed || atomic.CompareAndSwapInt32(&maxObserved, observed, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return item * 2, nil
	})

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, results, 10)
	assert.LessOrEqual(t, maxObserved, int32(2))
}
