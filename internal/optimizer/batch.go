package optimizer

import "github.com/sourcegraph/conc/pool"

// newBatchPool returns a goroutine pool sized to the batch so candidate
// evaluations run concurrently without unbounded fan-out.
func newBatchPool(size int) *pool.Pool {
	if size < 1 {
		size = 1
	}
	return pool.New().WithMaxGoroutines(size)
}
