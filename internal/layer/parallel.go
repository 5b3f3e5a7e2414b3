package layer

import (
	"runtime"
	"sync"
)

// parallelThreshold is the layer width below which per-neuron work runs on
// the calling goroutine. Scheduling overhead dominates for narrower layers.
const parallelThreshold = 32

// parallelFor calls fn(i) for every i in [0, n) and returns once all calls
// are done. Indices are split into contiguous chunks, one per worker.
func parallelFor(n int, fn func(i int)) {
	workers := min(n, runtime.GOMAXPROCS(0))
	if n < parallelThreshold || workers < 2 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := (n + workers - 1) / workers
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
