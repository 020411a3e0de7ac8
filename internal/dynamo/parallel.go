package dynamo

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// DefaultWorkers returns the number of workers used when a caller passes 0.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// ParallelFor executes fn over [0, n) in chunks of at most chunk indices.
// Workers pull the next chunk from a shared counter, so uneven per-index
// cost (the triangular symmetric loop) spreads across workers. fn receives
// the worker index in [0, workers) and may write only to memory owned by
// that worker or by the indices of its chunk. ParallelFor returns after
// every chunk has completed.
func ParallelFor(n, workers, chunk int, fn func(start, end, worker int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if chunk <= 0 {
		chunk = 1
	}
	if workers == 1 || n <= chunk {
		fn(0, n, 0)
		return
	}

	numChunks := (n + chunk - 1) / chunk
	if numChunks < workers {
		workers = numChunks
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func(worker int) {
			defer wg.Done()
			for {
				c := int(next.Add(1) - 1)
				if c >= numChunks {
					return
				}
				start := c * chunk
				end := start + chunk
				if end > n {
					end = n
				}
				fn(start, end, worker)
			}
		}(w)
	}

	wg.Wait()
}

// Partition splits [0, n) into at most parts contiguous, disjoint ranges and
// runs fn on each concurrently. It is the static counterpart to ParallelFor,
// used where every index costs the same.
func Partition(n, parts int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if parts <= 0 {
		parts = DefaultWorkers()
	}
	if parts > n {
		parts = n
	}
	if parts == 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + parts - 1) / parts

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
