// Package parallel splits row ranges across goroutines.
//
// Callers must only write to rows inside the [start, end) range they are
// handed, so results are identical to a sequential loop.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the row count below which work runs on the calling goroutine.
const DefaultThreshold = 2048

// Parallelize divides items into contiguous [start, end) ranges, one per
// available CPU, and runs fn on each range concurrently.
// A panic in any worker is re-raised on the calling goroutine once every
// worker has returned, so a deferred recover in the caller sees it.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > items {
		numWorkers = items
	}

	// ceiling division so the last worker picks up the remainder
	chunkSize := (items + numWorkers - 1) / numWorkers

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		panicked interface{}
	)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					if panicked == nil {
						panicked = r
					}
					mu.Unlock()
				}
			}()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()

	if panicked != nil {
		panic(panicked)
	}
}

// ParallelizeWithThreshold runs fn(0, items) inline when items <= threshold,
// and falls back to Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
