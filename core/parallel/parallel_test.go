package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversEveryItemOnce(t *testing.T) {
	for _, n := range []int{1, 7, 100, 10001} {
		hits := make([]int32, n)
		Parallelize(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: item %d visited %d times", n, i, h)
			}
		}
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	var calls int32
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		if start != 0 || end != 10 {
			t.Errorf("expected a single inline range [0,10), got [%d,%d)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected exactly one call below threshold, got %d", calls)
	}

	ParallelizeWithThreshold(0, 100, func(start, end int) {
		t.Error("fn must not be called for zero items")
	})
}

func TestParallelizeRepanicsOnCaller(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected the worker panic to reach the caller")
		}
		if r != "row 5000" {
			t.Errorf("recovered %v, want the worker's panic value", r)
		}
	}()

	Parallelize(10000, func(start, end int) {
		for i := start; i < end; i++ {
			if i == 5000 {
				panic("row 5000")
			}
		}
	})
}
