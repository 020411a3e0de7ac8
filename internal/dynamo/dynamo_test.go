package dynamo

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name  string
		p     Params
		valid bool
	}{
		{"defaults", DefaultParams(), true},
		{"zero soft", Params{G: 1, Soft: 0, Dt: 1}, false},
		{"negative soft", Params{G: 1, Soft: -0.1, Dt: 1}, false},
		{"zero dt", Params{G: 1, Soft: 0.1, Dt: 0}, false},
		{"negative dt", Params{G: 1, Soft: 0.1, Dt: -1}, false},
		{"zero G", Params{G: 0, Soft: 0.1, Dt: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Step: 7, Op: "step", Wrapped: ErrClosed}
	expected := "iteration 7 (step): dynamo: simulation closed"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrClosed) {
		t.Error("expected SimulationError to unwrap to ErrClosed")
	}
}

func TestParallelFor_CoversEveryIndexOnce(t *testing.T) {
	tests := []struct {
		n, workers, chunk int
	}{
		{1, 4, 8},
		{10, 1, 3},
		{100, 4, 7},
		{1000, 8, 16},
		{17, 32, 1},
	}

	for _, tt := range tests {
		hits := make([]int32, tt.n)
		ParallelFor(tt.n, tt.workers, tt.chunk, func(start, end, worker int) {
			if worker < 0 || worker >= tt.workers {
				t.Errorf("worker index %d out of range [0,%d)", worker, tt.workers)
			}
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", tt.n, i, h)
			}
		}
	}
}

func TestParallelFor_Empty(t *testing.T) {
	called := false
	ParallelFor(0, 4, 4, func(start, end, worker int) { called = true })
	if called {
		t.Error("fn should not run for n=0")
	}
}

func TestPartition_Disjoint(t *testing.T) {
	n := 103
	hits := make([]int32, n)
	Partition(n, 6, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}
}
