// Package compute provides the interchangeable N-body backends.
//
// Every backend implements [Backend] and differs only in how it executes
// the pair loop:
//
//   - cpu+optim: single goroutine, symmetric pairs, AoS reads
//   - cpu+par: symmetric pairs over a worker pool with private buffers
//   - cpu+simd: full pairs, lane-width vector arithmetic
//   - cpu+simd+par: cpu+simd under a worker pool
//   - gpu: full pairs on an emulated bulk-parallel device
//
// Backends are created by name:
//
//	b, err := compute.New("cpu+simd+par", compute.Options{Workers: 8})
//	if err != nil {
//		return err
//	}
//	defer b.Close()
//
// cpu+optim is the reference; the others agree with it within single
// precision rounding.
package compute
