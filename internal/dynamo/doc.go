// Package dynamo provides the primitives shared by every part of the
// N-body engine.
//
// The package defines:
//
//   - [Params]: physical constants of a run (G, softening, time step)
//   - sentinel errors for the engine's error taxonomy
//   - [ParallelFor]: a dynamically scheduled parallel loop used by the
//     multi-core backends
//
// # Error taxonomy
//
// [ErrInvalidArgument] is returned at construction for zero bodies,
// non-positive softening or time step, and unknown names.
// [ErrResourceExhaustion] is returned when a device mirror cannot be
// allocated. Neither is ever retried.
//
// # Thread Safety
//
// [ParallelFor] is safe to call from multiple goroutines; the function it
// runs must only write to memory owned by the worker index it is given.
package dynamo
