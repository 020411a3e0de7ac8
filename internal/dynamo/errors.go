package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidArgument indicates a construction parameter outside its valid range.
	ErrInvalidArgument = errors.New("dynamo: invalid argument")

	// ErrResourceExhaustion indicates a device allocation or transfer could not be satisfied.
	ErrResourceExhaustion = errors.New("dynamo: resource exhausted")

	// ErrClosed indicates use of a simulation after Close.
	ErrClosed = errors.New("dynamo: simulation closed")
)

// InvalidArgument wraps ErrInvalidArgument with a formatted reason.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// SimulationError wraps an error with the iteration it occurred in.
type SimulationError struct {
	Step    int
	Op      string
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("iteration %d (%s): %v", e.Step, e.Op, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
