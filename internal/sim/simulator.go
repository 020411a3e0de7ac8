package sim

import (
	"context"
	"errors"
	"time"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// Simulation owns a body store, its acceleration buffer and one backend.
// It is not safe for concurrent use.
type Simulation struct {
	cfg     Config
	st      *body.Store
	acc     *body.Accelerations
	backend compute.Backend
	flops   float64

	iteration int
	closed    bool
}

// New builds a simulation with initial conditions generated from
// cfg.Scheme and cfg.Seed.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	st, err := body.New(cfg.Bodies, cfg.padding())
	if err != nil {
		return nil, err
	}
	if err := body.Generate(st, cfg.Scheme, cfg.Params.G, cfg.Seed); err != nil {
		return nil, err
	}
	return attach(cfg, st)
}

// NewWithBodies builds a simulation over a copy of an existing state. The
// copy is repadded according to cfg.Padding; cfg.Bodies, cfg.Scheme and
// cfg.Seed are ignored.
func NewWithBodies(cfg Config, bodies *body.Store) (*Simulation, error) {
	if bodies == nil {
		return nil, dynamo.InvalidArgument("nil body store")
	}
	cfg.Bodies = bodies.N()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	st, err := bodies.Repad(cfg.padding())
	if err != nil {
		return nil, err
	}
	return attach(cfg, st)
}

func attach(cfg Config, st *body.Store) (*Simulation, error) {
	name := cfg.Backend
	if name == "" {
		name = compute.DefaultName
	}
	backend, err := compute.New(name, cfg.Options)
	if err != nil {
		return nil, err
	}

	acc := body.NewAccelerations(st.Len())
	if err := backend.Attach(st, acc, cfg.Params); err != nil {
		return nil, errors.Join(err, backend.Close())
	}

	cfg.Backend = name
	cfg.Padding = st.Padding()
	return &Simulation{
		cfg:     cfg,
		st:      st,
		acc:     acc,
		backend: backend,
		flops:   backend.FlopsPerIteration(st.N()),
	}, nil
}

// Step runs one iteration: reset, accumulate, integrate.
func (s *Simulation) Step() error {
	if s.closed {
		return dynamo.ErrClosed
	}
	if err := s.backend.Reset(); err != nil {
		return &dynamo.SimulationError{Step: s.iteration, Op: "reset", Wrapped: err}
	}
	if err := s.backend.Accumulate(); err != nil {
		return &dynamo.SimulationError{Step: s.iteration, Op: "accumulate", Wrapped: err}
	}
	if err := s.backend.Integrate(); err != nil {
		return &dynamo.SimulationError{Step: s.iteration, Op: "integrate", Wrapped: err}
	}
	s.iteration++
	return nil
}

// ComputeAccelerations resets and accumulates without integrating. The
// returned buffer is owned by the simulation and overwritten by the next
// Step.
func (s *Simulation) ComputeAccelerations() (*body.Accelerations, error) {
	if s.closed {
		return nil, dynamo.ErrClosed
	}
	if err := s.backend.Reset(); err != nil {
		return nil, &dynamo.SimulationError{Step: s.iteration, Op: "reset", Wrapped: err}
	}
	if err := s.backend.Accumulate(); err != nil {
		return nil, &dynamo.SimulationError{Step: s.iteration, Op: "accumulate", Wrapped: err}
	}
	return s.backend.Accelerations()
}

// Run advances the simulation by iterations steps. The context is checked
// between iterations; a cancelled run returns the partial result together
// with ctx.Err().
func (s *Simulation) Run(ctx context.Context, iterations int, observers ...Observer) (*Result, error) {
	if s.closed {
		return nil, dynamo.ErrClosed
	}
	if iterations < 0 {
		return nil, dynamo.InvalidArgument("iterations must be non-negative, got %d", iterations)
	}

	for _, o := range observers {
		if m, ok := o.(Metric); ok {
			m.Reset(s)
		}
	}

	result := &Result{
		Backend: s.backend.Name(),
		Metrics: make(map[string]float64),
	}

	var runErr error
	for i := 0; i < iterations; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		start := time.Now()
		if err := s.Step(); err != nil {
			runErr = err
			break
		}
		result.Elapsed += time.Since(start)
		result.Iterations++

		for _, o := range observers {
			o.OnStep(s.iteration, s)
		}
	}

	if secs := result.Elapsed.Seconds(); secs > 0 {
		result.FPS = float64(result.Iterations) / secs
		result.Gflops = s.flops * result.FPS / 1e9
	}
	for _, o := range observers {
		if m, ok := o.(Metric); ok {
			result.Metrics[m.Name()] = m.Value()
		}
	}
	result.Final = s.st.Clone()

	return result, runErr
}

func (s *Simulation) N() int                     { return s.st.N() }
func (s *Simulation) Iteration() int             { return s.iteration }
func (s *Simulation) Config() Config             { return s.cfg }
func (s *Simulation) Params() dynamo.Params      { return s.cfg.Params }
func (s *Simulation) Backend() compute.Backend   { return s.backend }
func (s *Simulation) FlopsPerIteration() float64 { return s.flops }

// Bodies returns the live body store. Callers must not modify it.
func (s *Simulation) Bodies() *body.Store { return s.st }

func (s *Simulation) Positions() [][3]float32  { return s.st.Positions() }
func (s *Simulation) Velocities() [][3]float32 { return s.st.Velocities() }

// Close releases backend resources. Calling Close more than once is a
// no-op.
func (s *Simulation) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}
