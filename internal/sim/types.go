package sim

import (
	"time"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// Config describes one simulation.
type Config struct {
	Bodies  int
	Scheme  string
	Seed    uint64
	Params  dynamo.Params
	Backend string
	// Padding is the number of zero-mass filler bodies. A negative value
	// pads to a multiple of the lane width.
	Padding int
	Options compute.Options
}

func DefaultConfig() Config {
	return Config{
		Bodies:  1000,
		Scheme:  body.SchemeGalaxy,
		Params:  dynamo.DefaultParams(),
		Backend: compute.DefaultName,
		Padding: -1,
	}
}

func (c Config) validate() error {
	if c.Bodies <= 0 {
		return dynamo.InvalidArgument("body count must be positive, got %d", c.Bodies)
	}
	return c.Params.Validate()
}

func (c Config) padding() int {
	if c.Padding >= 0 {
		return c.Padding
	}
	lane := c.Options.LaneWidth
	if lane <= 0 {
		lane = compute.DetectLaneWidth()
	}
	return body.PaddingFor(c.Bodies, lane)
}

// Observer is notified after every completed iteration.
type Observer interface {
	OnStep(iteration int, s *Simulation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(iteration int, s *Simulation)

func (f ObserverFunc) OnStep(iteration int, s *Simulation) { f(iteration, s) }

// Metric is an observer that reduces a run to a single value. Run resets
// metrics before the first iteration and reports their values in Result.
type Metric interface {
	Observer
	Name() string
	Reset(s *Simulation)
	Value() float64
}

type Result struct {
	Backend    string
	Iterations int
	Elapsed    time.Duration
	// FPS is iterations per second.
	FPS     float64
	Gflops  float64
	Metrics map[string]float64
	// Final is a copy of the body state after the last iteration.
	Final *body.Store
}
