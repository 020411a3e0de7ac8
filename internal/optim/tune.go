package optim

import (
	"context"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	ParamWorkers = "workers"
	ParamChunk   = "chunk"
)

// Tune searches worker counts and chunk sizes for the scheduling options
// giving the highest Gflop/s on cfg. Each candidate runs iterations steps
// from the same initial conditions.
func Tune(ctx context.Context, cfg sim.Config, iterations int, workers, chunks []int) (compute.Options, float64, error) {
	g := NewGridSearch([]string{ParamWorkers, ParamChunk}, [][]int{workers, chunks})

	best, gflops, err := g.Search(ctx, func(ctx context.Context, params map[string]int) (float64, error) {
		c := cfg
		c.Options.Workers = params[ParamWorkers]
		c.Options.Chunk = params[ParamChunk]

		s, err := sim.New(c)
		if err != nil {
			return 0, err
		}
		defer s.Close()

		result, err := s.Run(ctx, iterations)
		if err != nil {
			return 0, err
		}
		return result.Gflops, nil
	})

	opts := cfg.Options
	if best != nil {
		opts.Workers = best[ParamWorkers]
		opts.Chunk = best[ParamChunk]
	}
	return opts, gflops, err
}
