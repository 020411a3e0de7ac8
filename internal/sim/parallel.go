package sim

import (
	"context"
	"errors"
	"sync"

	"github.com/san-kum/gravsim/internal/body"
)

// Ensemble runs several simulations concurrently from the same initial
// bodies, one per configuration.
type Ensemble struct {
	bodies  *body.Store
	configs []Config
}

func NewEnsemble(bodies *body.Store, configs ...Config) *Ensemble {
	return &Ensemble{bodies: bodies, configs: configs}
}

// Backends returns an ensemble running base on each named backend.
func Backends(bodies *body.Store, base Config, names ...string) *Ensemble {
	configs := make([]Config, len(names))
	for i, name := range names {
		configs[i] = base
		configs[i].Backend = name
	}
	return NewEnsemble(bodies, configs...)
}

// Run advances every member by iterations steps and returns the results
// in configuration order. Members run to completion even if one fails;
// the errors are joined.
func (e *Ensemble) Run(ctx context.Context, iterations int) ([]*Result, error) {
	results := make([]*Result, len(e.configs))
	errs := make([]error, len(e.configs))

	var wg sync.WaitGroup
	for i := range e.configs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, err := NewWithBodies(e.configs[idx], e.bodies)
			if err != nil {
				errs[idx] = err
				return
			}
			defer s.Close()

			results[idx], errs[idx] = s.Run(ctx, iterations)
		}(i)
	}

	wg.Wait()

	return results, errors.Join(errs...)
}
