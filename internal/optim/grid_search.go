package optim

import (
	"context"
	"errors"
	"math"
	"maps"
)

// GridSearch evaluates every combination of integer parameters and keeps
// the highest score.
type GridSearch struct {
	paramNames []string
	ranges     [][]int
}

func NewGridSearch(params []string, ranges [][]int) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Evaluator scores one parameter combination.
type Evaluator func(ctx context.Context, params map[string]int) (float64, error)

// Search returns the best parameters and their score. Combinations whose
// evaluation fails are skipped; if every one fails the last error is
// returned.
func (g *GridSearch) Search(ctx context.Context, evaluate Evaluator) (map[string]int, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, errors.New("optim: parameter names and ranges differ in length")
	}

	s := &search{best: math.Inf(-1)}
	g.searchRecursive(ctx, 0, make(map[string]int), evaluate, s)

	if err := ctx.Err(); err != nil {
		return s.bestParams, s.best, err
	}
	if s.bestParams == nil {
		if s.lastErr == nil {
			s.lastErr = errors.New("optim: empty search space")
		}
		return nil, 0, s.lastErr
	}
	return s.bestParams, s.best, nil
}

type search struct {
	best       float64
	bestParams map[string]int
	lastErr    error
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]int, evaluate Evaluator, s *search) {
	if ctx.Err() != nil {
		return
	}

	if depth == len(g.paramNames) {
		val, err := evaluate(ctx, current)
		if err != nil {
			s.lastErr = err
			return
		}
		if val > s.best {
			s.best = val
			s.bestParams = maps.Clone(current)
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := maps.Clone(current)
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, evaluate, s)
	}
}
