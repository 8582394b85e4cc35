package optim

import (
	"context"
	"math"
)

// GridSearch evaluates a cost on every point of a Cartesian parameter grid.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search returns the grid point with the lowest cost. Points whose cost
// function errors or returns NaN are skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	cost func(params map[string]float64) (float64, error),
) (map[string]float64, float64, error) {

	best := math.Inf(1)
	var bestParams map[string]float64

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), cost, &best, &bestParams); err != nil {
		return nil, best, err
	}
	if bestParams == nil {
		return nil, best, ErrNoCandidate
	}

	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	cost func(map[string]float64) (float64, error),
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, err := cost(current)
		if err != nil || math.IsNaN(val) {
			return nil
		}

		if val < *best {
			*best = val
			*bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, current, cost, best, bestParams); err != nil {
			return err
		}
	}
	delete(current, paramName)
	return nil
}

// Points returns the number of grid points.
func (g *GridSearch) Points() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}
