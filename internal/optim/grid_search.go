package optim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
)

// GridSearch evaluates every point of a regular grid with Steps points per
// dimension (one point for pinned dimensions) and keeps the lowest.
type GridSearch struct {
	Steps int
}

func NewGridSearch(steps int) *GridSearch {
	return &GridSearch{Steps: steps}
}

func (g *GridSearch) Minimize(ctx context.Context, f Objective, b Bounds, _ []float64, _ *rand.Rand) (Result, error) {
	if err := b.Validate(); err != nil {
		return Result{}, err
	}

	axes := make([][]float64, b.Dim())
	for i := range axes {
		axes[i] = axis(b.Lower[i], b.Upper[i], g.Steps)
	}

	res := Result{Fun: math.Inf(1), Iterations: 1}
	current := make([]float64, b.Dim())
	if err := g.searchRecursive(ctx, 0, axes, current, f, &res); err != nil {
		res.Message = err.Error()
		return res, err
	}
	if res.X == nil {
		res.Message = ErrNoFiniteValue.Error()
		return res, ErrNoFiniteValue
	}
	res.Success = true
	res.Message = "grid exhausted"
	return res, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, axes [][]float64, current []float64, f Objective, best *Result) error {
	if depth == len(axes) {
		if err := ctx.Err(); err != nil {
			return err
		}
		best.Evaluations++
		val, err := f(current)
		if err != nil {
			return fmt.Errorf("optim: objective at evaluation %d: %w", best.Evaluations, err)
		}
		if val < best.Fun {
			best.Fun = val
			best.X = append(best.X[:0], current...)
		}
		return nil
	}

	for _, val := range axes[depth] {
		current[depth] = val
		if err := g.searchRecursive(ctx, depth+1, axes, current, f, best); err != nil {
			return err
		}
	}
	return nil
}

func axis(lo, hi float64, steps int) []float64 {
	if lo == hi || steps < 2 {
		return []float64{(lo + hi) / 2}
	}
	pts := make([]float64, steps)
	for i := range pts {
		pts[i] = lo + (hi-lo)*float64(i)/float64(steps-1)
	}
	pts[steps-1] = hi
	return pts
}
