// Package optim provides derivative-free minimizers over box-bounded
// parameter spaces.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	ErrInvalidBounds = errors.New("optim: invalid bounds")
	ErrNotConverged  = errors.New("optim: maximum iterations reached before convergence")
	ErrNoFiniteValue = errors.New("optim: no finite objective value")
)

// Objective returns the cost of a candidate point. Errors abort the search.
type Objective func(x []float64) (float64, error)

// Bounds is a box constraint; Lower[i] == Upper[i] pins dimension i.
type Bounds struct {
	Lower []float64
	Upper []float64
}

func (b Bounds) Dim() int { return len(b.Lower) }

func (b Bounds) Validate() error {
	if len(b.Lower) != len(b.Upper) {
		return fmt.Errorf("%w: %d lower and %d upper values", ErrInvalidBounds, len(b.Lower), len(b.Upper))
	}
	if len(b.Lower) == 0 {
		return fmt.Errorf("%w: no dimensions", ErrInvalidBounds)
	}
	for i := range b.Lower {
		if !(b.Lower[i] <= b.Upper[i]) {
			return fmt.Errorf("%w: dimension %d has lower %g > upper %g", ErrInvalidBounds, i, b.Lower[i], b.Upper[i])
		}
	}
	return nil
}

// Clip copies x into the box.
func (b Bounds) Clip(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = min(max(v, b.Lower[i]), b.Upper[i])
	}
	return out
}

type Result struct {
	X           []float64
	Fun         float64
	Success     bool
	Iterations  int
	Evaluations int
	Message     string
}

// Optimizer minimizes f inside b starting from x0. x0 may be nil.
// Stochastic methods draw from rng; deterministic ones ignore it.
type Optimizer interface {
	Minimize(ctx context.Context, f Objective, b Bounds, x0 []float64, rng *rand.Rand) (Result, error)
}
