package optim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
)

// DifferentialEvolution is the best1bin strategy with dithered mutation and
// Latin hypercube initialization.
type DifferentialEvolution struct {
	PopSize       int     // population is PopSize * dim
	MaxIter       int     // generations
	Tol           float64 // relative convergence tolerance
	Atol          float64 // absolute convergence tolerance
	MutationLo    float64
	MutationHi    float64
	Recombination float64
}

func NewDifferentialEvolution() *DifferentialEvolution {
	return &DifferentialEvolution{
		PopSize:       15,
		MaxIter:       1000,
		Tol:           0.01,
		Atol:          1e-10,
		MutationLo:    0.5,
		MutationHi:    1,
		Recombination: 0.7,
	}
}

type population struct {
	members  [][]float64 // unit-cube coordinates
	energies []float64
	best     int
}

func (d *DifferentialEvolution) Minimize(ctx context.Context, f Objective, b Bounds, x0 []float64, rng *rand.Rand) (Result, error) {
	if err := b.Validate(); err != nil {
		return Result{}, err
	}
	if x0 != nil && len(x0) != b.Dim() {
		return Result{}, fmt.Errorf("%w: initial guess has %d values for %d dimensions", ErrInvalidBounds, len(x0), b.Dim())
	}

	dim := b.Dim()
	size := max(d.PopSize*dim, 5)
	res := Result{}

	scale := func(u []float64) []float64 {
		x := make([]float64, dim)
		for j := range u {
			x[j] = b.Lower[j] + u[j]*(b.Upper[j]-b.Lower[j])
		}
		return x
	}
	eval := func(u []float64) (float64, error) {
		res.Evaluations++
		e, err := f(scale(u))
		if err != nil {
			return 0, fmt.Errorf("optim: objective at evaluation %d: %w", res.Evaluations, err)
		}
		if math.IsNaN(e) {
			e = math.Inf(1)
		}
		return e, nil
	}

	pop := &population{members: latinHypercube(rng, size, dim), energies: make([]float64, size)}
	if x0 != nil {
		pop.members[0] = unscale(b, b.Clip(x0))
	}
	for i, m := range pop.members {
		e, err := eval(m)
		if err != nil {
			return res, err
		}
		pop.energies[i] = e
		if e < pop.energies[pop.best] {
			pop.best = i
		}
	}

	finish := func(success bool, msg string) Result {
		res.X = scale(pop.members[pop.best])
		res.Fun = pop.energies[pop.best]
		res.Success = success
		res.Message = msg
		return res
	}

	trial := make([]float64, dim)
	for gen := 1; gen <= d.MaxIter; gen++ {
		select {
		case <-ctx.Done():
			return finish(false, "canceled"), ctx.Err()
		default:
		}
		res.Iterations = gen

		mutation := d.MutationLo + rng.Float64()*(d.MutationHi-d.MutationLo)
		for i := range pop.members {
			d.mutate(rng, pop, i, mutation, trial)
			e, err := eval(trial)
			if err != nil {
				return finish(false, err.Error()), err
			}
			if e <= pop.energies[i] {
				copy(pop.members[i], trial)
				pop.energies[i] = e
				if e < pop.energies[pop.best] {
					pop.best = i
				}
			}
		}

		if d.converged(pop.energies) {
			return finish(true, "converged"), nil
		}
	}

	return finish(false, ErrNotConverged.Error()), ErrNotConverged
}

// mutate writes the best1bin trial vector for member i into trial.
func (d *DifferentialEvolution) mutate(rng *rand.Rand, pop *population, i int, f float64, trial []float64) {
	n := len(pop.members)
	r0, r1 := pickTwo(rng, n, i)
	best, a, b := pop.members[pop.best], pop.members[r0], pop.members[r1]

	copy(trial, pop.members[i])
	fill := rng.IntN(len(trial))
	for j := range trial {
		if j == fill || rng.Float64() < d.Recombination {
			trial[j] = best[j] + f*(a[j]-b[j])
		}
	}
	for j, v := range trial {
		if v < 0 || v > 1 {
			trial[j] = rng.Float64()
		}
	}
}

func (d *DifferentialEvolution) converged(energies []float64) bool {
	for _, e := range energies {
		if math.IsInf(e, 0) {
			return false
		}
	}
	mean, std := stat.PopMeanStdDev(energies, nil)
	return std <= d.Atol+d.Tol*math.Abs(mean)
}

// pickTwo draws two distinct indices in [0,n) other than exclude.
func pickTwo(rng *rand.Rand, n, exclude int) (int, int) {
	r0 := rng.IntN(n - 1)
	if r0 >= exclude {
		r0++
	}
	r1 := r0
	for r1 == r0 || r1 == exclude {
		r1 = rng.IntN(n)
	}
	return r0, r1
}

func latinHypercube(rng *rand.Rand, size, dim int) [][]float64 {
	members := make([][]float64, size)
	for i := range members {
		members[i] = make([]float64, dim)
	}
	seg := 1 / float64(size)
	for j := 0; j < dim; j++ {
		perm := rng.Perm(size)
		for i, p := range perm {
			members[i][j] = (float64(p) + rng.Float64()) * seg
		}
	}
	return members
}

func unscale(b Bounds, x []float64) []float64 {
	u := make([]float64, len(x))
	for j, v := range x {
		if span := b.Upper[j] - b.Lower[j]; span > 0 {
			u[j] = (v - b.Lower[j]) / span
		}
	}
	return u
}
