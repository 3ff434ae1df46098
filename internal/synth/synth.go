// Package synth produces noisy observation tables from a model trajectory.
package synth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/repressilator/internal/dataset"
	"github.com/san-kum/repressilator/internal/sim"
)

var ErrNoiseLevel = errors.New("synth: noise level must be in [0, 1]")

type Options struct {
	NoiseLevel float64
	T0, T1     float64
	Points     int
	Species    []string
	Seed       uint64
}

func (o Options) Grid() dataset.Grid {
	return dataset.Grid{T0: o.T0, T1: o.T1, N: o.Points}
}

// NewSource returns the seeded generator used for all sampling in the study.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate simulates model from its defaults and perturbs each species
// column with Gaussian noise of standard deviation NoiseLevel times the
// column maximum. Results are clipped at zero and the model is left reset.
func Generate(ctx context.Context, model sim.Simulatable, opts Options) (*dataset.Table, error) {
	if math.IsNaN(opts.NoiseLevel) || opts.NoiseLevel < 0 || opts.NoiseLevel > 1 {
		return nil, fmt.Errorf("%w: got %g", ErrNoiseLevel, opts.NoiseLevel)
	}

	model.ResetAll()
	defer model.ResetAll()

	selections := append([]string{sim.TimeColumn}, opts.Species...)
	table, err := model.Simulate(ctx, opts.T0, opts.T1, opts.Points, selections)
	if err != nil {
		return nil, err
	}

	return Perturb(table, opts.NoiseLevel, NewSource(opts.Seed)), nil
}

// Perturb applies column-scaled Gaussian noise to a copy of table.
func Perturb(table *dataset.Table, level float64, rng *rand.Rand) *dataset.Table {
	out := table.Clone()
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}

	scale := make([]float64, out.Cols())
	for j := range scale {
		col, _ := out.Column(out.Species[j])
		scale[j] = level * floats.Max(col)
	}

	// Draw every cell even when level is zero so the stream position does
	// not depend on the noise level.
	for i := range out.Values {
		for j := range out.Values[i] {
			v := out.Values[i][j] + scale[j]*normal.Rand()
			out.Values[i][j] = math.Max(v, 0)
		}
	}
	return out
}
