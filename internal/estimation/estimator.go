package estimation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/san-kum/repressilator/internal/dataset"
	"github.com/san-kum/repressilator/internal/optim"
	"github.com/san-kum/repressilator/internal/sim"
)

// Options configures an Estimator. Zero values take the defaults noted.
type Options struct {
	Seed          uint64
	MaxAttempts   int     // per bootstrap iteration, default 50
	ImagTolerance float64 // oscillation threshold on |Im(λ)|, default 1e-8
	Workers       int     // default 1
	Optimizer     optim.Optimizer
	Logger        *zap.Logger
	Observer      Observer

	// NewModel builds the extra models used when Workers > 1.
	NewModel func() (sim.Simulatable, error)
}

func (o *Options) applyDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 50
	}
	if o.ImagTolerance <= 0 {
		o.ImagTolerance = 1e-8
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Optimizer == nil {
		o.Optimizer = optim.NewDifferentialEvolution()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

type Estimator struct {
	spec *ParameterSpec
	ev   *sim.Evaluator
	opts Options
	log  *zap.Logger
}

func New(model sim.Simulatable, spec *ParameterSpec, opts Options) (*Estimator, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil spec", ErrInvalidSpec)
	}
	opts.applyDefaults()
	if opts.Workers > 1 && opts.NewModel == nil {
		return nil, fmt.Errorf("estimation: %d workers need a model factory", opts.Workers)
	}
	return &Estimator{
		spec: spec,
		ev:   sim.NewEvaluator(model),
		opts: opts,
		log:  opts.Logger.Named("estimation"),
	}, nil
}

func (e *Estimator) Spec() *ParameterSpec { return e.spec }

func (e *Estimator) Evaluator() *sim.Evaluator { return e.ev }

type OptimizationResult struct {
	Values      Values
	Success     bool
	Objective   float64
	Iterations  int
	Evaluations int
	Message     string
}

// Optimize fits the spec parameters to data by least squares. On
// optim.ErrNotConverged the best point found is returned with the error.
func (e *Estimator) Optimize(ctx context.Context, data *dataset.Table) (*OptimizationResult, error) {
	return e.optimize(ctx, e.ev, data, rand.New(rand.NewPCG(e.opts.Seed, 0)))
}

func (e *Estimator) optimize(ctx context.Context, ev *sim.Evaluator, data *dataset.Table, rng *rand.Rand) (*OptimizationResult, error) {
	grid, err := sampleGrid(data)
	if err != nil {
		return nil, err
	}

	objective := func(x []float64) (float64, error) {
		values, err := e.spec.Values(x)
		if err != nil {
			return 0, err
		}
		pred, err := ev.Evaluate(ctx, values.Map(), grid, data.Species)
		if err != nil {
			return 0, err
		}
		res, err := absDiff(pred, data)
		if err != nil {
			return 0, err
		}
		return res.SumSquares(), nil
	}

	res, err := e.opts.Optimizer.Minimize(ctx, objective, e.spec.Bounds(), e.spec.Initial().Slice(), rng)
	if res.X == nil {
		if err == nil {
			err = optim.ErrNoFiniteValue
		}
		return nil, err
	}
	values, verr := e.spec.Values(res.X)
	if verr != nil {
		return nil, errors.Join(err, verr)
	}
	out := &OptimizationResult{
		Values:      values,
		Success:     res.Success,
		Objective:   res.Fun,
		Iterations:  res.Iterations,
		Evaluations: res.Evaluations,
		Message:     res.Message,
	}
	return out, err
}
