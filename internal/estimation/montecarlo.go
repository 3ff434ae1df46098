package estimation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/repressilator/internal/dataset"
	"github.com/san-kum/repressilator/internal/sim"
)

var (
	ErrConstraintUnsatisfiable = errors.New("estimation: oscillatory constraint not met")
	ErrNotOscillatory          = errors.New("estimation: no eigenvalue with nonzero imaginary part")
)

// ConstraintError reports a bootstrap iteration that used up its attempts.
type ConstraintError struct {
	Iteration int
	Attempts  int
	LastErr   error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v: iteration %d gave up after %d attempts: %v",
		ErrConstraintUnsatisfiable, e.Iteration, e.Attempts, e.LastErr)
}

func (e *ConstraintError) Unwrap() []error {
	return []error{ErrConstraintUnsatisfiable, e.LastErr}
}

// IsOscillatory reports whether any eigenvalue has |Im| above tol.
func IsOscillatory(eigs []complex128, tol float64) bool {
	for _, ev := range eigs {
		if math.Abs(imag(ev)) > tol {
			return true
		}
	}
	return false
}

// Progress describes one accepted bootstrap iteration.
type Progress struct {
	Iteration int // zero-based index of the accepted iteration
	Done      int
	Total     int
	Attempts  int
	Values    Values
}

type Observer interface {
	OnIteration(Progress)
}

type ObserverFunc func(Progress)

func (f ObserverFunc) OnIteration(p Progress) { f(p) }

// RunMonteCarlo fits data once (unless initial is given), then runs
// iterations bootstrap refits on residual-resampled copies of the fitted
// trajectory. Every returned row passed the oscillatory constraint.
func (e *Estimator) RunMonteCarlo(ctx context.Context, data *dataset.Table, initial *OptimizationResult, iterations int) (*Table, error) {
	if iterations < 0 {
		return nil, fmt.Errorf("estimation: negative iteration count %d", iterations)
	}
	grid, err := sampleGrid(data)
	if err != nil {
		return nil, err
	}

	if initial == nil {
		initial, err = e.Optimize(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("initial fit: %w", err)
		}
	}

	pred, err := e.ev.Evaluate(ctx, initial.Values.Map(), grid, data.Species)
	if err != nil {
		return nil, fmt.Errorf("reference simulation: %w", err)
	}
	residuals, err := absDiff(pred, data)
	if err != nil {
		return nil, err
	}
	e.log.Info("monte carlo started",
		zap.Int("iterations", iterations),
		zap.Int("workers", e.opts.Workers),
		zap.Float64("reference_sse", residuals.SumSquares()))

	evaluators, err := e.evaluators(min(e.opts.Workers, max(iterations, 1)))
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, iterations)
	attempts := make([]int, iterations)

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < iterations; i++ {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for _, ev := range evaluators {
		g.Go(func() error {
			for i := range jobs {
				values, n, err := e.iterate(gctx, ev, i, grid, pred, residuals)
				if err != nil {
					return err
				}
				rows[i] = values.Slice()
				attempts[i] = n

				mu.Lock()
				done++
				if e.opts.Observer != nil {
					e.opts.Observer.OnIteration(Progress{Iteration: i, Done: done, Total: iterations, Attempts: n, Values: values})
				}
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.ev.Model().ResetAll()

	e.log.Info("monte carlo finished", zap.Int("rows", iterations))
	return &Table{names: e.spec.Names(), rows: rows, attempts: attempts}, nil
}

func (e *Estimator) evaluators(n int) ([]*sim.Evaluator, error) {
	evs := []*sim.Evaluator{e.ev}
	for len(evs) < n {
		model, err := e.opts.NewModel()
		if err != nil {
			return nil, fmt.Errorf("worker model: %w", err)
		}
		evs = append(evs, sim.NewEvaluator(model))
	}
	return evs, nil
}

// iterationRand gives iteration i its own stream so results do not depend
// on which worker runs it.
func (e *Estimator) iterationRand(i int) *rand.Rand {
	return rand.New(rand.NewPCG(e.opts.Seed, uint64(i)+1))
}

func (e *Estimator) iterate(ctx context.Context, ev *sim.Evaluator, i int, grid dataset.Grid, pred *dataset.Table, residuals *Matrix) (Values, int, error) {
	rng := e.iterationRand(i)
	sample, err := Resample(rng, pred, residuals)
	if err != nil {
		return Values{}, 0, err
	}

	var lastErr error
	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Values{}, attempt - 1, err
		}

		ev.Model().ResetAll()
		res, err := e.optimize(ctx, ev, sample, rng)
		if err == nil {
			var eigs []complex128
			eigs, err = ev.EigenvaluesAt(ctx, res.Values.Map(), grid)
			if err == nil && !IsOscillatory(eigs, e.opts.ImagTolerance) {
				err = ErrNotOscillatory
			}
			if err == nil {
				e.log.Debug("iteration accepted",
					zap.Int("iteration", i),
					zap.Int("attempt", attempt),
					zap.Float64("objective", res.Objective))
				return res.Values, attempt, nil
			}
		}
		if ctx.Err() != nil {
			return Values{}, attempt, ctx.Err()
		}

		lastErr = err
		e.log.Warn("attempt rejected",
			zap.Int("iteration", i),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.opts.MaxAttempts),
			zap.Error(err))
	}

	return Values{}, e.opts.MaxAttempts, &ConstraintError{Iteration: i, Attempts: e.opts.MaxAttempts, LastErr: lastErr}
}
