package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/repressilator/internal/dataset"
	"github.com/san-kum/repressilator/internal/dynamo"
	"github.com/san-kum/repressilator/internal/models"
)

// Engine integrates a models.Model and implements Simulatable.
type Engine struct {
	newModel      func() models.Model
	newIntegrator func() dynamo.Integrator

	model      models.Model
	integrator dynamo.Integrator
	cfg        dynamo.Config
	index      map[string]int

	x     dynamo.State
	t     float64
	dt    float64
	steps int
}

func New(newModel func() models.Model, newIntegrator func() dynamo.Integrator, cfg dynamo.Config) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	e := &Engine{
		newModel:      newModel,
		newIntegrator: newIntegrator,
		model:         newModel(),
		integrator:    newIntegrator(),
		cfg:           cfg,
	}

	names := e.model.SpeciesNames()
	if len(names) != e.model.StateDim() {
		return nil, fmt.Errorf("%w: %d species for %d states",
			dynamo.ErrDimensionMismatch, len(names), e.model.StateDim())
	}
	e.index = make(map[string]int, len(names))
	for i, name := range names {
		e.index[name] = i
	}

	e.Reset()
	return e, nil
}

// NewFromRegistry builds an engine from registered model and integrator names.
func NewFromRegistry(reg *models.Registry, model, integrator string, cfg dynamo.Config) (*Engine, error) {
	newModel, err := reg.ModelFactory(model)
	if err != nil {
		return nil, err
	}
	newIntegrator, err := reg.IntegratorFactory(integrator)
	if err != nil {
		return nil, err
	}
	return New(newModel, newIntegrator, cfg)
}

func validateConfig(cfg dynamo.Config) error {
	if cfg.MaxDt <= 0 {
		return fmt.Errorf("max dt must be positive, got %f", cfg.MaxDt)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	if cfg.Adaptive && (cfg.MinDt <= 0 || cfg.MinDt > cfg.MaxDt) {
		return fmt.Errorf("min dt must be in (0, %f], got %f", cfg.MaxDt, cfg.MinDt)
	}
	return nil
}

func (e *Engine) Reset() {
	e.x = e.model.DefaultState().Clone()
	e.t = 0
	e.dt = e.cfg.MaxDt
	e.steps = 0
}

func (e *Engine) ResetAll() {
	for name, value := range e.model.DefaultParams() {
		// Defaults are settable by construction.
		_ = e.model.SetParam(name, value)
	}
	e.Reset()
}

func (e *Engine) SetParameter(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s=%g", dynamo.ErrParameterBounds, name, value)
	}
	return e.model.SetParam(name, value)
}

func (e *Engine) Params() map[string]float64 { return e.model.GetParams() }
func (e *Engine) Species() []string          { return e.model.SpeciesNames() }
func (e *Engine) State() dynamo.State        { return e.x.Clone() }
func (e *Engine) Time() float64              { return e.t }

// Provenance reports the model's source id and label, empty when unknown.
func (e *Engine) Provenance() (id, label string) {
	if p, ok := e.model.(models.Provenance); ok {
		return p.SourceID(), p.SystemLabel()
	}
	return "", ""
}

// Clone returns an independent engine with the same parameters and state.
func (e *Engine) Clone() *Engine {
	c := &Engine{
		newModel:      e.newModel,
		newIntegrator: e.newIntegrator,
		model:         e.newModel(),
		integrator:    e.newIntegrator(),
		cfg:           e.cfg,
		index:         e.index,
		x:             e.x.Clone(),
		t:             e.t,
		dt:            e.dt,
		steps:         e.steps,
	}
	current := e.model.GetParams()
	for name := range c.model.DefaultParams() {
		if v, ok := current[name]; ok {
			_ = c.model.SetParam(name, v)
		}
	}
	return c
}

func (e *Engine) resolve(selections []string) ([]string, []int, error) {
	names := make([]string, 0, len(selections))
	cols := make([]int, 0, len(selections))
	seen := make(map[string]bool, len(selections))
	for _, name := range selections {
		if name == TimeColumn {
			continue
		}
		idx, ok := e.index[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownSpecies, name)
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("%w: %q selected twice", dataset.ErrDuplicateLabel, name)
		}
		seen[name] = true
		names = append(names, name)
		cols = append(cols, idx)
	}
	return names, cols, nil
}

func (e *Engine) Simulate(ctx context.Context, t0, t1 float64, n int, selections []string) (*dataset.Table, error) {
	grid := dataset.Grid{T0: t0, T1: t1, N: n}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	names, cols, err := e.resolve(selections)
	if err != nil {
		return nil, err
	}

	times := grid.Linspace()
	table := dataset.New(names, times)
	e.t = t0
	e.dt = e.cfg.MaxDt

	record := func(row int) {
		for j, c := range cols {
			table.Values[row][j] = e.x[c]
		}
	}
	record(0)

	for i := 1; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		if e.cfg.Adaptive {
			err = e.advanceAdaptive(times[i])
		} else {
			err = e.advance(times[i])
		}
		if err != nil {
			return nil, err
		}
		record(i)
	}

	return table, nil
}

func (e *Engine) unstable(err error) error {
	return &dynamo.SimulationError{Step: e.steps, Time: e.t, State: e.x.Clone(), Wrapped: err}
}

// advance integrates to target in equal sub-steps no larger than MaxDt.
func (e *Engine) advance(target float64) error {
	h := target - e.t
	m := int(math.Ceil(h / e.cfg.MaxDt))
	if m < 1 {
		m = 1
	}
	dt := h / float64(m)

	for k := 0; k < m; k++ {
		next := e.integrator.Step(e.model, e.x, nil, e.t, dt)
		if !next.IsValid() {
			return e.unstable(dynamo.ErrUnstable)
		}
		e.x = next
		e.t += dt
		e.steps++
	}
	e.t = target
	return nil
}

func (e *Engine) advanceAdaptive(target float64) error {
	eps := 1e-12 * math.Max(1, math.Abs(target))
	for target-e.t > eps {
		h := math.Min(e.dt, target-e.t)
		next, proposed, err := e.adaptiveStep(e.x, e.t, h)
		switch {
		case errors.Is(err, dynamo.ErrStepRejected):
			if proposed < e.cfg.MinDt {
				return e.unstable(dynamo.ErrStepTooSmall)
			}
			e.dt = proposed
			continue
		case err != nil:
			return e.unstable(err)
		}
		if !next.IsValid() {
			return e.unstable(dynamo.ErrUnstable)
		}
		e.x = next
		e.t += h
		e.steps++
		e.dt = math.Max(e.cfg.MinDt, math.Min(proposed, e.cfg.MaxDt))
	}
	e.t = target
	return nil
}

// adaptiveStep uses embedded error control when the integrator has it and
// falls back to step doubling otherwise.
func (e *Engine) adaptiveStep(x dynamo.State, t, dt float64) (dynamo.State, float64, error) {
	if adaptive, ok := e.integrator.(dynamo.AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(e.model, x, nil, t, dt, e.cfg.Tolerance)
	}

	x1 := e.integrator.Step(e.model, x, nil, t, dt)
	xHalf := e.integrator.Step(e.model, x, nil, t, dt/2)
	x2 := e.integrator.Step(e.model, xHalf, nil, t+dt/2, dt/2)

	errNorm := x1.Sub(x2).Norm()
	if math.IsNaN(errNorm) {
		return x2, dt, dynamo.ErrUnstable
	}
	if errNorm > e.cfg.Tolerance {
		return x2, dt / 2, dynamo.ErrStepRejected
	}
	if errNorm < e.cfg.Tolerance/10 {
		dt *= 2
	}
	return x2, dt, nil
}
