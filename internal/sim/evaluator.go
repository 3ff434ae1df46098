package sim

import (
	"context"
	"sort"

	"github.com/san-kum/repressilator/internal/dataset"
)

// Evaluator is the only place where parameter candidates are written into a
// model. Each call starts from ResetAll so no state leaks between
// evaluations.
type Evaluator struct {
	model Simulatable
}

func NewEvaluator(model Simulatable) *Evaluator {
	return &Evaluator{model: model}
}

func (ev *Evaluator) Model() Simulatable { return ev.model }

func (ev *Evaluator) apply(params map[string]float64) error {
	ev.model.ResetAll()

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := ev.model.SetParameter(name, params[name]); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate simulates the model under params across grid.
func (ev *Evaluator) Evaluate(ctx context.Context, params map[string]float64, grid dataset.Grid, species []string) (*dataset.Table, error) {
	if err := ev.apply(params); err != nil {
		return nil, err
	}
	return ev.model.Simulate(ctx, grid.T0, grid.T1, grid.N, species)
}

// EigenvaluesAt simulates params across grid and linearizes at the final
// state.
func (ev *Evaluator) EigenvaluesAt(ctx context.Context, params map[string]float64, grid dataset.Grid) ([]complex128, error) {
	if err := ev.apply(params); err != nil {
		return nil, err
	}
	if _, err := ev.model.Simulate(ctx, grid.T0, grid.T1, grid.N, nil); err != nil {
		return nil, err
	}
	return ev.model.Eigenvalues()
}
