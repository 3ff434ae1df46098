package models

import (
	"fmt"
	"sort"

	"github.com/san-kum/repressilator/internal/dynamo"
	"github.com/san-kum/repressilator/internal/integrators"
)

// Model is the full capability set the simulation engine needs from a system.
type Model interface {
	dynamo.System
	dynamo.Configurable
	dynamo.Defaults
	dynamo.Species
}

// Provenance names where a model comes from, recorded with stored datasets.
type Provenance interface {
	SourceID() string
	SystemLabel() string
}

type Registry struct {
	models      map[string]func() Model
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() Model),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.models["repressilator"] = func() Model { return NewRepressilator() }
	r.models["synthesis"] = func() Model { return NewSynthesis() }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

func (r *Registry) GetModel(name string) (Model, error) {
	fn, err := r.ModelFactory(name)
	if err != nil {
		return nil, err
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, err := r.IntegratorFactory(name)
	if err != nil {
		return nil, err
	}
	return fn(), nil
}

// ModelFactory returns the constructor registered under name, so callers can
// build independent instances later (one per worker).
func (r *Registry) ModelFactory(name string) (func() Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn, nil
}

func (r *Registry) IntegratorFactory(name string) (func() dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
