package config

import (
	"maps"
	"slices"
)

// Presets are named studies. Each call returns a fresh copy.
var Presets = map[string]func() *Study{
	// biomd12 reproduces the published repressilator study settings.
	"biomd12": DefaultStudy,
	// quick is a smoke-test sized run.
	"quick": func() *Study {
		s := DefaultStudy()
		s.T1 = 200
		s.Points = 50
		s.Iterations = 5
		s.MaxAttempts = 10
		s.Optimizer.PopSize = 8
		s.Optimizer.MaxIter = 150
		s.Parameters = s.Parameters[:2]
		return s
	},
	// adaptive uses embedded Runge-Kutta error control instead of fixed steps.
	"adaptive": func() *Study {
		s := DefaultStudy()
		s.Integrator = "rk45"
		s.Adaptive = true
		s.MaxDt = 1
		s.Tolerance = 1e-6
		return s
	},
	// noiseless fits data generated without perturbation.
	"noiseless": func() *Study {
		s := DefaultStudy()
		s.NoiseLevel = 0
		return s
	},
}

func GetPreset(name string) *Study {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	return slices.Sorted(maps.Keys(Presets))
}
