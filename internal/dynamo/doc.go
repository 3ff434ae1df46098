// Package dynamo provides core primitives for ODE-based dynamical models.
//
// The package defines the fundamental interfaces and types shared by the
// models, integrators and the simulation engine:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepping interface
//   - [Configurable]: named global parameters
//   - [Jacobian]: analytic linearization, used for eigenvalue checks
//
// # Example
//
//	dyn := models.NewRepressilator()
//	integ := integrators.NewRK4()
//	x := integ.Step(dyn, dyn.DefaultState(), nil, 0, 0.05)
//
// # Thread Safety
//
// Systems carry mutable parameter state and are NOT thread-safe. Parallel
// callers must work on independent instances.
package dynamo
