package integrators

import "github.com/san-kum/repressilator/internal/dynamo"

// Euler is the explicit first-order method. Only useful for smoke tests and
// for comparing step-size sensitivity against RK4.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	next := make(dynamo.State, len(x))
	for i := range x {
		next[i] = x[i] + dt*dx[i]
	}
	return next
}
