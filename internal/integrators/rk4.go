package integrators

import "github.com/san-kum/repressilator/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta method. Stage buffers are
// reused between steps, so an RK4 value must not be shared across goroutines.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	stage          dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) grow(n int) {
	if len(r.stage) == n {
		return
	}
	r.k1 = make(dynamo.State, n)
	r.k2 = make(dynamo.State, n)
	r.k3 = make(dynamo.State, n)
	r.k4 = make(dynamo.State, n)
	r.stage = make(dynamo.State, n)
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.grow(n)
	half := 0.5 * dt

	copy(r.k1, dyn.Derive(x, u, t))
	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + half*r.k1[i]
	}

	copy(r.k2, dyn.Derive(r.stage, u, t+half))
	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + half*r.k2[i]
	}

	copy(r.k3, dyn.Derive(r.stage, u, t+half))
	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + dt*r.k3[i]
	}

	copy(r.k4, dyn.Derive(r.stage, u, t+dt))

	next := make(dynamo.State, n)
	sixth := dt / 6.0
	for i := 0; i < n; i++ {
		next[i] = x[i] + sixth*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return next
}
