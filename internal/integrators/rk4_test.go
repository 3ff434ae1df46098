package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/repressilator/internal/dynamo"
)

// degradation is first-order decay of a single species: dA/dt = -k*A.
type degradation struct{ k float64 }

func (d *degradation) StateDim() int   { return 1 }
func (d *degradation) ControlDim() int { return 0 }
func (d *degradation) Derive(x dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	return dynamo.State{-d.k * x[0]}
}

// exchange is a linear rotation with a closed-form cos/sin solution.
type exchange struct{}

func (e *exchange) StateDim() int   { return 2 }
func (e *exchange) ControlDim() int { return 0 }
func (e *exchange) Derive(x dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func TestRK4Accuracy(t *testing.T) {
	dyn := &exchange{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("x0 error too large: got %.6f, expected %.6f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("x1 error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestRK4Decay(t *testing.T) {
	dyn := &degradation{k: math.Ln2 / 10}
	integ := NewRK4()

	x := dynamo.State{8.0}
	dt := 0.05
	for i := 0; i < 600; i++ {
		x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	// three half-lives
	if math.Abs(x[0]-1.0) > 1e-6 {
		t.Errorf("expected 1.0 after three half-lives, got %.8f", x[0])
	}
}

func TestEulerConvergesToRK4(t *testing.T) {
	dyn := &degradation{k: 0.5}
	euler := NewEuler()
	rk4 := NewRK4()

	xe := dynamo.State{1.0}
	xr := dynamo.State{1.0}
	dt := 1e-4
	for i := 0; i < 10000; i++ {
		xe = euler.Step(dyn, xe, nil, 0, dt)
		xr = rk4.Step(dyn, xr, nil, 0, dt)
	}

	if math.Abs(xe[0]-xr[0]) > 1e-4 {
		t.Errorf("euler %.6f too far from rk4 %.6f", xe[0], xr[0])
	}
}
