package integrators

import (
	"math"

	"github.com/san-kum/repressilator/internal/dynamo"
)

// Dormand-Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1, 1}

	dpA = [7][6]float64{
		{},
		{1.0 / 5.0},
		{3.0 / 40.0, 9.0 / 40.0},
		{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
		{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
		{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
		{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
	}

	// fifth-order weights minus embedded fourth-order weights
	dpE = [7]float64{
		35.0/384.0 - 5179.0/57600.0,
		0,
		500.0/1113.0 - 7571.0/16695.0,
		125.0/192.0 - 393.0/640.0,
		-2187.0/6784.0 + 92097.0/339200.0,
		11.0/84.0 - 187.0/2100.0,
		-1.0 / 40.0,
	}
)

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	next, _, _ := r.StepAdaptive(dyn, x, u, t, dt, 1e-6)
	return next
}

// StepAdaptive advances one step of size dt and proposes the next step size
// from the embedded error estimate. When the error exceeds tol the state is
// still returned alongside dynamo.ErrStepRejected; callers retry with the
// proposed size.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, error) {
	n := len(x)
	var k [7]dynamo.State

	k[0] = dyn.Derive(x, u, t)
	stage := make(dynamo.State, n)
	for s := 1; s < 7; s++ {
		for i := 0; i < n; i++ {
			acc := 0.0
			for j := 0; j < s; j++ {
				acc += dpA[s][j] * k[j][i]
			}
			stage[i] = x[i] + dt*acc
		}
		k[s] = dyn.Derive(stage, u, t+dpC[s]*dt)
	}

	// row 6 of the tableau is the fifth-order solution (FSAL)
	next := stage.Clone()
	if !next.IsValid() {
		return next, dt, dynamo.ErrUnstable
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		est := 0.0
		for s := 0; s < 7; s++ {
			est += dpE[s] * k[s][i]
		}
		est *= dt
		scale := math.Abs(x[i]) + math.Abs(dt*k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(est)/scale)
	}

	ratio := errMax / tol
	switch {
	case ratio > 1:
		factor := math.Max(r.minScale, r.safety*math.Pow(ratio, -0.25))
		return next, dt * factor, dynamo.ErrStepRejected
	case ratio > 0:
		return next, dt * math.Min(r.maxScale, r.safety*math.Pow(ratio, -0.2)), nil
	default:
		return next, dt * r.maxScale, nil
	}
}
