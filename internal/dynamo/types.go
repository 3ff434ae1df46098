package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Jacobian is implemented by systems with an analytic linearization.
// J[i][j] = d(dx_i/dt)/dx_j evaluated at x.
type Jacobian interface {
	Jacobian(x State, t float64) [][]float64
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, u Control, t, dt, tol float64) (State, float64, error)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Defaults exposes the pristine initial condition and parameter set of a
// model, used to reset it between evaluations.
type Defaults interface {
	DefaultState() State
	DefaultParams() map[string]float64
}

// Species is implemented by systems whose state entries carry names.
type Species interface {
	SpeciesNames() []string
}

type Config struct {
	MaxDt     float64
	Tolerance float64
	MinDt     float64
	Adaptive  bool
}

func DefaultConfig() Config {
	return Config{
		MaxDt:     0.05,
		Tolerance: 1e-6,
		MinDt:     1e-8,
		Adaptive:  false,
	}
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
