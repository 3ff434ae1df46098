package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/repressilator/internal/dynamo"
)

type blowup struct{}

func (b *blowup) StateDim() int   { return 1 }
func (b *blowup) ControlDim() int { return 0 }
func (b *blowup) Derive(x dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	return dynamo.State{math.Inf(1)}
}

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	dyn := &exchange{}

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	for i := 0; i < 1000; i++ {
		x = integrator.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}
	if math.Abs(x[0]-math.Cos(10)) > 1e-6 {
		t.Errorf("RK45 x0 = %.8f, want %.8f", x[0], math.Cos(10))
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &degradation{k: 1}

	x, newDt, err := integrator.StepAdaptive(dyn, dynamo.State{1.0}, nil, 0, 0.1, 1e-8)
	if err != nil {
		t.Fatalf("StepAdaptive returned error: %v", err)
	}
	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if newDt <= 0 {
		t.Errorf("StepAdaptive returned invalid dt: %f", newDt)
	}
	if math.Abs(x[0]-math.Exp(-0.1)) > 1e-7 {
		t.Errorf("x = %.10f, want %.10f", x[0], math.Exp(-0.1))
	}
}

func TestRK45_Unstable(t *testing.T) {
	_, _, err := NewRK45().StepAdaptive(&blowup{}, dynamo.State{1}, nil, 0, 0.1, 1e-6)
	if !errors.Is(err, dynamo.ErrUnstable) {
		t.Errorf("expected ErrUnstable, got %v", err)
	}
}

func TestRK45_RejectsLargeStep(t *testing.T) {
	dyn := &degradation{k: 50}

	_, proposed, err := NewRK45().StepAdaptive(dyn, dynamo.State{1}, nil, 0, 1.0, 1e-10)
	if !errors.Is(err, dynamo.ErrStepRejected) {
		t.Fatalf("expected ErrStepRejected, got %v", err)
	}
	if proposed >= 1.0 {
		t.Errorf("proposed dt %g should shrink", proposed)
	}
}
