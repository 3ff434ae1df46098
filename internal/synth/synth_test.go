package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/repressilator/internal/dataset"
	"github.com/san-kum/repressilator/internal/dynamo"
	"github.com/san-kum/repressilator/internal/models"
	"github.com/san-kum/repressilator/internal/sim"
)

func repressilator(t *testing.T) *sim.Engine {
	t.Helper()
	e, err := sim.NewFromRegistry(models.NewRegistry(), "repressilator", "rk4", dynamo.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

var proteins = []string{"PX", "PY", "PZ"}

func TestGenerateWithoutNoiseMatchesSimulation(t *testing.T) {
	e := repressilator(t)
	opts := Options{NoiseLevel: 0, T0: 0, T1: 100, Points: 21, Species: proteins, Seed: 1}

	got, err := Generate(context.Background(), e, opts)
	if err != nil {
		t.Fatal(err)
	}

	e.ResetAll()
	want, err := e.Simulate(context.Background(), 0, 100, 21, proteins)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("noise-free output differs (-want +got):\n%s", diff)
	}
}

func TestGenerateNoisy(t *testing.T) {
	for _, level := range []float64{0.2, 1} {
		e := repressilator(t)
		opts := Options{NoiseLevel: level, T0: 0, T1: 100, Points: 21, Species: proteins, Seed: 7}

		got, err := Generate(context.Background(), e, opts)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(opts.Grid().Linspace(), got.Times); diff != "" {
			t.Errorf("level %g: time column perturbed:\n%s", level, diff)
		}
		if err := got.ValidateObservation(); err != nil {
			t.Errorf("level %g: %v", level, err)
		}
		if diff := cmp.Diff(proteins, got.Species); diff != "" {
			t.Errorf("level %g: species order:\n%s", level, diff)
		}

		again, err := Generate(context.Background(), e, opts)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(got, again); diff != "" {
			t.Errorf("level %g: same seed gave different data:\n%s", level, diff)
		}
	}
}

func TestGenerateNoiseLevelRange(t *testing.T) {
	for _, level := range []float64{-0.1, 1.5} {
		_, err := Generate(context.Background(), repressilator(t), Options{NoiseLevel: level, T1: 1, Points: 2})
		if !errors.Is(err, ErrNoiseLevel) {
			t.Errorf("level %g: got %v", level, err)
		}
	}
}

type countingModel struct {
	sim.Simulatable
	resets int
	fail   error
}

func (c *countingModel) ResetAll() {
	c.resets++
	c.Simulatable.ResetAll()
}

func (c *countingModel) Simulate(ctx context.Context, t0, t1 float64, n int, sel []string) (*dataset.Table, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	return c.Simulatable.Simulate(ctx, t0, t1, n, sel)
}

func TestGenerateLeavesModelReset(t *testing.T) {
	e := repressilator(t)
	if err := e.SetParameter("n", 3); err != nil {
		t.Fatal(err)
	}
	m := &countingModel{Simulatable: e}

	if _, err := Generate(context.Background(), m, Options{NoiseLevel: 0.1, T1: 10, Points: 5, Species: proteins}); err != nil {
		t.Fatal(err)
	}
	if m.resets != 2 {
		t.Errorf("ResetAll called %d times, want 2", m.resets)
	}
	if e.Params()["n"] != 2 || e.Time() != 0 {
		t.Errorf("model not reset: n=%g t=%g", e.Params()["n"], e.Time())
	}
}

func TestGeneratePropagatesSimulationError(t *testing.T) {
	boom := errors.New("boom")
	m := &countingModel{Simulatable: repressilator(t), fail: boom}

	if _, err := Generate(context.Background(), m, Options{NoiseLevel: 0.1, T1: 10, Points: 5}); err != boom {
		t.Errorf("got %v, want the simulation error unchanged", err)
	}
}
