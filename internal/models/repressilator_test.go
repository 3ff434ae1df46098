package models

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/repressilator/internal/dynamo"
)

func TestRepressilatorDimensions(t *testing.T) {
	r := NewRepressilator()

	if r.StateDim() != 6 {
		t.Errorf("expected state dim 6, got %d", r.StateDim())
	}
	if r.ControlDim() != 0 {
		t.Errorf("expected control dim 0, got %d", r.ControlDim())
	}
	if len(r.SpeciesNames()) != r.StateDim() {
		t.Errorf("species names %v do not match state dim", r.SpeciesNames())
	}
	if len(r.DefaultState()) != r.StateDim() {
		t.Errorf("default state %v does not match state dim", r.DefaultState())
	}
}

func TestRepressilatorDerivedRates(t *testing.T) {
	p := NewRepressilator().GetParams()

	tests := []struct {
		name string
		want float64
	}{
		{"kd_mRNA", math.Ln2 / 2},
		{"kd_prot", math.Ln2 / 10},
		{"k_tl", 20 / (2 / math.Ln2)},
		{"a_tr", (0.5 - 0.0005) * 60},
		{"a0_tr", 0.0005 * 60},
		{"beta", 0.2},
	}
	for _, tt := range tests {
		if math.Abs(p[tt.name]-tt.want) > 1e-12 {
			t.Errorf("%s = %g, want %g", tt.name, p[tt.name], tt.want)
		}
	}
}

func TestRepressilatorDeriveAtRest(t *testing.T) {
	r := NewRepressilator()
	dx := r.Derive(dynamo.State{0, 0, 0, 0, 0, 0}, nil, 0)

	// no repressor present: every gene transcribes at the full rate
	full := r.a0Tr() + r.aTr()
	for i := 0; i < 3; i++ {
		if math.Abs(dx[i]-full) > 1e-12 {
			t.Errorf("dM[%d] = %g, want %g", i, dx[i], full)
		}
	}
	for i := 3; i < 6; i++ {
		if dx[i] != 0 {
			t.Errorf("dP[%d] = %g, want 0", i, dx[i])
		}
	}
}

func TestRepressilatorJacobianMatchesFiniteDifference(t *testing.T) {
	r := NewRepressilator()
	x := dynamo.State{3, 12, 7, 55, 20, 90}
	j := r.Jacobian(x, 0)

	h := 1e-6
	for col := 0; col < 6; col++ {
		up, down := x.Clone(), x.Clone()
		up[col] += h
		down[col] -= h
		fu, fl := r.Derive(up, nil, 0), r.Derive(down, nil, 0)
		for row := 0; row < 6; row++ {
			slope := (fu[row] - fl[row]) / (2 * h)
			if math.Abs(slope-j[row][col]) > 1e-5*math.Max(1, math.Abs(slope)) {
				t.Errorf("J[%d][%d] = %g, finite difference %g", row, col, j[row][col], slope)
			}
		}
	}
}

func TestRepressilatorHillZeroDecouples(t *testing.T) {
	r := NewRepressilator()
	if err := r.SetParam("n", 0); err != nil {
		t.Fatal(err)
	}
	j := r.Jacobian(dynamo.State{1, 1, 1, 10, 10, 10}, 0)
	if j[mX][pZ] != 0 || j[mY][pX] != 0 || j[mZ][pY] != 0 {
		t.Errorf("expected no repression coupling with n=0, got %v", j)
	}
}

func TestRepressilatorSetParam(t *testing.T) {
	r := NewRepressilator()

	if err := r.SetParam("KM", 25); err != nil {
		t.Fatalf("SetParam(KM): %v", err)
	}
	if r.KM != 25 {
		t.Errorf("KM = %g, want 25", r.KM)
	}

	for _, name := range []string{"alpha", "bogus"} {
		if err := r.SetParam(name, 1); !errors.Is(err, dynamo.ErrUnknownParameter) {
			t.Errorf("SetParam(%s) = %v, want ErrUnknownParameter", name, err)
		}
	}

	defaults := r.DefaultParams()
	if defaults["KM"] != 40 {
		t.Errorf("DefaultParams KM = %g, want 40", defaults["KM"])
	}
	if _, ok := defaults["alpha"]; ok {
		t.Error("DefaultParams should not include derived quantities")
	}
}

func TestSynthesis(t *testing.T) {
	s := NewSynthesis()
	if err := s.SetParam("k", 2.5); err != nil {
		t.Fatal(err)
	}
	if dx := s.Derive(dynamo.State{7}, nil, 3); dx[0] != 2.5 {
		t.Errorf("dA/dt = %g, want 2.5", dx[0])
	}
	if err := s.SetParam("KM", 1); !errors.Is(err, dynamo.ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	for _, name := range reg.ListModels() {
		if _, err := reg.GetModel(name); err != nil {
			t.Errorf("GetModel(%s): %v", name, err)
		}
	}
	for _, name := range reg.ListIntegrators() {
		if _, err := reg.GetIntegrator(name); err != nil {
			t.Errorf("GetIntegrator(%s): %v", name, err)
		}
	}
	if _, err := reg.GetModel("pendulum"); err == nil {
		t.Error("expected error for unknown model")
	}
}
