package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/san-kum/repressilator/internal/estimation"
	"github.com/san-kum/repressilator/internal/optim"
)

func TestAcceptFit(t *testing.T) {
	log := zap.NewNop()
	res := &estimation.OptimizationResult{Objective: 1.5}
	boom := errors.New("boom")

	if err := acceptFit(res, nil, log); err != nil {
		t.Errorf("converged fit: %v", err)
	}
	if err := acceptFit(res, optim.ErrNotConverged, log); err != nil {
		t.Errorf("unconverged fit with a result should be kept, got %v", err)
	}
	if err := acceptFit(nil, optim.ErrNotConverged, log); !errors.Is(err, optim.ErrNotConverged) {
		t.Errorf("unconverged fit without a result: got %v", err)
	}
	if err := acceptFit(res, boom, log); !errors.Is(err, boom) {
		t.Errorf("other errors must propagate, got %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimates.csv")
	if err := writeCSV(path, []string{"n", "tau_mRNA"}, [][]float64{{2, 1.5}, {2.5, 3}}); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "n,tau_mRNA\n2,1.5\n2.5,3\n"; string(got) != want {
		t.Errorf("csv = %q, want %q", got, want)
	}

	missing := filepath.Join(t.TempDir(), "no", "such", "dir.csv")
	if err := writeCSV(missing, []string{"n"}, nil); err == nil {
		t.Error("expected an error for an unwritable path")
	}
}
