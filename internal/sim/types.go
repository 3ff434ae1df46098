package sim

import (
	"context"

	"github.com/san-kum/repressilator/internal/dataset"
)

// Simulatable is the narrow surface through which estimation code drives a
// model. Implementations carry mutable state and are not safe for concurrent
// use; run one instance per goroutine.
type Simulatable interface {
	// Reset restores the initial concentrations and keeps parameter values.
	Reset()
	// ResetAll restores the initial concentrations and default parameters.
	ResetAll()
	SetParameter(name string, value float64) error
	// Simulate samples n evenly spaced points in [t0, t1]. Column order
	// follows selections; a "time" selection is implied and skipped.
	Simulate(ctx context.Context, t0, t1 float64, n int, selections []string) (*dataset.Table, error)
	// Eigenvalues of the Jacobian at the current state.
	Eigenvalues() ([]complex128, error)
}

// Version is recorded with every stored dataset.
const Version = "1.0.0"

// TimeColumn is the selection name for the independent variable.
const TimeColumn = "time"
