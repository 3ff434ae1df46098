package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the integration diverged.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepRejected is returned by adaptive integrators when the local error
	// exceeds the tolerance; the proposed step size is still returned.
	ErrStepRejected = errors.New("dynamo: step rejected by error control")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrUnknownParameter indicates a parameter id the model does not recognize.
	ErrUnknownParameter = errors.New("dynamo: unknown parameter")

	// ErrUnknownSpecies indicates a species id the model does not recognize.
	ErrUnknownSpecies = errors.New("dynamo: unknown species")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return SimError{Time: e.Time, Step: e.Step, Message: e.Wrapped.Error()}.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
