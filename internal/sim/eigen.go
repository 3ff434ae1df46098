package sim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/repressilator/internal/dynamo"
)

var ErrEigen = errors.New("sim: eigendecomposition failed")

// Eigenvalues returns the eigenvalues of the full Jacobian at the current
// state. Systems without an analytic Jacobian are linearized by central
// differences.
func (e *Engine) Eigenvalues() ([]complex128, error) {
	if !e.x.IsValid() {
		return nil, fmt.Errorf("%w: %w", ErrEigen, dynamo.ErrInvalidState)
	}

	var jac [][]float64
	if j, ok := e.model.(dynamo.Jacobian); ok {
		jac = j.Jacobian(e.x, e.t)
	} else {
		jac = finiteDifference(e.model, e.x, e.t)
	}

	n := len(e.x)
	if len(jac) != n {
		return nil, fmt.Errorf("%w: jacobian has %d rows for %d states", dynamo.ErrDimensionMismatch, len(jac), n)
	}
	a := mat.NewDense(n, n, nil)
	for i, row := range jac {
		if len(row) != n {
			return nil, fmt.Errorf("%w: jacobian row %d has %d entries", dynamo.ErrDimensionMismatch, i, len(row))
		}
		a.SetRow(i, row)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenNone); !ok {
		return nil, ErrEigen
	}
	return eig.Values(nil), nil
}

func finiteDifference(sys dynamo.System, x dynamo.State, t float64) [][]float64 {
	n := len(x)
	jac := make([][]float64, n)
	for i := range jac {
		jac[i] = make([]float64, n)
	}

	probe := x.Clone()
	for j := 0; j < n; j++ {
		h := 1e-6 * math.Max(1, math.Abs(x[j]))
		probe[j] = x[j] + h
		fu := sys.Derive(probe, nil, t)
		probe[j] = x[j] - h
		fl := sys.Derive(probe, nil, t)
		probe[j] = x[j]
		for i := 0; i < n; i++ {
			jac[i][j] = (fu[i] - fl[i]) / (2 * h)
		}
	}
	return jac
}
