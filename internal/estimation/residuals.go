package estimation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/san-kum/repressilator/internal/dataset"
	"github.com/san-kum/repressilator/internal/sim"
)

var ErrIrregularGrid = errors.New("estimation: observation times are not evenly spaced")

// Matrix holds absolute residuals, one row per sample time and one column
// per species.
type Matrix struct {
	Species []string
	Data    [][]float64
}

func (m *Matrix) Rows() int { return len(m.Data) }

func (m *Matrix) Cols() int { return len(m.Species) }

// SumSquares is the least-squares cost of the residuals.
func (m *Matrix) SumSquares() float64 {
	s := 0.0
	for _, row := range m.Data {
		for _, v := range row {
			s += v * v
		}
	}
	return s
}

// Residuals simulates values across the grid of data and returns
// |simulation - data| for every species column of data.
func Residuals(ctx context.Context, ev *sim.Evaluator, values Values, data *dataset.Table) (*Matrix, error) {
	grid, err := sampleGrid(data)
	if err != nil {
		return nil, err
	}
	pred, err := ev.Evaluate(ctx, values.Map(), grid, data.Species)
	if err != nil {
		return nil, err
	}
	return absDiff(pred, data)
}

func absDiff(pred, data *dataset.Table) (*Matrix, error) {
	if pred.Rows() != data.Rows() || pred.Cols() != data.Cols() {
		return nil, fmt.Errorf("%w: prediction %dx%d, data %dx%d",
			dataset.ErrShape, pred.Rows(), pred.Cols(), data.Rows(), data.Cols())
	}
	m := &Matrix{Species: append([]string(nil), data.Species...), Data: make([][]float64, data.Rows())}
	for i := range m.Data {
		m.Data[i] = make([]float64, data.Cols())
		for j := range m.Data[i] {
			m.Data[i][j] = math.Abs(pred.Values[i][j] - data.Values[i][j])
		}
	}
	return m, nil
}

// sampleGrid recovers the evenly spaced grid data was sampled on.
func sampleGrid(data *dataset.Table) (dataset.Grid, error) {
	if err := data.Validate(); err != nil {
		return dataset.Grid{}, err
	}
	grid := data.Grid()
	step := (grid.T1 - grid.T0) / float64(grid.N-1)
	for i, t := range grid.Linspace() {
		if math.Abs(t-data.Times[i]) > 1e-6*step {
			return dataset.Grid{}, fmt.Errorf("%w: t[%d]=%g, expected %g", ErrIrregularGrid, i, data.Times[i], t)
		}
	}
	return grid, nil
}

// Resample builds a synthetic observation table: each cell of prediction is
// perturbed by a residual picked by drawing a row and then a column of
// residuals, uniformly and with replacement. Results are clipped at zero.
func Resample(rng *rand.Rand, prediction *dataset.Table, residuals *Matrix) (*dataset.Table, error) {
	if residuals.Rows() == 0 || residuals.Cols() == 0 {
		return nil, fmt.Errorf("%w: empty residual matrix", dataset.ErrShape)
	}
	if residuals.Rows() != prediction.Rows() || residuals.Cols() != prediction.Cols() {
		return nil, fmt.Errorf("%w: residuals %dx%d, prediction %dx%d",
			dataset.ErrShape, residuals.Rows(), residuals.Cols(), prediction.Rows(), prediction.Cols())
	}
	for i, row := range residuals.Data {
		if len(row) != residuals.Cols() {
			return nil, fmt.Errorf("%w: residual row %d has %d values, want %d",
				dataset.ErrShape, i, len(row), residuals.Cols())
		}
	}
	out := prediction.Clone()
	for i := range out.Values {
		for j := range out.Values[i] {
			row := residuals.Data[rng.IntN(residuals.Rows())]
			r := row[rng.IntN(len(row))]
			out.Values[i][j] = math.Max(out.Values[i][j]+r, 0)
		}
	}
	return out, nil
}
