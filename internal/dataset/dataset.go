// Package dataset holds the time-indexed observation tables exchanged by the
// simulation engine, the synthetic data generator and the estimator.
package dataset

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrTooFewRows     = errors.New("dataset: at least two samples are required")
	ErrTimeOrder      = errors.New("dataset: sample times must be strictly increasing")
	ErrShape          = errors.New("dataset: row width does not match species list")
	ErrNonFinite      = errors.New("dataset: value is NaN or Inf")
	ErrNegative       = errors.New("dataset: concentration is negative")
	ErrUnknownColumn  = errors.New("dataset: unknown column")
	ErrDuplicateLabel = errors.New("dataset: duplicate species name")
)

// Grid is an evenly spaced sampling of [T0, T1] with N points, both ends included.
type Grid struct {
	T0 float64
	T1 float64
	N  int
}

func (g Grid) Validate() error {
	if g.N < 2 {
		return fmt.Errorf("%w: got %d points", ErrTooFewRows, g.N)
	}
	if !(g.T1 > g.T0) {
		return fmt.Errorf("%w: end %g must exceed start %g", ErrTimeOrder, g.T1, g.T0)
	}
	return nil
}

// Linspace returns the N sample times of the grid. The last entry is exactly T1.
func (g Grid) Linspace() []float64 {
	if g.N <= 0 {
		return nil
	}
	times := make([]float64, g.N)
	if g.N == 1 {
		times[0] = g.T0
		return times
	}
	step := (g.T1 - g.T0) / float64(g.N-1)
	for i := range times {
		times[i] = g.T0 + float64(i)*step
	}
	times[g.N-1] = g.T1
	return times
}

// Table is an observation dataset: a time column plus one column per species.
// Values is row-major, Values[i][j] being species j at Times[i].
type Table struct {
	Species []string
	Times   []float64
	Values  [][]float64
}

// New allocates a zero-filled table on the given time points.
func New(species []string, times []float64) *Table {
	t := &Table{
		Species: append([]string(nil), species...),
		Times:   append([]float64(nil), times...),
		Values:  make([][]float64, len(times)),
	}
	for i := range t.Values {
		t.Values[i] = make([]float64, len(species))
	}
	return t
}

// FromMatrix builds a table from rows whose first entry is the sample time.
func FromMatrix(species []string, rows [][]float64) (*Table, error) {
	t := &Table{
		Species: append([]string(nil), species...),
		Times:   make([]float64, len(rows)),
		Values:  make([][]float64, len(rows)),
	}
	for i, row := range rows {
		if len(row) != len(species)+1 {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), len(species)+1)
		}
		t.Times[i] = row[0]
		t.Values[i] = append([]float64(nil), row[1:]...)
	}
	return t, nil
}

func (t *Table) Rows() int { return len(t.Times) }
func (t *Table) Cols() int { return len(t.Species) }

// Grid describes the sampling of the table. It is exact only for tables
// produced on an evenly spaced grid.
func (t *Table) Grid() Grid {
	if len(t.Times) == 0 {
		return Grid{}
	}
	return Grid{T0: t.Times[0], T1: t.Times[len(t.Times)-1], N: len(t.Times)}
}

// Index returns the column index of a species.
func (t *Table) Index(name string) (int, error) {
	for i, s := range t.Species {
		if s == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
}

// Column returns a copy of a species column.
func (t *Table) Column(name string) ([]float64, error) {
	j, err := t.Index(name)
	if err != nil {
		return nil, err
	}
	col := make([]float64, len(t.Values))
	for i, row := range t.Values {
		col[i] = row[j]
	}
	return col, nil
}

func (t *Table) Clone() *Table {
	c := New(t.Species, t.Times)
	for i, row := range t.Values {
		copy(c.Values[i], row)
	}
	return c
}

// Matrix returns the table as rows with the time prepended.
func (t *Table) Matrix() [][]float64 {
	out := make([][]float64, len(t.Times))
	for i, row := range t.Values {
		r := make([]float64, 0, len(row)+1)
		r = append(r, t.Times[i])
		r = append(r, row...)
		out[i] = r
	}
	return out
}

// Header is the column header of Matrix.
func (t *Table) Header() []string {
	return append([]string{"time"}, t.Species...)
}

// Validate checks the structural invariants of a simulation or observation table.
func (t *Table) Validate() error {
	if len(t.Times) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewRows, len(t.Times))
	}
	if len(t.Values) != len(t.Times) {
		return fmt.Errorf("%w: %d value rows for %d times", ErrShape, len(t.Values), len(t.Times))
	}
	seen := make(map[string]bool, len(t.Species))
	for _, s := range t.Species {
		if seen[s] {
			return fmt.Errorf("%w: %s", ErrDuplicateLabel, s)
		}
		seen[s] = true
	}
	for i, row := range t.Values {
		if len(row) != len(t.Species) {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(row), len(t.Species))
		}
		if i > 0 && !(t.Times[i] > t.Times[i-1]) {
			return fmt.Errorf("%w: t[%d]=%g after t[%d]=%g", ErrTimeOrder, i, t.Times[i], i-1, t.Times[i-1])
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: row %d column %s", ErrNonFinite, i, t.Species[j])
			}
		}
	}
	return nil
}

// ValidateObservation additionally requires non-negative concentrations.
func (t *Table) ValidateObservation() error {
	if err := t.Validate(); err != nil {
		return err
	}
	for i, row := range t.Values {
		for j, v := range row {
			if v < 0 {
				return fmt.Errorf("%w: row %d column %s = %g", ErrNegative, i, t.Species[j], v)
			}
		}
	}
	return nil
}
