package estimation

import (
	"fmt"

	"github.com/san-kum/repressilator/internal/dataset"
)

// Table is the result of a Monte Carlo run: one row of parameter values per
// accepted iteration, columns in spec order. It is read-only.
type Table struct {
	names    []string
	rows     [][]float64
	attempts []int
}

// NewTable rebuilds a table from stored rows. Attempt counts are unknown and
// reported as zero.
func NewTable(names []string, rows [][]float64) (*Table, error) {
	t := &Table{names: append([]string(nil), names...), attempts: make([]int, len(rows))}
	for i, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d columns", dataset.ErrShape, i, len(row), len(names))
		}
		t.rows = append(t.rows, append([]float64(nil), row...))
	}
	return t, nil
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Names() []string { return append([]string(nil), t.names...) }

func (t *Table) Row(i int) Values {
	return Values{names: t.names, x: append([]float64(nil), t.rows[i]...)}
}

// Attempts is the number of optimize attempts each row needed.
func (t *Table) Attempts() []int { return append([]int(nil), t.attempts...) }

func (t *Table) Column(name string) ([]float64, error) {
	for j, n := range t.names {
		if n == name {
			col := make([]float64, len(t.rows))
			for i, row := range t.rows {
				col[i] = row[j]
			}
			return col, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", dataset.ErrUnknownColumn, name)
}

func (t *Table) Rows() [][]float64 {
	out := make([][]float64, len(t.rows))
	for i, row := range t.rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
