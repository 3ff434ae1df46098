package analysis

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/san-kum/repressilator/internal/dataset"
	"github.com/san-kum/repressilator/internal/estimation"
	"github.com/san-kum/repressilator/internal/sim"
)

type SweepOptions struct {
	Param         string
	Min, Max      float64
	Steps         int
	Base          map[string]float64 // other parameter overrides
	Grid          dataset.Grid
	Species       []string
	ImagTolerance float64
}

// SweepPoint is the long-run behavior at one parameter value.
type SweepPoint struct {
	Value       float64
	Min, Max    []float64 // per species, over the second half of the run
	Oscillatory bool
	Period      float64 // mean-crossing period of the first species, 0 if none
}

// Sweep varies one parameter over [Min, Max] and records, for each value, the
// envelope of every species once transients have decayed and whether the
// linearization at the final state has a complex eigenvalue pair.
func Sweep(ctx context.Context, ev *sim.Evaluator, opts SweepOptions) ([]SweepPoint, error) {
	if opts.Steps < 2 {
		return nil, fmt.Errorf("analysis: sweep needs at least 2 steps, got %d", opts.Steps)
	}
	if len(opts.Species) == 0 {
		return nil, fmt.Errorf("analysis: sweep needs at least one species")
	}
	step := (opts.Max - opts.Min) / float64(opts.Steps-1)

	points := make([]SweepPoint, 0, opts.Steps)
	for i := 0; i < opts.Steps; i++ {
		value := opts.Min + float64(i)*step
		params := maps.Clone(opts.Base)
		if params == nil {
			params = make(map[string]float64, 1)
		}
		params[opts.Param] = value

		table, err := ev.Evaluate(ctx, params, opts.Grid, opts.Species)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", opts.Param, value, err)
		}
		// Evaluate leaves the model at the end of the grid; linearize there.
		eigs, err := ev.Model().Eigenvalues()
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", opts.Param, value, err)
		}

		p := SweepPoint{
			Value:       value,
			Min:         make([]float64, table.Cols()),
			Max:         make([]float64, table.Cols()),
			Oscillatory: estimation.IsOscillatory(eigs, opts.ImagTolerance),
		}
		half := table.Rows() / 2
		for j := range table.Species {
			p.Min[j], p.Max[j] = table.Values[half][j], table.Values[half][j]
			for _, row := range table.Values[half:] {
				p.Min[j] = min(p.Min[j], row[j])
				p.Max[j] = max(p.Max[j], row[j])
			}
		}
		first, _ := table.Column(table.Species[0])
		if period, ok := CrossingPeriod(table.Times[half:], first[half:]); ok {
			p.Period = period
		}
		points = append(points, p)
	}
	return points, nil
}

// SweepToASCII plots the envelope of species col against the swept value.
func SweepToASCII(points []SweepPoint, col, width, height int) string {
	if len(points) == 0 || width <= 0 || height <= 0 || col < 0 || col >= len(points[0].Min) {
		return ""
	}

	lo, hi := points[0].Min[col], points[0].Max[col]
	for _, p := range points {
		lo, hi = min(lo, p.Min[col]), max(hi, p.Max[col])
	}
	if hi == lo {
		hi = lo + 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	for i, p := range points {
		c := min(i*width/len(points), width-1)
		for _, v := range []float64{p.Min[col], p.Max[col]} {
			row := height - 1 - int((v-lo)/(hi-lo)*float64(height-1))
			mark := '•'
			if !p.Oscillatory {
				mark = '·'
			}
			canvas[row][c] = mark
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
