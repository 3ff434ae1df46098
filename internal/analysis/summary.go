package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrNoData = errors.New("analysis: no data")

// Summary describes the distribution of one parameter column.
type Summary struct {
	Name   string
	N      int
	Mean   float64
	Std    float64
	Median float64
	Lower  float64 // lower percentile bound of the interval
	Upper  float64
	Min    float64
	Max    float64
}

// Summarize computes column statistics of rows. The interval is the central
// level fraction of the empirical distribution, so 0.95 gives the 2.5 and
// 97.5 percentiles.
func Summarize(names []string, rows [][]float64, level float64) ([]Summary, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	if !(level > 0 && level < 1) {
		return nil, fmt.Errorf("analysis: interval level %g outside (0, 1)", level)
	}
	tail := (1 - level) / 2

	out := make([]Summary, len(names))
	col := make([]float64, len(rows))
	for j, name := range names {
		for i, row := range rows {
			if len(row) != len(names) {
				return nil, fmt.Errorf("analysis: row %d has %d values for %d columns", i, len(row), len(names))
			}
			col[i] = row[j]
		}
		sorted := slices.Clone(col)
		slices.Sort(sorted)

		s := Summary{Name: name, N: len(col), Min: sorted[0], Max: floats.Max(sorted)}
		if len(col) > 1 {
			s.Mean, s.Std = stat.MeanStdDev(col, nil)
		} else {
			s.Mean = col[0]
		}
		s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		s.Lower = stat.Quantile(tail, stat.Empirical, sorted, nil)
		s.Upper = stat.Quantile(1-tail, stat.Empirical, sorted, nil)
		out[j] = s
	}
	return out, nil
}

// Histogram bins values into equal-width bins spanning their range.
// edges has bins+1 entries.
func Histogram(values []float64, bins int) (counts, edges []float64, err error) {
	if len(values) == 0 {
		return nil, nil, ErrNoData
	}
	if bins < 1 {
		return nil, nil, fmt.Errorf("analysis: need at least one bin, got %d", bins)
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi == lo {
		lo, hi = lo-0.5, hi+0.5
	}
	edges = floats.Span(make([]float64, bins+1), lo, hi)

	// stat.Histogram excludes the top edge, so widen it for the count.
	dividers := slices.Clone(edges)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts = stat.Histogram(nil, dividers, sorted, nil)
	return counts, edges, nil
}
