// Package metrics reduces a trajectory to named scalars recorded with each run.
package metrics

import (
	"math"

	"github.com/san-kum/repressilator/internal/dataset"
)

// Metric observes samples one at a time.
type Metric interface {
	Name() string
	Observe(t float64, x []float64)
	Value() float64
	Reset()
}

// Mean is the time-sample average of one column.
type Mean struct {
	name  string
	index int
	sum   float64
	n     int
}

func NewMean(species string, index int) *Mean {
	return &Mean{name: "mean_" + species, index: index}
}

func (m *Mean) Name() string { return m.name }

func (m *Mean) Observe(_ float64, x []float64) {
	m.sum += x[m.index]
	m.n++
}

func (m *Mean) Value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

func (m *Mean) Reset() { m.sum, m.n = 0, 0 }

// Amplitude is the peak-to-trough range of one column over samples taken at
// or after From, which skips the initial transient.
type Amplitude struct {
	name     string
	index    int
	From     float64
	lo, hi   float64
	observed bool
}

func NewAmplitude(species string, index int, from float64) *Amplitude {
	return &Amplitude{name: "amplitude_" + species, index: index, From: from}
}

func (a *Amplitude) Name() string { return a.name }

func (a *Amplitude) Observe(t float64, x []float64) {
	if t < a.From {
		return
	}
	v := x[a.index]
	if !a.observed {
		a.lo, a.hi, a.observed = v, v, true
		return
	}
	a.lo, a.hi = math.Min(a.lo, v), math.Max(a.hi, v)
}

func (a *Amplitude) Value() float64 {
	if !a.observed {
		return 0
	}
	return a.hi - a.lo
}

func (a *Amplitude) Reset() { a.observed = false }

// Default returns positivity plus mean and late-half amplitude per species.
func Default(t *dataset.Table) []Metric {
	from := 0.0
	if len(t.Times) > 0 {
		from = (t.Times[0] + t.Times[len(t.Times)-1]) / 2
	}
	ms := []Metric{NewPositivity()}
	for j, s := range t.Species {
		ms = append(ms, NewMean(s, j), NewAmplitude(s, j, from))
	}
	return ms
}

// Collect feeds every row of t to the metrics and returns their values by name.
func Collect(t *dataset.Table, ms ...Metric) map[string]float64 {
	for _, m := range ms {
		m.Reset()
	}
	for i, row := range t.Values {
		for _, m := range ms {
			m.Observe(t.Times[i], row)
		}
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
