package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of the non-negative frequency terms of
// the mean-removed signal. Entry k corresponds to k cycles over the record.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	coeff := fourier.NewFFT(len(data)).Coefficients(nil, centered)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantPeriod is the period of the strongest non-zero frequency of values
// sampled at evenly spaced times. ok is false for flat signals.
func DominantPeriod(times, values []float64) (period float64, ok bool, err error) {
	if len(times) != len(values) {
		return 0, false, fmt.Errorf("analysis: %d times for %d values", len(times), len(values))
	}
	ps := PowerSpectrum(values)
	if len(ps) < 2 {
		return 0, false, nil
	}

	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] <= 1e-12*float64(len(values)) {
		return 0, false, nil
	}
	span := (times[len(times)-1] - times[0]) * float64(len(times)) / float64(len(times)-1)
	return span / float64(peak), true, nil
}

// CrossingPeriod estimates the period from upward crossings of the signal
// mean, interpolating each crossing time linearly. At least two crossings are
// needed.
func CrossingPeriod(times, values []float64) (period float64, ok bool) {
	if len(times) != len(values) || len(values) < 3 {
		return 0, false
	}
	level := stat.Mean(values, nil)

	var crossings []float64
	for i := 1; i < len(values); i++ {
		prev, curr := values[i-1], values[i]
		if prev < level && curr >= level {
			frac := (level - prev) / (curr - prev)
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				frac = 0.5
			}
			crossings = append(crossings, times[i-1]+frac*(times[i]-times[i-1]))
		}
	}
	if len(crossings) < 2 {
		return 0, false
	}
	return (crossings[len(crossings)-1] - crossings[0]) / float64(len(crossings)-1), true
}
