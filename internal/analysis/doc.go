// Package analysis summarizes estimation output and simulated trajectories.
//
//   - [Summarize]: per-parameter mean, spread and percentile interval
//   - [Histogram] and [KMeans]: shape of a parameter distribution
//   - [PowerSpectrum], [DominantPeriod], [CrossingPeriod]: oscillation period
//   - [Sweep]: one-parameter bifurcation sweep with the oscillatory check
//   - [NewPhasePortrait]: two-species phase plane
//
// # Example
//
//	stats, err := analysis.Summarize(table.Names(), table.Rows(), 0.95)
//	for _, s := range stats {
//	    fmt.Printf("%s: %.3g [%.3g, %.3g]\n", s.Name, s.Mean, s.Lower, s.Upper)
//	}
package analysis
