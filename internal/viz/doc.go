// Package viz renders simulation output and parameter estimates for the
// terminal.
//
//   - [TrajectoryPlot]: species time courses via asciigraph
//   - [HistogramChart]: horizontal bar histogram of one estimated parameter
//   - [SummaryTable]: confidence interval table for Monte Carlo estimates
//   - [RadarChart]: Braille radar plot of parameter estimates on [Canvas]
//
// Colors follow the active [Theme], selectable by name.
package viz
