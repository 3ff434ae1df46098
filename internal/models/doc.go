// Package models provides the dynamical systems studied by the estimator.
//
// Each model implements [dynamo.System], [dynamo.Configurable],
// [dynamo.Defaults] and [dynamo.Species]:
//
//   - [Repressilator]: Elowitz–Leibler three-gene ring oscillator (BIOMD0000000012)
//   - [Synthesis]: one-species zero-order production, a linear toy model
//
// Models are plain value holders; resetting, simulating and linearizing them
// is the job of the sim package.
package models
