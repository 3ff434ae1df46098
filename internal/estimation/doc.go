// Package estimation fits model parameters to an observation table and
// builds bootstrap distributions of the fit by residual resampling.
//
// Every run follows the same loop per bootstrap iteration:
//
//	Resample -> ResetAll -> Optimize -> check oscillatory constraint
//
// with a bounded number of optimize attempts per iteration. Model state is
// only ever touched through a [sim.Evaluator], which starts each evaluation
// from the model defaults.
package estimation
