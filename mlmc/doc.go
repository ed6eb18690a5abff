// Package mlmc implements an adaptive multilevel Monte Carlo sampling pilot.
//
// The pilot estimates a statistic (mean or variance) of the output of an
// expensive model with random inputs, using a hierarchy of models of
// increasing fidelity and cost. Under a finite computational budget it
// decides on-line how many additional evaluations to run at each fidelity
// level so as to minimize the variance of the telescoping-sum estimator
//
//	theta_L = sum_l E[T_l],  T_l = Y_l - Y_{l-1},  Y_{-1} = 0.
//
// # Reading Guide
//
// Start with these three files to understand the sampling kernel:
//   - accumulator.go: online per-level moment tracking (batch Welford combine)
//   - policy.go: the greedy cost-aware level-selection and increment-sizing rule
//   - pilot.go: the WARMUP -> ADAPTIVE -> DONE iteration loop and its log
//
// Supporting pieces:
//   - cost.go, budget.go: per-level sampling costs and budget accounting
//   - statistic.go: the closed set of pilot statistics (mean, variance)
//   - controlvariate.go: the surrogate-corrected mean estimator (MLCV)
//   - evaluator.go: pair evaluation of (f_l, f_{l-1}) on a worker pool
//   - rng.go: deterministic per-level random streams from a single seed
//
// Sub-packages:
//   - mlmc/trace/: pure iteration-record data types and summaries
//   - mlmc/input/: uncertain-input samplers (distribution-backed)
//
// The pilot never evaluates models itself beyond calling the supplied
// level evaluators, and it never retries a failed evaluation: an evaluation
// failure aborts the whole run so that partial batches cannot bias the
// variance estimates.
package mlmc
