// Package optim provides the numerical solvers used to build pressure
// surrogates:
//
//   - [Brent]: bracketed scalar root finding
//   - [LevenbergMarquardt]: damped Gauss-Newton nonlinear least squares
//   - [GridSearch]: exhaustive search over a parameter grid, used for seeding
//
// All solvers have explicit iteration limits and report exhaustion as
// [ErrNoConvergence] instead of returning a best effort silently.
package optim
