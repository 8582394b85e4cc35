// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Controller]: source of the control input u
//   - [Simulator]: orchestrates simulation runs
//   - [Trajectory]: one state component sampled over time
//
// # Example
//
//	dyn, _ := physics.NewSonophore(membrane, drive, evaluator, nil)
//	sim := dynamo.New(dyn, integrators.NewRK45WithAbsTol(dyn.AbsTol()), control.NewConstant(q))
//	result, _ := sim.Run(ctx, x0, cfg)
//	z := result.Trajectory(physics.IdxDeflection)
//
// # Sampling
//
// Results are recorded on a fixed output grid t_i = i*Dt. In adaptive mode
// the integrator advances between grid points with as many substeps as its
// error control requires, so runs with different right-hand sides still
// produce time-aligned trajectories.
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe: integrators keep scratch buffers.
// Build one Simulator per goroutine.
package dynamo
