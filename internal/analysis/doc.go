// Package analysis characterizes simulated deflection trajectories.
//
//   - [DominantFrequency]: strongest oscillation frequency via FFT
//   - [Harmonics]: spectral amplitude at multiples of the drive frequency
//   - [NewPhasePortrait]: (Z, U) phase-space points of a run
//   - [Stroboscopic]: one sample per drive period, for periodicity checks
//
// The acoustic drive should dominate a settled run:
//
//	f, _ := analysis.DominantFrequency(res.Trajectory(physics.IdxDeflection))
//	// f ≈ drive.Frequency
package analysis
