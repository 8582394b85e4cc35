// Package pressure evaluates the average intermolecular pressure P_M(Z)
// acting on a bilayer sonophore leaflet.
//
// Two evaluation paths share one contract, Evaluate(z) (float64, error):
//
//   - DirectIntegrator integrates the local Lennard-Jones pressure over the
//     deformed leaflet with Gauss-Legendre quadrature.
//   - SurrogateModel evaluates a fitted closed form
//     A[(d/(2z+δ))^x - (d/(2z+δ))^y] in constant time.
//
// Evaluator selects one of them at construction and never switches.
// All types here are immutable after construction and safe for concurrent
// use, except Catalog whose map is guarded by a lock.
package pressure
