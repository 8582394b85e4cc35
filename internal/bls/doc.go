// Package bls describes the bilayer sonophore: the geometry of one membrane
// patch, the biomechanical constants of its leaflets and surrounding fluid,
// and the quantities derived from a center deflection Z.
//
// The deformed leaflet is modelled as a spherical cap anchored at the patch
// rim (radius a). For a center deflection Z the cap has curvature radius
//
//	R(Z) = (a² + Z²) / (2Z)
//
// and surface S(Z) = π(a² + Z²). The deflection at radial distance r is
// the height of the cap above the rim plane, z(r) = Z - r²/(|R| + √(R² - r²))
// for Z > 0 and its mirror image for Z < 0. At Z = 0 the leaflet is flat and
// R is infinite.
//
// Derived quantities are pure functions of (Z, Membrane): nothing is cached.
package bls
