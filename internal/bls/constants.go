package bls

// Biomechanical constants of the leaflets and the surrounding medium.
const (
	Temperature = 309.15    // K
	Rg          = 8.314     // J/mol/K
	Epsilon0    = 8.854e-12 // F/m
	EpsilonR    = 1.0

	LeafletThickness = 2.0e-9 // delta0, m
	RestGap          = 1.4e-9 // Delta*, uncharged equilibrium gap, m

	PDelta             = 1.0e5 // intermolecular pressure coefficient, Pa
	RepulsionExponent  = 5.0
	AttractionExponent = 3.3

	RhoL = 1075.0 // fluid density, kg/m^3
	MuL  = 7.0e-4 // fluid dynamic viscosity, Pa.s
	MuS  = 0.035  // leaflet dynamic viscosity, Pa.s
	KA   = 0.24   // leaflet area compression modulus, N/m

	C0  = 0.62    // dissolved gas concentration, mol/m^3
	KH  = 1.613e5 // Henry's constant, Pa.m^3/mol
	P0  = 1.0e5   // static pressure, Pa
	Dgl = 3.68e-9 // gas diffusion coefficient in the fluid, m^2/s
	Xi  = 0.5e-9  // gas transport boundary layer thickness, m
)
