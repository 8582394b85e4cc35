package bls

import (
	"fmt"
	"math"

	"github.com/san-kum/blsim/internal/optim"
)

// ContactMargin is the fraction of the gap below which deflections are
// treated as leaflet contact by the mechanical model.
const ContactMargin = 0.49

// Membrane is a geometry together with the charge it carries and the
// resulting equilibrium gap between the leaflets.
type Membrane struct {
	Geometry
	Charge float64
	// Gap is the inter-leaflet distance at Z = 0 where intermolecular and
	// electrostatic pressures cancel.
	Gap float64
}

// NewMembrane resolves the equilibrium gap for geometry g under charge q.
func NewMembrane(g Geometry, q float64) (Membrane, error) {
	if err := g.Validate(); err != nil {
		return Membrane{}, err
	}
	gap, err := EquilibriumGap(g, q)
	if err != nil {
		return Membrane{}, err
	}
	return Membrane{Geometry: g, Charge: q, Gap: gap}, nil
}

// RestMembrane builds the membrane at the geometry's rest charge.
func RestMembrane(g Geometry) (Membrane, error) {
	return NewMembrane(g, g.RestCharge)
}

// LocalPressure is the Lennard-Jones intermolecular pressure for a local
// inter-leaflet distance gap.
func LocalPressure(gap float64) float64 {
	x := gap / RestGap
	return PDelta * (math.Pow(x, -RepulsionExponent) - math.Pow(x, -AttractionExponent))
}

// EquilibriumGap finds the gap at which LocalPressure balances the
// electrostatic pressure of charge q on a flat membrane. An uncharged
// membrane sits at RestGap.
func EquilibriumGap(g Geometry, q float64) (float64, error) {
	if q == 0 {
		return RestGap, nil
	}
	pElec := g.ElectricPressure(0, q)
	balance := func(gap float64) float64 {
		return LocalPressure(gap) + pElec
	}
	gap, err := optim.Brent(balance, 0.1*RestGap, 2*RestGap, 1e-22, 200)
	if err != nil {
		return 0, fmt.Errorf("bls: equilibrium gap for Q=%g: %w", q, err)
	}
	return gap, nil
}

// MinDeflection is the center deflection at which the leaflets touch.
func (m Membrane) MinDeflection() float64 {
	return -0.5 * m.Gap
}

// ClampDeflection is the smallest deflection the mechanical model accepts.
func (m Membrane) ClampDeflection() float64 {
	return -ContactMargin * m.Gap
}

// Sample evaluates the cap geometry at deflection z.
func (m Membrane) Sample(z float64) DeflectionSample {
	return DeflectionSample{
		Z:               z,
		CurvatureRadius: m.CurvatureRadius(z),
		SurfaceArea:     m.Surface(z),
	}
}

// Volume is the volume enclosed between the two leaflets.
func (m Membrane) Volume(z float64) float64 {
	return m.RestVolume() * (1 + z/(3*m.Gap)*(3+m.ArealStrain(z)))
}

// RestVolume is the inter-leaflet volume of the flat membrane.
func (m Membrane) RestVolume() float64 {
	return math.Pi * m.Radius * m.Radius * m.Gap
}

// RestGasMoles is the gas content in equilibrium with the static pressure.
func (m Membrane) RestGasMoles() float64 {
	return P0 * m.RestVolume() / (Rg * Temperature)
}

// GasPressure converts a gas content into a pressure at deflection z.
func (m Membrane) GasPressure(ng, z float64) float64 {
	return ng * Rg * Temperature / m.Volume(z)
}

// Capacitance is the membrane capacitance per unit area at deflection z.
func (m Membrane) Capacitance(z float64) float64 {
	if z == 0 {
		return m.RestCapacitance
	}
	a2 := m.Radius * m.Radius
	z2 := (a2 - z*z - z*m.Gap) / (2 * z)
	return m.RestCapacitance * m.Gap / a2 * (z + z2*math.Log((2*z+m.Gap)/m.Gap))
}

// ElasticPressure is the restoring pressure from leaflet area expansion.
func (m Membrane) ElasticPressure(z float64) float64 {
	if z == 0 {
		return 0
	}
	return -2 * KA * m.ArealStrain(z) / m.CurvatureRadius(z)
}
