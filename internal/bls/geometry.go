package bls

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry indicates a non-positive radius or capacitance.
var ErrInvalidGeometry = errors.New("bls: invalid geometry")

// Geometry describes one membrane patch. It is a value type and is never
// mutated after construction.
type Geometry struct {
	Radius          float64 `json:"radius" yaml:"radius"`                     // m
	RestCapacitance float64 `json:"rest_capacitance" yaml:"rest_capacitance"` // F/m^2
	RestCharge      float64 `json:"rest_charge" yaml:"rest_charge"`           // C/m^2
}

func NewGeometry(radius, restCapacitance, restCharge float64) (Geometry, error) {
	g := Geometry{Radius: radius, RestCapacitance: restCapacitance, RestCharge: restCharge}
	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}

func (g Geometry) Validate() error {
	if !(g.Radius > 0) || math.IsInf(g.Radius, 0) {
		return fmt.Errorf("%w: radius must be positive, got %g", ErrInvalidGeometry, g.Radius)
	}
	if !(g.RestCapacitance > 0) || math.IsInf(g.RestCapacitance, 0) {
		return fmt.Errorf("%w: rest capacitance must be positive, got %g", ErrInvalidGeometry, g.RestCapacitance)
	}
	if math.IsNaN(g.RestCharge) || math.IsInf(g.RestCharge, 0) {
		return fmt.Errorf("%w: rest charge must be finite", ErrInvalidGeometry)
	}
	return nil
}

func (g Geometry) String() string {
	return fmt.Sprintf("a=%.1fnm Cm0=%.3gF/m2 Qm0=%.4gnC/cm2",
		g.Radius*1e9, g.RestCapacitance, g.RestCharge*1e5)
}

// CurvatureRadius returns the signed radius of the spherical cap; +Inf at Z = 0.
func (g Geometry) CurvatureRadius(z float64) float64 {
	if z == 0 {
		return math.Inf(1)
	}
	return (g.Radius*g.Radius + z*z) / (2 * z)
}

// Surface returns the area of one deformed leaflet.
func (g Geometry) Surface(z float64) float64 {
	return math.Pi * (g.Radius*g.Radius + z*z)
}

func (g Geometry) ArealStrain(z float64) float64 {
	return (z / g.Radius) * (z / g.Radius)
}

// LocalDeflection returns the leaflet deflection at radial distance r for a
// center deflection z. The two-root form avoids cancellation for large R.
func (g Geometry) LocalDeflection(r, z float64) float64 {
	if z == 0 {
		return 0
	}
	R := math.Abs(g.CurvatureRadius(z))
	sag := r * r / (R + math.Sqrt(math.Max(R*R-r*r, 0)))
	if z > 0 {
		return z - sag
	}
	return z + sag
}

// ElectricPressure is the electrostatic attraction between the leaflets for a
// membrane charge density q, diluted by the surface increase.
func (g Geometry) ElectricPressure(z, q float64) float64 {
	relS := g.Surface(0) / g.Surface(z)
	return -relS * q * q / (2 * Epsilon0 * EpsilonR)
}

// DeflectionSample bundles the quantities derived from one deflection value.
type DeflectionSample struct {
	Z               float64
	CurvatureRadius float64
	SurfaceArea     float64
}
