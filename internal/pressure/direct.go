package pressure

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/san-kum/blsim/internal/bls"
)

// DefaultNodes is the Gauss-Legendre order used when none is given.
const DefaultNodes = 128

// DirectIntegrator computes P_M(Z) = (1/S) ∫₀ᵃ 2πr p(z(r)) dr by fixed-order
// Gauss-Legendre quadrature. Nodes and weights are computed once on [0, 1]
// and rescaled to the leaflet radius on every call.
type DirectIntegrator struct {
	nodes   []float64
	weights []float64
}

func NewDirectIntegrator(order int) *DirectIntegrator {
	if order <= 0 {
		order = DefaultNodes
	}
	d := &DirectIntegrator{
		nodes:   make([]float64, order),
		weights: make([]float64, order),
	}
	quad.Legendre{}.FixedLocations(d.nodes, d.weights, 0, 1)
	return d
}

func (d *DirectIntegrator) Order() int { return len(d.nodes) }

// Evaluate returns the average intermolecular pressure at center deflection z.
func (d *DirectIntegrator) Evaluate(z float64, m bls.Membrane) (float64, error) {
	if err := checkDomain(z, m); err != nil {
		return 0, err
	}

	a := m.Radius
	sum := 0.0
	for i, u := range d.nodes {
		r := u * a
		sum += d.weights[i] * r * bls.LocalPressure(2*m.LocalDeflection(r, z)+m.Gap)
	}
	return 2 * math.Pi * a * sum / m.Sample(z).SurfaceArea, nil
}

// Reference evaluates the same integral through quad.Fixed, recomputing the
// rule each time. It is slower and used to cross-check Evaluate.
func (d *DirectIntegrator) Reference(z float64, m bls.Membrane) (float64, error) {
	if err := checkDomain(z, m); err != nil {
		return 0, err
	}
	f := func(r float64) float64 {
		return 2 * math.Pi * r * bls.LocalPressure(2*m.LocalDeflection(r, z)+m.Gap)
	}
	return quad.Fixed(f, 0, m.Radius, len(d.nodes), quad.Legendre{}, 0) / m.Sample(z).SurfaceArea, nil
}

// checkDomain rejects deflections at or below contact and non-finite ones.
func checkDomain(z float64, m bls.Membrane) error {
	zMin := m.MinDeflection()
	if !(z > zMin) || math.IsInf(z, 0) {
		return &OutOfDomainError{Z: z, Min: zMin}
	}
	return nil
}
