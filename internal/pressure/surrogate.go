package pressure

import (
	"fmt"
	"math"
)

// Parameters of the generalized Lennard-Jones surrogate
//
//	P̃(z) = A[(d/(2z+δ))^x - (d/(2z+δ))^y]
//
// fitted for one geometry and charge. Offset is the equilibrium gap δ(Q)
// that Charge produces; ZMin and ZMax bound the deflections used in the fit.
type Parameters struct {
	Amplitude         float64 `json:"amplitude" db:"amplitude"`                   // A, Pa
	ReferenceDistance float64 `json:"reference_distance" db:"reference_distance"` // d, m
	ExponentHigh      float64 `json:"exponent_high" db:"exponent_high"`           // x
	ExponentLow       float64 `json:"exponent_low" db:"exponent_low"`             // y
	Offset            float64 `json:"offset" db:"offset"`                         // δ, m
	Charge            float64 `json:"charge" db:"charge"`                         // Q, C/m^2
	ZMin              float64 `json:"z_min" db:"z_min"`
	ZMax              float64 `json:"z_max" db:"z_max"`
}

// Validate checks x > y > 0 and that the scale parameters are usable.
func (p Parameters) Validate() error {
	for name, v := range map[string]float64{
		"amplitude": p.Amplitude, "reference distance": p.ReferenceDistance,
		"exponents": p.ExponentHigh + p.ExponentLow, "offset": p.Offset,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidParameters, name)
		}
	}
	if !(p.ExponentLow > 0) || !(p.ExponentHigh > p.ExponentLow) {
		return fmt.Errorf("%w: need x > y > 0, got x=%g y=%g",
			ErrInvalidParameters, p.ExponentHigh, p.ExponentLow)
	}
	if !(p.ReferenceDistance > 0) {
		return fmt.Errorf("%w: reference distance must be positive", ErrInvalidParameters)
	}
	if !(p.Offset > 0) {
		return fmt.Errorf("%w: offset must be positive", ErrInvalidParameters)
	}
	if p.ZMax < p.ZMin {
		return fmt.Errorf("%w: empty fit range [%g, %g]", ErrInvalidParameters, p.ZMin, p.ZMax)
	}
	return nil
}

func (p Parameters) String() string {
	return fmt.Sprintf("A=%.4g Pa d=%.4g nm x=%.4g y=%.4g δ=%.4g nm",
		p.Amplitude, p.ReferenceDistance*1e9, p.ExponentHigh, p.ExponentLow, p.Offset*1e9)
}

// SurrogateModel evaluates fitted Parameters. It holds no mutable state.
type SurrogateModel struct {
	params Parameters
}

func NewSurrogateModel(p Parameters) (*SurrogateModel, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &SurrogateModel{params: p}, nil
}

func (s *SurrogateModel) Parameters() Parameters { return s.params }

// Evaluate returns the approximate average intermolecular pressure at z.
func (s *SurrogateModel) Evaluate(z float64) (float64, error) {
	p := &s.params
	gap := 2*z + p.Offset
	if !(gap > 0) {
		return 0, &SingularityError{Z: z, Offset: p.Offset}
	}
	u := p.ReferenceDistance / gap
	return p.Amplitude * (math.Pow(u, p.ExponentHigh) - math.Pow(u, p.ExponentLow)), nil
}

// InRange reports whether z lies inside the deflection range used for fitting.
func (s *SurrogateModel) InRange(z float64) bool {
	return z >= s.params.ZMin && z <= s.params.ZMax
}
