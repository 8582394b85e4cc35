package pressure

import (
	"errors"
	"fmt"

	"github.com/san-kum/blsim/internal/bls"
)

var (
	// ErrOutOfDomain indicates a deflection at or beyond leaflet contact.
	ErrOutOfDomain = errors.New("pressure: deflection out of domain")

	// ErrSingularity indicates a surrogate evaluated where 2z+δ <= 0.
	ErrSingularity = errors.New("pressure: surrogate singularity")

	// ErrMissingSurrogate indicates predicted mode without a fitted model.
	ErrMissingSurrogate = errors.New("pressure: no surrogate fitted")

	// ErrInvalidParameters indicates surrogate parameters that break x > y > 0.
	ErrInvalidParameters = errors.New("pressure: invalid surrogate parameters")

	ErrUnknownMode = errors.New("pressure: unknown computation mode")
)

type OutOfDomainError struct {
	Z   float64
	Min float64
}

func (e *OutOfDomainError) Error() string {
	return fmt.Sprintf("pressure: deflection %.4g nm out of domain (must exceed %.4g nm)", e.Z*1e9, e.Min*1e9)
}

func (e *OutOfDomainError) Is(target error) bool { return target == ErrOutOfDomain }

type SingularityError struct {
	Z      float64
	Offset float64
}

func (e *SingularityError) Error() string {
	return fmt.Sprintf("pressure: surrogate singular at z=%.4g nm (2z+δ=%.4g nm)",
		e.Z*1e9, (2*e.Z+e.Offset)*1e9)
}

func (e *SingularityError) Is(target error) bool { return target == ErrSingularity }

type MissingSurrogateError struct {
	Geometry bls.Geometry
	Charge   float64
}

func (e *MissingSurrogateError) Error() string {
	return fmt.Sprintf("pressure: no surrogate fitted for %s at Q=%.4g nC/cm2",
		e.Geometry, e.Charge*1e5)
}

func (e *MissingSurrogateError) Is(target error) bool { return target == ErrMissingSurrogate }
