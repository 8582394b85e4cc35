package physics

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/san-kum/blsim/internal/bls"
	"github.com/san-kum/blsim/internal/dynamo"
	"github.com/san-kum/blsim/internal/logging"
	"github.com/san-kum/blsim/internal/optim"
)

// PressureSource returns the average intermolecular pressure at deflection z.
type PressureSource interface {
	Evaluate(z float64) (float64, error)
}

// State indices.
const (
	IdxVelocity = iota
	IdxDeflection
	IdxGas
)

type Sonophore struct {
	Membrane bls.Membrane
	Drive    Drive
	Pressure PressureSource

	logger  *zap.Logger
	clamped atomic.Int64

	mu  sync.Mutex
	err error
}

func NewSonophore(m bls.Membrane, drive Drive, p PressureSource, logger *zap.Logger) (*Sonophore, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := drive.Validate(); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("physics: nil pressure source")
	}
	return &Sonophore{
		Membrane: m,
		Drive:    drive,
		Pressure: p,
		logger:   logging.OrNop(logger),
	}, nil
}

func (s *Sonophore) StateDim() int   { return 3 }
func (s *Sonophore) ControlDim() int { return 1 }

// Derive returns [dU/dt, dZ/dt, dng/dt]. The control carries the membrane
// charge; an empty control uses Membrane.Charge. When the pressure source
// fails the derivative is NaN and the error is kept for Err.
func (s *Sonophore) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	if len(x) < 3 {
		return make(dynamo.State, 3)
	}
	vel, z, ng := x[IdxVelocity], x[IdxDeflection], x[IdxGas]
	q := s.Membrane.Charge
	if len(u) > 0 {
		q = u[0]
	}

	z = s.clamp(z, t)

	pm, err := s.Pressure.Evaluate(z)
	if err != nil {
		s.fail(fmt.Errorf("physics: intermolecular pressure at t=%.4gs: %w", t, err))
		nan := math.NaN()
		return dynamo.State{nan, nan, nan}
	}

	m := &s.Membrane
	R := m.CurvatureRadius(z)
	pg := m.GasPressure(ng, z)
	ptot := pm + pg - bls.P0 - s.Drive.Pressure(t) +
		m.ElasticPressure(z) +
		leafletViscousPressure(vel, R) +
		fluidViscousPressure(vel, R) +
		m.ElectricPressure(z, q)

	accel := ptot/(bls.RhoL*math.Abs(R)) - 3*vel*vel/(2*R)
	dng := 2 * m.Surface(z) * bls.Dgl * (bls.C0 - pg/bls.KH) / bls.Xi

	return dynamo.State{accel, vel, dng}
}

func leafletViscousPressure(vel, R float64) float64 {
	return -12 * vel * bls.LeafletThickness * bls.MuS / (R * R)
}

func fluidViscousPressure(vel, R float64) float64 {
	return -4 * vel * bls.MuL / math.Abs(R)
}

// QuasiStaticPressure is the net pressure on a motionless leaflet at
// deflection z, used to seed the initial deflection.
func (s *Sonophore) QuasiStaticPressure(z, ng, t float64) (float64, error) {
	pm, err := s.Pressure.Evaluate(z)
	if err != nil {
		return 0, err
	}
	m := &s.Membrane
	return pm + m.GasPressure(ng, z) - bls.P0 - s.Drive.Pressure(t) +
		m.ElasticPressure(z) + m.ElectricPressure(z, m.Charge), nil
}

// InitialState returns [0, Z0, ng0] where ng0 fills the flat membrane at the
// static pressure and Z0 balances the quasi-static pressure one step in. At
// Z = 0 the curvature radius is infinite and the leaflet would never start
// moving.
func (s *Sonophore) InitialState(dt float64) (dynamo.State, error) {
	ng0 := s.Membrane.RestGasMoles()
	if s.Drive.Amplitude == 0 {
		return dynamo.State{0, 0, ng0}, nil
	}

	var evalErr error
	balance := func(z float64) float64 {
		p, err := s.QuasiStaticPressure(z, ng0, dt)
		if err != nil {
			evalErr = err
			return math.NaN()
		}
		return p
	}
	z0, err := optim.Brent(balance, s.Membrane.ClampDeflection(), s.Membrane.Radius, 1e-22, 200)
	if evalErr != nil {
		return nil, fmt.Errorf("physics: initial deflection: %w", evalErr)
	}
	if err != nil {
		return nil, fmt.Errorf("physics: initial deflection: %w", err)
	}
	return dynamo.State{0, z0, ng0}, nil
}

// AbsTol returns absolute tolerances matched to the scale of each component.
func (s *Sonophore) AbsTol() dynamo.State {
	return dynamo.State{1e-9, 1e-16, 1e-8 * s.Membrane.RestGasMoles()}
}

// Capacitance maps a deflection trajectory sample to membrane capacitance.
func (s *Sonophore) Capacitance(x dynamo.State) float64 {
	return s.Membrane.Capacitance(x[IdxDeflection])
}

// Err returns the first pressure evaluation failure seen by Derive.
func (s *Sonophore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Clamped counts derivative evaluations whose deflection was raised to the
// contact bound.
func (s *Sonophore) Clamped() int64 { return s.clamped.Load() }

func (s *Sonophore) clamp(z, t float64) float64 {
	lo := s.Membrane.ClampDeflection()
	if z >= lo {
		return z
	}
	if s.clamped.Add(1) == 1 {
		s.logger.Warn("deflection below contact bound, clamping",
			zap.Float64("t", t),
			zap.Float64("z_nm", z*1e9),
			zap.Float64("bound_nm", lo*1e9))
	}
	return lo
}

func (s *Sonophore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}
