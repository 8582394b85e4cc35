package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math"
)

type Simulator struct {
	dyn        System
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
}

func New(dyn System, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0 and records the state every cfg.Dt.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("%w: state has %d components, system wants %d",
			ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		States:   make([]State, 0, steps+1),
		Controls: make([]Control, 0, steps+1),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	h := cfg.InitialDt
	if h <= 0 {
		h = cfg.Dt / 10
	}

	s.record(result, x, t)

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("%w: %v", ErrContextCanceled, ctx.Err())
		default:
		}

		tNext := float64(i) * cfg.Dt

		var err error
		if cfg.Adaptive {
			x, h, err = s.advanceAdaptive(result, x, t, tNext, h, cfg)
		} else {
			u := s.controller.Compute(x, t)
			x = s.integrator.Step(s.dyn, x, u, t, tNext-t)
			result.StepsTaken++
		}
		t = tNext

		if err == nil && cfg.ValidateState && !x.IsValid() {
			err = ErrInvalidState
		}
		if err != nil {
			return result, &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
		}

		s.record(result, x, t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) record(result *Result, x State, t float64) {
	u := s.controller.Compute(x, t)
	for _, m := range s.metrics {
		m.Observe(x, u, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, u, t)
	}
	result.States = append(result.States, x.Clone())
	result.Controls = append(result.Controls, u)
	result.Times = append(result.Times, t)
}

// advanceAdaptive integrates from t to tEnd with error-controlled substeps and
// returns the state at tEnd with the step size to try next.
func (s *Simulator) advanceAdaptive(result *Result, x State, t, tEnd, h float64, cfg Config) (State, float64, error) {
	for t < tEnd {
		step := math.Min(h, tEnd-t)
		last := step == tEnd-t
		shortened := step < h

		u := s.controller.Compute(x, t)
		xNew, hNext, err := s.adaptiveStep(x, u, t, step, cfg)
		switch {
		case errors.Is(err, ErrStepRejected):
			result.Rejected++
			if hNext < cfg.MinDt {
				return x, hNext, ErrStepTooSmall
			}
			h = hNext
			continue
		case err != nil:
			return x, h, err
		}

		if cfg.ValidateState && !xNew.IsValid() {
			return xNew, h, ErrInvalidState
		}

		x = xNew
		result.StepsTaken++
		if last {
			t = tEnd
		} else {
			t += step
		}
		// A step shortened to land on the grid says nothing about the next one.
		if !shortened || hNext > h {
			h = hNext
		}
		if cfg.MaxDt > 0 {
			h = math.Min(h, cfg.MaxDt)
		}
	}
	return x, h, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g", cfg.Duration)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	if _, ok := s.integrator.(AdaptiveIntegrator); cfg.Adaptive && !ok {
		return fmt.Errorf("%w: adaptive stepping needs an error estimate", ErrNotAdaptive)
	}
	return nil
}

func (s *Simulator) adaptiveStep(x State, u Control, t, dt float64, cfg Config) (State, float64, error) {
	return s.integrator.(AdaptiveIntegrator).StepAdaptive(s.dyn, x, u, t, dt, cfg.Tolerance)
}
