package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// AdaptiveIntegrator advances with error control. On success it returns the
// new state and a suggested next step; when the step fails the error test it
// returns x unchanged, a smaller retry step and ErrStepRejected.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, u Control, t, dt, tol float64) (State, float64, error)
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Config struct {
	// Dt is the output sampling interval.
	Dt       float64
	Duration float64
	// Tolerance is the relative error tolerance for adaptive stepping.
	Tolerance float64
	MaxDt     float64
	MinDt     float64
	// InitialDt is the first adaptive substep; zero means Dt/10.
	InitialDt     float64
	Adaptive      bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		Tolerance:     1e-6,
		MaxDt:         0.1,
		MinDt:         1e-8,
		Adaptive:      false,
		ValidateState: true,
	}
}

type Result struct {
	States   []State
	Controls []Control
	Times    []float64
	Metrics  map[string]float64
	// StepsTaken counts accepted integrator steps, including adaptive substeps.
	StepsTaken int
	// Rejected counts adaptive steps that failed the error test.
	Rejected int
}

// Trajectory extracts state component idx sampled at the result's times.
func (r *Result) Trajectory(idx int) Trajectory {
	tr := Trajectory{
		Times:  make([]float64, 0, len(r.States)),
		Values: make([]float64, 0, len(r.States)),
	}
	for i, x := range r.States {
		if idx >= len(x) {
			continue
		}
		tr.Times = append(tr.Times, r.Times[i])
		tr.Values = append(tr.Values, x[idx])
	}
	return tr
}

// Trajectory is an ordered sequence of (time, value) samples.
// It is treated as read-only once produced.
type Trajectory struct {
	Times  []float64 `json:"times"`
	Values []float64 `json:"values"`
}

func (t Trajectory) Len() int { return len(t.Values) }

// Bounds returns the minimum and maximum sampled value.
func (t Trajectory) Bounds() (lo, hi float64) {
	if len(t.Values) == 0 {
		return 0, 0
	}
	return floats.Min(t.Values), floats.Max(t.Values)
}
