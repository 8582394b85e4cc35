package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"
)

type decay struct{}

func (d *decay) Derive(x State, u Control, t float64) State { return State{-x[0]} }
func (d *decay) StateDim() int                              { return 1 }
func (d *decay) ControlDim() int                            { return 0 }

type blowup struct{}

func (b *blowup) Derive(x State, u Control, t float64) State { return State{math.Inf(1)} }
func (b *blowup) StateDim() int                              { return 1 }
func (b *blowup) ControlDim() int                            { return 0 }

type euler struct{}

func (e *euler) Step(dyn System, x State, u Control, t, dt float64) State {
	dx := dyn.Derive(x, u, t)
	return State{x[0] + dt*dx[0]}
}

// heunEuler pairs Heun's method with forward Euler for its error estimate.
type heunEuler struct{ euler }

func (h *heunEuler) Step(dyn System, x State, u Control, t, dt float64) State {
	k1 := dyn.Derive(x, u, t)
	k2 := dyn.Derive(State{x[0] + dt*k1[0]}, u, t+dt)
	return State{x[0] + dt*(k1[0]+k2[0])/2}
}

func (h *heunEuler) StepAdaptive(dyn System, x State, u Control, t, dt, tol float64) (State, float64, error) {
	high := h.Step(dyn, x, u, t, dt)
	low := h.euler.Step(dyn, x, u, t, dt)
	errEst := math.Abs(high[0]-low[0]) / (math.Abs(high[0]) + 1e-300)
	next := dt * math.Min(2, 0.9*math.Sqrt(tol/(errEst+1e-300)))
	if errEst > tol {
		return x, next, ErrStepRejected
	}
	return high, next, nil
}

type noControl struct{}

func (n *noControl) Compute(x State, t float64) Control { return Control{} }

func TestSimulatorRun(t *testing.T) {
	sim := New(&decay{}, &euler{}, &noControl{})

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}

	finalState := result.States[len(result.States)-1][0]
	expected := math.Exp(-1.0)
	if math.Abs(finalState-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, finalState)
	}
}

func TestSimulatorAdaptiveStaysOnGrid(t *testing.T) {
	sim := New(&decay{}, &heunEuler{}, &noControl{})

	cfg := Config{Dt: 0.1, Duration: 1.0, Tolerance: 1e-6, MinDt: 1e-12, Adaptive: true, ValidateState: true}
	result, err := sim.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for i, tm := range result.Times {
		if tm != float64(i)*0.1 {
			t.Fatalf("sample %d at t=%v, want %v", i, tm, float64(i)*0.1)
		}
	}
	if result.StepsTaken <= 10 {
		t.Errorf("expected substeps between samples, got %d steps", result.StepsTaken)
	}

	final := result.States[len(result.States)-1][0]
	if math.Abs(final-math.Exp(-1)) > 1e-3 {
		t.Errorf("adaptive final state %.6f, want %.6f", final, math.Exp(-1))
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&decay{}, &euler{}, &noControl{})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
		{"adaptive without tolerance", Config{Dt: 0.1, Duration: 1.0, Adaptive: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), State{1.0}, tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	adaptive := Config{Dt: 0.1, Duration: 1.0, Tolerance: 1e-6, Adaptive: true}
	if _, err := sim.Run(context.Background(), State{1.0}, adaptive); !errors.Is(err, ErrNotAdaptive) {
		t.Errorf("fixed-step integrator run adaptively: expected ErrNotAdaptive, got %v", err)
	}
}

func TestSimulatorDimensionMismatch(t *testing.T) {
	sim := New(&decay{}, &euler{}, &noControl{})
	_, err := sim.Run(context.Background(), State{1.0, 2.0}, Config{Dt: 0.1, Duration: 1.0})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSimulatorInvalidState(t *testing.T) {
	sim := New(&blowup{}, &euler{}, &noControl{})
	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0, ValidateState: true})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected *SimulationError, got %T", err)
	}
	if simErr.Step != 1 {
		t.Errorf("expected failure at step 1, got %d", simErr.Step)
	}
	if len(result.States) != 1 {
		t.Errorf("expected only the initial state recorded, got %d", len(result.States))
	}
}

func TestSimulatorCanceled(t *testing.T) {
	sim := New(&decay{}, &euler{}, &noControl{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx, State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if !errors.Is(err, ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x State, u Control, time float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&decay{}, &euler{}, &noControl{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}

	if metric.count != 11 {
		t.Errorf("expected 11 observations, got %d", metric.count)
	}
}

func TestResultTrajectory(t *testing.T) {
	r := &Result{
		States: []State{{1, 10}, {2, 20}, {3, 30}},
		Times:  []float64{0, 0.5, 1},
	}

	tr := r.Trajectory(1)
	if tr.Len() != 3 {
		t.Fatalf("expected 3 samples, got %d", tr.Len())
	}
	if tr.Values[2] != 30 || tr.Times[1] != 0.5 {
		t.Errorf("unexpected trajectory %+v", tr)
	}

	lo, hi := tr.Bounds()
	if lo != 10 || hi != 30 {
		t.Errorf("Bounds() = (%v, %v), want (10, 30)", lo, hi)
	}
}
