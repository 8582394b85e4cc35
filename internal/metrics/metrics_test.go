package metrics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/san-kum/blsim/internal/dynamo"
)

func sine(n int, amp, offset float64) dynamo.Trajectory {
	tr := dynamo.Trajectory{Times: make([]float64, n), Values: make([]float64, n)}
	for i := range tr.Values {
		tr.Times[i] = float64(i) * 1e-8
		tr.Values[i] = offset + amp*math.Sin(2*math.Pi*float64(i)/float64(n-1))
	}
	return tr
}

func TestCompareIdentical(t *testing.T) {
	a := sine(201, 2e-9, 0)
	acc, err := Compare(a, a)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if acc.RMSE != 0 {
		t.Errorf("expected rmse 0, got %g", acc.RMSE)
	}
	if acc.RSquared != 1 {
		t.Errorf("expected r² 1, got %g", acc.RSquared)
	}
	if acc.RelativeErrorPercent != 0 {
		t.Errorf("expected 0%% error, got %g", acc.RelativeErrorPercent)
	}
	if acc.Samples != 201 {
		t.Errorf("expected 201 samples, got %d", acc.Samples)
	}
}

func TestCompareOffset(t *testing.T) {
	a := sine(101, 1, 0)
	b := sine(101, 1, 0.01)

	acc, err := Compare(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(acc.RMSE-0.01) > 1e-12 {
		t.Errorf("expected rmse 0.01, got %g", acc.RMSE)
	}
	ptp := 2.0 // sampled sine reaches both ±1 at quarter points
	if math.Abs(acc.RelativeErrorPercent-0.01/ptp*100) > 1e-6 {
		t.Errorf("unexpected relative error %g%%", acc.RelativeErrorPercent)
	}
	if acc.RSquared >= 1 || acc.RSquared < 0.999 {
		t.Errorf("unexpected r² %g", acc.RSquared)
	}
}

func TestCompareMisaligned(t *testing.T) {
	a := sine(100, 1, 0)
	shifted := sine(100, 1, 0)
	shifted.Times = append([]float64(nil), a.Times...)
	shifted.Times[42] += 1e-12

	tests := []struct {
		name  string
		a, b  dynamo.Trajectory
		index int
	}{
		{"lengths", a, sine(99, 1, 0), -1},
		{"empty", dynamo.Trajectory{}, dynamo.Trajectory{}, -1},
		{"missing times", a, dynamo.Trajectory{Values: a.Values}, -1},
		{"time shift", a, shifted, 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compare(tt.a, tt.b)
			if !errors.Is(err, ErrMisalignedTrajectory) {
				t.Fatalf("expected ErrMisalignedTrajectory, got %v", err)
			}
			var me *MisalignedTrajectoryError
			if !errors.As(err, &me) || me.Index != tt.index {
				t.Errorf("expected index %d, got %+v", tt.index, me)
			}
		})
	}
}

func TestCompareToleratesRoundoff(t *testing.T) {
	a := sine(50, 1, 0)
	b := sine(50, 1, 0)
	b.Times = append([]float64(nil), a.Times...)
	for i := range b.Times {
		b.Times[i] *= 1 + 1e-13
	}
	if _, err := Compare(a, b); err != nil {
		t.Errorf("expected roundoff to be tolerated, got %v", err)
	}
}

func TestCompareFlatReference(t *testing.T) {
	a := dynamo.Trajectory{Times: []float64{0, 1, 2}, Values: []float64{1, 1, 1}}
	b := dynamo.Trajectory{Times: []float64{0, 1, 2}, Values: []float64{1, 1, 2}}

	acc, err := Compare(a, a)
	if err != nil {
		t.Fatal(err)
	}
	if acc.RelativeErrorPercent != 0 || acc.RSquared != 1 {
		t.Errorf("identical flat trajectories: %+v", acc)
	}

	acc, err = Compare(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(acc.RelativeErrorPercent, 1) {
		t.Errorf("expected +Inf relative error, got %g", acc.RelativeErrorPercent)
	}
}

func TestSpeedRatio(t *testing.T) {
	if r := SpeedRatio(10*time.Second, time.Second); r != 10 {
		t.Errorf("expected 10, got %g", r)
	}
	if r := SpeedRatio(time.Second, 0); !math.IsInf(r, 1) {
		t.Errorf("expected +Inf, got %g", r)
	}
	if r := SpeedRatio(0, time.Second); r != 0 {
		t.Errorf("expected 0, got %g", r)
	}
}

type window struct{ lo, hi float64 }

func (w window) InRange(z float64) bool { return z >= w.lo && z <= w.hi }

func TestDeflectionMetrics(t *testing.T) {
	peak := NewPeakDeflection(1)
	low := NewMinDeflection(1)
	cov := NewFitCoverage(window{-1, 1}, 1)

	for _, z := range []float64{-0.5, 2, 0.3, -1.5} {
		x := dynamo.State{0, z, 0}
		peak.Observe(x, nil, 0)
		low.Observe(x, nil, 0)
		cov.Observe(x, nil, 0)
	}

	if peak.Value() != 2 {
		t.Errorf("expected peak 2, got %g", peak.Value())
	}
	if low.Value() != -1.5 {
		t.Errorf("expected min -1.5, got %g", low.Value())
	}
	if cov.Value() != 0.5 {
		t.Errorf("expected coverage 0.5, got %g", cov.Value())
	}

	peak.Reset()
	low.Reset()
	cov.Reset()
	peak.Observe(dynamo.State{0, -3, 0}, nil, 0)
	if peak.Value() != -3 {
		t.Errorf("expected negative peak after reset, got %g", peak.Value())
	}
	if low.Value() != 0 || cov.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestCycleDrift(t *testing.T) {
	const period = 1.0
	const perCycle = 20
	c := NewCycleDrift(period, 0)

	// amplitude grows 10% per cycle
	for i := 0; i <= 3*perCycle; i++ {
		tt := float64(i) / perCycle
		amp := math.Pow(1.1, math.Floor(tt))
		c.Observe(dynamo.State{amp * math.Sin(2*math.Pi*tt+0.3)}, nil, tt)
	}

	if c.Cycles() != 3 {
		t.Fatalf("expected 3 complete cycles, got %d", c.Cycles())
	}
	if v := c.Value(); v < 0.05 || v > 0.2 {
		t.Errorf("expected drift near 0.1, got %g", v)
	}

	c.Reset()
	if c.Cycles() != 0 || c.Value() != 0 {
		t.Error("expected empty drift after reset")
	}
}
