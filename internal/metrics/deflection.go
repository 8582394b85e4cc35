package metrics

import (
	"math"

	"github.com/san-kum/blsim/internal/dynamo"
)

// PeakDeflection tracks the largest value of one state component.
type PeakDeflection struct {
	idx  int
	peak float64
	seen bool
}

func NewPeakDeflection(idx int) *PeakDeflection { return &PeakDeflection{idx: idx} }

func (p *PeakDeflection) Name() string { return "peak_deflection" }

func (p *PeakDeflection) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if p.idx >= len(x) {
		return
	}
	if !p.seen || x[p.idx] > p.peak {
		p.peak = x[p.idx]
		p.seen = true
	}
}

func (p *PeakDeflection) Value() float64 { return p.peak }

func (p *PeakDeflection) Reset() { p.peak, p.seen = 0, false }

// MinDeflection tracks the smallest value of one state component, i.e. the
// closest approach of the leaflets.
type MinDeflection struct {
	idx  int
	min  float64
	seen bool
}

func NewMinDeflection(idx int) *MinDeflection { return &MinDeflection{idx: idx} }

func (m *MinDeflection) Name() string { return "min_deflection" }

func (m *MinDeflection) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if m.idx >= len(x) {
		return
	}
	if !m.seen || x[m.idx] < m.min {
		m.min = x[m.idx]
		m.seen = true
	}
}

func (m *MinDeflection) Value() float64 { return m.min }

func (m *MinDeflection) Reset() { m.min, m.seen = 0, false }

// Ranger reports whether a deflection lies inside a fitted range.
type Ranger interface {
	InRange(z float64) bool
}

// FitCoverage is the fraction of samples whose deflection lies inside the
// surrogate's fitted range. Values below 1 mean the run extrapolated.
type FitCoverage struct {
	idx     int
	model   Ranger
	inside  int
	samples int
}

func NewFitCoverage(model Ranger, idx int) *FitCoverage {
	return &FitCoverage{idx: idx, model: model}
}

func (f *FitCoverage) Name() string { return "fit_coverage" }

func (f *FitCoverage) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if f.idx >= len(x) {
		return
	}
	f.samples++
	if f.model.InRange(x[f.idx]) {
		f.inside++
	}
}

func (f *FitCoverage) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return float64(f.inside) / float64(f.samples)
}

func (f *FitCoverage) Reset() { f.inside, f.samples = 0, 0 }

// CycleDrift compares the peak-to-peak amplitude of the last two complete
// acoustic cycles. A periodic steady state drives it toward zero.
type CycleDrift struct {
	idx    int
	period float64

	cycle    int
	lo, hi   float64
	started  bool
	complete []float64
}

func NewCycleDrift(period float64, idx int) *CycleDrift {
	return &CycleDrift{idx: idx, period: period}
}

func (c *CycleDrift) Name() string { return "cycle_drift" }

func (c *CycleDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if c.idx >= len(x) || c.period <= 0 {
		return
	}
	v := x[c.idx]
	cycle := int(math.Floor(t/c.period + 1e-9))

	if !c.started {
		c.cycle, c.lo, c.hi, c.started = cycle, v, v, true
		return
	}
	if cycle != c.cycle {
		// the boundary sample closes one cycle and opens the next
		c.lo, c.hi = math.Min(c.lo, v), math.Max(c.hi, v)
		c.complete = append(c.complete, c.hi-c.lo)
		c.cycle, c.lo, c.hi = cycle, v, v
		return
	}
	c.lo, c.hi = math.Min(c.lo, v), math.Max(c.hi, v)
}

// Value returns |A_n - A_{n-1}| / A_{n-1}. It is 0 until two cycles have
// completed; use Cycles to tell the cases apart.
func (c *CycleDrift) Value() float64 {
	n := len(c.complete)
	if n < 2 || c.complete[n-2] == 0 {
		return 0
	}
	return math.Abs(c.complete[n-1]-c.complete[n-2]) / c.complete[n-2]
}

func (c *CycleDrift) Cycles() int { return len(c.complete) }

// Amplitudes returns the peak-to-peak amplitude of every complete cycle.
func (c *CycleDrift) Amplitudes() []float64 {
	return append([]float64(nil), c.complete...)
}

func (c *CycleDrift) Reset() {
	c.cycle, c.lo, c.hi, c.started = 0, 0, 0, false
	c.complete = c.complete[:0]
}
