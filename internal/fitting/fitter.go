// Package fitting fits the generalized Lennard-Jones surrogate of the
// average intermolecular pressure against direct integration.
package fitting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/blsim/internal/bls"
	"github.com/san-kum/blsim/internal/dynamo"
	"github.com/san-kum/blsim/internal/logging"
	"github.com/san-kum/blsim/internal/optim"
	"github.com/san-kum/blsim/internal/pressure"
)

const MinSamples = 200

type Config struct {
	Samples       int     `yaml:"samples" json:"samples"`
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	FTol          float64 `yaml:"f_tol" json:"f_tol"`
	XTol          float64 `yaml:"x_tol" json:"x_tol"`
	GTol          float64 `yaml:"g_tol" json:"g_tol"`
	// MinRSquared rejects fits whose pressure R² falls below it.
	MinRSquared float64 `yaml:"min_r_squared" json:"min_r_squared"`
	// ZMinFactor sets the default lower bound -ZMinFactor·δ.
	ZMinFactor float64 `yaml:"z_min_factor" json:"z_min_factor"`
}

func DefaultConfig() Config {
	lm := optim.DefaultLMSettings()
	return Config{
		Samples:       1000,
		MaxIterations: lm.MaxIterations,
		FTol:          lm.FTol,
		XTol:          lm.XTol,
		GTol:          lm.GTol,
		MinRSquared:   0.9,
		ZMinFactor:    0.4,
	}
}

func (c Config) Validate() error {
	if c.Samples < MinSamples {
		return fmt.Errorf("fitting: need at least %d samples, got %d", MinSamples, c.Samples)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("fitting: iteration limit must be positive")
	}
	if c.ZMinFactor <= 0 || c.ZMinFactor >= 0.5 {
		return fmt.Errorf("fitting: z_min_factor must lie in (0, 0.5), got %g", c.ZMinFactor)
	}
	if c.MinRSquared > 1 {
		return fmt.Errorf("fitting: min_r_squared above 1")
	}
	return nil
}

// Range is a closed deflection interval. The zero Range selects the default.
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

func (r Range) IsZero() bool { return r.Lo == 0 && r.Hi == 0 }

// DefaultRange spans from -factor·δ up to the leaflet radius.
func DefaultRange(m bls.Membrane, factor float64) Range {
	return Range{Lo: -factor * m.Gap, Hi: m.Radius}
}

func (r Range) Validate(m bls.Membrane) error {
	if !(r.Lo > m.MinDeflection()) {
		return fmt.Errorf("%w: lower bound %.4g nm at or below contact %.4g nm",
			ErrInvalidRange, r.Lo*1e9, m.MinDeflection()*1e9)
	}
	if !(r.Hi > r.Lo) || math.IsInf(r.Hi, 0) {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, r.Lo, r.Hi)
	}
	return nil
}

// Report summarizes a fit against the sampled direct pressures.
type Report struct {
	Samples    int     `json:"samples"`
	GridPoints int     `json:"grid_points"`
	Iterations int     `json:"iterations"`
	Status     string  `json:"status"`
	RMSE       float64 `json:"rmse"`          // Pa
	MaxAbsErr  float64 `json:"max_abs_error"` // Pa
	RSquared   float64 `json:"r_squared"`
	// DynamicRange is max - min of the sampled direct pressure.
	DynamicRange float64       `json:"dynamic_range"`
	Elapsed      time.Duration `json:"elapsed"`
}

type Fitter struct {
	Integrator *pressure.DirectIntegrator
	Config     Config
	Logger     *zap.Logger
}

func New(integrator *pressure.DirectIntegrator, cfg Config, logger *zap.Logger) *Fitter {
	if integrator == nil {
		integrator = pressure.NewDirectIntegrator(pressure.DefaultNodes)
	}
	return &Fitter{Integrator: integrator, Config: cfg, Logger: logging.OrNop(logger)}
}

// Fit samples the direct integral over r for geometry g under charge q and
// fits the surrogate parameters. A zero r selects DefaultRange. The returned
// parameters satisfy x > y > 0; anything else is a *FitConvergenceError.
func (f *Fitter) Fit(ctx context.Context, g bls.Geometry, charge float64, r Range) (*pressure.Parameters, Report, error) {
	start := time.Now()
	var rep Report

	if err := f.Config.Validate(); err != nil {
		return nil, rep, err
	}
	m, err := bls.NewMembrane(g, charge)
	if err != nil {
		return nil, rep, err
	}
	if r.IsZero() {
		r = DefaultRange(m, f.Config.ZMinFactor)
	}
	if err := r.Validate(m); err != nil {
		return nil, rep, err
	}

	zs, ps, err := f.sample(m, r)
	if err != nil {
		return nil, rep, err
	}
	rep.Samples = len(zs)

	// Dimensionless: ĝ = (2Z+δ)/δ, p̂ = P/pΔ.
	gs := make([]float64, len(zs))
	pn := make([]float64, len(zs))
	for i := range zs {
		gs[i] = (2*zs[i] + m.Gap) / m.Gap
		pn[i] = ps[i] / bls.PDelta
	}

	seed, grid, err := seedParameters(ctx, gs, pn)
	rep.GridPoints = grid
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, rep, ctxErr
		}
		return nil, rep, &FitConvergenceError{Reason: "no usable exponent seed", Cost: math.Inf(1), Err: err}
	}
	f.Logger.Debug("surrogate seed",
		zap.Float64("A", seed[0]), zap.Float64("D", seed[1]),
		zap.Float64("x", seed[2]), zap.Float64("y", seed[3]))

	settings := optim.LMSettings{
		MaxIterations: f.Config.MaxIterations,
		FTol:          f.Config.FTol,
		XTol:          f.Config.XTol,
		GTol:          f.Config.GTol,
	}
	res, err := optim.LevenbergMarquardt(ctx, surrogateProblem(gs, pn), seed, settings)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, rep, ctxErr
		}
		fe := &FitConvergenceError{Reason: "optimizer failed", Cost: math.NaN(), Err: err}
		if res != nil {
			fe.Iterations, fe.Cost = res.Iterations, res.Cost
		}
		if errors.Is(err, optim.ErrNoConvergence) {
			fe.Reason = "iteration limit reached"
		}
		return nil, rep, fe
	}
	rep.Iterations = res.Iterations
	rep.Status = res.Status.String()

	amp, dist, x, y := res.X[0], res.X[1], res.X[2], res.X[3]
	if x < y {
		x, y = y, x
		amp = -amp
	}
	if !(y > 0) || x == y || !(dist > 0) || math.IsNaN(amp) {
		return nil, rep, &FitConvergenceError{
			Iterations: res.Iterations, Cost: res.Cost,
			Reason: fmt.Sprintf("degenerate solution (D=%.4g x=%.4g y=%.4g)", dist, x, y),
		}
	}

	params := &pressure.Parameters{
		Amplitude:         amp * bls.PDelta,
		ReferenceDistance: dist * m.Gap,
		ExponentHigh:      x,
		ExponentLow:       y,
		Offset:            m.Gap,
		Charge:            charge,
		ZMin:              r.Lo,
		ZMax:              r.Hi,
	}
	model, err := pressure.NewSurrogateModel(*params)
	if err != nil {
		return nil, rep, &FitConvergenceError{Iterations: res.Iterations, Cost: res.Cost, Reason: "invalid parameters", Err: err}
	}

	fillAccuracy(&rep, model, zs, ps)
	rep.Elapsed = time.Since(start)

	f.Logger.Debug("surrogate fitted",
		zap.Stringer("geometry", g),
		zap.Float64("charge", charge),
		zap.Stringer("params", params),
		zap.Int("iterations", rep.Iterations),
		zap.String("status", rep.Status),
		zap.Float64("r2", rep.RSquared),
		zap.Duration("elapsed", rep.Elapsed))

	if !(rep.RSquared >= f.Config.MinRSquared) {
		return nil, rep, &FitConvergenceError{
			Iterations: res.Iterations, Cost: res.Cost,
			Reason: fmt.Sprintf("pressure R² %.4f below %.4f", rep.RSquared, f.Config.MinRSquared),
		}
	}
	return params, rep, nil
}

// sample evaluates the direct integral on an even grid over r in parallel.
func (f *Fitter) sample(m bls.Membrane, r Range) ([]float64, []float64, error) {
	n := f.Config.Samples
	zs := make([]float64, n)
	floats.Span(zs, r.Lo, r.Hi)
	ps := make([]float64, n)
	errs := make([]error, n)

	dynamo.ParallelFor(n, 32, func(start, end int) {
		for i := start; i < end; i++ {
			ps[i], errs[i] = f.Integrator.Evaluate(zs[i], m)
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}
	return zs, ps, nil
}

func fillAccuracy(rep *Report, model *pressure.SurrogateModel, zs, ps []float64) {
	pred := make([]float64, len(zs))
	for i, z := range zs {
		pred[i], _ = model.Evaluate(z)
	}
	resid := make([]float64, len(ps))
	floats.SubTo(resid, pred, ps)

	ssRes := floats.Dot(resid, resid)
	rep.RMSE = math.Sqrt(ssRes / float64(len(ps)))
	rep.MaxAbsErr = floats.Norm(resid, math.Inf(1))
	rep.DynamicRange = floats.Max(ps) - floats.Min(ps)

	mean := stat.Mean(ps, nil)
	ssTot := 0.0
	for _, p := range ps {
		ssTot += (p - mean) * (p - mean)
	}
	if ssTot == 0 {
		rep.RSquared = 0
		if ssRes == 0 {
			rep.RSquared = 1
		}
		return
	}
	rep.RSquared = 1 - ssRes/ssTot
}

// surrogateProblem is the dimensionless least-squares problem over
// [Â, D, x, y] with p̂ = Â[(D/ĝ)^x - (D/ĝ)^y].
func surrogateProblem(gs, pn []float64) optim.Problem {
	return optim.Problem{
		NumResiduals: len(gs),
		Residuals: func(p, dst []float64) {
			for i, g := range gs {
				u := p[1] / g
				dst[i] = p[0]*(math.Pow(u, p[2])-math.Pow(u, p[3])) - pn[i]
			}
		},
		Jacobian: func(p []float64, dst *mat.Dense) {
			amp, dist, x, y := p[0], p[1], p[2], p[3]
			for i, g := range gs {
				u := dist / g
				ux, uy := math.Pow(u, x), math.Pow(u, y)
				lu := math.Log(u)
				dst.Set(i, 0, ux-uy)
				dst.Set(i, 1, amp*(x*ux-y*uy)/dist)
				dst.Set(i, 2, amp*ux*lu)
				dst.Set(i, 3, -amp*uy*lu)
			}
		},
	}
}
