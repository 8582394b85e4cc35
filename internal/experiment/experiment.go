package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/blsim/internal/bls"
	"github.com/san-kum/blsim/internal/config"
	"github.com/san-kum/blsim/internal/control"
	"github.com/san-kum/blsim/internal/dynamo"
	"github.com/san-kum/blsim/internal/fitting"
	"github.com/san-kum/blsim/internal/logging"
	"github.com/san-kum/blsim/internal/metrics"
	"github.com/san-kum/blsim/internal/physics"
	"github.com/san-kum/blsim/internal/pressure"
)

type Config struct {
	Geometry        bls.Geometry
	Charge          float64
	Drive           physics.Drive
	Cycles          int
	SamplesPerCycle int
	Integrator      string
	RelTol          float64
	Nodes           int
	Fit             fitting.Config
	// FitRange bounds the fitted deflections; zero uses fitting.DefaultRange.
	FitRange fitting.Range
}

// FromConfig resolves a file configuration. The membrane carries the
// geometry's rest charge.
func FromConfig(c *config.Config) (Config, error) {
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	g, err := c.ResolveGeometry()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Geometry:        g,
		Charge:          g.RestCharge,
		Drive:           c.Drive,
		Cycles:          c.Simulation.Cycles,
		SamplesPerCycle: c.Simulation.SamplesPerCycle,
		Integrator:      c.Simulation.Integrator,
		RelTol:          c.Simulation.RelTol,
		Nodes:           c.Quadrature.Nodes,
		Fit:             c.Fit,
	}, nil
}

func (c Config) Dt() float64 {
	return c.Drive.Period() / float64(c.SamplesPerCycle)
}

func (c Config) Duration() float64 {
	return float64(c.Cycles) * c.Drive.Period()
}

// SurrogateStore is a surrogate source that can also keep new fits.
type SurrogateStore interface {
	pressure.SurrogateSource
	Put(g bls.Geometry, p pressure.Parameters, rep fitting.Report) error
}

// RunResult is one simulated mode.
type RunResult struct {
	Mode    pressure.Mode
	Result  *dynamo.Result
	Elapsed time.Duration
	// Clamped counts derivative evaluations held at the contact bound.
	Clamped int64
	Model   *pressure.SurrogateModel
}

// Deflection returns the sampled center deflection.
func (r *RunResult) Deflection() dynamo.Trajectory {
	return r.Result.Trajectory(physics.IdxDeflection)
}

// Comparison holds a direct and a predicted run of the same case.
type Comparison struct {
	Direct    *RunResult
	Predicted *RunResult
	Accuracy  metrics.Accuracy
	// SpeedRatio is direct wall time over predicted wall time.
	SpeedRatio float64
	FitReport  *fitting.Report
}

type Experiment struct {
	cfg      Config
	registry *Registry
	direct   *pressure.DirectIntegrator
	catalog  *pressure.Catalog
	store    SurrogateStore
	logger   *zap.Logger
}

func New(cfg Config, registry *Registry, store SurrogateStore, logger *zap.Logger) (*Experiment, error) {
	if err := cfg.Geometry.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Drive.Validate(); err != nil {
		return nil, err
	}
	if cfg.Cycles <= 0 || cfg.SamplesPerCycle <= 0 {
		return nil, fmt.Errorf("experiment: need positive cycles and samples per cycle")
	}
	if !(cfg.RelTol > 0) {
		return nil, fmt.Errorf("experiment: rel_tol must be positive")
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Experiment{
		cfg:      cfg,
		registry: registry,
		direct:   pressure.NewDirectIntegrator(cfg.Nodes),
		catalog:  pressure.NewCatalog(),
		store:    store,
		logger:   logging.OrNop(logger),
	}, nil
}

func (e *Experiment) Config() Config { return e.cfg }

func (e *Experiment) Membrane() (bls.Membrane, error) {
	return bls.NewMembrane(e.cfg.Geometry, e.cfg.Charge)
}

// Surrogate returns the model for the experiment's membrane. It looks in the
// in-memory catalog, then the store, and fits a new model only when neither
// has one. New fits are written back to the store. The report is nil unless a
// fit ran.
func (e *Experiment) Surrogate(ctx context.Context) (*pressure.SurrogateModel, *fitting.Report, error) {
	g, q := e.cfg.Geometry, e.cfg.Charge
	if model, err := e.catalog.Surrogate(g, q); err == nil {
		return model, nil, nil
	}

	if e.store != nil {
		model, err := e.store.Surrogate(g, q)
		switch {
		case err == nil:
			e.logger.Info("surrogate loaded", zap.Stringer("geometry", g), zap.Stringer("params", model.Parameters()))
			e.catalog.Add(g, model)
			return model, nil, nil
		case !errors.Is(err, pressure.ErrMissingSurrogate):
			return nil, nil, fmt.Errorf("experiment: surrogate lookup: %w", err)
		}
	}

	e.logger.Info("fitting surrogate", zap.Stringer("geometry", g), zap.Float64("charge", q))
	fitter := fitting.New(e.direct, e.cfg.Fit, e.logger)
	params, rep, err := fitter.Fit(ctx, g, q, e.cfg.FitRange)
	if err != nil {
		return nil, &rep, fmt.Errorf("experiment: fit: %w", err)
	}
	model, err := pressure.NewSurrogateModel(*params)
	if err != nil {
		return nil, &rep, err
	}
	e.logger.Info("surrogate fitted",
		zap.Stringer("params", params),
		zap.Float64("r2", rep.RSquared),
		zap.Duration("elapsed", rep.Elapsed))

	e.catalog.Add(g, model)
	if e.store != nil {
		if err := e.store.Put(g, *params, rep); err != nil {
			return nil, &rep, fmt.Errorf("experiment: store surrogate: %w", err)
		}
	}
	return model, &rep, nil
}

// Run simulates the configured case with the given pressure mode. Predicted
// mode fails with a MissingSurrogateError unless Surrogate ran first or the
// store already holds a fit.
func (e *Experiment) Run(ctx context.Context, mode pressure.Mode) (*RunResult, error) {
	m, err := e.Membrane()
	if err != nil {
		return nil, err
	}

	var src pressure.SurrogateSource = e.catalog
	if mode == pressure.Predicted {
		if _, err := e.catalog.Surrogate(m.Geometry, m.Charge); err != nil && e.store != nil {
			src = e.store
		}
	}
	eval, err := pressure.NewEvaluator(mode, m, e.direct, src)
	if err != nil {
		return nil, err
	}

	son, err := physics.NewSonophore(m, e.cfg.Drive, eval, e.logger)
	if err != nil {
		return nil, err
	}

	dt := e.cfg.Dt()
	x0, err := son.InitialState(dt)
	if err != nil {
		return nil, err
	}

	integ, adaptive, err := e.registry.GetIntegrator(e.cfg.Integrator, son.AbsTol())
	if err != nil {
		return nil, err
	}

	sim := dynamo.New(son, integ, control.NewConstant(m.Charge))
	for _, metric := range e.registry.DefaultMetrics(son, eval.Model()) {
		sim.AddMetric(metric)
	}
	sim.AddObserver(newCycleProgress(e.logger.With(zap.Stringer("mode", mode)), e.cfg.SamplesPerCycle))

	simCfg := dynamo.Config{
		Dt:            dt,
		Duration:      e.cfg.Duration(),
		Tolerance:     e.cfg.RelTol,
		MinDt:         dt * 1e-9,
		InitialDt:     dt / 100,
		Adaptive:      adaptive,
		ValidateState: true,
	}

	e.logger.Info("simulation started",
		zap.Stringer("mode", mode),
		zap.String("integrator", e.cfg.Integrator),
		zap.Stringer("drive", e.cfg.Drive),
		zap.Float64("z0_nm", x0[physics.IdxDeflection]*1e9))

	start := time.Now()
	res, err := sim.Run(ctx, x0, simCfg)
	elapsed := time.Since(start)

	if perr := son.Err(); perr != nil {
		return nil, fmt.Errorf("experiment: %s run: %w", mode, perr)
	}
	if err != nil {
		return nil, fmt.Errorf("experiment: %s run: %w", mode, err)
	}

	e.logger.Info("simulation finished",
		zap.Stringer("mode", mode),
		zap.Int("steps", res.StepsTaken),
		zap.Int("rejected", res.Rejected),
		zap.Duration("elapsed", elapsed))

	return &RunResult{
		Mode:    mode,
		Result:  res,
		Elapsed: elapsed,
		Clamped: son.Clamped(),
		Model:   eval.Model(),
	}, nil
}

// Compare fits or loads the surrogate, runs both modes and reports the
// deflection accuracy of the predicted run against the direct one. Fitting is
// not counted in either wall time.
func (e *Experiment) Compare(ctx context.Context) (*Comparison, error) {
	_, rep, err := e.Surrogate(ctx)
	if err != nil {
		return nil, err
	}

	direct, err := e.Run(ctx, pressure.Direct)
	if err != nil {
		return nil, err
	}
	predicted, err := e.Run(ctx, pressure.Predicted)
	if err != nil {
		return nil, err
	}

	acc, err := metrics.Compare(direct.Deflection(), predicted.Deflection())
	if err != nil {
		return nil, fmt.Errorf("experiment: compare: %w", err)
	}

	cmp := &Comparison{
		Direct:     direct,
		Predicted:  predicted,
		Accuracy:   acc,
		SpeedRatio: metrics.SpeedRatio(direct.Elapsed, predicted.Elapsed),
		FitReport:  rep,
	}
	e.logger.Info("comparison finished",
		zap.Float64("rmse_nm", acc.RMSE*1e9),
		zap.Float64("r2", acc.RSquared),
		zap.Float64("speedup", cmp.SpeedRatio))
	return cmp, nil
}
