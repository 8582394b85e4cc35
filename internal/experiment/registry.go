package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/blsim/internal/dynamo"
	"github.com/san-kum/blsim/internal/integrators"
	"github.com/san-kum/blsim/internal/metrics"
	"github.com/san-kum/blsim/internal/physics"
	"github.com/san-kum/blsim/internal/pressure"
)

// IntegratorFactory builds an integrator for a system with the given
// per-component absolute tolerances. Fixed-step schemes ignore them.
type IntegratorFactory func(absTol dynamo.State) dynamo.Integrator

type Registry struct {
	integrators map[string]IntegratorFactory
}

func NewRegistry() *Registry {
	r := &Registry{integrators: make(map[string]IntegratorFactory)}

	r.integrators["rk45"] = func(absTol dynamo.State) dynamo.Integrator {
		return integrators.NewRK45WithAbsTol(absTol)
	}
	r.integrators["rk4"] = func(dynamo.State) dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["heun"] = func(dynamo.State) dynamo.Integrator { return integrators.NewHeun() }
	r.integrators["euler"] = func(dynamo.State) dynamo.Integrator { return integrators.NewEuler() }

	return r
}

// GetIntegrator returns the named integrator and whether it carries its own
// error estimate. Only such integrators run adaptively.
func (r *Registry) GetIntegrator(name string, absTol dynamo.State) (dynamo.Integrator, bool, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, false, fmt.Errorf("unknown integrator: %s", name)
	}
	integ := fn(absTol)
	_, adaptive := integ.(dynamo.AdaptiveIntegrator)
	return integ, adaptive, nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListModes() []string {
	return []string{pressure.Direct.String(), pressure.Predicted.String()}
}

// DefaultMetrics returns the deflection observers for a run. Coverage of the
// fitted range is only tracked when model is non-nil.
func (r *Registry) DefaultMetrics(s *physics.Sonophore, model *pressure.SurrogateModel) []dynamo.Metric {
	ms := []dynamo.Metric{
		metrics.NewPeakDeflection(physics.IdxDeflection),
		metrics.NewMinDeflection(physics.IdxDeflection),
		metrics.NewCycleDrift(s.Drive.Period(), physics.IdxDeflection),
	}
	if model != nil {
		ms = append(ms, metrics.NewFitCoverage(model, physics.IdxDeflection))
	}
	return ms
}
