package experiment

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/blsim/internal/config"
	"github.com/san-kum/blsim/internal/logging"
	"github.com/san-kum/blsim/internal/pressure"
)

// Scenario lists comparison cases to run in sequence over a base configuration.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Cases       []Case `yaml:"cases"`
	Sweep       *Sweep `yaml:"sweep,omitempty"`
}

// Case overrides parts of the base configuration. Zero fields keep the base
// value. Mode is "compare" (the default), "direct" or "predicted".
type Case struct {
	Name       string  `yaml:"name"`
	Radius     float64 `yaml:"radius"`
	Neuron     string  `yaml:"neuron"`
	Frequency  float64 `yaml:"frequency"`
	Amplitude  float64 `yaml:"amplitude"`
	Cycles     int     `yaml:"cycles"`
	Integrator string  `yaml:"integrator"`
	Mode       string  `yaml:"mode"`
}

// Sweep expands into Steps evenly spaced cases varying one drive or geometry
// parameter: "amplitude", "frequency" or "radius".
type Sweep struct {
	Parameter string  `yaml:"parameter"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Steps     int     `yaml:"steps"`
	Mode      string  `yaml:"mode"`
}

// CaseResult is the outcome of one case. Exactly one of Comparison and Run is
// set.
type CaseResult struct {
	Case       Case
	Comparison *Comparison
	Run        *RunResult
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario: %s: %w", path, err)
	}
	return &scenario, nil
}

// Expand returns the explicit cases followed by the sweep cases.
func (s *Scenario) Expand() ([]Case, error) {
	cases := append([]Case(nil), s.Cases...)
	if s.Sweep == nil {
		return cases, nil
	}

	sw := s.Sweep
	if sw.Steps < 1 {
		return nil, fmt.Errorf("scenario: sweep needs at least one step")
	}
	step := 0.0
	if sw.Steps > 1 {
		step = (sw.Max - sw.Min) / float64(sw.Steps-1)
	}
	for i := 0; i < sw.Steps; i++ {
		v := sw.Min + float64(i)*step
		c := Case{Name: fmt.Sprintf("%s=%.4g", sw.Parameter, v), Mode: sw.Mode}
		switch sw.Parameter {
		case "amplitude":
			c.Amplitude = v
		case "frequency":
			c.Frequency = v
		case "radius":
			c.Radius = v
		default:
			return nil, fmt.Errorf("scenario: cannot sweep %q", sw.Parameter)
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// Apply returns a copy of base with the case's overrides.
func (c Case) Apply(base *config.Config) *config.Config {
	cfg := *base
	if c.Radius > 0 {
		cfg.Geometry.Radius = c.Radius
	}
	if c.Neuron != "" {
		cfg.Geometry.Neuron = c.Neuron
	}
	if c.Frequency > 0 {
		cfg.Drive.Frequency = c.Frequency
	}
	if c.Amplitude > 0 {
		cfg.Drive.Amplitude = c.Amplitude
	}
	if c.Cycles > 0 {
		cfg.Simulation.Cycles = c.Cycles
	}
	if c.Integrator != "" {
		cfg.Simulation.Integrator = c.Integrator
	}
	return &cfg
}

// RunScenario runs every case against base. It stops at the first failing
// case and returns the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, registry *Registry, store SurrogateStore, logger *zap.Logger) ([]CaseResult, error) {
	logger = logging.OrNop(logger)
	cases, err := scenario.Expand()
	if err != nil {
		return nil, err
	}
	results := make([]CaseResult, 0, len(cases))

	for i, c := range cases {
		logger.Info("scenario case",
			zap.String("scenario", scenario.Name),
			zap.Int("case", i+1),
			zap.Int("of", len(cases)),
			zap.String("name", c.Name))

		cfg, err := FromConfig(c.Apply(base))
		if err != nil {
			return results, fmt.Errorf("case %d: %w", i+1, err)
		}
		exp, err := New(cfg, registry, store, logger)
		if err != nil {
			return results, fmt.Errorf("case %d: %w", i+1, err)
		}

		cr := CaseResult{Case: c}
		switch c.Mode {
		case "", "compare":
			cr.Comparison, err = exp.Compare(ctx)
		default:
			var mode pressure.Mode
			mode, err = pressure.ParseMode(c.Mode)
			if err != nil {
				return results, fmt.Errorf("case %d: %w", i+1, err)
			}
			if mode == pressure.Predicted {
				if _, _, err = exp.Surrogate(ctx); err != nil {
					return results, fmt.Errorf("case %d: %w", i+1, err)
				}
			}
			cr.Run, err = exp.Run(ctx, mode)
		}
		if err != nil {
			return results, fmt.Errorf("case %d: %w", i+1, err)
		}

		results = append(results, cr)
	}

	return results, nil
}
