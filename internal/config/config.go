package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/blsim/internal/bls"
	"github.com/san-kum/blsim/internal/fitting"
	"github.com/san-kum/blsim/internal/logging"
	"github.com/san-kum/blsim/internal/physics"
	"github.com/san-kum/blsim/internal/pressure"
)

const (
	DefaultRadius          = 32e-9
	DefaultNeuron          = "RS"
	DefaultFrequency       = 500e3
	DefaultAmplitude       = 100e3
	DefaultCycles          = 5
	DefaultSamplesPerCycle = 1000
	DefaultRelTol          = 1e-6
	DefaultDataDir         = "data"
)

type Config struct {
	Geometry   GeometryConfig   `yaml:"geometry"`
	Drive      physics.Drive    `yaml:"drive"`
	Simulation SimulationConfig `yaml:"simulation"`
	Fit        fitting.Config   `yaml:"fit"`
	Quadrature QuadratureConfig `yaml:"quadrature"`
	Logging    logging.Config   `yaml:"logging"`
	DataDir    string           `yaml:"data_dir"`
}

// GeometryConfig describes the membrane patch. When Neuron names a preset
// its capacitance and resting charge replace the explicit values.
type GeometryConfig struct {
	Radius          float64 `yaml:"radius"`
	RestCapacitance float64 `yaml:"rest_capacitance"`
	RestCharge      float64 `yaml:"rest_charge"`
	Neuron          string  `yaml:"neuron"`
}

type SimulationConfig struct {
	Cycles          int     `yaml:"cycles"`
	SamplesPerCycle int     `yaml:"samples_per_cycle"`
	Integrator      string  `yaml:"integrator"`
	RelTol          float64 `yaml:"rel_tol"`
	Mode            string  `yaml:"mode"`
}

type QuadratureConfig struct {
	Nodes int `yaml:"nodes"`
}

func DefaultConfig() *Config {
	return &Config{
		Geometry: GeometryConfig{
			Radius: DefaultRadius,
			Neuron: DefaultNeuron,
		},
		Drive: physics.Drive{
			Frequency: DefaultFrequency,
			Amplitude: DefaultAmplitude,
		},
		Simulation: SimulationConfig{
			Cycles:          DefaultCycles,
			SamplesPerCycle: DefaultSamplesPerCycle,
			Integrator:      "rk45",
			RelTol:          DefaultRelTol,
			Mode:            pressure.Direct.String(),
		},
		Fit:        fitting.DefaultConfig(),
		Quadrature: QuadratureConfig{Nodes: pressure.DefaultNodes},
		Logging:    logging.DefaultConfig(),
		DataDir:    DefaultDataDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveGeometry applies the neuron preset, if any, and validates the result.
func (c *Config) ResolveGeometry() (bls.Geometry, error) {
	g := bls.Geometry{
		Radius:          c.Geometry.Radius,
		RestCapacitance: c.Geometry.RestCapacitance,
		RestCharge:      c.Geometry.RestCharge,
	}
	if c.Geometry.Neuron != "" {
		n, ok := GetNeuron(c.Geometry.Neuron)
		if !ok {
			return bls.Geometry{}, fmt.Errorf("config: unknown neuron %q", c.Geometry.Neuron)
		}
		g.RestCapacitance = n.RestCapacitance
		g.RestCharge = n.RestCharge()
	}
	if err := g.Validate(); err != nil {
		return bls.Geometry{}, err
	}
	return g, nil
}

// Mode parses the configured computation mode.
func (c *Config) Mode() (pressure.Mode, error) {
	return pressure.ParseMode(c.Simulation.Mode)
}

// Dt is the output sampling interval.
func (c *Config) Dt() float64 {
	return 1 / (c.Drive.Frequency * float64(c.Simulation.SamplesPerCycle))
}

// Duration is the simulated time span.
func (c *Config) Duration() float64 {
	return float64(c.Simulation.Cycles) / c.Drive.Frequency
}

func (c *Config) Validate() error {
	if _, err := c.ResolveGeometry(); err != nil {
		return err
	}
	if err := c.Drive.Validate(); err != nil {
		return err
	}
	if c.Simulation.Cycles <= 0 {
		return fmt.Errorf("config: cycles must be positive, got %d", c.Simulation.Cycles)
	}
	if c.Simulation.SamplesPerCycle < 8 {
		return fmt.Errorf("config: need at least 8 samples per cycle, got %d", c.Simulation.SamplesPerCycle)
	}
	if !(c.Simulation.RelTol > 0) {
		return fmt.Errorf("config: rel_tol must be positive")
	}
	if _, err := c.Mode(); err != nil {
		return err
	}
	if c.Quadrature.Nodes <= 0 {
		return fmt.Errorf("config: quadrature nodes must be positive, got %d", c.Quadrature.Nodes)
	}
	return c.Fit.Validate()
}
