package config

import (
	"sort"
	"strings"
)

// Neuron is a cortical or thalamic cell type's passive membrane profile.
type Neuron struct {
	Name            string
	Description     string
	RestCapacitance float64 // F/m^2
	RestPotential   float64 // V
}

// RestCharge is the membrane charge density at rest, Q = Cm0·Vm0.
func (n Neuron) RestCharge() float64 {
	return n.RestCapacitance * n.RestPotential
}

var Neurons = map[string]Neuron{
	"RS":  {"RS", "cortical regular spiking", 1e-2, -71.9e-3},
	"FS":  {"FS", "cortical fast spiking", 1e-2, -71.4e-3},
	"LTS": {"LTS", "cortical low-threshold spiking", 1e-2, -54.0e-3},
	"RE":  {"RE", "thalamic reticular", 1e-2, -89.5e-3},
	"TC":  {"TC", "thalamo-cortical", 1e-2, -61.93e-3},
}

func GetNeuron(name string) (Neuron, bool) {
	n, ok := Neurons[strings.ToUpper(name)]
	return n, ok
}

func ListNeurons() []string {
	names := make([]string, 0, len(Neurons))
	for name := range Neurons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Presets are named starting configurations for the CLI.
var Presets = map[string]func() *Config{
	"default": DefaultConfig,
	"quick": func() *Config {
		c := DefaultConfig()
		c.Simulation.Cycles = 2
		c.Simulation.SamplesPerCycle = 200
		c.Fit.Samples = 400
		return c
	},
	"low-frequency": func() *Config {
		c := DefaultConfig()
		c.Drive.Frequency = 20e3
		c.Simulation.Cycles = 2
		return c
	},
	"high-amplitude": func() *Config {
		c := DefaultConfig()
		c.Drive.Amplitude = 600e3
		return c
	},
	"large-patch": func() *Config {
		c := DefaultConfig()
		c.Geometry.Radius = 64e-9
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
