package physics

import (
	"fmt"
	"math"
)

// Drive is a continuous sinusoidal acoustic pressure.
type Drive struct {
	Frequency float64 `yaml:"frequency" json:"frequency"` // Hz
	Amplitude float64 `yaml:"amplitude" json:"amplitude"` // Pa
}

func (d Drive) Validate() error {
	if !(d.Frequency > 0) || math.IsInf(d.Frequency, 0) {
		return fmt.Errorf("physics: drive frequency must be positive, got %g", d.Frequency)
	}
	if !(d.Amplitude >= 0) || math.IsInf(d.Amplitude, 0) {
		return fmt.Errorf("physics: drive amplitude must be non-negative, got %g", d.Amplitude)
	}
	return nil
}

// Pressure returns the acoustic pressure at time t.
func (d Drive) Pressure(t float64) float64 {
	return d.Amplitude * math.Sin(2*math.Pi*d.Frequency*t)
}

func (d Drive) Period() float64 { return 1 / d.Frequency }

func (d Drive) String() string {
	return fmt.Sprintf("%.0fkHz %.0fkPa", d.Frequency*1e-3, d.Amplitude*1e-3)
}
