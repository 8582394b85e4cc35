package control

import "github.com/san-kum/blsim/internal/dynamo"

// Constant holds the control input at fixed values. The sonophore model
// reads the membrane charge density from it.
type Constant struct {
	u dynamo.Control
}

func NewConstant(values ...float64) *Constant {
	return &Constant{u: append(dynamo.Control(nil), values...)}
}

// Compute returns a copy so callers may keep the slice.
func (c *Constant) Compute(x dynamo.State, t float64) dynamo.Control {
	return append(dynamo.Control(nil), c.u...)
}

func (c *Constant) Dim() int { return len(c.u) }
