package control

import (
	"testing"

	"github.com/san-kum/blsim/internal/dynamo"
)

func TestConstantCompute(t *testing.T) {
	c := NewConstant(-7.19e-4)
	if c.Dim() != 1 {
		t.Fatalf("expected dim 1, got %d", c.Dim())
	}

	u := c.Compute(dynamo.State{0, 1e-9, 0}, 0)
	if len(u) != 1 || u[0] != -7.19e-4 {
		t.Errorf("unexpected control %v", u)
	}

	u[0] = 42
	if again := c.Compute(nil, 1); again[0] != -7.19e-4 {
		t.Errorf("mutating a returned control changed the controller: %v", again)
	}
}

func TestConstantEmpty(t *testing.T) {
	c := NewConstant()
	if len(c.Compute(nil, 0)) != 0 {
		t.Error("expected empty control")
	}
}
