package integrators

import "github.com/san-kum/blsim/internal/dynamo"

// Tableau is the Butcher tableau of an explicit Runge-Kutta method.
// A is strictly lower triangular.
type Tableau struct {
	Name string
	A    [][]float64
	B    []float64
	C    []float64
}

var (
	eulerTableau = Tableau{
		Name: "euler",
		A:    [][]float64{{}},
		B:    []float64{1},
		C:    []float64{0},
	}

	heunTableau = Tableau{
		Name: "heun",
		A:    [][]float64{{}, {1}},
		B:    []float64{0.5, 0.5},
		C:    []float64{0, 1},
	}

	rk4Tableau = Tableau{
		Name: "rk4",
		A:    [][]float64{{}, {0.5}, {0, 0.5}, {0, 0, 1}},
		B:    []float64{1.0 / 6.0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 6.0},
		C:    []float64{0, 0.5, 0.5, 1},
	}
)

// Explicit is a fixed-step explicit Runge-Kutta integrator.
// It reuses its stage buffers, so one instance must not be shared between
// goroutines.
type Explicit struct {
	tab     Tableau
	k       []dynamo.State
	scratch dynamo.State
}

func NewExplicit(tab Tableau) *Explicit {
	return &Explicit{tab: tab}
}

func NewEuler() *Explicit { return NewExplicit(eulerTableau) }
func NewHeun() *Explicit  { return NewExplicit(heunTableau) }
func NewRK4() *Explicit   { return NewExplicit(rk4Tableau) }

func (e *Explicit) Name() string { return e.tab.Name }

func (e *Explicit) ensureScratch(n int) {
	if len(e.scratch) == n && len(e.k) == len(e.tab.B) {
		return
	}
	e.k = make([]dynamo.State, len(e.tab.B))
	for i := range e.k {
		e.k[i] = make(dynamo.State, n)
	}
	e.scratch = make(dynamo.State, n)
}

func (e *Explicit) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	e.ensureScratch(n)

	for s := range e.tab.B {
		copy(e.scratch, x)
		for j, a := range e.tab.A[s] {
			if a == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				e.scratch[i] += dt * a * e.k[j][i]
			}
		}
		copy(e.k[s], dyn.Derive(e.scratch, u, t+e.tab.C[s]*dt))
	}

	result := x.Clone()
	for s, b := range e.tab.B {
		if b == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			result[i] += dt * b * e.k[s][i]
		}
	}
	return result
}
