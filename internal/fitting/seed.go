package fitting

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/blsim/internal/optim"
)

var (
	highExponents = span(3, 12, 0.25)
	lowExponents  = span(0.5, 6, 0.1)
)

func span(lo, hi, step float64) []float64 {
	n := int(math.Round((hi-lo)/step)) + 1
	out := make([]float64, n)
	floats.Span(out, lo, hi)
	return out
}

var errNoSeed = errors.New("no attractive-repulsive solution")

// seedParameters grid-searches the exponent pair. For fixed (x, y) the model
// p̂ = a1·ĝ^-x + a2·ĝ^-y is linear, so the coefficients come from a least
// squares solve and map back to Â, D when a1 > 0 > a2.
func seedParameters(ctx context.Context, gs, pn []float64) ([]float64, int, error) {
	n := len(gs)
	design := mat.NewDense(n, 2, nil)
	target := mat.NewVecDense(n, pn)
	var coef mat.VecDense
	var resid mat.VecDense

	gridSearch := optim.NewGridSearch(
		[]string{"x", "y"},
		[][]float64{highExponents, lowExponents},
	)

	linear := func(x, y float64) (a1, a2, cost float64, err error) {
		if x-y < 0.2 {
			return 0, 0, 0, errNoSeed
		}
		for i, g := range gs {
			design.Set(i, 0, math.Pow(g, -x))
			design.Set(i, 1, math.Pow(g, -y))
		}
		if err := coef.SolveVec(design, target); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return 0, 0, 0, err
			}
		}
		a1, a2 = coef.AtVec(0), coef.AtVec(1)
		if !(a1 > 0) || !(a2 < 0) {
			return 0, 0, 0, errNoSeed
		}
		resid.MulVec(design, &coef)
		resid.SubVec(&resid, target)
		return a1, a2, mat.Dot(&resid, &resid), nil
	}

	best, _, err := gridSearch.Search(ctx, func(p map[string]float64) (float64, error) {
		_, _, cost, err := linear(p["x"], p["y"])
		return cost, err
	})
	if err != nil {
		return nil, gridSearch.Points(), err
	}

	x, y := best["x"], best["y"]
	a1, a2, _, err := linear(x, y)
	if err != nil {
		return nil, gridSearch.Points(), err
	}
	dist := math.Pow(-a1/a2, 1/(x-y))
	amp := a1 / math.Pow(dist, x)
	return []float64{amp, dist, x, y}, gridSearch.Points(), nil
}
