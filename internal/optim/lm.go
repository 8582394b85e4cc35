package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Problem is a nonlinear least-squares problem: minimize 0.5*||r(x)||^2.
type Problem struct {
	NumResiduals int
	// Residuals writes r(x) into dst, which has length NumResiduals.
	Residuals func(x, dst []float64)
	// Jacobian writes dr_i/dx_j into dst (NumResiduals x len(x)). When nil
	// a forward-difference approximation is used.
	Jacobian func(x []float64, dst *mat.Dense)
}

type LMSettings struct {
	MaxIterations int
	// FTol stops when the relative cost reduction of an accepted step is below it.
	FTol float64
	// XTol stops when ||dx|| <= XTol*(||x|| + XTol).
	XTol float64
	// GTol stops when the gradient infinity norm is below it.
	GTol          float64
	InitialLambda float64
}

func DefaultLMSettings() LMSettings {
	return LMSettings{
		MaxIterations: 500,
		FTol:          1e-12,
		XTol:          1e-12,
		GTol:          1e-14,
		InitialLambda: 1e-3,
	}
}

type Status int

const (
	StatusFTol Status = iota
	StatusXTol
	StatusGTol
	// StatusStalled means no damping level could lower the cost any further.
	StatusStalled
)

func (s Status) String() string {
	switch s {
	case StatusFTol:
		return "ftol"
	case StatusXTol:
		return "xtol"
	case StatusGTol:
		return "gtol"
	case StatusStalled:
		return "stalled"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type LMResult struct {
	X          []float64
	Cost       float64
	Iterations int
	Status     Status
}

const maxLambda = 1e16

// LevenbergMarquardt minimizes the problem from x0 using Marquardt's scaled
// damping (J^T J + lambda*diag(J^T J)) dx = -J^T r. When the iteration limit is reached
// the best point so far is returned together with ErrNoConvergence.
func LevenbergMarquardt(ctx context.Context, p Problem, x0 []float64, s LMSettings) (*LMResult, error) {
	n := len(x0)
	m := p.NumResiduals
	if n == 0 || m < n {
		return nil, fmt.Errorf("optim: need at least as many residuals (%d) as parameters (%d)", m, n)
	}

	x := append([]float64(nil), x0...)
	r := make([]float64, m)
	p.Residuals(x, r)
	cost := 0.5 * floats.Dot(r, r)
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return nil, ErrNonFinite
	}

	jac := mat.NewDense(m, n, nil)
	var jtj mat.SymDense
	grad := mat.NewVecDense(n, nil)
	damped := mat.NewDense(n, n, nil)
	var step mat.VecDense

	xNew := make([]float64, n)
	rNew := make([]float64, m)
	lambda := s.InitialLambda
	if lambda <= 0 {
		lambda = 1e-3
	}

	res := &LMResult{X: x, Cost: cost}

	for iter := 1; iter <= s.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Iterations = iter

		if p.Jacobian != nil {
			p.Jacobian(x, jac)
		} else {
			forwardJacobian(p, x, r, jac)
		}

		jtj.SymOuterK(1, jac.T())
		grad.MulVec(jac.T(), mat.NewVecDense(m, r))
		if floats.Norm(grad.RawVector().Data, math.Inf(1)) <= s.GTol {
			res.Status = StatusGTol
			return res, nil
		}

		diagFloor := 0.0
		for j := 0; j < n; j++ {
			diagFloor = math.Max(diagFloor, jtj.At(j, j))
		}
		diagFloor *= 1e-12

		accepted := false
		for lambda < maxLambda {
			damped.Copy(&jtj)
			for j := 0; j < n; j++ {
				d := math.Max(jtj.At(j, j), diagFloor)
				damped.Set(j, j, jtj.At(j, j)+lambda*d)
			}

			if err := step.SolveVec(damped, grad); err != nil {
				// An ill-conditioned system still yields a usable step.
				var cond mat.Condition
				if !errors.As(err, &cond) {
					lambda *= 10
					continue
				}
			}

			for j := 0; j < n; j++ {
				xNew[j] = x[j] - step.AtVec(j)
			}
			p.Residuals(xNew, rNew)
			costNew := 0.5 * floats.Dot(rNew, rNew)

			if math.IsNaN(costNew) || costNew >= cost {
				lambda *= 4
				continue
			}

			accepted = true
			reduction := cost - costNew
			stepNorm := floats.Norm(step.RawVector().Data, 2)
			xNorm := floats.Norm(x, 2)

			copy(x, xNew)
			copy(r, rNew)
			cost = costNew
			res.Cost = cost
			lambda = math.Max(lambda/3, 1e-12)

			if reduction <= s.FTol*cost {
				res.Status = StatusFTol
				return res, nil
			}
			if stepNorm <= s.XTol*(xNorm+s.XTol) {
				res.Status = StatusXTol
				return res, nil
			}
			break
		}

		if !accepted {
			res.Status = StatusStalled
			return res, nil
		}
	}

	return res, fmt.Errorf("%w: levenberg-marquardt after %d iterations (cost %g)",
		ErrNoConvergence, s.MaxIterations, cost)
}

func forwardJacobian(p Problem, x, r []float64, dst *mat.Dense) {
	m, n := dst.Dims()
	xh := append([]float64(nil), x...)
	rh := make([]float64, m)
	for j := 0; j < n; j++ {
		h := 1.49e-8 * math.Max(math.Abs(x[j]), 1)
		xh[j] = x[j] + h
		p.Residuals(xh, rh)
		for i := 0; i < m; i++ {
			dst.Set(i, j, (rh[i]-r[i])/h)
		}
		xh[j] = x[j]
	}
}
