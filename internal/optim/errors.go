package optim

import "errors"

var (
	// ErrNoConvergence indicates the iteration limit was reached.
	ErrNoConvergence = errors.New("optim: iteration limit reached")

	// ErrNoBracket indicates f(lo) and f(hi) have the same sign.
	ErrNoBracket = errors.New("optim: root not bracketed")

	// ErrNonFinite indicates the objective produced NaN or Inf at the start point.
	ErrNonFinite = errors.New("optim: non-finite objective")

	// ErrNoCandidate indicates no grid point produced a usable cost.
	ErrNoCandidate = errors.New("optim: no valid grid candidate")
)
