package fitting

import (
	"errors"
	"fmt"
)

var (
	// ErrFitConvergence indicates the surrogate fit is unusable.
	ErrFitConvergence = errors.New("fitting: surrogate fit did not converge")

	// ErrInvalidRange indicates a deflection range that is empty or reaches contact.
	ErrInvalidRange = errors.New("fitting: invalid deflection range")
)

// FitConvergenceError reports why a fit was rejected. Err holds the
// optimizer error, if any.
type FitConvergenceError struct {
	Iterations int
	Cost       float64
	Reason     string
	Err        error
}

func (e *FitConvergenceError) Error() string {
	return fmt.Sprintf("fitting: %s after %d iterations (cost %.4g)", e.Reason, e.Iterations, e.Cost)
}

func (e *FitConvergenceError) Is(target error) bool { return target == ErrFitConvergence }

func (e *FitConvergenceError) Unwrap() error { return e.Err }
