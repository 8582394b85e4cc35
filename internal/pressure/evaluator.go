package pressure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/blsim/internal/bls"
)

type Mode int

const (
	Direct Mode = iota
	Predicted
)

func (m Mode) String() string {
	switch m {
	case Direct:
		return "direct"
	case Predicted:
		return "predicted"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct", "":
		return Direct, nil
	case "predicted", "predict", "surrogate":
		return Predicted, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// SurrogateSource looks up fitted models. Implementations return an error
// matching ErrMissingSurrogate when no model exists for the pair.
type SurrogateSource interface {
	Surrogate(g bls.Geometry, charge float64) (*SurrogateModel, error)
}

// Evaluator is the single pressure entry point of the mechanical model. The
// mode is fixed at construction.
type Evaluator struct {
	mode     Mode
	membrane bls.Membrane
	direct   *DirectIntegrator
	model    *SurrogateModel
}

// NewEvaluator builds an evaluator for membrane m. Predicted mode resolves its
// model from src up front and fails when none has been fitted; it never falls
// back to direct integration.
func NewEvaluator(mode Mode, m bls.Membrane, direct *DirectIntegrator, src SurrogateSource) (*Evaluator, error) {
	e := &Evaluator{mode: mode, membrane: m}

	switch mode {
	case Direct:
		if direct == nil {
			direct = NewDirectIntegrator(DefaultNodes)
		}
		e.direct = direct
	case Predicted:
		if src == nil {
			return nil, &MissingSurrogateError{Geometry: m.Geometry, Charge: m.Charge}
		}
		model, err := src.Surrogate(m.Geometry, m.Charge)
		if err != nil {
			if errors.Is(err, ErrMissingSurrogate) {
				return nil, err
			}
			return nil, fmt.Errorf("pressure: surrogate lookup: %w", err)
		}
		if model == nil {
			return nil, &MissingSurrogateError{Geometry: m.Geometry, Charge: m.Charge}
		}
		e.model = model
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}

	return e, nil
}

func (e *Evaluator) Mode() Mode             { return e.mode }
func (e *Evaluator) Membrane() bls.Membrane { return e.membrane }
func (e *Evaluator) Model() *SurrogateModel { return e.model }

// Evaluate returns P_M at center deflection z.
func (e *Evaluator) Evaluate(z float64) (float64, error) {
	if e.mode == Predicted {
		return e.model.Evaluate(z)
	}
	return e.direct.Evaluate(z, e.membrane)
}
