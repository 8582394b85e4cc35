package experiment

import (
	"go.uber.org/zap"

	"github.com/san-kum/blsim/internal/dynamo"
	"github.com/san-kum/blsim/internal/physics"
)

// cycleProgress logs the membrane state at the end of every acoustic cycle.
type cycleProgress struct {
	logger   *zap.Logger
	perCycle int
	samples  int
}

func newCycleProgress(logger *zap.Logger, samplesPerCycle int) *cycleProgress {
	return &cycleProgress{logger: logger, perCycle: samplesPerCycle}
}

func (p *cycleProgress) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	// Sample 0 is the initial state.
	n := p.samples
	p.samples++
	if n == 0 || n%p.perCycle != 0 {
		return
	}
	p.logger.Debug("cycle completed",
		zap.Int("cycle", n/p.perCycle),
		zap.Float64("t_us", t*1e6),
		zap.Float64("z_nm", x[physics.IdxDeflection]*1e9),
		zap.Float64("ng_mol", x[physics.IdxGas]))
}
