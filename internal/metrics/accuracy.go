package metrics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/blsim/internal/dynamo"
)

// TimeTolerance is the relative tolerance on sample times of compared
// trajectories.
const TimeTolerance = 1e-9

// ErrMisalignedTrajectory indicates trajectories that cannot be compared
// sample by sample.
var ErrMisalignedTrajectory = errors.New("metrics: misaligned trajectories")

// MisalignedTrajectoryError locates the mismatch. Index is -1 when the
// lengths differ.
type MisalignedTrajectoryError struct {
	LenA, LenB int
	Index      int
}

func (e *MisalignedTrajectoryError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("metrics: misaligned trajectories (lengths %d and %d)", e.LenA, e.LenB)
	}
	return fmt.Sprintf("metrics: misaligned trajectories at sample %d", e.Index)
}

func (e *MisalignedTrajectoryError) Is(target error) bool { return target == ErrMisalignedTrajectory }

// Accuracy compares a candidate trajectory against a reference.
type Accuracy struct {
	RMSE     float64 `json:"rmse"`
	RSquared float64 `json:"r_squared"`
	// RelativeErrorPercent is RMSE over the reference peak-to-peak range.
	RelativeErrorPercent float64 `json:"relative_error_percent"`
	Samples              int     `json:"samples"`
}

// Compare reports how closely b follows the reference a. Both must hold the
// same number of samples at the same times.
func Compare(a, b dynamo.Trajectory) (Accuracy, error) {
	if err := aligned(a, b); err != nil {
		return Accuracy{}, err
	}
	n := float64(a.Len())

	ssRes := 0.0
	for i, v := range a.Values {
		d := b.Values[i] - v
		ssRes += d * d
	}
	rmse := math.Sqrt(ssRes / n)

	mean := stat.Mean(a.Values, nil)
	ssTot := 0.0
	for _, v := range a.Values {
		ssTot += (v - mean) * (v - mean)
	}

	acc := Accuracy{RMSE: rmse, Samples: a.Len()}
	switch {
	case ssRes == 0:
		acc.RSquared = 1
	case ssTot == 0:
		acc.RSquared = math.Inf(-1)
	default:
		acc.RSquared = 1 - ssRes/ssTot
	}

	ptp := floats.Max(a.Values) - floats.Min(a.Values)
	switch {
	case rmse == 0:
		acc.RelativeErrorPercent = 0
	case ptp == 0:
		acc.RelativeErrorPercent = math.Inf(1)
	default:
		acc.RelativeErrorPercent = rmse / ptp * 100
	}
	return acc, nil
}

func aligned(a, b dynamo.Trajectory) error {
	la, lb := a.Len(), b.Len()
	if la != lb || la == 0 || len(a.Times) != la || len(b.Times) != lb {
		return &MisalignedTrajectoryError{LenA: la, LenB: lb, Index: -1}
	}
	for i, ta := range a.Times {
		tb := b.Times[i]
		if math.Abs(ta-tb) > TimeTolerance*math.Max(math.Abs(ta), math.Abs(tb)) {
			return &MisalignedTrajectoryError{LenA: la, LenB: lb, Index: i}
		}
	}
	return nil
}

// SpeedRatio is how many times faster candidate ran than reference.
func SpeedRatio(reference, candidate time.Duration) float64 {
	if reference <= 0 {
		return 0
	}
	if candidate <= 0 {
		return math.Inf(1)
	}
	return float64(reference) / float64(candidate)
}
