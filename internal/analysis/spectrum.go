package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/blsim/internal/dynamo"
)

var (
	ErrTooShort   = errors.New("analysis: trajectory too short")
	ErrNonUniform = errors.New("analysis: trajectory is not uniformly sampled")
)

// PowerSpectrum returns one-sided amplitude spectrum |X_k| for k in [0, n/2]
// after removing the mean.
func PowerSpectrum(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	mean := stat.Mean(values, nil)
	centered := make([]float64, len(values))
	for i, v := range values {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	out := make([]float64, len(coeffs)/2+1)
	for i := range out {
		out[i] = cmplx.Abs(coeffs[i])
	}
	return out
}

// SampleInterval returns the constant spacing of tr's time axis.
func SampleInterval(tr dynamo.Trajectory) (float64, error) {
	n := len(tr.Times)
	if n < 4 || tr.Len() != n {
		return 0, fmt.Errorf("%w: %d samples", ErrTooShort, n)
	}
	dt := (tr.Times[n-1] - tr.Times[0]) / float64(n-1)
	if !(dt > 0) {
		return 0, ErrNonUniform
	}
	for i := 1; i < n; i++ {
		if math.Abs(tr.Times[i]-tr.Times[i-1]-dt) > 1e-6*dt {
			return 0, fmt.Errorf("%w: gap at sample %d", ErrNonUniform, i)
		}
	}
	return dt, nil
}

// DominantFrequency returns the frequency of the largest non-DC spectral
// peak, refined by parabolic interpolation between neighbouring bins.
func DominantFrequency(tr dynamo.Trajectory) (float64, error) {
	dt, err := SampleInterval(tr)
	if err != nil {
		return 0, err
	}
	ps := PowerSpectrum(tr.Values)
	n := len(tr.Values)

	k := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[k] {
			k = i
		}
	}
	if ps[k] == 0 {
		return 0, nil
	}

	shift := 0.0
	if k > 0 && k < len(ps)-1 {
		a, b, c := ps[k-1], ps[k], ps[k+1]
		if den := a - 2*b + c; den != 0 {
			shift = 0.5 * (a - c) / den
		}
	}
	return (float64(k) + shift) / (float64(n) * dt), nil
}

// Harmonics returns the spectral amplitude nearest to each multiple
// 1..count of f0, normalized by the sample count.
func Harmonics(tr dynamo.Trajectory, f0 float64, count int) ([]float64, error) {
	dt, err := SampleInterval(tr)
	if err != nil {
		return nil, err
	}
	ps := PowerSpectrum(tr.Values)
	n := float64(len(tr.Values))

	out := make([]float64, count)
	for h := 1; h <= count; h++ {
		k := int(math.Round(float64(h) * f0 * n * dt))
		if k < len(ps) {
			out[h-1] = 2 * ps[k] / n
		}
	}
	return out, nil
}
