package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/blsim/internal/dynamo"
)

// PlotOptions sizes a terminal plot. Scale multiplies every value, e.g. 1e9
// to plot meters as nanometers.
type PlotOptions struct {
	Width   int
	Height  int
	Scale   float64
	Caption string
}

func DefaultPlotOptions(caption string) PlotOptions {
	return PlotOptions{Width: 80, Height: 12, Scale: 1, Caption: caption}
}

func scaled(values []float64, k float64) []float64 {
	if k == 0 {
		k = 1
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * k
	}
	return out
}

// Plot draws one trajectory against sample index.
func Plot(tr dynamo.Trajectory, opts PlotOptions) string {
	if tr.Len() == 0 {
		return ""
	}
	return asciigraph.Plot(scaled(tr.Values, opts.Scale),
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(opts.Caption),
	)
}

// Overlay draws a reference and a candidate trajectory on shared axes.
func Overlay(reference, candidate dynamo.Trajectory, opts PlotOptions) string {
	if reference.Len() == 0 || candidate.Len() == 0 {
		return ""
	}
	return asciigraph.PlotMany(
		[][]float64{scaled(reference.Values, opts.Scale), scaled(candidate.Values, opts.Scale)},
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(opts.Caption),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
		asciigraph.SeriesLegends("direct", "predicted"),
	)
}

// Spectrum draws the low-frequency quarter of a power spectrum.
func Spectrum(power []float64, opts PlotOptions) string {
	if len(power) < 4 {
		return ""
	}
	return asciigraph.Plot(scaled(power[:len(power)/4], opts.Scale),
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(opts.Caption),
	)
}
