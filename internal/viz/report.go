package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/blsim/internal/experiment"
	"github.com/san-kum/blsim/internal/fitting"
	"github.com/san-kum/blsim/internal/pressure"
)

// Report renders summaries with one theme.
type Report struct {
	title lipgloss.Style
	panel lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	good  lipgloss.Style
	bad   lipgloss.Style
}

func NewReport(t Theme) *Report {
	return &Report{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		label: lipgloss.NewStyle().Foreground(t.Muted).Width(22),
		value: lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		good:  lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		bad:   lipgloss.NewStyle().Foreground(t.Error).Bold(true),
	}
}

type row struct {
	label string
	value string
	// ok is nil for rows without a pass/fail judgement.
	ok *bool
}

func check(v bool) *bool { return &v }

func (r *Report) section(title string, rows []row) string {
	var b strings.Builder
	b.WriteString(r.title.Render(title))
	b.WriteString("\n")
	for _, rw := range rows {
		style := r.value
		if rw.ok != nil {
			style = r.bad
			if *rw.ok {
				style = r.good
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, r.label.Render(rw.label), style.Render(rw.value)))
		b.WriteString("\n")
	}
	return r.panel.Render(strings.TrimRight(b.String(), "\n"))
}

// Fit renders fitted surrogate parameters and their quality. minR2 marks the
// acceptance threshold.
func (r *Report) Fit(p pressure.Parameters, rep fitting.Report, minR2 float64) string {
	return r.section("surrogate fit", []row{
		{label: "amplitude", value: fmt.Sprintf("%.4g kPa", p.Amplitude*1e-3)},
		{label: "reference distance", value: fmt.Sprintf("%.4g nm", p.ReferenceDistance*1e9)},
		{label: "exponents", value: fmt.Sprintf("x=%.4g  y=%.4g", p.ExponentHigh, p.ExponentLow)},
		{label: "offset", value: fmt.Sprintf("%.4g nm", p.Offset*1e9)},
		{label: "charge", value: fmt.Sprintf("%.4g nC/cm2", p.Charge*1e5)},
		{label: "range", value: fmt.Sprintf("[%.4g, %.4g] nm", p.ZMin*1e9, p.ZMax*1e9)},
		{label: "samples", value: fmt.Sprintf("%d (grid %d)", rep.Samples, rep.GridPoints)},
		{label: "iterations", value: fmt.Sprintf("%d %s", rep.Iterations, rep.Status)},
		{label: "pressure RMSE", value: fmt.Sprintf("%.4g Pa", rep.RMSE)},
		{label: "pressure R²", value: fmt.Sprintf("%.6f", rep.RSquared), ok: check(rep.RSquared >= minR2)},
		{label: "elapsed", value: rep.Elapsed.Round(time.Microsecond).String()},
	})
}

// Run renders one simulated mode.
func (r *Report) Run(run *experiment.RunResult) string {
	res := run.Result
	rows := []row{
		{label: "mode", value: run.Mode.String()},
		{label: "samples", value: fmt.Sprintf("%d", len(res.States))},
		{label: "steps", value: fmt.Sprintf("%d (%d rejected)", res.StepsTaken, res.Rejected)},
		{label: "wall time", value: run.Elapsed.Round(time.Microsecond).String()},
		{label: "peak deflection", value: fmt.Sprintf("%.4g nm", res.Metrics["peak_deflection"]*1e9)},
		{label: "min deflection", value: fmt.Sprintf("%.4g nm", res.Metrics["min_deflection"]*1e9)},
		{label: "cycle drift", value: fmt.Sprintf("%.3g%%", res.Metrics["cycle_drift"]*100)},
	}
	if cov, ok := res.Metrics["fit_coverage"]; ok {
		rows = append(rows, row{label: "fit coverage", value: fmt.Sprintf("%.1f%%", cov*100), ok: check(cov >= 0.99)})
	}
	if run.Clamped > 0 {
		rows = append(rows, row{label: "contact clamps", value: fmt.Sprintf("%d", run.Clamped), ok: check(false)})
	}
	return r.section(run.Mode.String()+" run", rows)
}

// Comparison renders the accuracy of the predicted run against the direct one.
func (r *Report) Comparison(cmp *experiment.Comparison) string {
	acc := cmp.Accuracy
	summary := r.section("deflection accuracy", []row{
		{label: "samples", value: fmt.Sprintf("%d", acc.Samples)},
		{label: "RMSE", value: fmt.Sprintf("%.4g nm", acc.RMSE*1e9), ok: check(acc.RMSE < 0.05e-9)},
		{label: "R²", value: formatFloat(acc.RSquared, "%.6f"), ok: check(acc.RSquared >= 0.999)},
		{label: "relative error", value: formatFloat(acc.RelativeErrorPercent, "%.3g%%")},
		{label: "direct wall time", value: cmp.Direct.Elapsed.Round(time.Microsecond).String()},
		{label: "predicted wall time", value: cmp.Predicted.Elapsed.Round(time.Microsecond).String()},
		{label: "speed-up", value: formatFloat(cmp.SpeedRatio, "%.1fx"), ok: check(cmp.SpeedRatio > 1)},
	})
	runs := lipgloss.JoinHorizontal(lipgloss.Top, r.Run(cmp.Direct), " ", r.Run(cmp.Predicted))
	return lipgloss.JoinVertical(lipgloss.Left, runs, summary)
}

func formatFloat(v float64, format string) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf(format, v)
}
