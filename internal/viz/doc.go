// Package viz renders simulation results for the terminal: styled reports
// with lipgloss and trajectory plots with asciigraph.
package viz
