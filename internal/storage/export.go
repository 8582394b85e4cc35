package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/san-kum/blsim/internal/dynamo"
)

// ExportData is the JSON form of a run.
type ExportData struct {
	Meta     RunMetadata `json:"meta"`
	Steps    int         `json:"steps"`
	Times    []float64   `json:"times"`
	States   [][]float64 `json:"states"`
	Controls [][]float64 `json:"controls"`
}

func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	meta.Metrics = finiteMetrics(result.Metrics)
	data := ExportData{
		Meta:     meta,
		Steps:    len(result.Times),
		Times:    result.Times,
		States:   make([][]float64, len(result.States)),
		Controls: make([][]float64, len(result.Controls)),
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	for i, c := range result.Controls {
		data.Controls[i] = c
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// WriteCSV writes one row per recorded sample: time, states, then controls.
// Columns names the state components; missing names become x0, x1, ...
// Control columns are always named u0, u1, ...
func WriteCSV(w io.Writer, result *dynamo.Result, columns []string) error {
	cw := csv.NewWriter(w)
	if len(result.States) == 0 {
		cw.Flush()
		return cw.Error()
	}

	header := []string{"time"}
	for i := range result.States[0] {
		if i < len(columns) && columns[i] != "" {
			header = append(header, columns[i])
		} else {
			header = append(header, fmt.Sprintf("x%d", i))
		}
	}
	numControls := 0
	if len(result.Controls) > 0 {
		numControls = len(result.Controls[0])
	}
	for i := 0; i < numControls; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for i := range result.States {
		row = append(row[:0], strconv.FormatFloat(result.Times[i], 'g', -1, 64))
		for _, v := range result.States[i] {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		for j := 0; j < numControls; j++ {
			v := 0.0
			if i < len(result.Controls) && j < len(result.Controls[i]) {
				v = result.Controls[i][j]
			}
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// finiteMetrics drops NaN and Inf values, which JSON cannot carry.
func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}
