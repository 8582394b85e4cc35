package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/blsim/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds two state components of a run against each other.
type PhasePortrait struct {
	XIndex, YIndex int
	Points         []Point
}

// NewPhasePortrait collects (x[xIdx], x[yIdx]) from every recorded state.
func NewPhasePortrait(res *dynamo.Result, xIdx, yIdx int) *PhasePortrait {
	p := &PhasePortrait{XIndex: xIdx, YIndex: yIdx, Points: make([]Point, 0, len(res.States))}
	for _, x := range res.States {
		if xIdx >= len(x) || yIdx >= len(x) {
			continue
		}
		p.Points = append(p.Points, Point{X: x[xIdx], Y: x[yIdx]})
	}
	return p
}

// Stroboscopic samples component idx once per period, interpolating
// linearly between recorded times. A periodic steady state collapses onto a
// single value.
func Stroboscopic(tr dynamo.Trajectory, period float64) []float64 {
	if tr.Len() < 2 || period <= 0 {
		return nil
	}
	var out []float64
	j := 0
	end := tr.Times[tr.Len()-1]
	for k := 0; ; k++ {
		t := tr.Times[0] + float64(k)*period
		if t > end*(1+1e-12) {
			break
		}
		for j < tr.Len()-2 && tr.Times[j+1] < t {
			j++
		}
		t0, t1 := tr.Times[j], tr.Times[j+1]
		frac := 0.0
		if t1 > t0 {
			frac = math.Min(math.Max((t-t0)/(t1-t0), 0), 1)
		}
		out = append(out, tr.Values[j]+frac*(tr.Values[j+1]-tr.Values[j]))
	}
	return out
}

// ASCII renders the portrait into a width x height character grid.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := range canvas {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := range canvas[row] {
			canvas[row][col] = '─'
		}
	}

	for _, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		canvas[row][col] = '•'
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}
