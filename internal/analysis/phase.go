package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/repressilator/internal/dataset"
)

// Point is a location in a two-species phase plane.
type Point struct{ X, Y float64 }

// PhasePortrait holds the trajectory of one species against another.
type PhasePortrait struct {
	XName, YName string
	Points       []Point
}

// NewPhasePortrait reads the XName and YName columns of a simulated table.
// Dropping the first skip rows removes the transient.
func NewPhasePortrait(table *dataset.Table, xName, yName string, skip int) (*PhasePortrait, error) {
	xs, err := table.Column(xName)
	if err != nil {
		return nil, err
	}
	ys, err := table.Column(yName)
	if err != nil {
		return nil, err
	}
	if skip < 0 || skip >= len(xs) {
		return nil, fmt.Errorf("analysis: cannot skip %d of %d rows", skip, len(xs))
	}

	portrait := &PhasePortrait{XName: xName, YName: yName, Points: make([]Point, 0, len(xs)-skip)}
	for i := skip; i < len(xs); i++ {
		portrait.Points = append(portrait.Points, Point{X: xs[i], Y: ys[i]})
	}
	return portrait, nil
}

// PhasePortraitToASCII draws the portrait on a width x height character
// canvas, followed by a line with the axis ranges.
func PhasePortraitToASCII(portrait *PhasePortrait, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	lo, hi := portrait.Points[0], portrait.Points[0]
	for _, p := range portrait.Points[1:] {
		lo.X, hi.X = min(lo.X, p.X), max(hi.X, p.X)
		lo.Y, hi.Y = min(lo.Y, p.Y), max(hi.Y, p.Y)
	}
	spanX, spanY := hi.X-lo.X, hi.Y-lo.Y
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	for _, p := range portrait.Points {
		col := int((p.X - lo.X) / spanX * float64(width-1))
		row := height - 1 - int((p.Y-lo.Y)/spanY*float64(height-1))
		canvas[row][col] = '•'
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	fmt.Fprintf(&sb, "%s: [%.4g, %.4g]  %s: [%.4g, %.4g]\n",
		portrait.XName, lo.X, hi.X, portrait.YName, lo.Y, hi.Y)
	return sb.String()
}
