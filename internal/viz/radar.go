package viz

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrRadarShape = errors.New("viz: radar chart needs at least three axes with matching values")

// RadarChart draws each series as a closed polygon over len(labels) axes
// scaled to [0, scale]. size is the canvas height in cells; the width is
// doubled so the chart looks round in a terminal.
func RadarChart(labels []string, series [][]float64, scale float64, size int) (*Canvas, error) {
	n := len(labels)
	if n < 3 || scale <= 0 || size < 2 {
		return nil, ErrRadarShape
	}
	for _, s := range series {
		if len(s) != n {
			return nil, fmt.Errorf("%w: %d values for %d axes", ErrRadarShape, len(s), n)
		}
	}

	c := NewCanvas(size*2, size)
	cx, cy := float64(c.Width), float64(c.Height*2)
	radius := float64(c.Height*2) - 1

	point := func(axis int, r float64) (int, int) {
		angle := math.Pi/2 - 2*math.Pi*float64(axis)/float64(n)
		return int(math.Round(cx + r*math.Cos(angle))), int(math.Round(cy - r*math.Sin(angle)))
	}

	for i := range n {
		x, y := point(i, radius)
		c.DrawLine(int(cx), int(cy), x, y)
	}

	for _, s := range series {
		for i := range n {
			r0 := radius * clamp01(s[i]/scale)
			r1 := radius * clamp01(s[(i+1)%n]/scale)
			x0, y0 := point(i, r0)
			x1, y1 := point((i+1)%n, r1)
			c.DrawLine(x0, y0, x1, y1)
		}
	}
	return c, nil
}

// RadarLegend lists the axes in drawing order, clockwise from the top.
func RadarLegend(labels []string) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%d:%s", i+1, l)
	}
	return MetricLabel.Render("axes (clockwise from top) " + strings.Join(parts, "  "))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return min(v, 1)
}
