// Package export writes charts as standalone SVG documents.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/repressilator/internal/dataset"
	"github.com/san-kum/repressilator/internal/viz"
)

// Stroke colors for successive series.
var palette = []string{"#ff00ff", "#00ffff", "#ffcc00", "#00ff88", "#ff4444"}

// braille dot bits indexed by [row][col]
var dotBits = [4][2]int{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// CanvasSVG converts a Braille canvas to an SVG of dots, scale pixels per dot.
func CanvasSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	header(&sb, width, height)
	sb.WriteString(`<g fill="#00ff00">` + "\n")

	r := scale * 0.4
	for row := range canvas.Height {
		for col := range canvas.Width {
			pattern := int(canvas.Grid[row][col] - 0x2800)
			if pattern <= 0 {
				continue
			}
			for dy := range 4 {
				for dx := range 2 {
					if pattern&dotBits[dy][dx] == 0 {
						continue
					}
					cx := (float64(col*2+dx) + 0.5) * scale
					cy := (float64(row*4+dy) + 0.5) * scale
					fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, r)
				}
			}
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// TrajectorySVG draws one polyline per species, all sharing the table's
// time axis and a common concentration axis.
func TrajectorySVG(w io.Writer, t *dataset.Table, species []string, width, height int) error {
	if len(species) == 0 {
		species = t.Species
	}
	if t.Rows() < 2 {
		return dataset.ErrTooFewRows
	}

	cols := make([][]float64, len(species))
	lo, hi := 0.0, 0.0
	for i, name := range species {
		col, err := t.Column(name)
		if err != nil {
			return err
		}
		cols[i] = col
		for _, v := range col {
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	t0, t1 := t.Times[0], t.Times[len(t.Times)-1]

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	for i, col := range cols {
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, palette[i%len(palette)])
		for k, v := range col {
			x := (t.Times[k] - t0) / (t1 - t0) * float64(width)
			y := float64(height) - (v-lo)/(hi-lo)*float64(height)
			cmd := "L"
			if k == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&sb, "%s%.1f,%.1f ", cmd, x, y)
		}
		sb.WriteString(`"/>` + "\n")
		fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>`+"\n",
			16*(i+1), palette[i%len(palette)], species[i])
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}
