package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/repressilator/internal/analysis"
	"github.com/san-kum/repressilator/internal/dataset"
)

// TrajectoryPlot charts the named species of a table over time. An empty
// species list plots every column.
func TrajectoryPlot(t *dataset.Table, species []string, width, height int, caption string) (string, error) {
	if len(species) == 0 {
		species = t.Species
	}
	data := make([][]float64, 0, len(species))
	colors := make([]asciigraph.AnsiColor, 0, len(species))
	legend := make([]string, 0, len(species))
	for i, name := range species {
		col, err := t.Column(name)
		if err != nil {
			return "", err
		}
		data = append(data, col)
		colors = append(colors, CurrentTheme.seriesColor(i))
		legend = append(legend, legendStyle(colors[i]).Render("■")+" "+name)
	}
	if len(data) == 0 || len(data[0]) == 0 {
		return "", dataset.ErrTooFewRows
	}

	graph := asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	)
	return graph + "\n" + strings.Join(legend, "   "), nil
}

func legendStyle(c asciigraph.AnsiColor) lipgloss.Style {
	if c == asciigraph.Default {
		return lipgloss.NewStyle().Foreground(CurrentTheme.Text)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprint(int(c))))
}

// HistogramChart renders counts as horizontal bars labelled by bin range.
func HistogramChart(counts, edges []float64, width int) string {
	peak := 0.0
	for _, c := range counts {
		peak = max(peak, c)
	}
	bar := lipgloss.NewStyle().Foreground(CurrentTheme.Primary)

	var b strings.Builder
	for i, c := range counts {
		n := 0
		if peak > 0 {
			n = int(c / peak * float64(width))
		}
		label := fmt.Sprintf("[%9.4g, %9.4g)", edges[i], edges[i+1])
		fmt.Fprintf(&b, "%s %s %s\n",
			MetricLabel.Render(label),
			bar.Render(strings.Repeat("█", n)),
			Subtle.Render(fmt.Sprintf("%.0f", c)))
	}
	return b.String()
}

// SummaryTable lays out per-parameter statistics with the interval bounds
// labelled by their confidence level.
func SummaryTable(summaries []analysis.Summary, level float64) string {
	lo := fmt.Sprintf("%.1f%%", 50*(1-level))
	hi := fmt.Sprintf("%.1f%%", 100-50*(1-level))

	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.Name,
			fmt.Sprintf("%.4g", s.Mean),
			fmt.Sprintf("%.4g", s.Std),
			fmt.Sprintf("%.4g", s.Median),
			fmt.Sprintf("%.4g", s.Lower),
			fmt.Sprintf("%.4g", s.Upper),
			fmt.Sprintf("%d", s.N),
		}
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Accent).Padding(0, 1)
	cell := lipgloss.NewStyle().Foreground(CurrentTheme.Text).Padding(0, 1)
	name := cell.Foreground(CurrentTheme.Primary)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(CurrentTheme.Muted)).
		Headers("parameter", "mean", "std", "median", lo, hi, "n").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 0:
				return name
			}
			return cell
		}).
		String()
}
