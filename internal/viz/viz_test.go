package viz

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/repressilator/internal/analysis"
	"github.com/san-kum/repressilator/internal/dataset"
)

func TestCanvasSetAndLine(t *testing.T) {
	c := NewCanvas(4, 2)
	if got := len(c.Grid); got != 2 {
		t.Fatalf("expected 2 rows, got %d", got)
	}

	c.Set(0, 0)
	if c.Grid[0][0] != brailleBlank+0x1 {
		t.Errorf("expected first dot set, got %U", c.Grid[0][0])
	}
	c.Set(-1, 3)
	c.Set(100, 0)

	c.DrawLine(0, 7, 7, 0)
	for i := 0; i <= 7; i++ {
		if !c.IsSet(i, 7-i) {
			t.Errorf("diagonal dot (%d,%d) not set", i, 7-i)
		}
	}

	c.Clear()
	for _, row := range c.Grid {
		for _, r := range row {
			if r != brailleBlank {
				t.Fatalf("canvas not cleared: %U", r)
			}
		}
	}
	if lines := strings.Count(c.String(), "\n"); lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
}

func TestRadarChart(t *testing.T) {
	labels := []string{"n", "tau_mRNA", "ps_a", "ps_0"}
	c, err := RadarChart(labels, [][]float64{{5, 5, 5, 5}}, 5, 6)
	if err != nil {
		t.Fatalf("radar failed: %v", err)
	}
	cx, cy := c.Width, c.Height*2
	radius := c.Height*2 - 1
	if !c.IsSet(cx, cy-radius) {
		t.Error("expected the top axis tip to be drawn")
	}
	if !c.IsSet(cx, cy) {
		t.Error("expected the center to be drawn")
	}

	if _, err := RadarChart(labels[:2], nil, 5, 6); !errors.Is(err, ErrRadarShape) {
		t.Errorf("expected ErrRadarShape, got %v", err)
	}
	if _, err := RadarChart(labels, [][]float64{{1, 2}}, 5, 6); !errors.Is(err, ErrRadarShape) {
		t.Errorf("expected ErrRadarShape for short series, got %v", err)
	}
	if !strings.Contains(RadarLegend(labels), "2:tau_mRNA") {
		t.Error("legend should number axes")
	}
}

func TestTrajectoryPlot(t *testing.T) {
	table := &dataset.Table{
		Species: []string{"PX", "PY"},
		Times:   []float64{0, 1, 2, 3},
		Values:  [][]float64{{0, 3}, {1, 2}, {2, 1}, {3, 0}},
	}
	out, err := TrajectoryPlot(table, nil, 20, 5, "proteins")
	if err != nil {
		t.Fatalf("plot failed: %v", err)
	}
	for _, want := range []string{"proteins", "PX", "PY"} {
		if !strings.Contains(out, want) {
			t.Errorf("plot missing %q", want)
		}
	}

	if _, err := TrajectoryPlot(table, []string{"PZ"}, 20, 5, ""); !errors.Is(err, dataset.ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestHistogramAndSummaryTable(t *testing.T) {
	chart := HistogramChart([]float64{1, 4, 2}, []float64{0, 1, 2, 3}, 8)
	if got := strings.Count(chart, "\n"); got != 3 {
		t.Errorf("expected 3 bars, got %d", got)
	}
	if !strings.Contains(chart, "████████") {
		t.Error("tallest bar should span the full width")
	}

	out := SummaryTable([]analysis.Summary{{Name: "ps_a", N: 200, Mean: 0.5}}, 0.95)
	for _, want := range []string{"ps_a", "2.5%", "97.5%", "200"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestSparklineAndProgress(t *testing.T) {
	if got := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8); got != "▁▂▃▄▅▆▇█" {
		t.Errorf("unexpected sparkline %q", got)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("unexpected empty sparkline %q", got)
	}
	if !strings.Contains(ProgressBar(0.5, 10), "█████░░░░░") {
		t.Error("half progress bar should be half filled")
	}
	sep := Separator(20)
	if !strings.Contains(sep, "◆") || strings.Count(sep, "─") != 14 {
		t.Errorf("unexpected separator %q", sep)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != ThemeCyberpunk.Name {
		t.Error("unknown theme should fall back to default")
	}
	SetTheme("retro")
	defer SetTheme("cyberpunk")
	if CurrentTheme.Name != "retro" {
		t.Errorf("expected retro, got %s", CurrentTheme.Name)
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names mismatch")
	}
}
