package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/repressilator/internal/estimation"
)

func progressFor(t *testing.T, done, attempts int, x ...float64) ProgressMsg {
	t.Helper()
	spec, err := estimation.NewParameterSpec([]string{"n", "ps_a"}, map[string]estimation.Range{
		"n":    {Lower: 1, Initial: 2, Upper: 4},
		"ps_a": {Lower: 0.1, Initial: 0.5, Upper: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	v, err := spec.Values(x)
	if err != nil {
		t.Fatal(err)
	}
	return ProgressMsg{Done: done, Total: 4, Attempts: attempts, Values: v}
}

func TestModelTracksProgress(t *testing.T) {
	var m tea.Model = NewModel([]string{"n", "ps_a"}, 4, nil)

	m, _ = m.Update(progressFor(t, 1, 1, 2.5, 0.4))
	m, _ = m.Update(progressFor(t, 2, 3, 3.5, 0.6))

	got := m.(Model)
	if got.done != 2 || got.attempts != 4 || got.rejected != 2 {
		t.Errorf("unexpected counters done=%d attempts=%d rejected=%d", got.done, got.attempts, got.rejected)
	}
	if got.latest["n"] != 3.5 || len(got.history["ps_a"]) != 2 {
		t.Errorf("unexpected latest %v history %v", got.latest, got.history)
	}

	view := got.View()
	for _, want := range []string{"2/4", "3.5", "ps_a"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelQuitCancels(t *testing.T) {
	canceled := false
	var m tea.Model = NewModel([]string{"n"}, 1, func() { canceled = true })

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !canceled {
		t.Error("quitting should cancel the run")
	}
	if cmd != nil {
		t.Error("program should wait for the run to return")
	}

	boom := errors.New("boom")
	m, cmd = m.Update(DoneMsg{Err: boom})
	if cmd == nil {
		t.Fatal("done should quit the program")
	}
	if _, err := m.(Model).Result(); !errors.Is(err, boom) {
		t.Errorf("expected run error, got %v", err)
	}
	if !strings.Contains(m.View(), "failed") {
		t.Error("view should report the failure")
	}
}
