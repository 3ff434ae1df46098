// Package tui shows live Monte Carlo progress in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/repressilator/internal/estimation"
	"github.com/san-kum/repressilator/internal/viz"
)

const (
	barWidth     = 40
	sparkWidth   = 30
	historyLimit = 400
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ProgressMsg carries one accepted iteration into the program.
type ProgressMsg estimation.Progress

// DoneMsg ends the program with the run's outcome.
type DoneMsg struct {
	Table *estimation.Table
	Err   error
}

type tickMsg time.Time

// Model is the bubbletea model of a running Monte Carlo study.
type Model struct {
	names    []string
	total    int
	done     int
	attempts int
	rejected int
	latest   map[string]float64
	history  map[string][]float64
	started  time.Time
	frame    int
	cancel   context.CancelFunc

	result *estimation.Table
	err    error
	quit   bool
}

// NewModel tracks a run of total iterations over the named parameters.
// cancel is called when the user quits early.
func NewModel(names []string, total int, cancel context.CancelFunc) Model {
	history := make(map[string][]float64, len(names))
	for _, n := range names {
		history[n] = nil
	}
	return Model{
		names:   append([]string(nil), names...),
		total:   total,
		latest:  make(map[string]float64, len(names)),
		history: history,
		started: time.Now(),
		cancel:  cancel,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.quit = true
			return m, nil
		}
	case ProgressMsg:
		m.done = msg.Done
		m.attempts += msg.Attempts
		m.rejected += msg.Attempts - 1
		for name, v := range msg.Values.Map() {
			m.latest[name] = v
			h := append(m.history[name], v)
			if len(h) > historyLimit {
				h = h[1:]
			}
			m.history[name] = h
		}
	case DoneMsg:
		m.result, m.err = msg.Table, msg.Err
		return m, tea.Quit
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	status := cyan.Render(spinner[m.frame%len(spinner)] + " monte carlo")
	switch {
	case m.err != nil:
		status = red.Render("✗ failed: " + m.err.Error())
	case m.result != nil:
		status = green.Render("✓ finished")
	case m.quit:
		status = yellow.Render("… stopping")
	}
	b.WriteString(status + "\n\n")

	frac := 0.0
	if m.total > 0 {
		frac = float64(m.done) / float64(m.total)
	}
	fmt.Fprintf(&b, "%s %s\n", viz.ProgressBar(frac, barWidth), white.Render(fmt.Sprintf("%d/%d", m.done, m.total)))

	elapsed := time.Since(m.started).Round(time.Second)
	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n\n",
		dim.Render("elapsed"), white.Render(elapsed.String()),
		dim.Render("attempts"), white.Render(fmt.Sprint(m.attempts)),
		dim.Render("rejected"), yellow.Render(fmt.Sprint(m.rejected)))

	for _, name := range m.names {
		v, ok := m.latest[name]
		val := "-"
		if ok {
			val = fmt.Sprintf("%.4g", v)
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			viz.MetricLabel.Width(12).Render(name),
			viz.MetricValue.Width(12).Render(val),
			viz.Sparkline(m.history[name], sparkWidth))
	}

	b.WriteString("\n" + viz.KeyHint.Render("q: stop"))
	return b.String()
}

// Result returns the outcome delivered by DoneMsg.
func (m Model) Result() (*estimation.Table, error) {
	return m.result, m.err
}

// Run drives run inside a bubbletea program, forwarding its progress to the
// display, and returns once run does. The observer passed to run must be
// installed on the estimator; quitting the display cancels run's context.
func Run(ctx context.Context, names []string, total int, run func(context.Context, estimation.Observer) (*estimation.Table, error)) (*estimation.Table, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(names, total, cancel))
	go func() {
		table, err := run(ctx, estimation.ObserverFunc(func(pr estimation.Progress) {
			p.Send(ProgressMsg(pr))
		}))
		p.Send(DoneMsg{Table: table, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(Model).Result()
}
