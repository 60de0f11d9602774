// Package tui is the live observer view launched by the CLI's "watch"
// command: a bubbletea program that runs one solve in a background
// goroutine and renders its progress -- the current time and an
// asciigraph sparkline of a chosen state component while it runs, and
// the step, rejection, Newton-iteration and G-rebuild counts once it
// finishes; the current order and dt are not shown -- in the
// lipgloss-styled dashboard idiom the teacher
// repository's own live view (internal/viz.Model) uses.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/jangwj7/dae-cpp/internal/bdf"
	"github.com/jangwj7/dae-cpp/internal/dae"
)

const historyCapacity = 600

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
)

// stepUpdate is one accepted-step snapshot sent from the solve
// goroutine to the bubbletea program.
type stepUpdate struct {
	t        float64
	x        dae.State
	watchIdx int
}

type solveDoneMsg struct {
	result dae.Result
	err    error
}

type stepMsg stepUpdate

// Model is the bubbletea model for the watch command.
type Model struct {
	problemName string
	watchIdx    int
	updates     chan stepUpdate
	done        chan solveDoneMsg

	t        float64
	lastX    dae.State
	history  []float64
	finished bool
	result   dae.Result
	err      error

	start time.Time
}

// NewModel launches problem's solve in a background goroutine and
// returns a Model that watches its progress via an observer callback.
// watchIdx selects which state component the sparkline tracks.
func NewModel(problem dae.Residual, x0 dae.State, t1 float64, cfg dae.Config, watchIdx int) Model {
	updates := make(chan stepUpdate, 64)
	done := make(chan solveDoneMsg, 1)

	obs := dae.ObserverFunc(func(x dae.State, t float64) {
		updates <- stepUpdate{t: t, x: x.Clone(), watchIdx: watchIdx}
	})

	go func() {
		result, err := bdf.Solve(problem, x0.Clone(), t1, cfg, obs)
		close(updates)
		done <- solveDoneMsg{result: result, err: err}
	}()

	return Model{
		watchIdx: watchIdx,
		updates:  updates,
		done:     done,
		history:  make([]float64, 0, historyCapacity),
		start:    time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.updates, m.done)
}

func waitForUpdate(updates chan stepUpdate, done chan solveDoneMsg) tea.Cmd {
	return func() tea.Msg {
		select {
		case u, ok := <-updates:
			if ok {
				return stepMsg(u)
			}
			return solveDoneMsg(<-done)
		case d := <-done:
			return d
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case stepMsg:
		m.t = msg.t
		m.lastX = msg.x
		if msg.watchIdx < len(msg.x) {
			m.history = append(m.history, msg.x[msg.watchIdx])
			if len(m.history) > historyCapacity {
				m.history = m.history[1:]
			}
		}
		return m, waitForUpdate(m.updates, m.done)
	case solveDoneMsg:
		m.finished = true
		m.result = msg.result
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("dae solve") + "\n")

	status := "running"
	if m.finished {
		if m.err != nil {
			status = "failed"
		} else {
			status = "done"
		}
	}
	switch status {
	case "failed":
		s.WriteString(errorStyle.Render("FAILED: "+m.err.Error()) + "\n\n")
	case "done":
		s.WriteString(doneStyle.Render("DONE") + "\n\n")
	default:
		s.WriteString(valueStyle.Render("RUNNING") + "\n\n")
	}

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption(fmt.Sprintf("x[%d]", m.watchIdx)),
		)
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%g", m.t)) + "\n")
	if m.finished {
		s.WriteString(labelStyle.Render("Steps") + valueStyle.Render(fmt.Sprintf("%d", m.result.Counters.Steps)) + "\n")
		s.WriteString(labelStyle.Render("Rejections") + valueStyle.Render(fmt.Sprintf("%d", m.result.Counters.Rejections)) + "\n")
		s.WriteString(labelStyle.Render("Newton iters") + valueStyle.Render(fmt.Sprintf("%d", m.result.Counters.NewtonIterations)) + "\n")
		s.WriteString(labelStyle.Render("G rebuilds") + valueStyle.Render(fmt.Sprintf("%d", m.result.Counters.GRebuilds)) + "\n")
	}
	s.WriteString(labelStyle.Render("Wall time") + valueStyle.Render(time.Since(m.start).Round(10*time.Millisecond).String()) + "\n")

	s.WriteString(helpStyle.Render("q: quit"))
	return s.String()
}
