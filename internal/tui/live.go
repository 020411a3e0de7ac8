// Package tui renders a live dashboard for a running simulation.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	frameRate  = 30
	graphWidth = 60
	barWidth   = 40
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model steps a simulation on every frame and draws its progress.
type Model struct {
	s             *sim.Simulation
	total         int
	stepsPerFrame int
	drift         *metrics.EnergyDrift

	running bool
	elapsed time.Duration
	err     error
}

// NewModel prepares a dashboard running total iterations of s,
// stepsPerFrame at a time. driftEvery is the energy sampling interval.
func NewModel(s *sim.Simulation, total, stepsPerFrame, driftEvery int) Model {
	drift := metrics.NewEnergyDrift(max(driftEvery, 1))
	drift.Reset(s)
	return Model{
		s:             s,
		total:         total,
		stepsPerFrame: max(stepsPerFrame, 1),
		drift:         drift,
		running:       true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		}
	case TickMsg:
		if m.running && !m.Done() {
			m.step()
		}
		if m.err != nil {
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	for k := 0; k < m.stepsPerFrame && !m.Done(); k++ {
		start := time.Now()
		if err := m.s.Step(); err != nil {
			m.err = err
			return
		}
		m.elapsed += time.Since(start)
		m.drift.OnStep(m.s.Iteration(), m.s)
	}
}

// Done reports whether every iteration has run.
func (m Model) Done() bool { return m.s.Iteration() >= m.total }

// Err returns the step error that stopped the dashboard, if any.
func (m Model) Err() error { return m.err }

// Drift returns the energy drift recorded so far.
func (m Model) Drift() *metrics.EnergyDrift { return m.drift }

// Result summarizes the iterations run so far.
func (m Model) Result() *sim.Result {
	fps, gflops := m.throughput()
	return &sim.Result{
		Backend:    m.s.Backend().Name(),
		Iterations: m.s.Iteration(),
		Elapsed:    m.elapsed,
		FPS:        fps,
		Gflops:     gflops,
		Metrics:    map[string]float64{m.drift.Name(): m.drift.Value()},
		Final:      m.s.Bodies().Clone(),
	}
}

func (m Model) throughput() (fps, gflops float64) {
	secs := m.elapsed.Seconds()
	if secs == 0 {
		return 0, 0
	}
	fps = float64(m.s.Iteration()) / secs
	return fps, fps * m.s.FlopsPerIteration() / 1e9
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("gravsim %s", m.s.Backend().Name())))
	b.WriteString("\n")

	it := m.s.Iteration()
	fps, gflops := m.throughput()
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}
	row("bodies", humanize.Comma(int64(m.s.N())))
	row("iteration", fmt.Sprintf("%d/%d %s", it, m.total, progressBar(it, m.total)))
	row("fps", fmt.Sprintf("%.2f", fps))
	row("throughput", humanize.SIWithDigits(gflops*1e9, 2, "flop/s"))
	row("energy drift", fmt.Sprintf("%.3e", m.drift.Value()))

	if series := m.drift.Series(); len(series) > 1 {
		graph := asciigraph.Plot(series,
			asciigraph.Height(8),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("relative energy drift"))
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render(m.err.Error()))
		b.WriteString("\n")
	case m.Done():
		b.WriteString(valueStyle.Render("done"))
		b.WriteString("\n")
	case !m.running:
		b.WriteString(valueStyle.Render("paused"))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("space pause  q quit"))
	return b.String()
}

func progressBar(done, total int) string {
	if total <= 0 {
		return ""
	}
	filled := min(done*barWidth/total, barWidth)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

// Run shows the dashboard until the user quits and returns the final model.
func Run(m Model) (Model, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return m, err
	}
	fm := final.(Model)
	return fm, fm.err
}
