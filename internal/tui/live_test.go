package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/sim"
)

func newSim(t *testing.T) *sim.Simulation {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Bodies = 32
	cfg.Backend = compute.NameOptim
	s, err := sim.New(cfg)
	if err != nil {
		t.Fatalf("failed to create simulation: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestModel_StepsUntilDone(t *testing.T) {
	s := newSim(t)
	var m tea.Model = NewModel(s, 10, 4, 2)

	for k := 0; k < 5; k++ {
		var cmd tea.Cmd
		m, cmd = m.Update(TickMsg(time.Now()))
		if cmd == nil {
			t.Fatal("expected next tick")
		}
	}

	lm := m.(Model)
	if !lm.Done() {
		t.Fatal("expected model to be done")
	}
	if s.Iteration() != 10 {
		t.Errorf("expected 10 iterations, got %d", s.Iteration())
	}
	if got := len(lm.Drift().Series()); got != 5 {
		t.Errorf("expected 5 energy samples, got %d", got)
	}
	r := lm.Result()
	if r.Iterations != 10 || r.Final.N() != 32 {
		t.Errorf("unexpected result: %d iterations, %d bodies", r.Iterations, r.Final.N())
	}
	if _, ok := r.Metrics["energy_drift"]; !ok {
		t.Error("expected energy_drift in result metrics")
	}
	if !strings.Contains(lm.View(), "done") {
		t.Error("expected view to report completion")
	}
}

func TestModel_Pause(t *testing.T) {
	s := newSim(t)
	var m tea.Model = NewModel(s, 10, 1, 1)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m, _ = m.Update(TickMsg(time.Now()))
	if s.Iteration() != 0 {
		t.Errorf("expected no steps while paused, got %d", s.Iteration())
	}
	if !strings.Contains(m.View(), "paused") {
		t.Error("expected view to report pause")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m.Update(TickMsg(time.Now()))
	if s.Iteration() != 1 {
		t.Errorf("expected 1 step after resume, got %d", s.Iteration())
	}
}

func TestModel_Quit(t *testing.T) {
	s := newSim(t)
	m := NewModel(s, 10, 1, 1)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModel_StepErrorQuits(t *testing.T) {
	s := newSim(t)
	m := NewModel(s, 10, 1, 1)
	s.Close()

	next, cmd := m.Update(TickMsg(time.Now()))
	if next.(Model).Err() == nil {
		t.Fatal("expected step error after close")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(0, 10); strings.Count(got, "█") != 0 {
		t.Errorf("expected empty bar, got %q", got)
	}
	if got := progressBar(10, 10); strings.Count(got, "█") != barWidth {
		t.Errorf("expected full bar, got %q", got)
	}
	if progressBar(1, 0) != "" {
		t.Error("expected no bar without total")
	}
}
