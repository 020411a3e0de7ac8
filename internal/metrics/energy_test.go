package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
)

func twoBodies(t *testing.T) *body.Store {
	t.Helper()
	st, err := body.New(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	st.Set(0, body.Body{M: 1, VY: -0.5})
	st.Set(1, body.Body{M: 1, QX: 1, VY: 0.5})
	return st
}

func TestEnergy_TwoBodies(t *testing.T) {
	st := twoBodies(t)
	soft := 0.035

	kinetic := 2 * 0.5 * 0.25
	potential := -1 / math.Sqrt(1+soft*soft)
	expected := kinetic + potential

	if got := Energy(st, 1, soft); math.Abs(got-expected) > 1e-9 {
		t.Errorf("expected energy %f, got %f", expected, got)
	}
}

func TestMomentum(t *testing.T) {
	st := twoBodies(t)
	p := Momentum(st)
	if p != [3]float64{0, 0, 0} {
		t.Errorf("expected zero momentum, got %v", p)
	}

	st.Set(0, body.Body{M: 2, VX: 3})
	if p := Momentum(st); p[0] != 6 {
		t.Errorf("expected px 6, got %v", p[0])
	}
}

func TestMomentumRate_SymmetricBackend(t *testing.T) {
	st, _ := body.New(128, 0)
	if err := body.Generate(st, body.SchemeRandom, dynamo.DefaultG, 9); err != nil {
		t.Fatal(err)
	}
	acc, err := compute.Snapshot(compute.NameOptim, compute.Options{}, st, dynamo.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	rate := MomentumRate(st, acc)
	var scale float64
	masses := st.Masses()
	for i, m := range masses {
		a := acc.At(i)
		scale += float64(m) * math.Sqrt(float64(a[0]*a[0]+a[1]*a[1]+a[2]*a[2]))
	}
	for k, r := range rate {
		if math.Abs(r)/scale > 1e-4 {
			t.Errorf("component %d: momentum rate %g not negligible against %g", k, r, scale)
		}
	}
}

func runTwoBody(t *testing.T, iterations int, observers ...sim.Observer) *sim.Result {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Backend = compute.NameOptim
	cfg.Params = dynamo.Params{G: 1, Soft: 0.035, Dt: 0.001}

	s, err := sim.NewWithBodies(cfg, twoBodies(t))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	result, err := s.Run(context.Background(), iterations, observers...)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestEnergyDrift(t *testing.T) {
	drift := NewEnergyDrift(10)
	result := runTwoBody(t, 100, drift)

	if len(drift.Series()) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(drift.Series()))
	}
	if drift.Iterations()[0] != 10 || drift.Iterations()[9] != 100 {
		t.Errorf("unexpected sample iterations %v", drift.Iterations())
	}
	if v := result.Metrics["energy_drift"]; v != drift.Value() {
		t.Errorf("expected result metric %v, got %v", drift.Value(), v)
	}
	if drift.Value() > 1e-2 {
		t.Errorf("energy drift %v too large for a small step", drift.Value())
	}
}

func TestMomentumDrift(t *testing.T) {
	m := NewMomentumDrift()
	runTwoBody(t, 200, m)
	if m.Value() > 1e-5 {
		t.Errorf("expected conserved momentum, got drift %v", m.Value())
	}
}

func TestStability(t *testing.T) {
	s := NewStability()
	if s.Value() != 1 {
		t.Errorf("expected 1 before sampling, got %v", s.Value())
	}
	runTwoBody(t, 50, s)
	if s.Value() != 1 {
		t.Errorf("expected stable run, got %v", s.Value())
	}
}
