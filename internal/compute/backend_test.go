package compute

import (
	"errors"
	"testing"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/dynamo"
)

func TestNew_Names(t *testing.T) {
	for _, name := range Names() {
		b, err := New(name, Options{})
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if b.Name() != name {
			t.Errorf("expected name %q, got %q", name, b.Name())
		}
	}

	if _, err := New("cpu+magic", Options{}); !errors.Is(err, dynamo.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestPolicy_Flops(t *testing.T) {
	tests := []struct {
		policy Policy
		n      int
		want   float64
	}{
		{Symmetric, 1, 0},
		{Symmetric, 4, 180},
		{Full, 1, 20},
		{Full, 4, 320},
	}
	for _, tt := range tests {
		if got := tt.policy.Flops(tt.n); got != tt.want {
			t.Errorf("%s flops for n=%d: expected %v, got %v", tt.policy, tt.n, tt.want, got)
		}
	}
}

func TestBackend_Policies(t *testing.T) {
	expected := map[string]Policy{
		NameOptim:   Symmetric,
		NamePar:     Symmetric,
		NameSIMD:    Full,
		NameSIMDPar: Full,
		NameGPU:     Full,
	}
	for name, want := range expected {
		b, _ := New(name, Options{})
		if b.Policy() != want {
			t.Errorf("%s: expected %s, got %s", name, want, b.Policy())
		}
		if b.FlopsPerIteration(10) != want.Flops(10) {
			t.Errorf("%s: flops disagree with policy", name)
		}
	}
}

func TestAttach_Validation(t *testing.T) {
	st, _ := body.New(4, 4)
	p := dynamo.DefaultParams()

	for _, name := range Names() {
		b, _ := New(name, Options{})
		if err := b.Attach(st, body.NewAccelerations(4), p); !errors.Is(err, dynamo.ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument for short buffer, got %v", name, err)
		}
		bad := p
		bad.Soft = 0
		if err := b.Attach(st, body.NewAccelerations(8), bad); !errors.Is(err, dynamo.ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument for zero softening, got %v", name, err)
		}
		b.Close()
	}
}

func TestDetectLaneWidth(t *testing.T) {
	switch w := DetectLaneWidth(); w {
	case 4, 8, 16:
	default:
		t.Errorf("unexpected lane width %d", w)
	}
	if Lanes().Width != DetectLaneWidth() {
		t.Error("lane info disagrees with detected width")
	}
}

func TestLaneRow_MatchesScalar(t *testing.T) {
	st, _ := body.New(37, 0)
	if err := body.Generate(st, body.SchemeRandom, 1, 5); err != nil {
		t.Fatal(err)
	}
	d := st.SoA()
	soft2 := float32(0.01)

	ref := body.NewAccelerations(st.Len())
	for i := 0; i < st.N(); i++ {
		ref.AX[i], ref.AY[i], ref.AZ[i] = fullRow(d, i, 0, st.Len(), soft2)
	}

	for _, width := range []int{4, 8, 16} {
		r := newLaneRegs(width)
		got := body.NewAccelerations(st.Len())
		for i := 0; i < st.N(); i++ {
			got.AX[i], got.AY[i], got.AZ[i] = laneRow(d, i, st.Len(), width, 1, soft2, r)
		}
		if e := MaxRelativeError(ref, got, st.N()); e > 1e-4 {
			t.Errorf("width %d: lane loop deviates from scalar loop by %v", width, e)
		}
	}
}

func TestParallel_MergeClearsPrivateBuffers(t *testing.T) {
	st, _ := body.New(50, 0)
	if err := body.Generate(st, body.SchemeRandom, dynamo.DefaultG, 2); err != nil {
		t.Fatal(err)
	}
	p := NewParallel(Options{Workers: 3, Chunk: 4})
	acc := body.NewAccelerations(st.Len())
	if err := p.Attach(st, acc, dynamo.DefaultParams()); err != nil {
		t.Fatal(err)
	}

	p.Reset()
	p.Accumulate()
	first := acc.Clone()
	p.Reset()
	p.Accumulate()

	if MaxRelativeError(first, acc, st.N()) > 1e-5 {
		t.Error("second iteration on identical state differs; private buffers leaked state")
	}
	for w, l := range p.local {
		for i := range l.AX {
			if l.AX[i] != 0 || l.AY[i] != 0 || l.AZ[i] != 0 {
				t.Fatalf("worker %d buffer not cleared at %d", w, i)
			}
		}
	}
}

func TestMaxRelativeError(t *testing.T) {
	ref := body.NewAccelerations(2)
	got := body.NewAccelerations(2)
	ref.AX[0], ref.AX[1] = 2, 1
	got.AX[0], got.AX[1] = 2, 1.5

	if e := MaxRelativeError(ref, got, 2); e != 0.25 {
		t.Errorf("expected 0.25, got %v", e)
	}
	if e := MaxRelativeError(ref, got, 1); e != 0 {
		t.Errorf("expected 0, got %v", e)
	}
}
